// Package v1alpha1 contains API types for the Netboard kiosk system.
package v1alpha1

// TypeMeta names the kind and schema version of a wire object so
// clients can route records without guessing
type TypeMeta struct {
	Kind       string `json:"kind,omitempty"`
	APIVersion string `json:"apiVersion,omitempty"`
}

// TimeRange is a daily clock window in "HH:MM" form. Start is
// inclusive, End exclusive, and a Start at or after End wraps the
// window past midnight.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

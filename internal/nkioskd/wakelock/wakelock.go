// Package wakelock abstracts the platform display-stay-awake capability.
// Platforms without the capability use the Unsupported implementation so
// the controller never special-cases them.
package wakelock

import (
	"context"
	"errors"
)

// ErrUnsupported indicates the platform cannot hold a wake lock
var ErrUnsupported = errors.New("wake lock unsupported on this platform")

// Locker grants the stay-awake resource
type Locker interface {
	// Acquire requests the resource. The returned handle stays valid
	// until released or revoked by the platform.
	Acquire(ctx context.Context) (Handle, error)
}

// Handle is one granted wake lock
type Handle interface {
	// Release gives the resource back; safe to call more than once
	Release() error

	// Done is closed when the grant ends for any reason, including
	// external revocation
	Done() <-chan struct{}
}

// Unsupported is the no-op locker for platforms without the capability
type Unsupported struct{}

// Acquire always fails with ErrUnsupported
func (Unsupported) Acquire(ctx context.Context) (Handle, error) {
	return nil, ErrUnsupported
}

// Package bolt persists the two kiosk settings keys in a local BoltDB
// file: the operator PIN and the sleep schedule.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/errors"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/kiosk"
)

var (
	bucketSettings = []byte("settings")
	keyPIN         = []byte("pin")
	keySchedule    = []byte("schedule")
)

// scheduleRecord is the stored form of a schedule
type scheduleRecord struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Store implements kiosk.SettingsRepository using BoltDB.
type Store struct {
	db *bbolt.DB
}

// NewStore opens or creates the settings database.
func NewStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSettings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// LoadPIN retrieves the stored operator PIN
func (s *Store) LoadPIN(ctx context.Context) (string, error) {
	var pin string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSettings)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketSettings)
		}
		data := b.Get(keyPIN)
		if data == nil {
			return fmt.Errorf("pin: %w", errors.ErrNotFound)
		}
		pin = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return pin, nil
}

// SavePIN persists a new operator PIN
func (s *Store) SavePIN(ctx context.Context, pin string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSettings)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketSettings)
		}
		return b.Put(keyPIN, []byte(pin))
	})
}

// LoadSchedule retrieves the stored sleep schedule
func (s *Store) LoadSchedule(ctx context.Context) (kiosk.Schedule, error) {
	var rec scheduleRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSettings)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketSettings)
		}
		data := b.Get(keySchedule)
		if data == nil {
			return fmt.Errorf("schedule: %w", errors.ErrNotFound)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return kiosk.Schedule{}, err
	}
	return kiosk.Schedule{
		Enabled: rec.Enabled,
		Start:   rec.Start,
		End:     rec.End,
	}, nil
}

// SaveSchedule persists the sleep schedule
func (s *Store) SaveSchedule(ctx context.Context, schedule kiosk.Schedule) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSettings)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketSettings)
		}
		data, err := json.Marshal(scheduleRecord{
			Enabled: schedule.Enabled,
			Start:   schedule.Start,
			End:     schedule.End,
		})
		if err != nil {
			return err
		}
		return b.Put(keySchedule, data)
	})
}

// Close releases the database file
func (s *Store) Close() error {
	return s.db.Close()
}

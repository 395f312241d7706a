// Package postgres reads the device feed straight from the Netboard
// database for deployments where the kiosk host and the dashboard share
// a machine. SELECT only; the dashboard owns the schema.
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/devices"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/errors"
)

// Source implements devices.Source over the dashboard's device table
type Source struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSource creates a database-backed device source
func NewSource(db *sql.DB, logger *slog.Logger) *Source {
	return &Source{db: db, logger: logger}
}

// FetchDevices retrieves the device list in the dashboard's own order
func (s *Source) FetchDevices(ctx context.Context) ([]devices.Device, error) {
	const op = "DeviceSource.FetchDevices"

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, ip_address, location, status, cpu_usage
		FROM devices
		ORDER BY id
	`)
	if err != nil {
		s.logger.Error("failed to query devices",
			"error", err,
			"operation", op,
		)
		return nil, mapError(err, op)
	}
	defer rows.Close()

	var list []devices.Device
	for rows.Next() {
		var d devices.Device
		var status string
		var cpu sql.NullFloat64

		if err := rows.Scan(&d.Name, &d.IP, &d.Location, &status, &cpu); err != nil {
			s.logger.Error("failed to scan device row",
				"error", err,
				"operation", op,
			)
			return nil, mapError(err, op)
		}

		d.Status = devices.ParseStatus(status)
		d.CPUUsage = cpu.Float64
		list = append(list, d)
	}

	if err := rows.Err(); err != nil {
		s.logger.Error("error iterating device rows",
			"error", err,
			"operation", op,
		)
		return nil, mapError(err, op)
	}

	return list, nil
}

// FetchStats derives the fleet aggregate from the same rows the grid
// shows, so the header can never disagree with the list.
func (s *Source) FetchStats(ctx context.Context) (devices.Stats, error) {
	list, err := s.FetchDevices(ctx)
	if err != nil {
		return devices.Stats{}, err
	}
	return devices.ComputeStats(list), nil
}

// mapError converts database errors to domain errors
func mapError(err error, op string) error {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return errors.NewError(
			"STORAGE_ERROR",
			fmt.Sprintf("database error %s", pqErr.Code),
			op,
			err,
		)
	}
	return errors.NewError("STORAGE_ERROR", "database error", op, err)
}

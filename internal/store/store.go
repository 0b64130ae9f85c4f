// Package store persists clients and appointments.
//
// Two implementations share the same contract: Postgres (pgx) for production
// and Memory for development and tests. Both enforce the same uniqueness
// rules at the storage layer: unique client email and dni, and at most one
// non-cancelled appointment per (date, time).
package store

import (
	"context"

	"appointment-booking-api/internal/model"
)

type Repository interface {
	CreateClient(ctx context.Context, c *model.Client) error
	GetClient(ctx context.Context, id string) (*model.Client, error)
	// LockClient reads the client and holds it against concurrent writers,
	// including appointment inserts that reference it, until the enclosing
	// transaction ends.
	LockClient(ctx context.Context, id string) (*model.Client, error)
	ClientByEmail(ctx context.Context, email string) (*model.Client, error)
	ClientByDNI(ctx context.Context, dni string) (*model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	UpdateClient(ctx context.Context, id string, p model.ClientPatch) (*model.Client, error)
	// DeleteClient removes the client together with its appointment history.
	DeleteClient(ctx context.Context, id string) error

	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, p model.AppointmentPatch) (*model.Appointment, error)
	SetAppointmentStatus(ctx context.Context, id, status string) (*model.Appointment, error)
	// FindAppointmentAt returns nil when no appointment outside excludeStatus
	// occupies the slot.
	FindAppointmentAt(ctx context.Context, d model.Date, t model.Clock, excludeStatus string) (*model.Appointment, error)
	CountCancelledSince(ctx context.Context, clientID string, since model.Date) (int, error)
	CountActiveForClient(ctx context.Context, clientID string) (int, error)
	OccupiedTimes(ctx context.Context, d model.Date, excludeStatus string) ([]model.Clock, error)
}

// Store is a Repository that can run a unit of work atomically. The
// Repository handed to fn is only valid until fn returns; the unit is
// committed when fn returns nil and rolled back otherwise.
type Store interface {
	Repository
	InTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error
}

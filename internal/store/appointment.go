package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"appointment-booking-api/internal/model"
)

const appointmentColumns = `id, slot_date, slot_time, status, client_id, created_at, updated_at`

func scanAppointment(row scanner) (*model.Appointment, error) {
	a := &model.Appointment{}
	var (
		day time.Time
		at  pgtype.Time
	)
	if err := row.Scan(&a.ID, &day, &at, &a.Status, &a.ClientID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	a.Date = model.DateOf(day)
	a.Time = clockFromPG(at)
	return a, nil
}

func (s *Postgres) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO appointments (id, slot_date, slot_time, status, client_id)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING created_at, updated_at`,
		a.ID, pgDate(a.Date), pgClock(a.Time), a.Status, a.ClientID,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return mapErr(err)
}

func (s *Postgres) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	return scanAppointment(s.db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
}

func (s *Postgres) ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE TRUE`
	var args []any
	if f.Date != nil {
		args = append(args, pgDate(*f.Date))
		q += ` AND slot_date = $1`
	}
	if f.ClientID != "" {
		args = append(args, f.ClientID)
		if len(args) == 1 {
			q += ` AND client_id = $1`
		} else {
			q += ` AND client_id = $2`
		}
	}
	q += ` ORDER BY slot_date, slot_time, created_at`

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateAppointment(ctx context.Context, id string, p model.AppointmentPatch) (*model.Appointment, error) {
	a, err := scanAppointment(s.db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	p.Apply(a)

	err = s.db.QueryRow(ctx,
		`UPDATE appointments
		 SET slot_date=$1, slot_time=$2, status=$3, client_id=$4, updated_at=NOW()
		 WHERE id=$5
		 RETURNING updated_at`,
		pgDate(a.Date), pgClock(a.Time), a.Status, a.ClientID, a.ID,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (s *Postgres) SetAppointmentStatus(ctx context.Context, id, status string) (*model.Appointment, error) {
	return scanAppointment(s.db.QueryRow(ctx,
		`UPDATE appointments SET status=$1, updated_at=NOW()
		 WHERE id=$2
		 RETURNING `+appointmentColumns, status, id))
}

func (s *Postgres) FindAppointmentAt(ctx context.Context, d model.Date, t model.Clock, excludeStatus string) (*model.Appointment, error) {
	a, err := scanAppointment(s.db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE slot_date = $1 AND slot_time = $2 AND status <> $3
		 ORDER BY created_at
		 LIMIT 1`, pgDate(d), pgClock(t), excludeStatus))
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

func (s *Postgres) CountCancelledSince(ctx context.Context, clientID string, since model.Date) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments
		 WHERE client_id = $1 AND status = $2 AND slot_date >= $3`,
		clientID, model.StatusCancelled, pgDate(since),
	).Scan(&n)
	return n, err
}

func (s *Postgres) CountActiveForClient(ctx context.Context, clientID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE client_id = $1 AND status <> $2`,
		clientID, model.StatusCancelled,
	).Scan(&n)
	return n, err
}

func (s *Postgres) OccupiedTimes(ctx context.Context, d model.Date, excludeStatus string) ([]model.Clock, error) {
	rows, err := s.db.Query(ctx,
		`SELECT slot_time FROM appointments
		 WHERE slot_date = $1 AND status <> $2
		 ORDER BY slot_time`, pgDate(d), excludeStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Clock
	for rows.Next() {
		var at pgtype.Time
		if err := rows.Scan(&at); err != nil {
			return nil, err
		}
		out = append(out, clockFromPG(at))
	}
	return out, rows.Err()
}

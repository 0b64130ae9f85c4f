package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"appointment-booking-api/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Postgres is the pgx backed Store. Outside a transaction db is the pool,
// inside InTx it is the pgx.Tx.
type Postgres struct {
	pool *pgxpool.Pool
	db   querier
}

func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, db: pool}
}

func (s *Postgres) InTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	if s.pool == nil {
		// already inside a transaction
		return fn(ctx, s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &Postgres{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Migrate applies the embedded schema files in name order. Every statement
// is idempotent so it is safe to run on each start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrations.ReadFile("migrations/" + name)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		log.Printf("migration %s applied", name)
	}
	return nil
}

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// mapErr turns driver errors into model errors. Unique violations that race
// past the application level checks end up here.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		switch pgErr.ConstraintName {
		case "appointments_active_slot_key":
			return fmt.Errorf("slot is already booked: %w", model.ErrSlotConflict)
		case "clients_email_key":
			return fmt.Errorf("a client with this email already exists: %w", model.ErrConflict)
		case "clients_dni_key":
			return fmt.Errorf("a client with this dni already exists: %w", model.ErrConflict)
		}
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, model.ErrConflict)
	case codeForeignKeyViolation:
		return fmt.Errorf("client: %w", model.ErrNotFound)
	}
	return err
}

func pgDate(d model.Date) time.Time {
	return d.Time()
}

func pgClock(c model.Clock) pgtype.Time {
	return pgtype.Time{Microseconds: c.Duration().Microseconds(), Valid: true}
}

func clockFromPG(t pgtype.Time) model.Clock {
	return model.Clock(time.Duration(t.Microseconds) * time.Microsecond / time.Minute)
}

package store_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/store"
)

// backends returns every store the contract tests should run against.
// Postgres joins only when DATABASE_URL is set.
func backends(t *testing.T) map[string]store.Store {
	t.Helper()
	out := map[string]store.Store{"memory": store.NewMemory()}

	_ = godotenv.Load("../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return out
	}
	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := store.Migrate(context.Background(), pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	out["postgres"] = store.New(pool)
	return out
}

func newClient(t *testing.T, ctx context.Context, st store.Repository) *model.Client {
	t.Helper()
	id := uuid.New().String()
	c := &model.Client{
		ID:        id,
		Name:      "Store Client",
		Email:     id + "@example.com",
		DNI:       "dni-" + id,
		BirthDate: model.Date{Year: 1991, Month: time.July, Day: 9},
		Enabled:   true,
	}
	require.NoError(t, st.CreateClient(ctx, c))
	return c
}

// uniqueDay keeps postgres runs from colliding with rows left by earlier runs.
func uniqueDay() model.Date {
	n := int(uuid.New().ID() % 20000)
	return model.Date{Year: 2100, Month: time.January, Day: 1}.AddDays(n)
}

func newAppointment(clientID string, d model.Date, at model.Clock, status string) *model.Appointment {
	return &model.Appointment{ID: uuid.New().String(), Date: d, Time: at, Status: status, ClientID: clientID}
}

func TestClientRoundTrip(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClient(t, ctx, st)

			got, err := st.GetClient(ctx, c.ID)
			require.NoError(t, err)
			assert.Equal(t, c.Email, got.Email)
			assert.Equal(t, c.BirthDate, got.BirthDate)
			assert.Nil(t, got.Phone)

			byEmail, err := st.ClientByEmail(ctx, c.Email)
			require.NoError(t, err)
			assert.Equal(t, c.ID, byEmail.ID)

			_, err = st.GetClient(ctx, uuid.New().String())
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestClientUniqueConstraints(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClient(t, ctx, st)

			dup := *c
			dup.ID = uuid.New().String()
			dup.DNI = "dni-" + dup.ID
			assert.ErrorIs(t, st.CreateClient(ctx, &dup), model.ErrConflict)

			dup.Email = dup.ID + "@example.com"
			dup.DNI = c.DNI
			assert.ErrorIs(t, st.CreateClient(ctx, &dup), model.ErrConflict)
		})
	}
}

func TestClientPatchUntouchedFields(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClient(t, ctx, st)
			phone := "555-0199"

			got, err := st.UpdateClient(ctx, c.ID, model.ClientPatch{Phone: model.Some(&phone)})
			require.NoError(t, err)
			require.NotNil(t, got.Phone)
			assert.Equal(t, phone, *got.Phone)
			assert.Equal(t, c.Name, got.Name)
			assert.True(t, got.Enabled)

			_, err = st.UpdateClient(ctx, uuid.New().String(), model.ClientPatch{})
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestActiveSlotUniqueness(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClient(t, ctx, st)
			day := uniqueDay()
			at := model.ClockOf(10, 0)

			first := newAppointment(c.ID, day, at, model.StatusPending)
			require.NoError(t, st.CreateAppointment(ctx, first))

			err := st.CreateAppointment(ctx, newAppointment(c.ID, day, at, model.StatusConfirmed))
			assert.ErrorIs(t, err, model.ErrSlotConflict)

			// cancelled rows never block
			require.NoError(t, st.CreateAppointment(ctx, newAppointment(c.ID, day, at, model.StatusCancelled)))

			_, err = st.SetAppointmentStatus(ctx, first.ID, model.StatusCancelled)
			require.NoError(t, err)
			assert.NoError(t, st.CreateAppointment(ctx, newAppointment(c.ID, day, at, model.StatusPending)))
		})
	}
}

func TestAppointmentQueries(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClient(t, ctx, st)
			day := uniqueDay()

			live := newAppointment(c.ID, day, model.ClockOf(11, 30), model.StatusConfirmed)
			require.NoError(t, st.CreateAppointment(ctx, live))
			require.NoError(t, st.CreateAppointment(ctx, newAppointment(c.ID, day, model.ClockOf(9, 0), model.StatusPending)))
			require.NoError(t, st.CreateAppointment(ctx, newAppointment(c.ID, day, model.ClockOf(12, 0), model.StatusCancelled)))
			require.NoError(t, st.CreateAppointment(ctx, newAppointment(c.ID, day.AddDays(-400), model.ClockOf(12, 0), model.StatusCancelled)))

			occupied, err := st.OccupiedTimes(ctx, day, model.StatusCancelled)
			require.NoError(t, err)
			assert.Equal(t, []model.Clock{model.ClockOf(9, 0), model.ClockOf(11, 30)}, occupied)

			found, err := st.FindAppointmentAt(ctx, day, model.ClockOf(11, 30), model.StatusCancelled)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, live.ID, found.ID)

			none, err := st.FindAppointmentAt(ctx, day, model.ClockOf(12, 0), model.StatusCancelled)
			require.NoError(t, err)
			assert.Nil(t, none)

			n, err := st.CountCancelledSince(ctx, c.ID, day.AddDays(-180))
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			active, err := st.CountActiveForClient(ctx, c.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, active)

			listed, err := st.ListAppointments(ctx, model.AppointmentFilter{Date: &day, ClientID: c.ID})
			require.NoError(t, err)
			require.Len(t, listed, 3)
			assert.Equal(t, "09:00", listed[0].Time.String(), "ordered by time")
		})
	}
}

func TestDeleteClientCascades(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClient(t, ctx, st)
			apt := newAppointment(c.ID, uniqueDay(), model.ClockOf(15, 0), model.StatusCancelled)
			require.NoError(t, st.CreateAppointment(ctx, apt))

			require.NoError(t, st.DeleteClient(ctx, c.ID))
			_, err := st.GetAppointment(ctx, apt.ID)
			assert.ErrorIs(t, err, model.ErrNotFound)
			assert.ErrorIs(t, st.DeleteClient(ctx, c.ID), model.ErrNotFound)
		})
	}
}

func TestLockedClientBlocksNewAppointments(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClient(t, ctx, st)
			apt := newAppointment(c.ID, uniqueDay(), model.ClockOf(11, 30), model.StatusPending)
			inserted := make(chan error, 1)

			err := st.InTx(ctx, func(ctx context.Context, tx store.Repository) error {
				if _, err := tx.LockClient(ctx, c.ID); err != nil {
					return err
				}
				go func() { inserted <- st.CreateAppointment(context.Background(), apt) }()

				time.Sleep(100 * time.Millisecond)
				select {
				case err := <-inserted:
					t.Errorf("insert finished while the client was locked: %v", err)
				default:
				}

				n, err := tx.CountActiveForClient(ctx, c.ID)
				if err != nil {
					return err
				}
				assert.Zero(t, n)
				return tx.DeleteClient(ctx, c.ID)
			})
			require.NoError(t, err)

			select {
			case err := <-inserted:
				assert.ErrorIs(t, err, model.ErrNotFound)
			case <-time.After(5 * time.Second):
				t.Fatal("insert never returned")
			}
			_, err = st.GetAppointment(ctx, apt.ID)
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestLockClientMissing(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := st.InTx(context.Background(), func(ctx context.Context, tx store.Repository) error {
				_, err := tx.LockClient(ctx, uuid.New().String())
				return err
			})
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestInTxRollsBack(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newClient(t, ctx, st)
			apt := newAppointment(c.ID, uniqueDay(), model.ClockOf(16, 0), model.StatusPending)
			boom := errors.New("boom")

			err := st.InTx(ctx, func(ctx context.Context, tx store.Repository) error {
				if err := tx.CreateAppointment(ctx, apt); err != nil {
					return err
				}
				if _, err := tx.UpdateClient(ctx, c.ID, model.ClientPatch{Name: model.Some("renamed")}); err != nil {
					return err
				}
				return boom
			})
			require.ErrorIs(t, err, boom)

			_, err = st.GetAppointment(ctx, apt.ID)
			assert.ErrorIs(t, err, model.ErrNotFound)
			got, err := st.GetClient(ctx, c.ID)
			require.NoError(t, err)
			assert.Equal(t, "Store Client", got.Name)
		})
	}
}

func TestCreateAppointmentUnknownClient(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := st.CreateAppointment(context.Background(),
				newAppointment(uuid.New().String(), uniqueDay(), model.ClockOf(9, 0), model.StatusPending))
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

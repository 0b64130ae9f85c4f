package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"appointment-booking-api/internal/model"
)

type memState struct {
	clients      map[string]model.Client
	appointments map[string]model.Appointment
	seq          map[string]int64
	next         int64
}

func newMemState() memState {
	return memState{
		clients:      map[string]model.Client{},
		appointments: map[string]model.Appointment{},
		seq:          map[string]int64{},
	}
}

func (s memState) clone() memState {
	out := memState{
		clients:      make(map[string]model.Client, len(s.clients)),
		appointments: make(map[string]model.Appointment, len(s.appointments)),
		seq:          make(map[string]int64, len(s.seq)),
		next:         s.next,
	}
	for k, v := range s.clients {
		out.clients[k] = v
	}
	for k, v := range s.appointments {
		out.appointments[k] = v
	}
	for k, v := range s.seq {
		out.seq[k] = v
	}
	return out
}

// Memory keeps everything in process. InTx holds the lock for the whole unit
// of work and restores the previous state when fn fails.
type Memory struct {
	mu    sync.Mutex
	state memState
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{state: newMemState(), now: time.Now}
}

func (m *Memory) InTx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(ctx, &memTx{state: &m.state, now: m.now}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *Memory) do(fn func(tx *memTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&memTx{state: &m.state, now: m.now})
}

func (m *Memory) CreateClient(ctx context.Context, c *model.Client) error {
	return m.do(func(tx *memTx) error { return tx.CreateClient(ctx, c) })
}

func (m *Memory) GetClient(ctx context.Context, id string) (c *model.Client, err error) {
	err = m.do(func(tx *memTx) error { c, err = tx.GetClient(ctx, id); return err })
	return c, err
}

// LockClient outside InTx only reads; inside InTx the store lock already
// excludes every other writer.
func (m *Memory) LockClient(ctx context.Context, id string) (c *model.Client, err error) {
	return m.GetClient(ctx, id)
}

func (m *Memory) ClientByEmail(ctx context.Context, email string) (c *model.Client, err error) {
	err = m.do(func(tx *memTx) error { c, err = tx.ClientByEmail(ctx, email); return err })
	return c, err
}

func (m *Memory) ClientByDNI(ctx context.Context, dni string) (c *model.Client, err error) {
	err = m.do(func(tx *memTx) error { c, err = tx.ClientByDNI(ctx, dni); return err })
	return c, err
}

func (m *Memory) ListClients(ctx context.Context) (out []model.Client, err error) {
	err = m.do(func(tx *memTx) error { out, err = tx.ListClients(ctx); return err })
	return out, err
}

func (m *Memory) UpdateClient(ctx context.Context, id string, p model.ClientPatch) (c *model.Client, err error) {
	err = m.do(func(tx *memTx) error { c, err = tx.UpdateClient(ctx, id, p); return err })
	return c, err
}

func (m *Memory) DeleteClient(ctx context.Context, id string) error {
	return m.do(func(tx *memTx) error { return tx.DeleteClient(ctx, id) })
}

func (m *Memory) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	return m.do(func(tx *memTx) error { return tx.CreateAppointment(ctx, a) })
}

func (m *Memory) GetAppointment(ctx context.Context, id string) (a *model.Appointment, err error) {
	err = m.do(func(tx *memTx) error { a, err = tx.GetAppointment(ctx, id); return err })
	return a, err
}

func (m *Memory) ListAppointments(ctx context.Context, f model.AppointmentFilter) (out []model.Appointment, err error) {
	err = m.do(func(tx *memTx) error { out, err = tx.ListAppointments(ctx, f); return err })
	return out, err
}

func (m *Memory) UpdateAppointment(ctx context.Context, id string, p model.AppointmentPatch) (a *model.Appointment, err error) {
	err = m.do(func(tx *memTx) error { a, err = tx.UpdateAppointment(ctx, id, p); return err })
	return a, err
}

func (m *Memory) SetAppointmentStatus(ctx context.Context, id, status string) (a *model.Appointment, err error) {
	err = m.do(func(tx *memTx) error { a, err = tx.SetAppointmentStatus(ctx, id, status); return err })
	return a, err
}

func (m *Memory) FindAppointmentAt(ctx context.Context, d model.Date, t model.Clock, excludeStatus string) (a *model.Appointment, err error) {
	err = m.do(func(tx *memTx) error { a, err = tx.FindAppointmentAt(ctx, d, t, excludeStatus); return err })
	return a, err
}

func (m *Memory) CountCancelledSince(ctx context.Context, clientID string, since model.Date) (n int, err error) {
	err = m.do(func(tx *memTx) error { n, err = tx.CountCancelledSince(ctx, clientID, since); return err })
	return n, err
}

func (m *Memory) CountActiveForClient(ctx context.Context, clientID string) (n int, err error) {
	err = m.do(func(tx *memTx) error { n, err = tx.CountActiveForClient(ctx, clientID); return err })
	return n, err
}

func (m *Memory) OccupiedTimes(ctx context.Context, d model.Date, excludeStatus string) (out []model.Clock, err error) {
	err = m.do(func(tx *memTx) error { out, err = tx.OccupiedTimes(ctx, d, excludeStatus); return err })
	return out, err
}

// memTx operates on state without locking; the owner holds Memory.mu.
type memTx struct {
	state *memState
	now   func() time.Time
}

func (tx *memTx) stamp(id string) {
	if _, ok := tx.state.seq[id]; !ok {
		tx.state.next++
		tx.state.seq[id] = tx.state.next
	}
}

func (tx *memTx) checkClientUnique(c *model.Client) error {
	for _, other := range tx.state.clients {
		if other.ID == c.ID {
			continue
		}
		if other.Email == c.Email {
			return fmt.Errorf("a client with this email already exists: %w", model.ErrConflict)
		}
		if other.DNI == c.DNI {
			return fmt.Errorf("a client with this dni already exists: %w", model.ErrConflict)
		}
	}
	return nil
}

func (tx *memTx) checkSlotFree(a *model.Appointment) error {
	if a.Status == model.StatusCancelled {
		return nil
	}
	for _, other := range tx.state.appointments {
		if other.ID != a.ID && other.Status != model.StatusCancelled &&
			other.Date == a.Date && other.Time == a.Time {
			return fmt.Errorf("slot is already booked: %w", model.ErrSlotConflict)
		}
	}
	return nil
}

func (tx *memTx) CreateClient(_ context.Context, c *model.Client) error {
	if _, ok := tx.state.clients[c.ID]; ok {
		return fmt.Errorf("client id %s: %w", c.ID, model.ErrConflict)
	}
	if err := tx.checkClientUnique(c); err != nil {
		return err
	}
	now := tx.now()
	c.CreatedAt, c.UpdatedAt = now, now
	tx.state.clients[c.ID] = *c
	tx.stamp(c.ID)
	return nil
}

func (tx *memTx) GetClient(_ context.Context, id string) (*model.Client, error) {
	c, ok := tx.state.clients[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &c, nil
}

func (tx *memTx) LockClient(ctx context.Context, id string) (*model.Client, error) {
	return tx.GetClient(ctx, id)
}

func (tx *memTx) clientWhere(match func(c *model.Client) bool) (*model.Client, error) {
	for _, c := range tx.state.clients {
		if match(&c) {
			return &c, nil
		}
	}
	return nil, model.ErrNotFound
}

func (tx *memTx) ClientByEmail(_ context.Context, email string) (*model.Client, error) {
	return tx.clientWhere(func(c *model.Client) bool { return c.Email == email })
}

func (tx *memTx) ClientByDNI(_ context.Context, dni string) (*model.Client, error) {
	return tx.clientWhere(func(c *model.Client) bool { return c.DNI == dni })
}

func (tx *memTx) ListClients(_ context.Context) ([]model.Client, error) {
	out := make([]model.Client, 0, len(tx.state.clients))
	for _, c := range tx.state.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return tx.state.seq[out[i].ID] < tx.state.seq[out[j].ID]
	})
	return out, nil
}

func (tx *memTx) UpdateClient(_ context.Context, id string, p model.ClientPatch) (*model.Client, error) {
	c, ok := tx.state.clients[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	p.Apply(&c)
	if err := tx.checkClientUnique(&c); err != nil {
		return nil, err
	}
	c.UpdatedAt = tx.now()
	tx.state.clients[id] = c
	return &c, nil
}

func (tx *memTx) DeleteClient(_ context.Context, id string) error {
	if _, ok := tx.state.clients[id]; !ok {
		return model.ErrNotFound
	}
	delete(tx.state.clients, id)
	delete(tx.state.seq, id)
	for aid, a := range tx.state.appointments {
		if a.ClientID == id {
			delete(tx.state.appointments, aid)
			delete(tx.state.seq, aid)
		}
	}
	return nil
}

func (tx *memTx) CreateAppointment(_ context.Context, a *model.Appointment) error {
	if _, ok := tx.state.appointments[a.ID]; ok {
		return fmt.Errorf("appointment id %s: %w", a.ID, model.ErrConflict)
	}
	if _, ok := tx.state.clients[a.ClientID]; !ok {
		return fmt.Errorf("client: %w", model.ErrNotFound)
	}
	if err := tx.checkSlotFree(a); err != nil {
		return err
	}
	now := tx.now()
	a.CreatedAt, a.UpdatedAt = now, now
	tx.state.appointments[a.ID] = *a
	tx.stamp(a.ID)
	return nil
}

func (tx *memTx) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	a, ok := tx.state.appointments[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &a, nil
}

// sorted returns the matching appointments by date, time and insertion.
func (tx *memTx) sorted(match func(a *model.Appointment) bool) []model.Appointment {
	out := []model.Appointment{}
	for _, a := range tx.state.appointments {
		if match(&a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return tx.state.seq[a.ID] < tx.state.seq[b.ID]
	})
	return out
}

func (tx *memTx) ListAppointments(_ context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	return tx.sorted(f.Match), nil
}

func (tx *memTx) UpdateAppointment(_ context.Context, id string, p model.AppointmentPatch) (*model.Appointment, error) {
	a, ok := tx.state.appointments[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	p.Apply(&a)
	if _, ok := tx.state.clients[a.ClientID]; !ok {
		return nil, fmt.Errorf("client: %w", model.ErrNotFound)
	}
	if err := tx.checkSlotFree(&a); err != nil {
		return nil, err
	}
	a.UpdatedAt = tx.now()
	tx.state.appointments[id] = a
	return &a, nil
}

func (tx *memTx) SetAppointmentStatus(ctx context.Context, id, status string) (*model.Appointment, error) {
	return tx.UpdateAppointment(ctx, id, model.AppointmentPatch{Status: model.Some(status)})
}

func (tx *memTx) FindAppointmentAt(_ context.Context, d model.Date, t model.Clock, excludeStatus string) (*model.Appointment, error) {
	found := tx.sorted(func(a *model.Appointment) bool {
		return a.Date == d && a.Time == t && a.Status != excludeStatus
	})
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (tx *memTx) CountCancelledSince(_ context.Context, clientID string, since model.Date) (int, error) {
	n := 0
	for _, a := range tx.state.appointments {
		if a.ClientID == clientID && a.Status == model.StatusCancelled && !a.Date.Before(since) {
			n++
		}
	}
	return n, nil
}

func (tx *memTx) CountActiveForClient(_ context.Context, clientID string) (int, error) {
	n := 0
	for _, a := range tx.state.appointments {
		if a.ClientID == clientID && a.Status != model.StatusCancelled {
			n++
		}
	}
	return n, nil
}

func (tx *memTx) OccupiedTimes(_ context.Context, d model.Date, excludeStatus string) ([]model.Clock, error) {
	var out []model.Clock
	for _, a := range tx.sorted(func(a *model.Appointment) bool {
		return a.Date == d && a.Status != excludeStatus
	}) {
		out = append(out, a.Time)
	}
	return out, nil
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Postgres)(nil)
)

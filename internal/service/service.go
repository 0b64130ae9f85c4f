// Package service holds the booking rules: client registration, the
// availability resolver and the booking engine. Every mutation runs inside a
// store transaction so a failed check never leaves a partial write behind.
package service

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/store"
)

const (
	// CancellationWindow is how far back cancellations count against a client.
	CancellationWindow = 180 // days
	// MaxCancellations within the window blocks new bookings.
	MaxCancellations = 5
)

var validate = validator.New()

var statusRule = "oneof=" + model.StatusPending + " " + model.StatusConfirmed + " " + model.StatusCancelled

type Service struct {
	store store.Store
	now   func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("new service: store is nil")
	}
	s := &Service{store: st, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Today is the current day of the single local calendar the service runs on.
func (s *Service) Today() model.Date {
	return model.DateOf(s.now())
}

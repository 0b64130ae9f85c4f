package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/slots"
	"appointment-booking-api/internal/store"
)

type BookingRequest struct {
	Date     model.Date
	Time     model.Clock
	ClientID string
	// Status defaults to pending.
	Status string
}

func validateBooking(req *BookingRequest) error {
	req.ClientID = strings.TrimSpace(req.ClientID)
	if req.Status == "" {
		req.Status = model.StatusPending
	}
	switch {
	case req.Date.IsZero():
		return fmt.Errorf("date is required: %w", model.ErrValidation)
	case !slots.Contains(req.Time):
		return fmt.Errorf("%s is not a bookable slot: %w", req.Time, model.ErrValidation)
	case req.ClientID == "":
		return fmt.Errorf("client_id is required: %w", model.ErrValidation)
	case validate.Var(req.Status, "oneof="+model.StatusPending+" "+model.StatusConfirmed) != nil:
		return fmt.Errorf("new appointments must be %s or %s: %w",
			model.StatusPending, model.StatusConfirmed, model.ErrValidation)
	}
	return nil
}

// Book validates and records a new appointment. The checks run in a fixed
// order and the first failure wins: client exists, client enabled, slot
// free, cancellation history under the limit.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*model.Appointment, error) {
	if err := validateBooking(&req); err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		ID:       uuid.New().String(),
		Date:     req.Date,
		Time:     req.Time,
		Status:   req.Status,
		ClientID: req.ClientID,
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Repository) error {
		if err := checkClient(ctx, tx, req.ClientID); err != nil {
			return err
		}

		taken, err := tx.FindAppointmentAt(ctx, req.Date, req.Time, model.StatusCancelled)
		if err != nil {
			return err
		}
		if taken != nil {
			return fmt.Errorf("there is already an appointment on %s at %s: %w",
				req.Date, req.Time, model.ErrSlotConflict)
		}

		if err := s.checkCancellations(ctx, tx, req.ClientID); err != nil {
			return err
		}

		// the store still rejects a concurrent booking of the same slot
		return tx.CreateAppointment(ctx, apt)
	})
	if err != nil {
		return nil, err
	}
	return apt, nil
}

// checkClient fails unless the client exists and may book.
func checkClient(ctx context.Context, tx store.Repository, clientID string) error {
	client, err := tx.GetClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("client %s: %w", clientID, err)
	}
	if !client.Enabled {
		return fmt.Errorf("client %s: %w", client.ID, model.ErrIneligibleClient)
	}
	return nil
}

// checkCancellations fails once the client reached MaxCancellations inside
// the window.
func (s *Service) checkCancellations(ctx context.Context, tx store.Repository, clientID string) error {
	since := s.Today().AddDays(-CancellationWindow)
	cancelled, err := tx.CountCancelledSince(ctx, clientID, since)
	if err != nil {
		return err
	}
	if cancelled >= MaxCancellations {
		return fmt.Errorf("client %s cancelled %d appointments since %s: %w",
			clientID, cancelled, since, model.ErrTooManyCancellations)
	}
	return nil
}

// Cancel moves an appointment to cancelled. Cancelling twice is allowed and
// leaves the appointment cancelled.
func (s *Service) Cancel(ctx context.Context, id string) (*model.Appointment, error) {
	apt, err := s.store.SetAppointmentStatus(ctx, id, model.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: %w", id, err)
	}
	return apt, nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/slots"
	"appointment-booking-api/internal/store"
)

func (s *Service) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	apt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: %w", id, err)
	}
	return apt, nil
}

func (s *Service) ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	return s.store.ListAppointments(ctx, f)
}

func validateAppointmentPatch(p *model.AppointmentPatch) error {
	if p.Date.Null || p.Time.Null || p.Status.Null || p.ClientID.Null {
		return fmt.Errorf("appointment fields cannot be null: %w", model.ErrValidation)
	}
	if p.Time.Set && !slots.Contains(p.Time.Value) {
		return fmt.Errorf("%s is not a bookable slot: %w", p.Time.Value, model.ErrValidation)
	}
	if p.Status.Set && validate.Var(p.Status.Value, statusRule) != nil {
		return fmt.Errorf("unknown status %q: %w", p.Status.Value, model.ErrValidation)
	}
	if p.ClientID.Set {
		p.ClientID.Value = strings.TrimSpace(p.ClientID.Value)
		if p.ClientID.Value == "" {
			return fmt.Errorf("client_id cannot be empty: %w", model.ErrValidation)
		}
	}
	return nil
}

// UpdateAppointment applies a partial update. Moving a live appointment onto
// an occupied slot fails with ErrSlotConflict. Handing it to another client or
// reviving a cancelled one goes through the same client checks as Book.
func (s *Service) UpdateAppointment(ctx context.Context, id string, p model.AppointmentPatch) (*model.Appointment, error) {
	if err := validateAppointmentPatch(&p); err != nil {
		return nil, err
	}

	var updated *model.Appointment
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Repository) error {
		current, err := tx.GetAppointment(ctx, id)
		if err != nil {
			return fmt.Errorf("appointment %s: %w", id, err)
		}
		if p.ClientID.Set {
			if _, err := tx.GetClient(ctx, p.ClientID.Value); err != nil {
				return fmt.Errorf("client %s: %w", p.ClientID.Value, err)
			}
		}

		next := *current
		p.Apply(&next)
		if next.Status == model.StatusCancelled {
			updated, err = tx.UpdateAppointment(ctx, id, p)
			return err
		}

		// a new owner or a revived cancellation is a fresh booking for the client
		rebooked := next.ClientID != current.ClientID || current.Status == model.StatusCancelled
		if rebooked {
			if err := checkClient(ctx, tx, next.ClientID); err != nil {
				return err
			}
		}
		taken, err := tx.FindAppointmentAt(ctx, next.Date, next.Time, model.StatusCancelled)
		if err != nil {
			return err
		}
		if taken != nil && taken.ID != id {
			return fmt.Errorf("there is already an appointment on %s at %s: %w",
				next.Date, next.Time, model.ErrSlotConflict)
		}
		if rebooked {
			if err := s.checkCancellations(ctx, tx, next.ClientID); err != nil {
				return err
			}
		}

		updated, err = tx.UpdateAppointment(ctx, id, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

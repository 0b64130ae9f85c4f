package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/store"
)

type NewClient struct {
	Name      string
	Email     string
	DNI       string
	Phone     *string
	BirthDate model.Date
	// Enabled defaults to true when nil.
	Enabled *bool
}

func (s *Service) validateClient(name, email, dni string, birth model.Date) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("name is required: %w", model.ErrValidation)
	case validate.Var(email, "required,email") != nil:
		return fmt.Errorf("a valid email is required: %w", model.ErrValidation)
	case strings.TrimSpace(dni) == "":
		return fmt.Errorf("dni is required: %w", model.ErrValidation)
	case birth.IsZero():
		return fmt.Errorf("birth_date is required: %w", model.ErrValidation)
	case s.Today().Before(birth):
		return fmt.Errorf("birth_date is in the future: %w", model.ErrValidation)
	}
	return nil
}

// ensureUnique fails when dni or email belongs to a client other than selfID.
// dni is checked first.
func ensureUnique(ctx context.Context, tx store.Repository, selfID, dni, email string) error {
	if c, err := tx.ClientByDNI(ctx, dni); err == nil && c.ID != selfID {
		return fmt.Errorf("a client with dni %s already exists: %w", dni, model.ErrConflict)
	} else if err != nil && !errors.Is(err, model.ErrNotFound) {
		return err
	}
	if c, err := tx.ClientByEmail(ctx, email); err == nil && c.ID != selfID {
		return fmt.Errorf("a client with email %s already exists: %w", email, model.ErrConflict)
	} else if err != nil && !errors.Is(err, model.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) CreateClient(ctx context.Context, in NewClient) (*model.Client, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.DNI = strings.TrimSpace(in.DNI)
	if err := s.validateClient(in.Name, in.Email, in.DNI, in.BirthDate); err != nil {
		return nil, err
	}

	c := &model.Client{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Email:     in.Email,
		DNI:       in.DNI,
		Phone:     in.Phone,
		BirthDate: in.BirthDate,
		Enabled:   in.Enabled == nil || *in.Enabled,
	}
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Repository) error {
		if err := ensureUnique(ctx, tx, "", c.DNI, c.Email); err != nil {
			return err
		}
		return tx.CreateClient(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetClient(ctx context.Context, id string) (*model.Client, error) {
	c, err := s.store.GetClient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", id, err)
	}
	return c, nil
}

func (s *Service) ListClients(ctx context.Context) ([]model.Client, error) {
	return s.store.ListClients(ctx)
}

func (s *Service) UpdateClient(ctx context.Context, id string, p model.ClientPatch) (*model.Client, error) {
	for name, null := range map[string]bool{
		"name":       p.Name.Null,
		"email":      p.Email.Null,
		"dni":        p.DNI.Null,
		"birth_date": p.BirthDate.Null,
		"enabled":    p.Enabled.Null,
	} {
		if null {
			return nil, fmt.Errorf("%s cannot be null: %w", name, model.ErrValidation)
		}
	}

	var updated *model.Client
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Repository) error {
		current, err := tx.GetClient(ctx, id)
		if err != nil {
			return fmt.Errorf("client %s: %w", id, err)
		}
		next := *current
		p.Apply(&next)
		next.Name = strings.TrimSpace(next.Name)
		next.Email = strings.TrimSpace(next.Email)
		next.DNI = strings.TrimSpace(next.DNI)
		if err := s.validateClient(next.Name, next.Email, next.DNI, next.BirthDate); err != nil {
			return err
		}
		if err := ensureUnique(ctx, tx, id, next.DNI, next.Email); err != nil {
			return err
		}

		p.Name, p.Email, p.DNI = model.Some(next.Name), model.Some(next.Email), model.Some(next.DNI)
		updated, err = tx.UpdateClient(ctx, id, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteClient refuses while the client still holds live appointments;
// cancelled history is removed with the client.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(ctx context.Context, tx store.Repository) error {
		// the row lock makes racing bookings wait and then fail the client FK
		if _, err := tx.LockClient(ctx, id); err != nil {
			return fmt.Errorf("client %s: %w", id, err)
		}
		active, err := tx.CountActiveForClient(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("client %s has %d active appointments, cancel them first: %w",
				id, active, model.ErrConflict)
		}
		return tx.DeleteClient(ctx, id)
	})
}

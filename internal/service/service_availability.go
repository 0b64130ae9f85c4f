package service

import (
	"context"

	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/slots"
)

// Available parses rawDate and returns the day's slots that hold no live
// appointment, in calendar order.
func (s *Service) Available(ctx context.Context, rawDate string) (model.Date, []model.Clock, error) {
	day, err := model.ParseDate(rawDate)
	if err != nil {
		return model.Date{}, nil, err
	}
	occupied, err := s.store.OccupiedTimes(ctx, day, model.StatusCancelled)
	if err != nil {
		return model.Date{}, nil, err
	}

	taken := make(map[model.Clock]struct{}, len(occupied))
	for _, t := range occupied {
		taken[t] = struct{}{}
	}
	free := []model.Clock{}
	for _, t := range slots.Generate() {
		if _, ok := taken[t]; !ok {
			free = append(free, t)
		}
	}
	return day, free, nil
}

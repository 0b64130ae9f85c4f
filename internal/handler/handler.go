package handler

import (
	"errors"
	"log"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "appointment-booking-api/internal/bookingpb"
	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/service"
)

type Handler struct {
	svc *service.Service
}

var _ pb.BookingServiceServer = (*Handler)(nil)

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, model.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, model.ErrSlotConflict), errors.Is(err, model.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, model.ErrIneligibleClient), errors.Is(err, model.ErrTooManyCancellations):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	log.Printf("grpc: %v", err)
	return status.Error(codes.Internal, "internal error")
}

package handler

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "appointment-booking-api/internal/bookingpb"
	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/service"
	"appointment-booking-api/internal/slots"
)

func (h *Handler) BookAppointment(ctx context.Context, req *pb.BookRequest) (*pb.AppointmentReply, error) {
	if req.Date == "" || req.Time == "" || req.ClientId == "" {
		return nil, status.Error(codes.InvalidArgument, "date, time and client_id required")
	}
	day, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, toStatus(err)
	}
	at, err := model.ParseClock(req.Time)
	if err != nil {
		return nil, toStatus(err)
	}

	apt, err := h.svc.Book(ctx, service.BookingRequest{
		Date:     day,
		Time:     at,
		ClientID: req.ClientId,
		Status:   strings.ToLower(req.Status),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.AppointmentReply{Appointment: toProto(apt)}, nil
}

func (h *Handler) CancelAppointment(ctx context.Context, req *pb.IdRequest) (*pb.AppointmentReply, error) {
	if req.Id == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	apt, err := h.svc.Cancel(ctx, req.Id)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.AppointmentReply{Appointment: toProto(apt)}, nil
}

func (h *Handler) GetAppointment(ctx context.Context, req *pb.IdRequest) (*pb.AppointmentReply, error) {
	if req.Id == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	apt, err := h.svc.GetAppointment(ctx, req.Id)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.AppointmentReply{Appointment: toProto(apt)}, nil
}

func (h *Handler) AvailableSlots(ctx context.Context, req *pb.SlotsRequest) (*pb.SlotsReply, error) {
	day, free, err := h.svc.Available(ctx, req.Date)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.SlotsReply{Date: day.String(), AvailableTimes: slots.Strings(free)}, nil
}

func toProto(a *model.Appointment) *pb.Appointment {
	p := &pb.Appointment{
		Id:       a.ID,
		Date:     a.Date.String(),
		Time:     a.Time.String(),
		Status:   a.Status,
		ClientId: a.ClientID,
	}
	if !a.CreatedAt.IsZero() {
		p.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !a.UpdatedAt.IsZero() {
		p.UpdatedAt = a.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return p
}

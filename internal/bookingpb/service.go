package bookingpb

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "booking.v1.BookingService"

const (
	BookAppointmentMethod   = "/" + ServiceName + "/BookAppointment"
	CancelAppointmentMethod = "/" + ServiceName + "/CancelAppointment"
	GetAppointmentMethod    = "/" + ServiceName + "/GetAppointment"
	AvailableSlotsMethod    = "/" + ServiceName + "/AvailableSlots"
)

type BookingServiceServer interface {
	BookAppointment(context.Context, *BookRequest) (*AppointmentReply, error)
	CancelAppointment(context.Context, *IdRequest) (*AppointmentReply, error)
	GetAppointment(context.Context, *IdRequest) (*AppointmentReply, error)
	AvailableSlots(context.Context, *SlotsRequest) (*SlotsReply, error)
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("BookAppointment", func(s BookingServiceServer, ctx context.Context, in *BookRequest) (Message, error) {
			return s.BookAppointment(ctx, in)
		}),
		unary("CancelAppointment", func(s BookingServiceServer, ctx context.Context, in *IdRequest) (Message, error) {
			return s.CancelAppointment(ctx, in)
		}),
		unary("GetAppointment", func(s BookingServiceServer, ctx context.Context, in *IdRequest) (Message, error) {
			return s.GetAppointment(ctx, in)
		}),
		unary("AvailableSlots", func(s BookingServiceServer, ctx context.Context, in *SlotsRequest) (Message, error) {
			return s.AvailableSlots(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booking/v1/booking.proto",
}

func unary[T any, PT interface {
	*T
	Message
}](name string, call func(BookingServiceServer, context.Context, PT) (Message, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PT(new(T))
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BookingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingServiceServer), ctx, req.(PT))
			})
		},
	}
}

// BookingServiceClient calls the service with the booking-wire codec.
type BookingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingServiceClient(cc grpc.ClientConnInterface) *BookingServiceClient {
	return &BookingServiceClient{cc: cc}
}

func (c *BookingServiceClient) invoke(ctx context.Context, method string, in, out Message, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *BookingServiceClient) BookAppointment(ctx context.Context, in *BookRequest, opts ...grpc.CallOption) (*AppointmentReply, error) {
	out := new(AppointmentReply)
	if err := c.invoke(ctx, BookAppointmentMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingServiceClient) CancelAppointment(ctx context.Context, in *IdRequest, opts ...grpc.CallOption) (*AppointmentReply, error) {
	out := new(AppointmentReply)
	if err := c.invoke(ctx, CancelAppointmentMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingServiceClient) GetAppointment(ctx context.Context, in *IdRequest, opts ...grpc.CallOption) (*AppointmentReply, error) {
	out := new(AppointmentReply)
	if err := c.invoke(ctx, GetAppointmentMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingServiceClient) AvailableSlots(ctx context.Context, in *SlotsRequest, opts ...grpc.CallOption) (*SlotsReply, error) {
	out := new(SlotsReply)
	if err := c.invoke(ctx, AvailableSlotsMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

package grpcweb

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"

	pb "appointment-booking-api/internal/bookingpb"
	"appointment-booking-api/internal/handler"
	"appointment-booking-api/internal/middleware"
	"appointment-booking-api/internal/service"
	"appointment-booking-api/internal/store"
)

func newBridge(t *testing.T, opts ...grpc.ServerOption) *Bridge {
	t.Helper()
	svc, err := service.New(store.NewMemory(), service.WithClock(func() time.Time {
		return time.Date(2024, time.June, 15, 10, 0, 0, 0, time.Local)
	}))
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(append([]grpc.ServerOption{grpc.ForceServerCodec(pb.Codec{})}, opts...)...)
	pb.RegisterBookingServiceServer(srv, handler.New(svc))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return FromConn(conn, []string{"http://localhost:3000"})
}

// readFrames splits a grpc-web body into data payloads and the trailer text.
func readFrames(t *testing.T, body []byte) (data [][]byte, trailer string) {
	t.Helper()
	for len(body) > 0 {
		require.GreaterOrEqual(t, len(body), 5)
		n := int(binary.BigEndian.Uint32(body[1:5]))
		chunk := body[5 : 5+n]
		if body[0]&0x80 != 0 {
			trailer = string(chunk)
		} else {
			data = append(data, chunk)
		}
		body = body[5+n:]
	}
	return data, trailer
}

func post(b *Bridge, path string, msg pb.Message) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(frame(0, msg.MarshalWire())))
	req.Header.Set("Content-Type", "application/grpc-web+proto")
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)
	return rec
}

func TestForwardsUnaryCall(t *testing.T) {
	b := newBridge(t)

	rec := post(b, pb.AvailableSlotsMethod, &pb.SlotsRequest{Date: "2024-06-01"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	data, trailer := readFrames(t, rec.Body.Bytes())
	require.Len(t, data, 1)
	assert.Contains(t, trailer, "grpc-status:0")

	var reply pb.SlotsReply
	require.NoError(t, reply.UnmarshalWire(data[0]))
	assert.Len(t, reply.AvailableTimes, 17)
}

func TestForwardsStatusErrors(t *testing.T) {
	b := newBridge(t)

	rec := post(b, pb.GetAppointmentMethod, &pb.IdRequest{Id: "missing"})
	data, trailer := readFrames(t, rec.Body.Bytes())
	assert.Empty(t, data)
	assert.Contains(t, trailer, "grpc-status:5") // NotFound
}

func TestForwardsCallerAddress(t *testing.T) {
	var seen []string
	b := newBridge(t, grpc.UnaryInterceptor(func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		seen = md.Get(middleware.ForwardedForHeader)
		return next(ctx, req)
	}))

	req := httptest.NewRequest(http.MethodPost, pb.AvailableSlotsMethod,
		bytes.NewReader(frame(0, (&pb.SlotsRequest{Date: "2024-06-01"}).MarshalWire())))
	req.Header.Set("Content-Type", "application/grpc-web+proto")
	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	req.RemoteAddr = "203.0.113.7:5555"
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"203.0.113.7"}, seen)
}

func TestRejectsNonGrpcWeb(t *testing.T) {
	b := newBridge(t)

	req := httptest.NewRequest(http.MethodPost, pb.AvailableSlotsMethod, nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, pb.AvailableSlotsMethod, bytes.NewReader([]byte{0, 0}))
	req.Header.Set("Content-Type", "application/grpc-web")
	rec = httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)
	_, trailer := readFrames(t, rec.Body.Bytes())
	assert.Contains(t, trailer, "grpc-status:3") // InvalidArgument

	req = httptest.NewRequest(http.MethodOptions, pb.AvailableSlotsMethod, nil)
	rec = httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, b.Close())
}

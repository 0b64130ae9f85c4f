package middleware

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "burst exhausted")
	assert.True(t, rl.Allow("b"), "other callers have their own bucket")
}

func TestRateLimiterSweepsStaleCallers(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(5 * time.Minute)
	rl.Allow("new")
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimitInterceptor(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	intercept := RateLimit(rl)
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 1}})
	next := func(ctx context.Context, req any) (any, error) { return "ok", nil }

	limitedInfo := &grpc.UnaryServerInfo{FullMethod: "/booking.v1.BookingService/BookAppointment"}
	_, err := intercept(ctx, nil, limitedInfo, next)
	require.NoError(t, err)
	_, err = intercept(ctx, nil, limitedInfo, next)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	openInfo := &grpc.UnaryServerInfo{FullMethod: "/booking.v1.BookingService/AvailableSlots"}
	_, err = intercept(ctx, nil, openInfo, next)
	assert.NoError(t, err, "reads are not limited")
}

func TestRateLimitKeysByHost(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	intercept := RateLimit(rl)
	info := &grpc.UnaryServerInfo{FullMethod: "/booking.v1.BookingService/BookAppointment"}
	next := func(ctx context.Context, req any) (any, error) { return "ok", nil }

	var got []codes.Code
	for port := 40000; port < 40005; port++ {
		ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: port}})
		_, err := intercept(ctx, nil, info, next)
		got = append(got, status.Code(err))
	}
	assert.Equal(t, []codes.Code{codes.OK, codes.ResourceExhausted, codes.ResourceExhausted,
		codes.ResourceExhausted, codes.ResourceExhausted}, got)
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimitUsesForwardedForFromLoopback(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	intercept := RateLimit(rl)
	info := &grpc.UnaryServerInfo{FullMethod: "/booking.v1.BookingService/BookAppointment"}
	next := func(ctx context.Context, req any) (any, error) { return "ok", nil }

	call := func(peerIP net.IP, forwarded string) codes.Code {
		ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: peerIP, Port: 50000}})
		if forwarded != "" {
			ctx = metadata.NewIncomingContext(ctx, metadata.Pairs(ForwardedForHeader, forwarded))
		}
		_, err := intercept(ctx, nil, info, next)
		return status.Code(err)
	}

	// two browsers behind the bridge get separate buckets
	assert.Equal(t, codes.OK, call(net.IPv4(127, 0, 0, 1), "203.0.113.1"))
	assert.Equal(t, codes.OK, call(net.IPv4(127, 0, 0, 1), "203.0.113.2"))
	assert.Equal(t, codes.ResourceExhausted, call(net.IPv4(127, 0, 0, 1), "203.0.113.1"))

	// remote peers cannot pick their own key
	assert.Equal(t, codes.OK, call(net.IPv4(10, 0, 0, 9), "198.51.100.1"))
	assert.Equal(t, codes.ResourceExhausted, call(net.IPv4(10, 0, 0, 9), "198.51.100.2"))
}

func TestGinRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/appointments", GinRateLimit(NewRateLimiter(0.001, 1)), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	got := []int{}
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments", nil))
		got = append(got, rec.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusTooManyRequests}, got)
}

func TestLoggingKeepsIncomingRequestID(t *testing.T) {
	md := metadata.Pairs(requestIDHeader, "req-123")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	var seen string
	_, err := Logging()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"}, func(ctx context.Context, req any) (any, error) {
		seen = RequestID(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req-123", seen)
}

func TestGinRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinRequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c.Request.Context()))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Body.String())
	assert.Equal(t, rec.Body.String(), rec.Header().Get(requestIDHeader))
}

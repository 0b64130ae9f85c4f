package middleware

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const RequestIDKey ctxKey = "request_id"

const requestIDHeader = "x-request-id"

// RequestID returns the id attached by the logging middleware, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func incomingRequestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(requestIDHeader); len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return uuid.New().String()
}

// Logging tags every RPC with a request id and logs its outcome.
func Logging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		id := incomingRequestID(ctx)
		ctx = context.WithValue(ctx, RequestIDKey, id)
		// fails when ctx carries no server stream, e.g. a direct handler call
		if err := grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, id)); err != nil {
			log.Printf("grpc %s id=%s: request id header not sent: %v", info.FullMethod, id, err)
		}

		start := time.Now()
		resp, err := next(ctx, req)
		log.Printf("grpc %s id=%s code=%s took=%s", info.FullMethod, id, status.Code(err), time.Since(start))
		return resp, err
	}
}

// GinRequestID mirrors Logging for the REST side; gin.Logger prints the line.
func GinRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), RequestIDKey, id))
		c.Next()
	}
}

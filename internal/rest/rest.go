// Package rest exposes the booking service over JSON/HTTP with gin.
package rest

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"appointment-booking-api/internal/middleware"
	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/service"
)

type Options struct {
	AllowedOrigins []string
	// TrustedProxies may set X-Forwarded-For; empty trusts none.
	TrustedProxies []string
	// Limiter guards booking and cancelling; nil disables limiting.
	Limiter *middleware.RateLimiter
}

type Handler struct {
	svc *service.Service
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc *service.Service, opts Options) *gin.Engine {
	h := &Handler{svc: svc}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		log.Printf("rest: trusted proxies %v: %v, trusting none", opts.TrustedProxies, err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Logger(), gin.Recovery(), middleware.GinRequestID(), cors(opts.AllowedOrigins))

	r.GET("/", h.health)
	r.GET("/health", h.health)

	clients := r.Group("/clients")
	{
		clients.POST("", h.createClient)
		clients.GET("", h.listClients)
		clients.GET("/:id", h.getClient)
		clients.PUT("", h.updateClient)
		clients.PUT("/:id", h.updateClient)
		clients.DELETE("", h.deleteClient)
		clients.DELETE("/:id", h.deleteClient)
	}

	limit := func(next gin.HandlerFunc) []gin.HandlerFunc {
		if opts.Limiter == nil {
			return []gin.HandlerFunc{next}
		}
		return []gin.HandlerFunc{middleware.GinRateLimit(opts.Limiter), next}
	}

	appointments := r.Group("/appointments")
	{
		appointments.POST("", limit(h.bookAppointment)...)
		appointments.GET("", h.listAppointments)
		appointments.GET("/:id", h.getAppointment)
		appointments.PUT("", h.updateAppointment)
		appointments.PUT("/:id", h.updateAppointment)
		appointments.PATCH("", limit(h.cancelAppointment)...)
		appointments.PATCH("/:id", limit(h.cancelAppointment)...)
		appointments.DELETE("/:id", limit(h.cancelAppointment)...)
	}

	r.GET("/available-slots", h.availableSlots)
	return r
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "appointment-booking-api"})
}

func cors(allowed []string) gin.HandlerFunc {
	allowAll := false
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Header("Access-Control-Allow-Origin", "*")
		} else {
			for _, o := range allowed {
				if origin == o {
					c.Header("Access-Control-Allow-Origin", origin)
					c.Header("Vary", "Origin")
					break
				}
			}
		}
		c.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, X-Request-Id, X-Grpc-Web, X-User-Agent")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// idParam takes the id from the path, falling back to ?id=.
func idParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		id = strings.TrimSpace(c.Query("id"))
	}
	if id == "" {
		writeError(c, http.StatusBadRequest, "id is required")
		return "", false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, bindMessage(err))
		return false
	}
	return true
}

func bindMessage(err error) string {
	if errors.Is(err, model.ErrValidation) {
		return strings.TrimSuffix(err.Error(), ": "+model.ErrValidation.Error())
	}
	return "invalid request body: " + err.Error()
}

func writeError(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(c, http.StatusBadRequest, bindMessage(err))
	case errors.Is(err, model.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrConflict),
		errors.Is(err, model.ErrSlotConflict),
		errors.Is(err, model.ErrIneligibleClient),
		errors.Is(err, model.ErrTooManyCancellations):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		log.Printf("rest: %s %s: %v", c.Request.Method, c.FullPath(), err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/service"
	"appointment-booking-api/internal/slots"
)

type appointmentView struct {
	ID        string      `json:"id"`
	Date      model.Date  `json:"date"`
	Time      model.Clock `json:"time"`
	Status    string      `json:"status"`
	ClientID  string      `json:"client_id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func toAppointmentView(a *model.Appointment) appointmentView {
	return appointmentView{
		ID:        a.ID,
		Date:      a.Date,
		Time:      a.Time,
		Status:    a.Status,
		ClientID:  a.ClientID,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type bookRequest struct {
	Date     *model.Date  `json:"date" binding:"required"`
	Time     *model.Clock `json:"time" binding:"required"`
	ClientID string       `json:"client_id" binding:"required"`
	Status   string       `json:"status" binding:"omitempty,oneof=pending confirmed"`
}

func (h *Handler) bookAppointment(c *gin.Context) {
	var req bookRequest
	if !bindJSON(c, &req) {
		return
	}
	apt, err := h.svc.Book(c.Request.Context(), service.BookingRequest{
		Date:     *req.Date,
		Time:     *req.Time,
		ClientID: req.ClientID,
		Status:   req.Status,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAppointmentView(apt))
}

func (h *Handler) listAppointments(c *gin.Context) {
	var f model.AppointmentFilter
	if raw := c.Query("date"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		f.Date = &d
	}
	f.ClientID = strings.TrimSpace(c.Query("client_id"))

	apts, err := h.svc.ListAppointments(c.Request.Context(), f)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]appointmentView, 0, len(apts))
	for i := range apts {
		out = append(out, toAppointmentView(&apts[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getAppointment(c *gin.Context) {
	apt, err := h.svc.GetAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentView(apt))
}

func (h *Handler) updateAppointment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var patch model.AppointmentPatch
	if !bindJSON(c, &patch) {
		return
	}
	apt, err := h.svc.UpdateAppointment(c.Request.Context(), id, patch)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentView(apt))
}

func (h *Handler) cancelAppointment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	apt, err := h.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"detail":      "appointment cancelled",
		"appointment": toAppointmentView(apt),
	})
}

func (h *Handler) availableSlots(c *gin.Context) {
	raw := c.Query("date")
	if raw == "" {
		writeError(c, http.StatusBadRequest, "date query parameter is required (YYYY-MM-DD)")
		return
	}
	day, free, err := h.svc.Available(c.Request.Context(), raw)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":            day,
		"available_times": slots.Strings(free),
	})
}

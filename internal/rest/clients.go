package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/service"
)

type clientView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	DNI       string     `json:"dni"`
	Phone     *string    `json:"phone"`
	BirthDate model.Date `json:"birth_date"`
	Age       int        `json:"age"`
	Enabled   bool       `json:"enabled"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (h *Handler) clientView(c *model.Client) clientView {
	return clientView{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		DNI:       c.DNI,
		Phone:     c.Phone,
		BirthDate: c.BirthDate,
		Age:       c.Age(h.svc.Today()),
		Enabled:   c.Enabled,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type createClientRequest struct {
	Name      string      `json:"name" binding:"required"`
	Email     string      `json:"email" binding:"required,email"`
	DNI       string      `json:"dni" binding:"required"`
	Phone     *string     `json:"phone"`
	BirthDate *model.Date `json:"birth_date" binding:"required"`
	Enabled   *bool       `json:"enabled"`
}

func (h *Handler) createClient(c *gin.Context) {
	var req createClientRequest
	if !bindJSON(c, &req) {
		return
	}
	client, err := h.svc.CreateClient(c.Request.Context(), service.NewClient{
		Name:      req.Name,
		Email:     req.Email,
		DNI:       req.DNI,
		Phone:     req.Phone,
		BirthDate: *req.BirthDate,
		Enabled:   req.Enabled,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.clientView(client))
}

func (h *Handler) listClients(c *gin.Context) {
	clients, err := h.svc.ListClients(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]clientView, 0, len(clients))
	for i := range clients {
		out = append(out, h.clientView(&clients[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getClient(c *gin.Context) {
	client, err := h.svc.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.clientView(client))
}

func (h *Handler) updateClient(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var patch model.ClientPatch
	if !bindJSON(c, &patch) {
		return
	}
	client, err := h.svc.UpdateClient(c.Request.Context(), id, patch)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.clientView(client))
}

func (h *Handler) deleteClient(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteClient(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "client deleted"})
}

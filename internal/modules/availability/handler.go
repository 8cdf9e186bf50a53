package availability

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cottage/internal/pkg/response"
)

type Handler struct {
	service *Service
	hub     *Hub
	log     *slog.Logger
}

func NewHandler(service *Service, hub *Hub, log *slog.Logger) *Handler {
	return &Handler{service: service, hub: hub, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/availability", h.GetAvailability)
}

// RegisterWS mounts the live feed outside the versioned API group.
func (h *Handler) RegisterWS(r gin.IRoutes) {
	if h.hub != nil {
		r.GET("/ws/availability", gin.WrapH(h.hub))
	}
}

func (h *Handler) GetAvailability(c *gin.Context) {
	busy, err := h.service.Busy(c.Request.Context())
	if err != nil {
		h.log.Error("load availability", "error", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load availability")
		return
	}
	response.NoStore(c)
	response.Success(c, http.StatusOK, busy)
}

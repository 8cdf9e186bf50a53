package admin

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cottage/internal/modules/booking"
	"cottage/internal/pkg/response"
)

type Handler struct {
	service *Service
	log     *slog.Logger
}

func NewHandler(service *Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes expects admin to be guarded by middleware.AdminOnly.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/bookings", h.ListBookings)
	admin.GET("/bookings/export", h.ExportBookings)
	admin.GET("/bookings/today", h.TodayBookings)
	admin.GET("/stats", h.GetStats)
}

func (h *Handler) ListBookings(c *gin.Context) {
	f, err := ParseFilter(c.Query("status"), c.Query("limit"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	list, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.internal(c, "list bookings", err)
		return
	}
	response.NoStore(c)
	response.Success(c, http.StatusOK, gin.H{"bookings": booking.ToResponses(list)})
}

func (h *Handler) ExportBookings(c *gin.Context) {
	f, err := ParseFilter(c.Query("status"), c.Query("limit"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	list, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.internal(c, "export bookings", err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="bookings.csv"`)
	response.NoStore(c)
	c.Status(http.StatusOK)
	if err := h.service.WriteCSV(c.Writer, list); err != nil {
		h.log.Error("write csv", "error", err)
	}
}

func (h *Handler) TodayBookings(c *gin.Context) {
	list, err := h.service.Today(c.Request.Context())
	if err != nil {
		h.internal(c, "today bookings", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": booking.ToResponses(list)})
}

func (h *Handler) GetStats(c *gin.Context) {
	st, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.internal(c, "stats", err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

func (h *Handler) internal(c *gin.Context, op string, err error) {
	h.log.Error(op, "error", err)
	response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}

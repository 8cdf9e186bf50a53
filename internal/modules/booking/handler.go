package booking

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cottage/internal/domain"
	"cottage/internal/middleware"
	"cottage/internal/pkg/response"
)

type Handler struct {
	service *Service
	log     *slog.Logger
}

func NewHandler(service *Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts the public booking routes. rg is expected to run
// OptionalJWT so signed-in guests become owners.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.PATCH("/bookings/:id", h.UpdateStatus)
	rg.POST("/bookings/:id", h.Action)
	rg.GET("/bookings/:id/payment", h.GetPaymentInfo)
}

// RegisterUserRoutes expects rg to require a JWT.
func (h *Handler) RegisterUserRoutes(rg *gin.RouterGroup) {
	rg.GET("/me/bookings", h.MyBookings)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if uid, ok := middleware.UserID(c); ok {
		req.UserID = &uid
	}

	res, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, CreateBookingResponse{
		Booking: ToResponse(res.Booking),
		Quote:   res.Quote,
	})
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.NoStore(c)
	response.Success(c, http.StatusOK, ToResponse(b))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "status is required")
		return
	}
	h.setStatus(c, req.Status, middleware.AdminKeyFromRequest(c))
}

// Action serves the confirm/cancel links of the admin panel.
func (h *Handler) Action(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "action is required")
		return
	}

	var status string
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "confirm":
		status = string(domain.BookingConfirmed)
	case "cancel":
		status = string(domain.BookingCancelled)
	default:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "action must be confirm or cancel")
		return
	}

	key := req.AdminKey
	if key == "" {
		key = middleware.AdminKeyFromRequest(c)
	}
	h.setStatus(c, status, key)
}

func (h *Handler) setStatus(c *gin.Context, rawStatus, key string) {
	actor := Actor{
		AdminKey:       key,
		TrustedChannel: middleware.Role(c) == string(domain.RoleAdmin),
	}
	if err := h.service.authorize(actor); err != nil {
		h.writeError(c, err)
		return
	}

	next, err := ParseTargetStatus(rawStatus)
	if err != nil {
		h.writeError(c, err)
		return
	}

	b, err := h.service.SetStatus(c.Request.Context(), c.Param("id"), next, actor)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ToResponse(b))
}

func (h *Handler) GetPaymentInfo(c *gin.Context) {
	info, err := h.service.PaymentInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.NoStore(c)
	response.Success(c, http.StatusOK, info)
}

func (h *Handler) MyBookings(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	list, err := h.service.ListForUser(c.Request.Context(), uid, 50)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": ToResponses(list)})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", verr.Message, gin.H{"field": verr.Field})
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "BOOKING_CONFLICT", "Ці дати вже зайняті, оберіть інші")
	case errors.Is(err, ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Admin key is missing or invalid")
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", "Booking cannot move to this status")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	default:
		h.log.Error("booking request failed", "path", c.FullPath(), "error", err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

package pricing

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cottage/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	defaultAdults        = 2
	defaultChildrenOver6 = 0
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/pricing", h.GetPricing)
}

// RegisterAdminRoutes expects rg to be guarded by the admin key.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/seasons", h.CreateSeason)
	rg.PUT("/price-overrides/:date", h.PutOverride)
	rg.DELETE("/price-overrides/:date", h.DeleteOverride)
	rg.PUT("/surcharges/:type", h.PutSurcharge)
}

// GetPricing serves either a month calendar (?month=YYYY-MM) or a stay quote.
func (h *Handler) GetPricing(c *gin.Context) {
	if month, ok := c.GetQuery("month"); ok {
		cal, err := h.service.Month(c.Request.Context(), month)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.Success(c, http.StatusOK, cal)
		return
	}

	req := QuoteRequest{
		CheckIn:  c.Query("checkIn"),
		CheckOut: c.Query("checkOut"),
	}
	var err error
	if req.Adults, err = queryInt(c, "adults", defaultAdults); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "adults must be an integer")
		return
	}
	if req.ChildrenOver6, err = queryInt(c, "childrenOver6", defaultChildrenOver6); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "childrenOver6 must be an integer")
		return
	}
	req.HasPet = queryBool(c, "hasPet")

	q, err := h.service.Quote(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

func (h *Handler) CreateSeason(c *gin.Context) {
	var req SeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	season, err := h.service.AddSeason(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"id":           season.ID,
		"startDate":    season.StartDate.Format("2006-01-02"),
		"endDate":      season.EndDate.Format("2006-01-02"),
		"weekdayPrice": season.WeekdayPrice,
		"weekendPrice": season.WeekendPrice,
		"weekendDays":  season.WeekendDays,
		"currency":     season.Currency,
	})
}

func (h *Handler) PutOverride(c *gin.Context) {
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if err := h.service.SetOverride(c.Request.Context(), c.Param("date"), &req.Price); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"date": c.Param("date"), "price": req.Price})
}

func (h *Handler) DeleteOverride(c *gin.Context) {
	if err := h.service.SetOverride(c.Request.Context(), c.Param("date"), nil); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"date": c.Param("date")})
}

func (h *Handler) PutSurcharge(c *gin.Context) {
	var req SurchargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	sc, err := h.service.SetSurcharge(c.Request.Context(), c.Param("type"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sc)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBadMonth):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute pricing")
	}
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func queryBool(c *gin.Context, key string) bool {
	v := strings.ToLower(strings.TrimSpace(c.Query(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

package rental

import (
	"net/http"
	"strings"
	"time"

	"github.com/RevoGrid/RevoGrid/internal/common/middleware"
	"github.com/gin-gonic/gin"
)

// Handler 预订 HTTP 路由。
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册路由。authed 为 JWT 鉴权中间件。
func (h *Handler) RegisterRoutes(r *gin.Engine, authed gin.HandlerFunc) {
	r.POST("/rentals", authed, h.createRental)
	r.GET("/rentals/user", authed, h.listUserRentals)
	r.GET("/rentals/car/:carId", authed, h.carRentalInfo)
}

type createRentalRequest struct {
	CarID       string `json:"carId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	WithDriver  bool   `json:"withDriver"`
	Destination string `json:"destination"`
}

func (h *Handler) createRental(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth context"})
		return
	}

	var req createRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}
	if strings.TrimSpace(req.CarID) == "" || req.StartDate == "" || req.EndDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Car ID, startDate, and endDate are required."})
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid start or end dates."})
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid start or end dates."})
		return
	}

	rt, err := h.svc.CreateRental(c.Request.Context(), id.UserID, id.Role, CreateRentalInput{
		CarID:       req.CarID,
		StartDate:   start,
		EndDate:     end,
		WithDriver:  req.WithDriver,
		Destination: req.Destination,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Rental created successfully.",
		"rental":  toRentalJSON(rt),
	})
}

func (h *Handler) listUserRentals(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth context"})
		return
	}
	views, err := h.svc.ListUserRentals(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	if views == nil {
		views = []ClientRentalView{}
	}
	c.JSON(http.StatusOK, gin.H{"rentals": views})
}

func (h *Handler) carRentalInfo(c *gin.Context) {
	info, err := h.svc.CarRentalInfo(c.Request.Context(), c.Param("carId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": info.Message,
		"rentalDetails": gin.H{
			"clientName": info.ClientName,
			"carModel":   info.CarModel,
			"startDate":  info.StartDate,
			"endDate":    info.EndDate,
		},
	})
}

// writeError 错误分类到 HTTP 状态码的映射。
func writeError(c *gin.Context, err error) {
	msg := err.Error()
	switch KindOf(err) {
	case KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"message": msg})
	case KindInvalidInput, KindConflict:
		c.JSON(http.StatusBadRequest, gin.H{"message": msg})
	case KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"message": msg})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while processing the rental."})
	}
}

// parseDate 接受 RFC3339 或纯日期两种格式。
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func toRentalJSON(rt *Rental) gin.H {
	out := gin.H{
		"id":         rt.ID,
		"car":        rt.CarID,
		"client":     rt.ClientID,
		"startDate":  rt.StartDate,
		"endDate":    rt.EndDate,
		"totalPrice": rt.TotalPrice,
		"withDriver": rt.WithDriver,
	}
	if rt.Destination != "" {
		out["destination"] = rt.Destination
	}
	return out
}

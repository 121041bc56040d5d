package car

import (
	"context"
	"net/http"
	"strings"

	"github.com/RevoGrid/RevoGrid/internal/common/logger"
	"github.com/RevoGrid/RevoGrid/internal/common/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RentalGuard 由租约侧实现：车辆真正的可订性来自租约区间，而不是缓存标记。
type RentalGuard interface {
	// HasActiveOrUpcoming 是否存在未结束的租约（进行中或未来）。
	HasActiveOrUpcoming(ctx context.Context, carID string) (bool, error)
	// ActiveCarIDs 当前时刻被占用的车辆 ID 集合。
	ActiveCarIDs(ctx context.Context) (map[string]struct{}, error)
}

// Handler 车辆 CRUD HTTP 路由（agence 侧）。
type Handler struct {
	repo  *Repo
	guard RentalGuard
	log   logger.Logger
}

func NewHandler(db *gorm.DB, guard RentalGuard, log logger.Logger) *Handler {
	return &Handler{
		repo:  NewRepo(db),
		guard: guard,
		log:   log,
	}
}

func (h *Handler) Repo() *Repo {
	return h.repo
}

// RegisterRoutes 注册路由。authed 为 JWT 鉴权中间件。
func (h *Handler) RegisterRoutes(r *gin.Engine, authed gin.HandlerFunc) {
	r.POST("/cars", authed, middleware.RequireRole("agence"), h.createCar)
	r.GET("/cars", h.listCars)
	r.GET("/cars/:id", h.getCar)
	r.GET("/carsagency", h.listByAgency)
	r.PUT("/cars/:id", authed, middleware.RequireRole("agence"), h.updateCar)
	r.DELETE("/cars/:id", authed, middleware.RequireRole("agence"), h.deleteCar)
}

type createCarRequest struct {
	Model        string  `json:"model"`
	PricePerDay  float64 `json:"priceperday"`
	LicensePlate string  `json:"licensePlate"`
	Transmission string  `json:"transmission"`
	Image        string  `json:"image"`
}

func (h *Handler) createCar(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	var req createCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}
	req.Model = strings.TrimSpace(req.Model)
	req.LicensePlate = strings.TrimSpace(req.LicensePlate)
	if req.Model == "" || req.PricePerDay <= 0 || req.LicensePlate == "" || req.Transmission == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "All fields are required."})
		return
	}

	newCar := &Car{
		ID:           uuid.NewString(),
		Model:        req.Model,
		PricePerDay:  req.PricePerDay,
		LicensePlate: req.LicensePlate,
		Transmission: strings.TrimSpace(req.Transmission),
		Image:        strings.TrimSpace(req.Image),
		AgencyID:     id.UserID,
		Availability: true,
	}
	if err := h.repo.Create(c.Request.Context(), newCar); err != nil {
		if h.log != nil {
			h.log.Errorf("create car failed: %v", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while adding the car."})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Car added successfully", "car": h.toView(c.Request.Context(), newCar, nil)})
}

func (h *Handler) listCars(c *gin.Context) {
	ctx := c.Request.Context()
	cars, err := h.repo.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while fetching cars."})
		return
	}
	if len(cars) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No cars available."})
		return
	}
	c.JSON(http.StatusOK, h.toViews(ctx, cars))
}

func (h *Handler) getCar(c *gin.Context) {
	ctx := c.Request.Context()
	found, err := h.repo.FindByID(ctx, c.Param("id"))
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "Car not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while fetching car details."})
		return
	}
	c.JSON(http.StatusOK, h.toView(ctx, found, nil))
}

func (h *Handler) listByAgency(c *gin.Context) {
	agencyID := strings.TrimSpace(c.Query("agencyId"))
	if agencyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "agencyId is required."})
		return
	}
	ctx := c.Request.Context()
	cars, err := h.repo.ListByAgency(ctx, agencyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while fetching cars."})
		return
	}
	if len(cars) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No cars found for this agency."})
		return
	}
	c.JSON(http.StatusOK, h.toViews(ctx, cars))
}

type updateCarRequest struct {
	Model        *string  `json:"model"`
	PricePerDay  *float64 `json:"priceperday"`
	Transmission *string  `json:"transmission"`
	Image        *string  `json:"image"`
	Availability *bool    `json:"availability"`
}

func (h *Handler) updateCar(c *gin.Context) {
	var req updateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}

	ctx := c.Request.Context()
	existing, err := h.repo.FindByID(ctx, c.Param("id"))
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "Car not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
		return
	}

	id, _ := middleware.IdentityFrom(c)
	if existing.AgencyID != id.UserID {
		c.JSON(http.StatusForbidden, gin.H{"message": "permission denied"})
		return
	}

	if req.Model != nil {
		existing.Model = strings.TrimSpace(*req.Model)
	}
	if req.PricePerDay != nil && *req.PricePerDay > 0 {
		existing.PricePerDay = *req.PricePerDay
	}
	if req.Transmission != nil {
		existing.Transmission = strings.TrimSpace(*req.Transmission)
	}
	if req.Image != nil {
		existing.Image = strings.TrimSpace(*req.Image)
	}
	if req.Availability != nil {
		// agence 手工强制恢复可用
		existing.Availability = *req.Availability
	}

	if err := h.repo.Update(ctx, existing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while updating the car."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Car updated successfully", "car": h.toView(ctx, existing, nil)})
}

func (h *Handler) deleteCar(c *gin.Context) {
	ctx := c.Request.Context()
	existing, err := h.repo.FindByID(ctx, c.Param("id"))
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "Car not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
		return
	}

	id, _ := middleware.IdentityFrom(c)
	if existing.AgencyID != id.UserID {
		c.JSON(http.StatusForbidden, gin.H{"message": "permission denied"})
		return
	}

	// 有未结束租约时禁止删除
	if h.guard != nil {
		busy, err := h.guard.HasActiveOrUpcoming(ctx, existing.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
			return
		}
		if busy {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Car has active rentals and cannot be deleted."})
			return
		}
	}

	if err := h.repo.Delete(ctx, existing.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while deleting the car."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Car deleted successfully"})
}

// toViews 批量转换，只查一次当前占用集合。
func (h *Handler) toViews(ctx context.Context, cars []Car) []gin.H {
	var active map[string]struct{}
	if h.guard != nil {
		if ids, err := h.guard.ActiveCarIDs(ctx); err == nil {
			active = ids
		}
	}
	out := make([]gin.H, 0, len(cars))
	for i := range cars {
		out = append(out, h.toView(ctx, &cars[i], active))
	}
	return out
}

// toView 输出视图。可用性按“当前没有进行中的租约”现算，缓存标记只兜底：
// 进程重启丢了定时器时，读取侧不会被过期的 false 卡死。
func (h *Handler) toView(ctx context.Context, c *Car, active map[string]struct{}) gin.H {
	available := c.Availability
	if active != nil {
		_, busy := active[c.ID]
		available = !busy
	} else if h.guard != nil {
		if ids, err := h.guard.ActiveCarIDs(ctx); err == nil {
			_, busy := ids[c.ID]
			available = !busy
		}
	}
	return gin.H{
		"id":           c.ID,
		"model":        c.Model,
		"priceperday":  c.PricePerDay,
		"licensePlate": c.LicensePlate,
		"transmission": c.Transmission,
		"image":        c.Image,
		"agency":       c.AgencyID,
		"availability": available,
		"createdAt":    c.CreatedAt,
	}
}

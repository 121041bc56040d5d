package cart

import (
	"net/http"
	"strings"

	"github.com/RevoGrid/RevoGrid/internal/common/logger"
	"github.com/RevoGrid/RevoGrid/internal/common/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Handler 购物车 HTTP 路由。
type Handler struct {
	repo *Repo
	log  logger.Logger
}

func NewHandler(db *gorm.DB, log logger.Logger) *Handler {
	return &Handler{repo: NewRepo(db), log: log}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, authed gin.HandlerFunc) {
	r.POST("/cart", authed, h.addToCart)
	r.GET("/cart", authed, h.listCart)
	r.DELETE("/cart/:carId", authed, h.removeFromCart)
}

type addToCartRequest struct {
	CarID string `json:"carId"`
}

func (h *Handler) addToCart(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth context"})
		return
	}

	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.CarID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Car ID is required."})
		return
	}

	item := &Item{
		ID:     uuid.NewString(),
		UserID: id.UserID,
		CarID:  strings.TrimSpace(req.CarID),
	}
	err := h.repo.Add(c.Request.Context(), item)
	if err == ErrAlreadyInCart {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Car is already in your cart."})
		return
	}
	if err != nil {
		h.log.Errorf("add to cart failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while adding to cart."})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Car added to cart.", "itemId": item.ID})
}

func (h *Handler) listCart(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth context"})
		return
	}
	views, err := h.repo.ListByUser(c.Request.Context(), id.UserID)
	if err != nil {
		h.log.Errorf("list cart failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while fetching the cart."})
		return
	}
	if views == nil {
		views = []View{}
	}
	c.JSON(http.StatusOK, gin.H{"cart": views})
}

func (h *Handler) removeFromCart(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth context"})
		return
	}
	err := h.repo.Remove(c.Request.Context(), id.UserID, c.Param("carId"))
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "Car is not in your cart."})
		return
	}
	if err != nil {
		h.log.Errorf("remove from cart failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while updating the cart."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Car removed from cart."})
}

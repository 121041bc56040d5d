package v2g

import (
	"net/http"

	"github.com/RevoGrid/RevoGrid/internal/common/logger"
	"github.com/RevoGrid/RevoGrid/internal/common/middleware"
	"github.com/RevoGrid/RevoGrid/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Handler V2G 售电 HTTP 路由。
type Handler struct {
	db   *gorm.DB
	repo *Repo
	log  logger.Logger
}

func NewHandler(db *gorm.DB, log logger.Logger) *Handler {
	return &Handler{db: db, repo: NewRepo(db), log: log}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, authed gin.HandlerFunc) {
	r.POST("/v2g/sell", authed, h.sellEnergy)
	r.GET("/v2g/history/:userId", authed, h.history)
}

type sellEnergyRequest struct {
	QuantityKwh float64 `json:"quantityKwh"`
	PricePerKwh float64 `json:"pricePerKwh"`
}

// sellEnergy 记录一次售电并把收益记入用户钱包。
func (h *Handler) sellEnergy(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth context"})
		return
	}

	var req sellEnergyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}
	if req.QuantityKwh <= 0 || req.PricePerKwh <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "quantityKwh and pricePerKwh must be positive."})
		return
	}

	gain := Round3(req.QuantityKwh * req.PricePerKwh)
	tx := &Transaction{
		ID:          uuid.NewString(),
		UserID:      id.UserID,
		QuantityKwh: req.QuantityKwh,
		PricePerKwh: req.PricePerKwh,
		TotalGain:   gain,
		Status:      "completed",
	}
	// 交易落库和钱包入账是一个单元：任一失败整体回滚，不留半截状态。
	var u *user.User
	ctx := c.Request.Context()
	err := h.db.WithContext(ctx).Transaction(func(txdb *gorm.DB) error {
		if err := NewRepo(txdb).Create(ctx, tx); err != nil {
			return err
		}
		credited, err := user.NewRepo(txdb).CreditWallet(ctx, id.UserID, gain)
		if err != nil {
			return err
		}
		u = credited
		return nil
	})
	if err != nil {
		h.log.Errorf("record v2g sale failed for user %s: %v", id.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while recording the sale."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Energy sold successfully.",
		"transactionId": tx.ID,
		"gain":          gain,
		"newBalance":    Round3(u.WalletBalance),
	})
}

// history 用户的售电历史 + 累计统计。只能看自己的。
func (h *Handler) history(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth context"})
		return
	}
	userID := c.Param("userId")
	if userID != id.UserID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Access denied."})
		return
	}

	txs, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.log.Errorf("list v2g history failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while fetching the history."})
		return
	}
	stats, err := h.repo.StatsByUser(c.Request.Context(), userID)
	if err != nil {
		h.log.Errorf("v2g stats failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while fetching the history."})
		return
	}
	if txs == nil {
		txs = []Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"stats":        stats,
	})
}

package v2g

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"
)

// Round3 金额和电量统一保留三位小数。
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

func (r *Repo) Create(ctx context.Context, tx *Transaction) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(tx).Error
}

// ListByUser 某个用户的售电历史，最新的在前。
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Transaction, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var txs []Transaction
	err := db.Where("user_id = ?", userID).Order("timestamp DESC").Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// StatsByUser 在库里聚合，不把整张历史拉回来。
func (r *Repo) StatsByUser(ctx context.Context, userID string) (*Stats, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var row struct {
		TotalGain   float64
		TotalEnergy float64
		Count       int64
	}
	err := db.Model(&Transaction{}).
		Select("COALESCE(SUM(total_gain), 0) AS total_gain, COALESCE(SUM(quantity_kwh), 0) AS total_energy, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalGain:        Round3(row.TotalGain),
		TotalEnergy:      Round3(row.TotalEnergy),
		TransactionCount: int(row.Count),
	}, nil
}

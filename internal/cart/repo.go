package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrAlreadyInCart 同一辆车同一个人只能加一次。
var ErrAlreadyInCart = errors.New("car already in cart")

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

// Add 单条 INSERT，去重交给 (user_id, car_id) 唯一索引：
// 并发加同一辆车时也只会成功一条，冲突统一映射成 ErrAlreadyInCart。
func (r *Repo) Add(ctx context.Context, item *Item) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	err := db.Create(item).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyInCart
	}
	return err
}

func (r *Repo) Remove(ctx context.Context, userID, carID string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := db.Where("user_id = ? AND car_id = ?", userID, carID).Delete(&Item{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByUser 按加入时间倒序返回购物车，附带车辆展示字段。
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]View, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var views []View
	err := db.Table("cart_items").
		Select(`cart_items.id AS id,
			cart_items.car_id AS car_id,
			cars.model AS model,
			cars.price_per_day AS price_per_day,
			cars.image AS image,
			cars.transmission AS transmission,
			cars.agency_id AS agency_id`).
		Joins("JOIN cars ON cars.id = cart_items.car_id").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.created_at DESC").
		Scan(&views).Error
	if err != nil {
		return nil, err
	}
	return views, nil
}

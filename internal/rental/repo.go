package rental

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

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

func (r *Repo) Create(ctx context.Context, rt *Rental) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(rt).Error
}

// ListOverlapping 查询与 [start, end) 重叠的该车租约。
// 半开区间重叠条件：existing.start < end AND existing.end > start。
func (r *Repo) ListOverlapping(ctx context.Context, carID string, start, end time.Time) ([]Rental, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var rentals []Rental
	err := db.Where("car_id = ? AND start_date < ? AND end_date > ?", carID, end, start).
		Find(&rentals).Error
	if err != nil {
		return nil, err
	}
	return rentals, nil
}

// ListByClient 某客户的租约，按开始时间倒序，带车辆/agence展示字段。
func (r *Repo) ListByClient(ctx context.Context, clientID string) ([]ClientRentalView, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var views []ClientRentalView
	err := db.Table("rentals").
		Select("rentals.id, rentals.start_date, rentals.end_date, rentals.total_price, rentals.with_driver, rentals.destination, " +
			"cars.id AS car_id, cars.model AS car_model, cars.price_per_day AS price_per_day, cars.image AS car_image, " +
			"users.agency_name AS agency_name").
		Joins("JOIN cars ON cars.id = rentals.car_id").
		Joins("JOIN users ON users.id = cars.agency_id").
		Where("rentals.client_id = ?", clientID).
		Order("rentals.start_date DESC").
		Scan(&views).Error
	if err != nil {
		return nil, err
	}
	return views, nil
}

// LatestForCar 该车开始时间最新的一条租约。
func (r *Repo) LatestForCar(ctx context.Context, carID string) (*Rental, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var rt Rental
	err := db.Where("car_id = ?", carID).Order("start_date DESC").First(&rt).Error
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// ActiveNow 此刻是否有租约占用该车（now ∈ [start, end)）。
func (r *Repo) ActiveNow(ctx context.Context, carID string) (bool, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return false, fmt.Errorf("repo db is nil")
	}
	now := time.Now()
	var count int64
	err := db.Model(&Rental{}).
		Where("car_id = ? AND start_date <= ? AND end_date > ?", carID, now, now).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasActiveOrUpcoming 是否存在未结束的租约（进行中或未来）。车辆删除前的检查。
func (r *Repo) HasActiveOrUpcoming(ctx context.Context, carID string) (bool, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return false, fmt.Errorf("repo db is nil")
	}
	var count int64
	err := db.Model(&Rental{}).
		Where("car_id = ? AND end_date > ?", carID, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ActiveCarIDs 当前被占用的车辆 ID 集合（读取侧现算可用性用）。
func (r *Repo) ActiveCarIDs(ctx context.Context) (map[string]struct{}, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	now := time.Now()
	var ids []string
	err := db.Model(&Rental{}).
		Where("start_date <= ? AND end_date > ?", now, now).
		Distinct().
		Pluck("car_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

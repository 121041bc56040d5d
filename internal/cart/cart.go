package cart

import "time"

// Item 是 cart_items 表的 GORM 模型：某个客户收藏待租的一辆车。
// (user_id, car_id) 去重，重复加入直接拒绝。
type Item struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_cart_user_car"`
	CarID     string    `gorm:"size:36;not null;uniqueIndex:idx_cart_user_car"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Item) TableName() string {
	return "cart_items"
}

// View 购物车列表项：条目 + 车辆展示字段。
type View struct {
	ID           string  `gorm:"column:id" json:"id"`
	CarID        string  `gorm:"column:car_id" json:"carId"`
	Model        string  `gorm:"column:model" json:"model"`
	PricePerDay  float64 `gorm:"column:price_per_day" json:"priceperday"`
	Image        string  `gorm:"column:image" json:"image"`
	Transmission string  `gorm:"column:transmission" json:"transmission"`
	AgencyID     string  `gorm:"column:agency_id" json:"agencyId"`
}

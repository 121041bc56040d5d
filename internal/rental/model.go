package rental

import "time"

// Rental 是 rentals 表的 GORM 模型。
//
// 不变式：同一辆车的任意两条租约区间 [start, end) 不重叠。
// 租约创建后不可变（无取消/修改路径），TotalPrice 在创建时一次性算出。
type Rental struct {
	ID          string    `gorm:"primaryKey;size:36"`
	CarID       string    `gorm:"index;size:36;not null"`
	ClientID    string    `gorm:"index;size:36;not null"`
	StartDate   time.Time `gorm:"index;not null"`
	EndDate     time.Time `gorm:"index;not null"` // 开区间端点：end 时刻本身不占用
	TotalPrice  float64   `gorm:"not null"`
	WithDriver  bool      `gorm:"not null;default:false"`
	Destination string    `gorm:"size:255"` // 仅 with_driver 时有意义
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// ClientRentalView 客户端“我的租约”列表项：租约 + 车辆/agence展示字段。
type ClientRentalView struct {
	ID          string    `gorm:"column:id" json:"id"`
	StartDate   time.Time `gorm:"column:start_date" json:"startDate"`
	EndDate     time.Time `gorm:"column:end_date" json:"endDate"`
	TotalPrice  float64   `gorm:"column:total_price" json:"totalPrice"`
	WithDriver  bool      `gorm:"column:with_driver" json:"withDriver"`
	Destination string    `gorm:"column:destination" json:"destination,omitempty"`
	CarID       string    `gorm:"column:car_id" json:"carId"`
	CarModel    string    `gorm:"column:car_model" json:"carModel"`
	PricePerDay float64   `gorm:"column:price_per_day" json:"priceperday"`
	CarImage    string    `gorm:"column:car_image" json:"carImage"`
	AgencyName  string    `gorm:"column:agency_name" json:"agencyName"`
}

// Info 单辆车最近一条租约的可读摘要。
type Info struct {
	Message    string `json:"message"`
	ClientName string `json:"clientName"`
	CarModel   string `json:"carModel"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

package car

import (
	"time"
)

// Car 是 cars 表的 GORM 模型。
//
// Availability 是缓存的派生标记（“现在能不能订”），真正的可订性判断永远
// 走 rentals 区间查询；该字段只用于列表展示的快速过滤。
type Car struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Model        string    `gorm:"size:64;not null"`
	PricePerDay  float64   `gorm:"not null"` // 单位：货币/天
	LicensePlate string    `gorm:"uniqueIndex;size:32;not null"`
	Transmission string    `gorm:"size:32"` // manual / automatic
	Image        string    `gorm:"size:255"`
	AgencyID     string    `gorm:"index;size:36;not null"` // 所属agence（users 表）
	Availability bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

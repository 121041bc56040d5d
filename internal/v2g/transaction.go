package v2g

import "time"

// Transaction 是 v2g_transactions 表的 GORM 模型：一次车辆向电网的售电记录。
// TotalGain 在创建时按 QuantityKwh * PricePerKwh 算出并四舍五入到三位小数。
type Transaction struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"index;size:36;not null" json:"userId"`
	QuantityKwh float64   `gorm:"not null" json:"quantityKwh"`
	PricePerKwh float64   `gorm:"not null" json:"pricePerKwh"`
	TotalGain   float64   `gorm:"not null" json:"totalGain"`
	Status      string    `gorm:"size:32;not null;default:completed" json:"status"`
	Timestamp   time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (Transaction) TableName() string {
	return "v2g_transactions"
}

// Stats 一个用户的累计售电统计。
type Stats struct {
	TotalGain        float64 `json:"totalGain"`
	TotalEnergy      float64 `json:"totalEnergy"`
	TransactionCount int     `json:"transactionCount"`
}

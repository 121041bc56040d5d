package user

import (
	"time"
)

// 用户角色：client 租车，agence 上架车辆。
const (
	RoleClient = "client"
	RoleAgence = "agence"
)

// User 是 users 表的 GORM 模型。
// client / agence 共用一张表，角色相关字段允许为空。
type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	Role         string `gorm:"type:varchar(16);index;not null"` // client / agence
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:128;not null"`
	PasswordSalt string `gorm:"size:64;not null"`
	PhoneNumber  string `gorm:"size:32"`

	// client 字段
	Firstname    string `gorm:"size:64"`
	Lastname     string `gorm:"size:64"`
	BirthDate    string `gorm:"size:32"`
	Gender       string `gorm:"size:16"`
	ProfileImage string `gorm:"size:255"`

	// agence 字段
	AgencyCode string  `gorm:"size:64"`
	AgencyName string  `gorm:"size:128;index"`
	Latitude   float64 `gorm:"default:0"`
	Longitude  float64 `gorm:"default:0"`

	// V2G 钱包余额
	WalletBalance float64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// IsAgency 是否为agence角色。
func (u User) IsAgency() bool {
	return u.Role == RoleAgence
}

// DisplayName 用于展示的名称：client 取姓名，agence 取机构名。
func (u User) DisplayName() string {
	if u.IsAgency() {
		return u.AgencyName
	}
	if u.Firstname == "" && u.Lastname == "" {
		return u.Email
	}
	if u.Lastname == "" {
		return u.Firstname
	}
	return u.Firstname + " " + u.Lastname
}

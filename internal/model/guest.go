package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GuestProfile 顾客档案 — 对应 guest_profiles
// 统计字段均为派生值，只由统计重算写入
type GuestProfile struct {
	GuestProfileID string              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"guest_profile_id"`
	Email          string              `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	Phone          string              `gorm:"type:varchar(32)"                               json:"phone,omitempty"`
	FirstName      string              `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName       string              `gorm:"type:varchar(100);not null"                     json:"last_name"`
	TotalVisits    int                 `gorm:"not null;default:0"                             json:"total_visits"`
	AvgPartySize   decimal.NullDecimal `gorm:"type:numeric(6,2)"                              json:"avg_party_size"`
	LastVisitDate  *time.Time          `gorm:"type:date"                                      json:"last_visit_date,omitempty"`
	NoShowCount    int                 `gorm:"not null;default:0"                             json:"no_show_count"`
	CreatedAt      time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt      time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (GuestProfile) TableName() string { return "guest_profiles" }

// GuestStats 重算得到的统计值
type GuestStats struct {
	TotalVisits   int
	AvgPartySize  decimal.NullDecimal
	LastVisitDate *time.Time
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

// 预订状态
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusSeated    = "SEATED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusNoShow    = "NO_SHOW"
)

// ActiveStatuses 占用餐桌与容量的状态
var ActiveStatuses = []string{StatusPending, StatusConfirmed, StatusSeated}

// IsActiveStatus 状态是否占用餐桌与容量
func IsActiveStatus(status string) bool {
	for _, s := range ActiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Reservation 预订表 — 对应 reservations
// StartMinute/EndMinute 为相对服务日零点的分钟数，跨午夜班次的时刻会超过 1440
type Reservation struct {
	ReservationID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reservation_id"`
	RestaurantID       string     `gorm:"type:uuid;not null"                             json:"restaurant_id"`
	TableID            string     `gorm:"type:uuid;not null"                             json:"table_id"`
	ShiftID            string     `gorm:"type:uuid;not null"                             json:"shift_id"`
	GuestProfileID     *string    `gorm:"type:uuid"                                      json:"guest_profile_id,omitempty"`
	ReservationDate    time.Time  `gorm:"type:date;not null"                             json:"reservation_date"`
	StartTime          string     `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime            string     `gorm:"type:varchar(5);not null"                       json:"end_time"`
	StartMinute        int        `gorm:"not null"                                       json:"start_minute"`
	EndMinute          int        `gorm:"not null"                                       json:"end_minute"`
	PartySize          int        `gorm:"not null"                                       json:"party_size"`
	Status             string     `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"`
	ConfirmationCode   string     `gorm:"type:varchar(16);not null;uniqueIndex"          json:"confirmation_code"`
	GuestName          string     `gorm:"type:varchar(200);not null"                     json:"guest_name"`
	GuestEmail         string     `gorm:"type:varchar(255)"                              json:"guest_email,omitempty"`
	GuestPhone         string     `gorm:"type:varchar(32)"                               json:"guest_phone,omitempty"`
	SpecialRequests    string     `gorm:"type:varchar(1000)"                             json:"special_requests,omitempty"`
	CancellationReason string     `gorm:"type:varchar(500)"                              json:"cancellation_reason,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	SeatedAt           *time.Time `json:"seated_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	VersionedModel

	// 关联
	Table *Table `gorm:"foreignKey:TableID;references:TableID" json:"table,omitempty"`
}

func (Reservation) TableName() string { return "reservations" }

// Overlaps 两个半开区间 [StartMinute, EndMinute) 是否相交
func (r *Reservation) Overlaps(start, end int) bool {
	return r.StartMinute < end && start < r.EndMinute
}

// 审计动作
const (
	AuditActionCreated   = "CREATED"
	AuditActionModified  = "MODIFIED"
	AuditActionReseated  = "TABLE_REASSIGNED"
	AuditActionConfirmed = "CONFIRMED"
	AuditActionSeated    = "SEATED"
	AuditActionCompleted = "COMPLETED"
	AuditActionCancelled = "CANCELLED"
	AuditActionNoShow    = "NO_SHOW"
)

// ReservationAuditLog 预订审计日志 — 对应 reservation_audit_logs（只追加）
type ReservationAuditLog struct {
	AuditLogID    string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_log_id"`
	ReservationID string         `gorm:"type:uuid;not null"                             json:"reservation_id"`
	Action        string         `gorm:"type:varchar(30);not null"                      json:"action"`
	ActorID       string         `gorm:"type:varchar(64);not null"                      json:"actor_id"`
	Changes       datatypes.JSON `gorm:"type:jsonb;not null"                            json:"changes"`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (ReservationAuditLog) TableName() string { return "reservation_audit_logs" }

package dto

// ── 预订模块 DTO ──

// GuestInfo 预订人信息
type GuestInfo struct {
	Name  string `json:"name"  binding:"required,min=1,max=200"`
	Email string `json:"email" binding:"omitempty,email,max=255"`
	Phone string `json:"phone" binding:"omitempty,max=32"`
}

// CreateReservationRequest 创建预订请求
type CreateReservationRequest struct {
	RestaurantID    string    `json:"restaurant_id"    binding:"required"`
	Date            string    `json:"date"             binding:"required"` // "2026-10-19"
	Time            string    `json:"time"             binding:"required"` // "19:00"
	PartySize       int       `json:"party_size"       binding:"required,min=1"`
	Guest           GuestInfo `json:"guest"            binding:"required"`
	SpecialRequests string    `json:"special_requests" binding:"omitempty,max=1000"`
}

// ModifyReservationRequest 修改预订（日期 / 时间 / 人数）
type ModifyReservationRequest struct {
	Date            *string `json:"date"`
	Time            *string `json:"time"`
	PartySize       *int    `json:"party_size"       binding:"omitempty,min=1"`
	SpecialRequests *string `json:"special_requests" binding:"omitempty,max=1000"`
}

// ReassignTableRequest 员工调整餐桌
type ReassignTableRequest struct {
	TableID string `json:"table_id" binding:"required"`
}

// CancelReservationRequest 取消预订
type CancelReservationRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// ReservationListRequest 预订列表查询
type ReservationListRequest struct {
	PaginationRequest
	RestaurantID string `form:"restaurant_id"`
	Status       string `form:"status"     binding:"omitempty,oneof=PENDING CONFIRMED SEATED COMPLETED CANCELLED NO_SHOW"`
	StartDate    string `form:"start_date"`
	EndDate      string `form:"end_date"`
}

// DueReservationsQuery 待检查未到店的预订
type DueReservationsQuery struct {
	RestaurantID string `form:"restaurant_id" binding:"required"`
	Date         string `form:"date"          binding:"required"`
	Before       string `form:"before"        binding:"required"` // "HH:MM"
}

// ReservationResponse 预订信息响应
type ReservationResponse struct {
	ID                 string      `json:"id"`
	RestaurantID       string      `json:"restaurant_id"`
	ConfirmationCode   string      `json:"confirmation_code"`
	Status             string      `json:"status"`
	Date               string      `json:"date"`
	StartTime          string      `json:"start_time"`
	EndTime            string      `json:"end_time"`
	PartySize          int         `json:"party_size"`
	ShiftID            string      `json:"shift_id"`
	Table              *TableBrief `json:"table,omitempty"`
	TableID            string      `json:"table_id"`
	GuestProfileID     string      `json:"guest_profile_id,omitempty"`
	GuestName          string      `json:"guest_name"`
	GuestEmail         string      `json:"guest_email,omitempty"`
	GuestPhone         string      `json:"guest_phone,omitempty"`
	SpecialRequests    string      `json:"special_requests,omitempty"`
	CancellationReason string      `json:"cancellation_reason,omitempty"`
	ConfirmedAt        string      `json:"confirmed_at,omitempty"`
	SeatedAt           string      `json:"seated_at,omitempty"`
	CompletedAt        string      `json:"completed_at,omitempty"`
	CancelledAt        string      `json:"cancelled_at,omitempty"`
	CreatedAt          string      `json:"created_at"`
	UpdatedAt          string      `json:"updated_at"`
}

// AuditLogResponse 审计日志
type AuditLogResponse struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	ActorID   string `json:"actor_id"`
	Changes   any    `json:"changes"`
	CreatedAt string `json:"created_at"`
}

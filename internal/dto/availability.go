package dto

// ── 可用性查询 DTO ──

// AvailabilityQuery 单个时刻可用性查询
type AvailabilityQuery struct {
	Date      string `form:"date"       binding:"required"` // "2026-10-19"
	Time      string `form:"time"       binding:"required"` // "19:00"
	PartySize int    `form:"party_size" binding:"required,min=1"`
}

// SlotsQuery 时段列表查询
type SlotsQuery struct {
	Date      string `form:"date"       binding:"required"`
	PartySize int    `form:"party_size" binding:"required,min=1"`
}

// TableBrief 餐桌简要信息
type TableBrief struct {
	ID       string `json:"id"`
	Number   string `json:"number"`
	MinSeats int    `json:"min_seats"`
	MaxSeats int    `json:"max_seats"`
}

// ShiftBrief 班次简要信息
type ShiftBrief struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// AvailabilityResponse 可用性结果；不可订时带原因
type AvailabilityResponse struct {
	Available bool        `json:"available"`
	Reason    string      `json:"reason,omitempty"`
	Message   string      `json:"message,omitempty"`
	Table     *TableBrief `json:"table,omitempty"`
	Shift     *ShiftBrief `json:"shift,omitempty"`
}

// SlotResponse 单个时段的可用性
type SlotResponse struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	ShiftName string `json:"shift_name"`
	Reason    string `json:"reason,omitempty"`
}

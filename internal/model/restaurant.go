package model

import "time"

// Restaurant 餐厅表 — 对应 restaurants
// 本服务只读取餐厅配置，不负责维护
type Restaurant struct {
	RestaurantID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"restaurant_id"`
	Name         string `gorm:"type:varchar(200);not null"                     json:"name"`
	Timezone     string `gorm:"type:varchar(64);not null;default:'UTC'"        json:"timezone"` // IANA 时区
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	// 关联
	Policy *Policy `gorm:"foreignKey:RestaurantID;references:RestaurantID" json:"policy,omitempty"`
	Shifts []Shift `gorm:"foreignKey:RestaurantID;references:RestaurantID" json:"shifts,omitempty"`
	Blocks []Block `gorm:"foreignKey:RestaurantID;references:RestaurantID" json:"blocks,omitempty"`
	Areas  []Area  `gorm:"foreignKey:RestaurantID;references:RestaurantID" json:"areas,omitempty"`
	Tables []Table `gorm:"foreignKey:RestaurantID;references:RestaurantID" json:"tables,omitempty"`
}

func (Restaurant) TableName() string { return "restaurants" }

// Location 解析餐厅时区，非法时区回退到 UTC
func (r *Restaurant) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Policy 预订策略表 — 对应 restaurant_policies（与 restaurants 1:1）
type Policy struct {
	PolicyID                  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"policy_id"`
	RestaurantID              string `gorm:"type:uuid;not null;uniqueIndex"                 json:"restaurant_id"`
	MinAdvanceMinutes         int    `gorm:"not null;default:0"                             json:"min_advance_minutes"`
	MaxAdvanceDays            int    `gorm:"not null;default:30"                            json:"max_advance_days"`
	AllowModifications        bool   `gorm:"not null;default:true"                          json:"allow_modifications"`
	ModificationCutoffMinutes int    `gorm:"not null;default:0"                             json:"modification_cutoff_minutes"`
	AutoConfirm               bool   `gorm:"not null;default:true"                          json:"auto_confirm"`
	BaseModel
}

func (Policy) TableName() string { return "restaurant_policies" }

// Shift 营业班次表 — 对应 shifts
// EndTime 小于 StartTime 表示跨午夜班次，班次归属于开始当天
type Shift struct {
	ShiftID             string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	RestaurantID        string `gorm:"type:uuid;not null"                             json:"restaurant_id"`
	Name                string `gorm:"type:varchar(50);not null"                      json:"name"`
	DayOfWeek           int    `gorm:"type:smallint;not null"                         json:"day_of_week"` // 0-6，0 为周日
	StartTime           string `gorm:"type:time;not null"                             json:"start_time"`
	EndTime             string `gorm:"type:time;not null"                             json:"end_time"`
	SlotDurationMinutes int    `gorm:"not null;default:30"                            json:"slot_duration_minutes"`
	MaxCovers           *int   `json:"max_covers,omitempty"`
	IsActive            bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

func (Shift) TableName() string { return "shifts" }

// Block 临时闭店表 — 对应 blocks
// StartTime/EndTime 为空表示全天闭店
type Block struct {
	BlockID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"block_id"`
	RestaurantID string    `gorm:"type:uuid;not null"                             json:"restaurant_id"`
	StartDate    time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate      time.Time `gorm:"type:date;not null"                             json:"end_date"`
	StartTime    *string   `gorm:"type:time"                                      json:"start_time,omitempty"`
	EndTime      *string   `gorm:"type:time"                                      json:"end_time,omitempty"`
	Reason       string    `gorm:"type:varchar(200)"                              json:"reason,omitempty"`
	BaseModel
}

func (Block) TableName() string { return "blocks" }

// Area 用餐区域表 — 对应 areas
type Area struct {
	AreaID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"area_id"`
	RestaurantID string `gorm:"type:uuid;not null"                             json:"restaurant_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

func (Area) TableName() string { return "areas" }

// Table 餐桌表 — 对应 restaurant_tables
type Table struct {
	TableID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"table_id"`
	RestaurantID string `gorm:"type:uuid;not null"                             json:"restaurant_id"`
	AreaID       string `gorm:"type:uuid;not null"                             json:"area_id"`
	Number       string `gorm:"type:varchar(20);not null"                      json:"number"`
	MinSeats     int    `gorm:"not null"                                       json:"min_seats"`
	MaxSeats     int    `gorm:"not null"                                       json:"max_seats"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	// 关联
	Area *Area `gorm:"foreignKey:AreaID;references:AreaID" json:"area,omitempty"`
}

func (Table) TableName() string { return "restaurant_tables" }

// Fits 餐桌是否可容纳指定人数
func (t *Table) Fits(partySize int) bool {
	return t.MinSeats <= partySize && partySize <= t.MaxSeats
}

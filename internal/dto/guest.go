package dto

// GuestProfileResponse 顾客档案响应
type GuestProfileResponse struct {
	ID            string  `json:"id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Email         string  `json:"email,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	TotalVisits   int     `json:"total_visits"`
	AvgPartySize  *string `json:"avg_party_size"`
	LastVisitDate string  `json:"last_visit_date,omitempty"`
	NoShowCount   int     `json:"no_show_count"`
}

package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/niasikh/2fork-knife-backend/internal/dto"
	"github.com/niasikh/2fork-knife-backend/internal/model"
)

// uuidOrNil 审计列为 uuid 类型，外部身份 ID 不是 uuid 时不写入
func uuidOrNil(id string) *string {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	return &id
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toTableBrief(t *model.Table) *dto.TableBrief {
	if t == nil {
		return nil
	}
	return &dto.TableBrief{ID: t.TableID, Number: t.Number, MinSeats: t.MinSeats, MaxSeats: t.MaxSeats}
}

func toShiftBrief(s *model.Shift) *dto.ShiftBrief {
	if s == nil {
		return nil
	}
	return &dto.ShiftBrief{ID: s.ShiftID, Name: s.Name, StartTime: clockLabel(s.StartTime), EndTime: clockLabel(s.EndTime)}
}

// clockLabel 数据库 TIME 值统一为 "HH:MM"
func clockLabel(s string) string {
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}

func toReservationResponse(r *model.Reservation) *dto.ReservationResponse {
	resp := &dto.ReservationResponse{
		ID:                 r.ReservationID,
		RestaurantID:       r.RestaurantID,
		ConfirmationCode:   r.ConfirmationCode,
		Status:             r.Status,
		Date:               r.ReservationDate.Format(model.DateLayout),
		StartTime:          r.StartTime,
		EndTime:            r.EndTime,
		PartySize:          r.PartySize,
		ShiftID:            r.ShiftID,
		TableID:            r.TableID,
		Table:              toTableBrief(r.Table),
		GuestName:          r.GuestName,
		GuestEmail:         r.GuestEmail,
		GuestPhone:         r.GuestPhone,
		SpecialRequests:    r.SpecialRequests,
		CancellationReason: r.CancellationReason,
		ConfirmedAt:        formatTime(r.ConfirmedAt),
		SeatedAt:           formatTime(r.SeatedAt),
		CompletedAt:        formatTime(r.CompletedAt),
		CancelledAt:        formatTime(r.CancelledAt),
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          r.UpdatedAt.Format(time.RFC3339),
	}
	if r.GuestProfileID != nil {
		resp.GuestProfileID = *r.GuestProfileID
	}
	return resp
}

func toAuditLogResponse(l *model.ReservationAuditLog) dto.AuditLogResponse {
	var changes any
	if len(l.Changes) > 0 {
		_ = json.Unmarshal(l.Changes, &changes)
	}
	return dto.AuditLogResponse{
		ID:        l.AuditLogID,
		Action:    l.Action,
		ActorID:   l.ActorID,
		Changes:   changes,
		CreatedAt: l.CreatedAt.Format(time.RFC3339),
	}
}

func toGuestProfileResponse(g *model.GuestProfile) *dto.GuestProfileResponse {
	resp := &dto.GuestProfileResponse{
		ID:          g.GuestProfileID,
		FirstName:   g.FirstName,
		LastName:    g.LastName,
		Email:       g.Email,
		Phone:       g.Phone,
		TotalVisits: g.TotalVisits,
		NoShowCount: g.NoShowCount,
	}
	if g.AvgPartySize.Valid {
		avg := g.AvgPartySize.Decimal.StringFixed(2)
		resp.AvgPartySize = &avg
	}
	if g.LastVisitDate != nil {
		resp.LastVisitDate = g.LastVisitDate.Format(model.DateLayout)
	}
	return resp
}

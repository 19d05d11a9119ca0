package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/niasikh/2fork-knife-backend/internal/booking"
	"github.com/niasikh/2fork-knife-backend/internal/dto"
	"github.com/niasikh/2fork-knife-backend/internal/model"
	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
)

// AvailabilityService 可用性查询接口（只读，不占位）
type AvailabilityService interface {
	// Check 判断单个时刻能否预订，不可订时返回原因而非错误
	Check(ctx context.Context, restaurantID string, req *dto.AvailabilityQuery) (*dto.AvailabilityResponse, error)
	// ListSlots 列出当日各班次的时段及其可用性
	ListSlots(ctx context.Context, restaurantID string, req *dto.SlotsQuery) ([]dto.SlotResponse, error)
}

type availabilityService struct {
	*engine
}

// newAvailabilityService 创建 AvailabilityService 实例
func newAvailabilityService(e *engine) AvailabilityService {
	return &availabilityService{engine: e}
}

// ────────────────────── Check ──────────────────────

func (s *availabilityService) Check(ctx context.Context, restaurantID string, req *dto.AvailabilityQuery) (*dto.AvailabilityResponse, error) {
	date, err := booking.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	venue, err := s.snapshots.Load(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	alloc, err := s.allocate(ctx, s.repo, venue, &AllocationRequest{
		RestaurantID: restaurantID,
		Date:         date,
		Time:         req.Time,
		PartySize:    req.PartySize,
	}, false)
	if err != nil {
		if rej := booking.AsRejection(err); rej != nil {
			return &dto.AvailabilityResponse{Available: false, Reason: rej.Reason, Message: rej.Message}, nil
		}
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error("可用性查询失败", zap.String("restaurant_id", restaurantID), zap.Error(err))
		}
		return nil, err
	}

	return &dto.AvailabilityResponse{
		Available: true,
		Table:     toTableBrief(alloc.Table),
		Shift:     toShiftBrief(alloc.Shift),
	}, nil
}

// ────────────────────── ListSlots ──────────────────────

// ListSlots 当日活跃预订只读一次，逐个时段在内存中走完整判定
func (s *availabilityService) ListSlots(ctx context.Context, restaurantID string, req *dto.SlotsQuery) ([]dto.SlotResponse, error) {
	date, err := booking.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := booking.ValidatePartySize(req.PartySize); err != nil {
		return nil, err
	}
	venue, err := s.snapshots.Load(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	booked, err := s.repo.Reservation.ListActiveByDate(ctx, restaurantID, date)
	if err != nil {
		s.logger.Error("查询当日预订失败", zap.String("restaurant_id", restaurantID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	result := make([]dto.SlotResponse, 0)
	for _, shift := range booking.ShiftsForDay(venue.Shifts, date) {
		for slot := range booking.Slots(shift) {
			item := dto.SlotResponse{Time: slot.Time, ShiftName: shift.Name}
			areq := &AllocationRequest{RestaurantID: restaurantID, Date: date, Time: slot.Time, PartySize: req.PartySize}

			err := s.evaluateSlot(venue, areq, booked, now)
			switch rej := booking.AsRejection(err); {
			case err == nil:
				item.Available = true
			case rej != nil:
				item.Reason = rej.Reason
			default:
				// 配置错误（如班次重叠）只影响该时段
				item.Reason = booking.CodeAmbiguousShift
				if pkgerrors.KindOf(err) != pkgerrors.KindInvalidInput {
					return nil, err
				}
			}
			result = append(result, item)
		}
	}
	return result, nil
}

func (s *availabilityService) evaluateSlot(venue *model.Restaurant, req *AllocationRequest, booked []model.Reservation, now time.Time) error {
	match, _, err := s.screen(venue, req, now)
	if err != nil {
		return err
	}
	covers := 0
	for i := range booked {
		if match.Window.Contains(booked[i].StartMinute) {
			covers += booked[i].PartySize
		}
	}
	_, _, err = s.place(venue, match, req, covers, booked)
	return err
}

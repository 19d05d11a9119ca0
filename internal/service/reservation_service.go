package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/niasikh/2fork-knife-backend/internal/booking"
	"github.com/niasikh/2fork-knife-backend/internal/dto"
	"github.com/niasikh/2fork-knife-backend/internal/model"
	"github.com/niasikh/2fork-knife-backend/internal/repository"
	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
)

// ── 预订模块业务错误 ──

var (
	ErrReservationNotFound = pkgerrors.New(pkgerrors.KindNotFound, "reservation_not_found", "reservation not found")
	ErrTableNotFound       = pkgerrors.New(pkgerrors.KindNotFound, "table_not_found", "table not found")
	ErrReservationInactive = pkgerrors.New(pkgerrors.KindInvalidTransition, "reservation_inactive",
		"only pending or confirmed reservations can be changed")
	ErrTableUnavailable = pkgerrors.New(pkgerrors.KindNotAvailable, "table_unavailable",
		"table is already booked for this time")
	ErrTableTooSmall = pkgerrors.New(pkgerrors.KindNotAvailable, "table_too_small",
		"table cannot seat this party size")
	ErrNothingToModify = pkgerrors.New(pkgerrors.KindInvalidInput, "nothing_to_modify",
		"at least one of date, time, party_size or special_requests is required")
)

// ReservationService 预订业务接口
type ReservationService interface {
	Create(ctx context.Context, req *dto.CreateReservationRequest, actorID string) (*dto.ReservationResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ReservationResponse, error)
	GetByConfirmationCode(ctx context.Context, code string) (*dto.ReservationResponse, error)
	List(ctx context.Context, req *dto.ReservationListRequest) ([]dto.ReservationResponse, int64, error)
	// Modify 修改日期 / 时间 / 人数，在同一事务中重新走完整分配
	Modify(ctx context.Context, id string, req *dto.ModifyReservationRequest, actorID string) (*dto.ReservationResponse, error)
	// ReassignTable 员工调整餐桌，仍受不重叠约束
	ReassignTable(ctx context.Context, id string, req *dto.ReassignTableRequest, actorID string) (*dto.ReservationResponse, error)
	ListAuditLogs(ctx context.Context, id string, page *dto.PaginationRequest) ([]dto.AuditLogResponse, int64, error)
	// ListDueForNoShowCheck 供外部未到店检查任务使用
	ListDueForNoShowCheck(ctx context.Context, req *dto.DueReservationsQuery) ([]dto.ReservationResponse, error)
}

type reservationService struct {
	*engine
}

// newReservationService 创建 ReservationService 实例
func newReservationService(e *engine) ReservationService {
	return &reservationService{engine: e}
}

// ────────────────────── Create ──────────────────────

func (s *reservationService) Create(ctx context.Context, req *dto.CreateReservationRequest, actorID string) (*dto.ReservationResponse, error) {
	date, err := booking.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Guest.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.KindInvalidInput, "invalid_guest", "guest name is required")
	}
	venue, err := s.snapshots.Load(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}

	areq := &AllocationRequest{
		RestaurantID: req.RestaurantID,
		Date:         date,
		Time:         req.Time,
		PartySize:    req.PartySize,
	}

	var created *model.Reservation
	err = s.withRetry(ctx, "create", func(txRepo *repository.Repository) error {
		alloc, err := s.allocate(ctx, txRepo, venue, areq, true)
		if err != nil {
			return err
		}
		created, err = s.commit(ctx, txRepo, alloc, req.Guest, req.SpecialRequests, actorID)
		return err
	})
	if err != nil {
		s.logFailure("创建预订失败", err, zap.String("restaurant_id", req.RestaurantID))
		return nil, err
	}

	s.logger.Info("预订已创建",
		zap.String("reservation_id", created.ReservationID),
		zap.String("restaurant_id", created.RestaurantID),
		zap.String("table_id", created.TableID),
		zap.String("status", created.Status),
	)
	return toReservationResponse(created), nil
}

// ────────────────────── Get / List ──────────────────────

func (s *reservationService) GetByID(ctx context.Context, id string) (*dto.ReservationResponse, error) {
	r, err := s.repo.Reservation.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}
	return toReservationResponse(r), nil
}

func (s *reservationService) GetByConfirmationCode(ctx context.Context, code string) (*dto.ReservationResponse, error) {
	r, err := s.repo.Reservation.GetByConfirmationCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, s.mapNotFound(err, code)
	}
	return toReservationResponse(r), nil
}

func (s *reservationService) List(ctx context.Context, req *dto.ReservationListRequest) ([]dto.ReservationResponse, int64, error) {
	filter := repository.ReservationFilter{
		RestaurantID: req.RestaurantID,
		Status:       req.Status,
	}
	if req.StartDate != "" {
		d, err := booking.ParseDate(req.StartDate)
		if err != nil {
			return nil, 0, err
		}
		filter.StartDate = &d
	}
	if req.EndDate != "" {
		d, err := booking.ParseDate(req.EndDate)
		if err != nil {
			return nil, 0, err
		}
		filter.EndDate = &d
	}

	list, total, err := s.repo.Reservation.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询预订列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ReservationResponse, 0, len(list))
	for i := range list {
		result = append(result, *toReservationResponse(&list[i]))
	}
	return result, total, nil
}

// ────────────────────── Modify ──────────────────────

func (s *reservationService) Modify(ctx context.Context, id string, req *dto.ModifyReservationRequest, actorID string) (*dto.ReservationResponse, error) {
	if req.Date == nil && req.Time == nil && req.PartySize == nil && req.SpecialRequests == nil {
		return nil, ErrNothingToModify
	}

	current, err := s.repo.Reservation.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}
	venue, err := s.snapshots.Load(ctx, current.RestaurantID)
	if err != nil {
		return nil, err
	}

	var updated *model.Reservation
	err = s.withRetry(ctx, "modify", func(txRepo *repository.Repository) error {
		// 事务内重读，保证版本号与状态最新
		r, err := txRepo.Reservation.GetByID(ctx, id)
		if err != nil {
			return s.mapNotFound(err, id)
		}
		if r.Status != model.StatusPending && r.Status != model.StatusConfirmed {
			return ErrReservationInactive
		}

		before := *r
		date := r.ReservationDate
		if req.Date != nil {
			if date, err = booking.ParseDate(*req.Date); err != nil {
				return err
			}
		}
		clock := r.StartTime
		if req.Time != nil {
			clock = *req.Time
		}
		partySize := r.PartySize
		if req.PartySize != nil {
			partySize = *req.PartySize
		}
		if req.SpecialRequests != nil {
			r.SpecialRequests = *req.SpecialRequests
		}

		slotChanged := !date.Equal(r.ReservationDate) || clock != r.StartTime || partySize != r.PartySize
		if slotChanged {
			original := booking.TargetInstant(r.ReservationDate, r.StartMinute, venue.Location())
			alloc, err := s.allocate(ctx, txRepo, venue, &AllocationRequest{
				RestaurantID:         r.RestaurantID,
				Date:                 date,
				Time:                 clock,
				PartySize:            partySize,
				ExcludeReservationID: r.ReservationID,
				Original:             &original,
				PreferredTableID:     r.TableID,
			}, true)
			if err != nil {
				return err
			}
			r.ReservationDate = alloc.Date
			r.ShiftID = alloc.Shift.ShiftID
			r.TableID = alloc.Table.TableID
			r.Table = alloc.Table
			r.StartMinute = alloc.Interval.Start
			r.EndMinute = alloc.Interval.End
			r.StartTime = booking.FormatClock(alloc.Interval.Start)
			r.EndTime = booking.FormatClock(alloc.Interval.End)
			r.PartySize = partySize
		}
		r.UpdatedBy = uuidOrNil(actorID)

		if err := txRepo.Reservation.UpdateSlot(ctx, r); err != nil {
			return versionConflict(err)
		}
		if err := appendAudit(ctx, txRepo, r.ReservationID, model.AuditActionModified, actorID, slotDelta(&before, r)); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		s.logFailure("修改预订失败", err, zap.String("reservation_id", id))
		return nil, err
	}

	s.logger.Info("预订已修改", zap.String("reservation_id", id), zap.String("table_id", updated.TableID))
	return toReservationResponse(updated), nil
}

// ────────────────────── ReassignTable ──────────────────────

func (s *reservationService) ReassignTable(ctx context.Context, id string, req *dto.ReassignTableRequest, actorID string) (*dto.ReservationResponse, error) {
	current, err := s.repo.Reservation.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}
	venue, err := s.snapshots.Load(ctx, current.RestaurantID)
	if err != nil {
		return nil, err
	}

	var table *model.Table
	for i := range venue.Tables {
		if venue.Tables[i].TableID == req.TableID {
			table = &venue.Tables[i]
			break
		}
	}
	if table == nil || !table.IsActive {
		return nil, ErrTableNotFound
	}

	var updated *model.Reservation
	err = s.withRetry(ctx, "reassign_table", func(txRepo *repository.Repository) error {
		r, err := txRepo.Reservation.GetByID(ctx, id)
		if err != nil {
			return s.mapNotFound(err, id)
		}
		if !model.IsActiveStatus(r.Status) {
			return ErrReservationInactive
		}
		if r.TableID == table.TableID {
			updated = r
			return nil
		}
		if r.PartySize > table.MaxSeats {
			return ErrTableTooSmall
		}

		key := repository.AllocationLockKey(r.RestaurantID, r.ReservationDate, r.ShiftID)
		if err := txRepo.Lock.Acquire(ctx, key, s.cfg.LockTimeout); err != nil {
			return err
		}
		booked, err := txRepo.Reservation.ListActiveByDate(ctx, r.RestaurantID, r.ReservationDate)
		if err != nil {
			return err
		}
		iv := booking.Interval{Start: r.StartMinute, End: r.EndMinute}
		if !booking.TableIsFree(table.TableID, booked, iv, r.ReservationID) {
			return ErrTableUnavailable
		}

		fromTable := r.TableID
		r.TableID = table.TableID
		r.Table = table
		r.UpdatedBy = uuidOrNil(actorID)
		if err := txRepo.Reservation.UpdateSlot(ctx, r); err != nil {
			return versionConflict(err)
		}
		updated = r
		return appendAudit(ctx, txRepo, r.ReservationID, model.AuditActionReseated, actorID, map[string]interface{}{
			"from_table_id": fromTable,
			"to_table_id":   table.TableID,
		})
	})
	if err != nil {
		s.logFailure("调整餐桌失败", err, zap.String("reservation_id", id))
		return nil, err
	}
	return toReservationResponse(updated), nil
}

// ────────────────────── Audit / Due ──────────────────────

func (s *reservationService) ListAuditLogs(ctx context.Context, id string, page *dto.PaginationRequest) ([]dto.AuditLogResponse, int64, error) {
	if _, err := s.repo.Reservation.GetByID(ctx, id); err != nil {
		return nil, 0, s.mapNotFound(err, id)
	}
	logs, total, err := s.repo.AuditLog.ListByReservation(ctx, id, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询审计日志失败", zap.String("reservation_id", id), zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.AuditLogResponse, 0, len(logs))
	for i := range logs {
		result = append(result, toAuditLogResponse(&logs[i]))
	}
	return result, total, nil
}

func (s *reservationService) ListDueForNoShowCheck(ctx context.Context, req *dto.DueReservationsQuery) ([]dto.ReservationResponse, error) {
	date, err := booking.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	clock, err := booking.ParseClock(req.Before)
	if err != nil {
		return nil, err
	}
	venue, err := s.snapshots.Load(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	before := booking.ServiceMinute(venue.Shifts, date, clock)

	list, err := s.repo.Reservation.ListDue(ctx, req.RestaurantID, date, before)
	if err != nil {
		s.logger.Error("查询待检查预订失败", zap.String("restaurant_id", req.RestaurantID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.ReservationResponse, 0, len(list))
	for i := range list {
		result = append(result, *toReservationResponse(&list[i]))
	}
	return result, nil
}

// ── 辅助函数 ──

func (e *engine) mapNotFound(err error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrReservationNotFound
	}
	if pkgerrors.KindOf(err) != "" {
		return err
	}
	e.logger.Error("查询预订失败", zap.String("id", id), zap.Error(err))
	return err
}

// logFailure 业务拒绝不记错误日志，仅记录基础设施错误
func (e *engine) logFailure(msg string, err error, fields ...zap.Field) {
	switch pkgerrors.KindOf(err) {
	case pkgerrors.KindInvalidInput, pkgerrors.KindNotAvailable, pkgerrors.KindNotFound, pkgerrors.KindInvalidTransition:
		return
	case pkgerrors.KindConflict, pkgerrors.KindBusy:
		e.logger.Warn(msg, append(fields, zap.Error(err))...)
		return
	}
	e.logger.Error(msg, append(fields, zap.Error(err))...)
}

// versionConflict 乐观锁失败按并发冲突处理，由外层重试
func versionConflict(err error) error {
	if errors.Is(err, pkgerrors.ErrOptimisticLock) {
		return pkgerrors.Wrap(pkgerrors.KindConflict, "version_conflict", err)
	}
	return err
}

func slotDelta(before, after *model.Reservation) map[string]interface{} {
	delta := map[string]interface{}{}
	if !before.ReservationDate.Equal(after.ReservationDate) {
		delta["date"] = map[string]string{
			"from": before.ReservationDate.Format(model.DateLayout),
			"to":   after.ReservationDate.Format(model.DateLayout),
		}
	}
	if before.StartTime != after.StartTime {
		delta["start_time"] = map[string]string{"from": before.StartTime, "to": after.StartTime}
	}
	if before.PartySize != after.PartySize {
		delta["party_size"] = map[string]int{"from": before.PartySize, "to": after.PartySize}
	}
	if before.TableID != after.TableID {
		delta["table_id"] = map[string]string{"from": before.TableID, "to": after.TableID}
	}
	if before.SpecialRequests != after.SpecialRequests {
		delta["special_requests"] = map[string]string{"from": before.SpecialRequests, "to": after.SpecialRequests}
	}
	return delta
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/niasikh/2fork-knife-backend/internal/booking"
	"github.com/niasikh/2fork-knife-backend/internal/dto"
	"github.com/niasikh/2fork-knife-backend/internal/model"
	"github.com/niasikh/2fork-knife-backend/internal/repository"
	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
)

// ── 分配模块业务错误 ──

var (
	// ErrAllocationConflict 并发冲突重试耗尽
	ErrAllocationConflict = pkgerrors.New(pkgerrors.KindConflict, "allocation_conflict",
		"the requested time was taken by a concurrent booking, please try again")
	// ErrAllocationBusy 等锁超时
	ErrAllocationBusy = pkgerrors.New(pkgerrors.KindBusy, "busy",
		"the booking system is busy, please retry shortly")
)

// AllocationRequest 分配请求
type AllocationRequest struct {
	RestaurantID string
	Date         time.Time
	Time         string
	PartySize    int

	// 以下仅改约时使用
	ExcludeReservationID string
	Original             *time.Time
	PreferredTableID     string
}

// Allocation 分配结果：已确定的班次、餐桌与服务日区间
type Allocation struct {
	Restaurant *model.Restaurant
	Shift      *model.Shift
	Table      *model.Table
	Date       time.Time
	Interval   booking.Interval
	PartySize  int
	Target     time.Time
}

// screen 步骤 1-3：策略 → 闭店 → 班次，全部为纯计算
func (e *engine) screen(venue *model.Restaurant, req *AllocationRequest, now time.Time) (*booking.ShiftMatch, time.Time, error) {
	if err := booking.ValidatePartySize(req.PartySize); err != nil {
		return nil, time.Time{}, err
	}
	clock, err := booking.ParseClock(req.Time)
	if err != nil {
		return nil, time.Time{}, err
	}

	// 班次预解析只用于换算跨午夜时刻，拒绝顺序仍为 策略 → 闭店 → 班次
	minute := booking.ServiceMinute(venue.Shifts, req.Date, clock)
	target := booking.TargetInstant(req.Date, minute, venue.Location())

	if req.Original != nil {
		err = booking.EvaluateModification(*req.Original, target, now, venue.Policy)
	} else {
		err = booking.EvaluatePolicy(target, now, venue.Policy)
	}
	if err != nil {
		return nil, target, err
	}
	if err := booking.CheckBlocks(venue.Blocks, req.Date, clock); err != nil {
		return nil, target, err
	}
	match, err := booking.ResolveShift(venue.Shifts, req.Date, clock)
	if err != nil {
		return nil, target, err
	}
	return match, target, nil
}

// place 步骤 4-9：容量 → 候选桌 → 排除重叠 → 择优
// covers 为班次内已占用人数，booked 为当日活跃预订（均不含改约中的自身）
func (e *engine) place(venue *model.Restaurant, match *booking.ShiftMatch, req *AllocationRequest, covers int, booked []model.Reservation) (*booking.Interval, *model.Table, error) {
	if err := booking.CheckCapacity(match.Shift, covers, req.PartySize); err != nil {
		return nil, nil, err
	}
	iv := booking.ReservationInterval(match.Minute, e.cfg.ReservationDurationMinutes)

	if req.PreferredTableID != "" {
		for i := range venue.Tables {
			t := &venue.Tables[i]
			if t.TableID == req.PreferredTableID && t.IsActive && t.Fits(req.PartySize) &&
				booking.TableIsFree(t.TableID, booked, iv, req.ExcludeReservationID) {
				return &iv, t, nil
			}
		}
	}

	table, err := booking.SelectTable(venue.Tables, req.PartySize, withoutReservation(booked, req.ExcludeReservationID), iv)
	if err != nil {
		return nil, nil, err
	}
	return &iv, table, nil
}

// allocate 在给定 repo（事务内或只读）上完成步骤 1-9
// lock 为 true 时在读占用数据前获取 (餐厅, 日期, 班次) 锁
func (e *engine) allocate(ctx context.Context, repo *repository.Repository, venue *model.Restaurant, req *AllocationRequest, lock bool) (*Allocation, error) {
	match, target, err := e.screen(venue, req, e.now())
	if err != nil {
		return nil, err
	}

	if lock {
		key := repository.AllocationLockKey(venue.RestaurantID, req.Date, match.Shift.ShiftID)
		if err := repo.Lock.Acquire(ctx, key, e.cfg.LockTimeout); err != nil {
			return nil, err
		}
	}

	covers := 0
	if match.Shift.MaxCovers != nil {
		covers, err = repo.Reservation.SumCovers(ctx, venue.RestaurantID, req.Date,
			match.Window.Start, match.Window.End, req.ExcludeReservationID)
		if err != nil {
			return nil, err
		}
	}
	booked, err := repo.Reservation.ListActiveByDate(ctx, venue.RestaurantID, req.Date)
	if err != nil {
		return nil, err
	}

	iv, table, err := e.place(venue, match, req, covers, booked)
	if err != nil {
		return nil, err
	}
	return &Allocation{
		Restaurant: venue,
		Shift:      match.Shift,
		Table:      table,
		Date:       req.Date,
		Interval:   *iv,
		PartySize:  req.PartySize,
		Target:     target,
	}, nil
}

// commit 步骤 10：写入预订、关联顾客档案、追加审计
func (e *engine) commit(ctx context.Context, repo *repository.Repository, alloc *Allocation, guest dto.GuestInfo, specialRequests, actorID string) (*model.Reservation, error) {
	profile, err := e.findOrCreateGuest(ctx, repo, guest)
	if err != nil {
		return nil, err
	}

	code, err := booking.NewConfirmationCode()
	if err != nil {
		return nil, err
	}

	now := e.now()
	reservation := &model.Reservation{
		RestaurantID:     alloc.Restaurant.RestaurantID,
		TableID:          alloc.Table.TableID,
		ShiftID:          alloc.Shift.ShiftID,
		ReservationDate:  alloc.Date,
		StartTime:        booking.FormatClock(alloc.Interval.Start),
		EndTime:          booking.FormatClock(alloc.Interval.End),
		StartMinute:      alloc.Interval.Start,
		EndMinute:        alloc.Interval.End,
		PartySize:        alloc.PartySize,
		Status:           model.StatusPending,
		ConfirmationCode: code,
		GuestName:        strings.TrimSpace(guest.Name),
		GuestEmail:       strings.TrimSpace(guest.Email),
		GuestPhone:       strings.TrimSpace(guest.Phone),
		SpecialRequests:  specialRequests,
	}
	if profile != nil {
		reservation.GuestProfileID = &profile.GuestProfileID
	}
	if alloc.Restaurant.Policy == nil || alloc.Restaurant.Policy.AutoConfirm {
		reservation.Status = model.StatusConfirmed
		reservation.ConfirmedAt = &now
	}
	reservation.CreatedAt = now
	reservation.UpdatedAt = now
	if actor := uuidOrNil(actorID); actor != nil {
		reservation.CreatedBy = actor
		reservation.UpdatedBy = actor
	}

	if err := repo.Reservation.Create(ctx, reservation); err != nil {
		return nil, err
	}
	reservation.Table = alloc.Table

	if err := appendAudit(ctx, repo, reservation.ReservationID, model.AuditActionCreated, actorID, map[string]interface{}{
		"to":         reservation.Status,
		"table_id":   reservation.TableID,
		"date":       reservation.ReservationDate.Format(model.DateLayout),
		"start_time": reservation.StartTime,
		"party_size": reservation.PartySize,
	}); err != nil {
		return nil, err
	}
	return reservation, nil
}

// findOrCreateGuest 按邮箱 / 电话匹配顾客档案，首次预订时创建
func (e *engine) findOrCreateGuest(ctx context.Context, repo *repository.Repository, guest dto.GuestInfo) (*model.GuestProfile, error) {
	email := strings.TrimSpace(guest.Email)
	phone := strings.TrimSpace(guest.Phone)
	if email == "" && phone == "" {
		return nil, nil
	}

	profile, err := repo.Guest.FindByContact(ctx, email, phone)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	first, last := splitName(guest.Name)
	profile = &model.GuestProfile{
		Email:     email,
		Phone:     phone,
		FirstName: first,
		LastName:  last,
	}
	if err := repo.Guest.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// withRetry 在事务中执行 fn；Conflict / Busy 整体回滚后指数退避重试
func (e *engine) withRetry(ctx context.Context, op string, fn func(txRepo *repository.Repository) error) error {
	delay := e.cfg.RetryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		err := repository.ClassifyError(e.repo.Transaction(ctx, fn))
		if err == nil {
			return nil
		}
		if !pkgerrors.IsRetryable(err) {
			return err
		}
		lastErr = err
		e.logger.Warn("分配事务冲突，准备重试",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if attempt == e.cfg.MaxAttempts {
			break
		}
		if err := e.sleep(ctx, delay); err != nil {
			return pkgerrors.Wrap(pkgerrors.KindBusy, ErrAllocationBusy.Code, err)
		}
		delay *= 2
	}

	if pkgerrors.KindOf(lastErr) == pkgerrors.KindBusy {
		return &pkgerrors.Error{Kind: pkgerrors.KindBusy, Code: ErrAllocationBusy.Code, Message: ErrAllocationBusy.Message, Err: lastErr}
	}
	return &pkgerrors.Error{Kind: pkgerrors.KindConflict, Code: ErrAllocationConflict.Code, Message: ErrAllocationConflict.Message, Err: lastErr}
}

// ── 辅助函数 ──

func withoutReservation(list []model.Reservation, id string) []model.Reservation {
	if id == "" {
		return list
	}
	out := make([]model.Reservation, 0, len(list))
	for _, r := range list {
		if r.ReservationID != id {
			out = append(out, r)
		}
	}
	return out
}

func appendAudit(ctx context.Context, repo *repository.Repository, reservationID, action, actorID string, changes map[string]interface{}) error {
	raw, err := json.Marshal(changes)
	if err != nil {
		return err
	}
	if actorID == "" {
		actorID = "system"
	}
	return repo.AuditLog.Create(ctx, &model.ReservationAuditLog{
		ReservationID: reservationID,
		Action:        action,
		ActorID:       actorID,
		Changes:       datatypes.JSON(raw),
	})
}

func splitName(name string) (string, string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "Guest", ""
	case 1:
		return fields[0], ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/niasikh/2fork-knife-backend/internal/booking"
	"github.com/niasikh/2fork-knife-backend/internal/dto"
	"github.com/niasikh/2fork-knife-backend/internal/model"
	"github.com/niasikh/2fork-knife-backend/internal/repository"
)

// LifecycleService 预订状态流转接口
//
// 每次流转都是带状态前置条件的单行更新：
//   - 并发的同一动作只有一个成功，其余返回 "not in expected state"
//   - 流转、派生统计与审计日志在同一事务内提交
//   - 重复取消在本层视为成功且不产生新的状态变更
type LifecycleService interface {
	Confirm(ctx context.Context, id, actorID string) (*dto.ReservationResponse, error)
	Seat(ctx context.Context, id, actorID string) (*dto.ReservationResponse, error)
	Complete(ctx context.Context, id, actorID string) (*dto.ReservationResponse, error)
	Cancel(ctx context.Context, id, actorID, reason string) (*dto.ReservationResponse, error)
	MarkNoShow(ctx context.Context, id, actorID string) (*dto.ReservationResponse, error)
}

type lifecycleService struct {
	*engine
}

// newLifecycleService 创建 LifecycleService 实例
func newLifecycleService(e *engine) LifecycleService {
	return &lifecycleService{engine: e}
}

func (s *lifecycleService) Confirm(ctx context.Context, id, actorID string) (*dto.ReservationResponse, error) {
	return s.transition(ctx, id, booking.ActionConfirm, actorID, "")
}

func (s *lifecycleService) Seat(ctx context.Context, id, actorID string) (*dto.ReservationResponse, error) {
	return s.transition(ctx, id, booking.ActionSeat, actorID, "")
}

func (s *lifecycleService) Complete(ctx context.Context, id, actorID string) (*dto.ReservationResponse, error) {
	return s.transition(ctx, id, booking.ActionComplete, actorID, "")
}

func (s *lifecycleService) Cancel(ctx context.Context, id, actorID, reason string) (*dto.ReservationResponse, error) {
	return s.transition(ctx, id, booking.ActionCancel, actorID, strings.TrimSpace(reason))
}

func (s *lifecycleService) MarkNoShow(ctx context.Context, id, actorID string) (*dto.ReservationResponse, error) {
	return s.transition(ctx, id, booking.ActionNoShow, actorID, "")
}

// ═══════════════════════════════════════════════════════════
// transition — 通用流转
// ═══════════════════════════════════════════════════════════

func (s *lifecycleService) transition(ctx context.Context, id string, action booking.Action, actorID, reason string) (*dto.ReservationResponse, error) {
	var result *model.Reservation
	noop := false

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		r, err := txRepo.Reservation.GetByID(ctx, id)
		if err != nil {
			return s.mapNotFound(err, id)
		}

		if action == booking.ActionCancel && r.Status == model.StatusCancelled {
			result, noop = r, true
			return nil
		}

		to, err := booking.Next(r.Status, action)
		if err != nil {
			return err
		}

		now := s.now()
		fields := map[string]interface{}{"updated_by": uuidOrNil(actorID)}
		switch action {
		case booking.ActionConfirm:
			fields["confirmed_at"] = now
		case booking.ActionSeat:
			fields["seated_at"] = now
		case booking.ActionComplete, booking.ActionNoShow:
			fields["completed_at"] = now
		case booking.ActionCancel:
			fields["cancelled_at"] = now
			fields["cancellation_reason"] = reason
		}

		ok, err := txRepo.Reservation.TransitionStatus(ctx, id, r.Status, to, fields)
		if err != nil {
			return err
		}
		if !ok {
			// 前置条件失败：其他请求先完成了流转
			latest, err := txRepo.Reservation.GetByID(ctx, id)
			if err == nil && action == booking.ActionCancel && latest.Status == model.StatusCancelled {
				result, noop = latest, true
				return nil
			}
			return booking.ErrStaleStatus
		}

		if r.GuestProfileID != nil {
			switch action {
			case booking.ActionComplete:
				if _, err := recomputeGuestStats(ctx, txRepo, *r.GuestProfileID); err != nil {
					return err
				}
			case booking.ActionNoShow:
				if err := txRepo.Guest.IncrementNoShow(ctx, *r.GuestProfileID); err != nil {
					return err
				}
			}
		}

		delta := map[string]interface{}{"from": r.Status, "to": to}
		if reason != "" {
			delta["reason"] = reason
		}
		if err := appendAudit(ctx, txRepo, id, booking.AuditAction(action), actorID, delta); err != nil {
			return err
		}

		result, err = txRepo.Reservation.GetByID(ctx, id)
		return err
	})
	if err != nil {
		s.logFailure("预订状态流转失败", err,
			zap.String("reservation_id", id),
			zap.String("action", string(action)),
		)
		return nil, repository.ClassifyError(err)
	}

	if noop {
		s.logger.Info("重复取消，忽略", zap.String("reservation_id", id))
	} else {
		s.logger.Info("预订状态已更新",
			zap.String("reservation_id", id),
			zap.String("action", string(action)),
			zap.String("status", result.Status),
		)
	}
	return toReservationResponse(result), nil
}

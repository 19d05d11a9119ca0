package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/niasikh/2fork-knife-backend/internal/dto"
	"github.com/niasikh/2fork-knife-backend/internal/model"
	"github.com/niasikh/2fork-knife-backend/internal/repository"
	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
)

// ErrGuestNotFound 顾客档案不存在
var ErrGuestNotFound = pkgerrors.New(pkgerrors.KindNotFound, "guest_not_found", "guest profile not found")

// ComputeGuestStats 由已完成预订全量计算统计值
// 平均人数保留两位小数，无到店记录时为空
func ComputeGuestStats(completed []model.Reservation) model.GuestStats {
	stats := model.GuestStats{TotalVisits: len(completed)}
	if len(completed) == 0 {
		return stats
	}

	sum := 0
	var last time.Time
	for _, r := range completed {
		sum += r.PartySize
		if r.ReservationDate.After(last) {
			last = r.ReservationDate
		}
	}
	avg := decimal.NewFromInt(int64(sum)).
		DivRound(decimal.NewFromInt(int64(len(completed))), 2)
	stats.AvgPartySize = decimal.NullDecimal{Decimal: avg, Valid: true}
	stats.LastVisitDate = &last
	return stats
}

// recomputeGuestStats 重新扫描顾客的全部已完成预订并写回档案
// 全量重算以容忍事后更正，必须与触发它的状态流转在同一事务内
func recomputeGuestStats(ctx context.Context, repo *repository.Repository, guestID string) (model.GuestStats, error) {
	completed, err := repo.Reservation.ListCompletedByGuest(ctx, guestID)
	if err != nil {
		return model.GuestStats{}, err
	}
	stats := ComputeGuestStats(completed)
	if err := repo.Guest.UpdateStats(ctx, guestID, stats); err != nil {
		return model.GuestStats{}, err
	}
	return stats, nil
}

// GuestService 顾客档案查询接口
type GuestService interface {
	GetByID(ctx context.Context, id string) (*dto.GuestProfileResponse, error)
	// RecomputeStats 手工更正后重新计算统计
	RecomputeStats(ctx context.Context, id string) (*dto.GuestProfileResponse, error)
}

type guestService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewGuestService 创建 GuestService 实例
func NewGuestService(repo *repository.Repository, logger *zap.Logger) GuestService {
	return &guestService{repo: repo, logger: logger}
}

func (s *guestService) GetByID(ctx context.Context, id string) (*dto.GuestProfileResponse, error) {
	guest, err := s.repo.Guest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGuestNotFound
		}
		s.logger.Error("查询顾客档案失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toGuestProfileResponse(guest), nil
}

func (s *guestService) RecomputeStats(ctx context.Context, id string) (*dto.GuestProfileResponse, error) {
	var guest *model.GuestProfile
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if _, err := txRepo.Guest.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGuestNotFound
			}
			return err
		}
		if _, err := recomputeGuestStats(ctx, txRepo, id); err != nil {
			return err
		}
		var err error
		guest, err = txRepo.Guest.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrGuestNotFound) {
			s.logger.Error("重算顾客统计失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return toGuestProfileResponse(guest), nil
}

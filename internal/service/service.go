package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/niasikh/2fork-knife-backend/config"
	"github.com/niasikh/2fork-knife-backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Availability AvailabilityService
	Reservation  ReservationService
	Lifecycle    LifecycleService
	Guest        GuestService
	Export       ExportService
}

// NewService 创建 Service 聚合
// cache 可为 nil，此时每次直接读库
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache SnapshotCache,
	logger *zap.Logger,
) *Service {
	e := newEngine(&cfg.Booking, repo, cache, logger)
	return &Service{
		Availability: newAvailabilityService(e),
		Reservation:  newReservationService(e),
		Lifecycle:    newLifecycleService(e),
		Guest:        NewGuestService(repo, logger),
		Export:       newExportService(e),
	}
}

// engine 预订各服务共享的依赖
type engine struct {
	cfg       config.BookingConfig
	repo      *repository.Repository
	snapshots *snapshotLoader
	logger    *zap.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

func newEngine(cfg *config.BookingConfig, repo *repository.Repository, cache SnapshotCache, logger *zap.Logger) *engine {
	c := *cfg
	if c.ReservationDurationMinutes <= 0 {
		c.ReservationDurationMinutes = 120
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	return &engine{
		cfg:       c,
		repo:      repo,
		snapshots: newSnapshotLoader(repo, cache, c.ConfigCacheTTL, logger),
		logger:    logger,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

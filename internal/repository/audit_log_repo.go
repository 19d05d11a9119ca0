package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/niasikh/2fork-knife-backend/internal/model"
)

// AuditLogRepository 预订审计日志访问接口（只追加）
type AuditLogRepository interface {
	Create(ctx context.Context, log *model.ReservationAuditLog) error
	ListByReservation(ctx context.Context, reservationID string, offset, limit int) ([]model.ReservationAuditLog, int64, error)
}

type auditLogRepo struct {
	db *gorm.DB
}

func NewAuditLogRepo(db *gorm.DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Create(ctx context.Context, log *model.ReservationAuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *auditLogRepo) ListByReservation(ctx context.Context, reservationID string, offset, limit int) ([]model.ReservationAuditLog, int64, error) {
	var logs []model.ReservationAuditLog
	var total int64

	query := r.db.WithContext(ctx).Model(&model.ReservationAuditLog{}).
		Where("reservation_id = ?", reservationID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at ASC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, total, err
}

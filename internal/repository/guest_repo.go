package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/niasikh/2fork-knife-backend/internal/model"
)

// GuestRepository 顾客档案数据访问接口
type GuestRepository interface {
	Create(ctx context.Context, guest *model.GuestProfile) error
	GetByID(ctx context.Context, id string) (*model.GuestProfile, error)
	// FindByContact 按邮箱（忽略大小写）或电话匹配已有档案
	FindByContact(ctx context.Context, email, phone string) (*model.GuestProfile, error)
	UpdateStats(ctx context.Context, id string, stats model.GuestStats) error
	IncrementNoShow(ctx context.Context, id string) error
}

type guestRepo struct {
	db *gorm.DB
}

func NewGuestRepo(db *gorm.DB) GuestRepository {
	return &guestRepo{db: db}
}

func (r *guestRepo) Create(ctx context.Context, guest *model.GuestProfile) error {
	return r.db.WithContext(ctx).Create(guest).Error
}

func (r *guestRepo) GetByID(ctx context.Context, id string) (*model.GuestProfile, error) {
	var guest model.GuestProfile
	err := r.db.WithContext(ctx).
		Where("guest_profile_id = ?", id).
		First(&guest).Error
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

func (r *guestRepo) FindByContact(ctx context.Context, email, phone string) (*model.GuestProfile, error) {
	if email == "" && phone == "" {
		return nil, gorm.ErrRecordNotFound
	}
	query := r.db.WithContext(ctx).Model(&model.GuestProfile{})
	switch {
	case email != "" && phone != "":
		query = query.Where("lower(email) = lower(?) OR phone = ?", email, phone)
	case email != "":
		query = query.Where("lower(email) = lower(?)", email)
	default:
		query = query.Where("phone = ?", phone)
	}
	var guest model.GuestProfile
	if err := query.Order("created_at ASC").First(&guest).Error; err != nil {
		return nil, err
	}
	return &guest, nil
}

func (r *guestRepo) UpdateStats(ctx context.Context, id string, stats model.GuestStats) error {
	return r.db.WithContext(ctx).
		Model(&model.GuestProfile{}).
		Where("guest_profile_id = ?", id).
		Updates(map[string]interface{}{
			"total_visits":    stats.TotalVisits,
			"avg_party_size":  stats.AvgPartySize,
			"last_visit_date": stats.LastVisitDate,
			"updated_at":      time.Now(),
		}).Error
}

func (r *guestRepo) IncrementNoShow(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.GuestProfile{}).
		Where("guest_profile_id = ?", id).
		Updates(map[string]interface{}{
			"no_show_count": gorm.Expr("no_show_count + 1"),
			"updated_at":    time.Now(),
		}).Error
}

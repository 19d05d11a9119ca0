package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/niasikh/2fork-knife-backend/internal/model"
	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
)

// ReservationFilter 预订列表筛选条件
type ReservationFilter struct {
	RestaurantID   string
	GuestProfileID string
	Status         string
	StartDate      *time.Time
	EndDate        *time.Time
}

// ReservationRepository 预订数据访问接口
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetByConfirmationCode(ctx context.Context, code string) (*model.Reservation, error)
	List(ctx context.Context, filter ReservationFilter, offset, limit int) ([]model.Reservation, int64, error)
	// ListActiveByDate 某服务日的活跃预订（占桌判断）
	ListActiveByDate(ctx context.Context, restaurantID string, date time.Time) ([]model.Reservation, error)
	// SumCovers 开始分钟落在 [startMinute, endMinute) 的活跃预订人数合计
	SumCovers(ctx context.Context, restaurantID string, date time.Time, startMinute, endMinute int, excludeID string) (int, error)
	// TransitionStatus 仅当当前状态等于 from 时更新，返回是否命中
	TransitionStatus(ctx context.Context, id, from, to string, fields map[string]interface{}) (bool, error)
	// UpdateSlot 乐观锁更新日期、时段、人数与餐桌
	UpdateSlot(ctx context.Context, reservation *model.Reservation) error
	ListCompletedByGuest(ctx context.Context, guestProfileID string) ([]model.Reservation, error)
	// ListDue 某服务日开始分钟早于 beforeMinute 的已确认预订
	ListDue(ctx context.Context, restaurantID string, date time.Time, beforeMinute int) ([]model.Reservation, error)
}

type reservationRepo struct {
	db *gorm.DB
}

func NewReservationRepo(db *gorm.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

func (r *reservationRepo) Create(ctx context.Context, reservation *model.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	var reservation model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Table").
		Where("reservation_id = ?", id).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepo) GetByConfirmationCode(ctx context.Context, code string) (*model.Reservation, error) {
	var reservation model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Table").
		Where("confirmation_code = ?", code).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepo) List(ctx context.Context, filter ReservationFilter, offset, limit int) ([]model.Reservation, int64, error) {
	var reservations []model.Reservation
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Reservation{})
	if filter.RestaurantID != "" {
		query = query.Where("restaurant_id = ?", filter.RestaurantID)
	}
	if filter.GuestProfileID != "" {
		query = query.Where("guest_profile_id = ?", filter.GuestProfileID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		query = query.Where("reservation_date >= ?", filter.StartDate.Format(model.DateLayout))
	}
	if filter.EndDate != nil {
		query = query.Where("reservation_date <= ?", filter.EndDate.Format(model.DateLayout))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Table").
		Order("reservation_date ASC, start_minute ASC").
		Offset(offset).Limit(limit).
		Find(&reservations).Error
	return reservations, total, err
}

func (r *reservationRepo) ListActiveByDate(ctx context.Context, restaurantID string, date time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND reservation_date = ? AND status IN ?",
			restaurantID, date.Format(model.DateLayout), model.ActiveStatuses).
		Order("start_minute ASC").
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepo) SumCovers(ctx context.Context, restaurantID string, date time.Time, startMinute, endMinute int, excludeID string) (int, error) {
	var total int
	query := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Select("COALESCE(SUM(party_size), 0)").
		Where("restaurant_id = ? AND reservation_date = ? AND status IN ?",
			restaurantID, date.Format(model.DateLayout), model.ActiveStatuses).
		Where("start_minute >= ? AND start_minute < ?", startMinute, endMinute)
	if excludeID != "" {
		query = query.Where("reservation_id <> ?", excludeID)
	}
	err := query.Scan(&total).Error
	return total, err
}

func (r *reservationRepo) TransitionStatus(ctx context.Context, id, from, to string, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
		"version":    gorm.Expr("version + 1"),
	}
	for k, v := range fields {
		updates[k] = v
	}
	result := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("reservation_id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *reservationRepo) UpdateSlot(ctx context.Context, reservation *model.Reservation) error {
	oldVersion := reservation.Version
	result := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("reservation_id = ? AND version = ? AND status IN ?",
			reservation.ReservationID, oldVersion, model.ActiveStatuses).
		Updates(map[string]interface{}{
			"table_id":         reservation.TableID,
			"shift_id":         reservation.ShiftID,
			"reservation_date": reservation.ReservationDate.Format(model.DateLayout),
			"start_time":       reservation.StartTime,
			"end_time":         reservation.EndTime,
			"start_minute":     reservation.StartMinute,
			"end_minute":       reservation.EndMinute,
			"party_size":       reservation.PartySize,
			"special_requests": reservation.SpecialRequests,
			"updated_by":       reservation.UpdatedBy,
			"updated_at":       time.Now(),
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	reservation.Version = oldVersion + 1
	return nil
}

func (r *reservationRepo) ListCompletedByGuest(ctx context.Context, guestProfileID string) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Select("reservation_id", "party_size", "reservation_date").
		Where("guest_profile_id = ? AND status = ?", guestProfileID, model.StatusCompleted).
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepo) ListDue(ctx context.Context, restaurantID string, date time.Time, beforeMinute int) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND reservation_date = ? AND status = ? AND start_minute < ?",
			restaurantID, date.Format(model.DateLayout), model.StatusConfirmed, beforeMinute).
		Order("start_minute ASC").
		Find(&reservations).Error
	return reservations, err
}

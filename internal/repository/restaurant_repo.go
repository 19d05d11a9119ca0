package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/niasikh/2fork-knife-backend/internal/model"
)

// RestaurantRepository 餐厅配置只读访问接口
type RestaurantRepository interface {
	// GetSnapshot 加载一次完整的排座配置：策略、班次、闭店、区域与餐桌
	GetSnapshot(ctx context.Context, id string) (*model.Restaurant, error)
	GetByID(ctx context.Context, id string) (*model.Restaurant, error)
}

type restaurantRepo struct {
	db *gorm.DB
}

func NewRestaurantRepo(db *gorm.DB) RestaurantRepository {
	return &restaurantRepo{db: db}
}

func (r *restaurantRepo) GetSnapshot(ctx context.Context, id string) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	err := r.db.WithContext(ctx).
		Preload("Policy").
		Preload("Shifts", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC, start_time ASC")
		}).
		Preload("Blocks", func(db *gorm.DB) *gorm.DB {
			return db.Where("end_date >= CURRENT_DATE - 1").Order("start_date ASC")
		}).
		Preload("Areas", "is_active = ?", true).
		// 停用区域下的餐桌一并视为不可用
		Preload("Tables", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ? AND area_id IN (?)", true,
				r.db.Model(&model.Area{}).Select("area_id").Where("is_active = ?", true)).
				Order("number ASC")
		}).
		Where("restaurant_id = ? AND is_active = ?", id, true).
		First(&restaurant).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *restaurantRepo) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", id).
		First(&restaurant).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"
)

// Transactor 事务执行器：fn 内拿到的 Repository 均绑定在同一事务上
// fn 返回错误时整体回滚
type Transactor interface {
	InTx(ctx context.Context, fn func(txRepo *Repository) error) error
}

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Restaurant  RestaurantRepository
	Reservation ReservationRepository
	Guest       GuestRepository
	AuditLog    AuditLogRepository
	Lock        Locker
	Tx          Transactor
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Restaurant:  NewRestaurantRepo(db),
		Reservation: NewReservationRepo(db),
		Guest:       NewGuestRepo(db),
		AuditLog:    NewAuditLogRepo(db),
		Lock:        NewAdvisoryLocker(db),
		Tx:          &gormTransactor{db: db},
	}
}

// Transaction 在一个数据库事务中执行 fn
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.Tx.InTx(ctx, fn)
}

type gormTransactor struct {
	db *gorm.DB
}

func (t *gormTransactor) InTx(ctx context.Context, fn func(txRepo *Repository) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

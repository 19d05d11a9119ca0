package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Locker 事务级互斥锁，事务结束时自动释放
// 必须在 Repository.Transaction 内的 txRepo 上调用
type Locker interface {
	Acquire(ctx context.Context, key string, timeout time.Duration) error
}

type advisoryLocker struct {
	db *gorm.DB
}

// NewAdvisoryLocker 基于 PostgreSQL pg_advisory_xact_lock 的实现
func NewAdvisoryLocker(db *gorm.DB) Locker {
	return &advisoryLocker{db: db}
}

func (l *advisoryLocker) Acquire(ctx context.Context, key string, timeout time.Duration) error {
	db := l.db.WithContext(ctx)
	if timeout > 0 {
		// SET LOCAL 不支持参数绑定，毫秒数为整数，无注入风险
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds())
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return db.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).Error
}

// AllocationLockKey 分配锁粒度：餐厅 + 服务日 + 班次
func AllocationLockKey(restaurantID string, date time.Time, shiftID string) string {
	return fmt.Sprintf("%s|%s|%s", restaurantID, date.Format("2006-01-02"), shiftID)
}

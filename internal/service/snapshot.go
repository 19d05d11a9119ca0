package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/niasikh/2fork-knife-backend/internal/model"
	"github.com/niasikh/2fork-knife-backend/internal/repository"
	pkgerrors "github.com/niasikh/2fork-knife-backend/pkg/errors"
)

// ErrRestaurantNotFound 餐厅不存在或已停用
var ErrRestaurantNotFound = pkgerrors.New(pkgerrors.KindNotFound, "restaurant_not_found", "restaurant not found")

// SnapshotCache 餐厅配置快照缓存（Redis 实现见 pkg/redis）
type SnapshotCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
}

// snapshotLoader 读取餐厅排座配置；配置只读，允许短暂过期
type snapshotLoader struct {
	repo   *repository.Repository
	cache  SnapshotCache
	ttl    time.Duration
	logger *zap.Logger
}

func newSnapshotLoader(repo *repository.Repository, cache SnapshotCache, ttl time.Duration, logger *zap.Logger) *snapshotLoader {
	return &snapshotLoader{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func snapshotKey(restaurantID string) string {
	return "restaurant_snapshot:" + restaurantID
}

// Load 优先读缓存；缓存故障只记日志，不影响预订
func (l *snapshotLoader) Load(ctx context.Context, restaurantID string) (*model.Restaurant, error) {
	useCache := l.cache != nil && l.ttl > 0
	if useCache {
		var cached model.Restaurant
		hit, err := l.cache.GetJSON(ctx, snapshotKey(restaurantID), &cached)
		if err != nil {
			l.logger.Warn("读取配置缓存失败", zap.String("restaurant_id", restaurantID), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	restaurant, err := l.repo.Restaurant.GetSnapshot(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		l.logger.Error("加载餐厅配置失败", zap.String("restaurant_id", restaurantID), zap.Error(err))
		return nil, err
	}

	if useCache {
		if err := l.cache.SetJSON(ctx, snapshotKey(restaurantID), restaurant, l.ttl); err != nil {
			l.logger.Warn("写入配置缓存失败", zap.String("restaurant_id", restaurantID), zap.Error(err))
		}
	}
	return restaurant, nil
}

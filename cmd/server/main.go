package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/niasikh/2fork-knife-backend/config"
	"github.com/niasikh/2fork-knife-backend/internal/api/handler"
	"github.com/niasikh/2fork-knife-backend/internal/api/middleware"
	"github.com/niasikh/2fork-knife-backend/internal/api/router"
	"github.com/niasikh/2fork-knife-backend/internal/repository"
	"github.com/niasikh/2fork-knife-backend/internal/service"
	"github.com/niasikh/2fork-knife-backend/pkg/database"
	"github.com/niasikh/2fork-knife-backend/pkg/jwt"
	applogger "github.com/niasikh/2fork-knife-backend/pkg/logger"
	"github.com/niasikh/2fork-knife-backend/pkg/redis"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "fork-knife",
		Short:         "Restaurant availability and reservation allocation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")

	serve := newServeCmd(&configPath)
	root.AddCommand(serve)
	root.AddCommand(newMigrateCmd(&configPath))

	// 无子命令时默认启动服务
	root.RunE = serve.RunE
	return root
}

// bootstrap 加载配置并初始化日志与数据库
func bootstrap(configPath string) (*config.Config, *zap.Logger, *gorm.DB, error) {
	// 1. 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	logger.Info("数据库连接成功")
	return cfg, logger, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, _ := db.DB(); sqlDB != nil {
		_ = sqlDB.Close()
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer closeDB(db)

			logger.Info("应用启动中...",
				zap.Int("port", cfg.Server.Port),
				zap.String("log_level", cfg.Log.Level),
			)

			sqlDB, err := db.DB()
			if err != nil {
				return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
			}

			// 3.1 执行数据库迁移
			if !skipMigrate {
				if err := database.RunMigrations(sqlDB, logger); err != nil {
					return fmt.Errorf("数据库迁移失败: %w", err)
				}
			}

			// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
			var (
				cache   service.SnapshotCache
				limiter middleware.RateLimiter
			)
			rdb, err := redis.NewClient(&cfg.Redis, logger)
			if err != nil {
				logger.Warn("Redis 连接失败，配置缓存与限流将不可用", zap.Error(err))
			} else {
				defer rdb.Close()
				cache = rdb
				limiter = rdb
			}

			// 5. 初始化 JWT 校验器
			jwtMgr := jwt.NewManager(&cfg.Auth)

			// 6. 依赖注入: Repository → Service → Handler
			repo := repository.NewRepository(db)
			svc := service.NewService(cfg, repo, cache, logger)
			h := handler.NewHandler(svc)

			// 7. 初始化路由
			engine := router.Setup(cfg, h, jwtMgr, limiter, sqlDB.PingContext, logger)

			// 8. 启动 HTTP 服务器（优雅关闭）
			srv := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      engine,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			// 9. 监听系统信号，优雅关闭
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				logger.Error("HTTP 服务器异常", zap.Error(err))
				return err
			case <-ctx.Done():
			}

			logger.Info("收到关闭信号，开始优雅关闭...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("服务器关闭异常", zap.Error(err))
			}

			logger.Info("服务器已关闭")
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "启动时不执行数据库迁移")
	return cmd
}

func newMigrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "执行全部未应用的迁移",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer closeDB(db)

			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return database.RunMigrations(sqlDB, logger)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "回滚迁移（默认 1 步）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("steps 必须为正整数: %q", args[0])
				}
				steps = n
			}

			_, logger, db, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer closeDB(db)

			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return database.RollbackMigrations(sqlDB, steps, logger)
		},
	})

	return cmd
}

package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/niasikh/2fork-knife-backend/config"
	"github.com/niasikh/2fork-knife-backend/internal/api/handler"
	"github.com/niasikh/2fork-knife-backend/internal/api/middleware"
	"github.com/niasikh/2fork-knife-backend/pkg/jwt"
)

// ReadinessFunc 就绪检查（数据库连通性等），为 nil 时只报告存活
type ReadinessFunc func(ctx context.Context) error

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时预订接口不限流
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	limiter middleware.RateLimiter,
	ready ReadinessFunc,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	var bookingLimit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled {
		bookingLimit = middleware.RateLimit(limiter, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 公开接口：可匿名访问，携带 Token 时记录操作人
		public := v1.Group("")
		public.Use(middleware.OptionalJWTAuth(jwtMgr))
		{
			public.GET("/restaurants/:id/availability", h.Availability.CheckAvailability)
			public.GET("/restaurants/:id/slots", h.Availability.ListSlots)

			public.POST("/reservations", bookingLimit, h.Reservation.CreateReservation)
			public.GET("/reservations/confirmation/:code", h.Reservation.GetByConfirmationCode)
			public.GET("/reservations/confirmation/:code/calendar.ics", h.Export.ExportCalendar)
			public.POST("/reservations/confirmation/:code/cancel", bookingLimit, h.Reservation.CancelByConfirmationCode)
		}

		// 员工接口
		staff := v1.Group("")
		staff.Use(middleware.JWTAuth(jwtMgr), middleware.RoleAuth(jwt.RoleStaff, jwt.RoleAdmin))
		{
			reservations := staff.Group("/reservations")
			{
				reservations.GET("", h.Reservation.ListReservations)
				reservations.GET("/due", h.Reservation.ListDue)
				reservations.GET("/:id", h.Reservation.GetReservation)
				reservations.PUT("/:id", h.Reservation.ModifyReservation)
				reservations.PUT("/:id/table", h.Reservation.ReassignTable)
				reservations.GET("/:id/audit-logs", h.Reservation.ListAuditLogs)
				reservations.POST("/:id/confirm", h.Reservation.ConfirmReservation)
				reservations.POST("/:id/seat", h.Reservation.SeatReservation)
				reservations.POST("/:id/complete", h.Reservation.CompleteReservation)
				reservations.POST("/:id/cancel", h.Reservation.CancelReservation)
				reservations.POST("/:id/no-show", h.Reservation.MarkNoShow)
			}

			guests := staff.Group("/guests")
			{
				guests.GET("/:id", h.Guest.GetGuest)
				guests.POST("/:id/recompute-stats", middleware.RoleAuth(jwt.RoleAdmin), h.Guest.RecomputeStats)
			}

			staff.GET("/restaurants/:id/export/day-sheet", h.Export.ExportDaySheet)
		}
	}

	return r
}

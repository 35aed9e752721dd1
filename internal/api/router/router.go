package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JabridDave10/distributed-systems-project-backend/config"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/api/handler"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/api/middleware"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
	"github.com/JabridDave10/distributed-systems-project-backend/pkg/jwt"
)

// Cache Redis 提供的黑名单与限流能力，未连接 Redis 时传 nil
type Cache interface {
	middleware.TokenChecker
	middleware.RateLimiter
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, cache Cache, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	var (
		blacklist middleware.TokenChecker
		limiter   middleware.RateLimiter
	)
	if cache != nil {
		blacklist, limiter = cache, cache
	}

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
	})

	bookingLimit := middleware.RateLimit(limiter, cfg.Booking.RateLimit, cfg.Booking.RateWindow)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", bookingLimit, h.Auth.Register)
			auth.POST("/login", bookingLimit, h.Auth.Login)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 用户模块
			authorized.GET("/doctors", h.User.ListDoctors)
			authorized.GET("/users/:id", middleware.RoleAuth(model.RoleAdmin), h.User.GetUser)

			// 排班模块：修改操作限管理员或医生本人（Handler 层校验归属）
			schedules := authorized.Group("/schedules")
			{
				manage := middleware.RoleAuth(model.RoleAdmin, model.RoleDoctor)

				schedules.POST("/doctor/:doctor_id", manage, h.Schedule.SetWeeklySchedule)
				schedules.GET("/doctor/:doctor_id", h.Schedule.GetSchedule)
				schedules.PUT("/schedule/:id", manage, h.Schedule.UpdateEntry)
				schedules.DELETE("/schedule/:id", manage, h.Schedule.DeleteEntry)

				schedules.GET("/doctor/:doctor_id/settings", h.Settings.GetSettings)
				schedules.PUT("/doctor/:doctor_id/settings", manage, h.Settings.UpdateSettings)

				schedules.POST("/doctor/:doctor_id/exceptions", manage, h.Exception.CreateException)
				schedules.GET("/doctor/:doctor_id/exceptions", h.Exception.ListExceptions)
				schedules.DELETE("/exceptions/:id", manage, h.Exception.DeleteException)

				schedules.GET("/doctor/:doctor_id/availability", h.Availability.GetAvailability)
				schedules.GET("/doctor/:doctor_id/availability/check", h.Availability.CheckSlot)
			}

			// 预约模块
			appointments := authorized.Group("/appointments")
			{
				appointments.POST("", bookingLimit, h.Appointment.Create)
				appointments.GET("/me", h.Appointment.ListMine)
				appointments.GET("/doctor/:doctor_id", middleware.RoleAuth(model.RoleAdmin, model.RoleDoctor), h.Appointment.ListByDoctor)
				appointments.GET("/:id", h.Appointment.GetByID)
				appointments.PUT("/:id/status", middleware.RoleAuth(model.RoleAdmin, model.RoleDoctor), h.Appointment.UpdateStatus)
				appointments.PUT("/:id/cancel", h.Appointment.Cancel)
				appointments.DELETE("/:id", middleware.RoleAuth(model.RoleAdmin), h.Appointment.Delete)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/doctor/:doctor_id/appointments.xlsx", middleware.RoleAuth(model.RoleAdmin, model.RoleDoctor), h.Export.ExportAppointments)
				export.GET("/doctor/:doctor_id/availability.ics", h.Export.ExportAvailability)
			}
		}
	}

	return r
}

package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"shift-roster/config"
	"shift-roster/internal/api/handler"
	"shift-roster/internal/api/middleware"
	"shift-roster/internal/metrics"
	"shift-roster/pkg/jwt"
	"shift-roster/pkg/redis"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 64 << 10

// Deps 路由依赖
// Redis、Gatherer 可为空：前者降级为无黑名单、无限流，后者不暴露 /metrics
type Deps struct {
	Config   *config.Config
	Handler  *handler.Handler
	JWT      *jwt.Manager
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
	Metrics  metrics.Recorder
	Logger   *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	var (
		blacklist middleware.BlacklistChecker
		limiter   middleware.RateLimiter
	)
	if d.Redis != nil {
		blacklist = d.Redis
		limiter = d.Redis
	}
	h := d.Handler

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger, d.Metrics))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(d.Config.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		redisStatus := "disabled"
		if d.Redis != nil {
			redisStatus = "ok"
			if err := d.Redis.Ping(c.Request.Context()); err != nil {
				redisStatus = "degraded"
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "redis": redisStatus})
	})

	// ── 指标 ──
	if d.Config.Metrics.Enabled && d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login",
				middleware.RateLimit(limiter, d.Config.Auth.LoginRateLimit, time.Minute, d.Logger),
				h.Auth.Login,
			)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(d.JWT, blacklist, d.Logger))
		{
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 员工名册
			authorized.GET("/employees", h.Employee.ListEmployees)

			// 排班模块（非管理员的请假边界由 Service 层判定）
			schedules := authorized.Group("/schedules")
			{
				schedules.GET("", h.Schedule.ListAssignments)
				schedules.POST("/update", h.Schedule.UpdateSchedule)
				schedules.POST("/leave", h.Schedule.RecordLeave)
				schedules.POST("/auto", middleware.RequireAdmin(), h.Schedule.Generate)
				schedules.GET("/change-logs", middleware.RequireAdmin(), h.Schedule.ListChangeLogs)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/schedule", middleware.RequireAdmin(), h.Export.ExportSchedule)
				export.GET("/schedule.ics", h.Export.ExportCalendar)
			}
		}
	}

	return r
}

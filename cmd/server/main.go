package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"shift-roster/config"
	"shift-roster/internal/api/handler"
	"shift-roster/internal/api/router"
	"shift-roster/internal/metrics"
	"shift-roster/internal/repository"
	"shift-roster/internal/service"
	"shift-roster/pkg/database"
	"shift-roster/pkg/jwt"
	applogger "shift-roster/pkg/logger"
	"shift-roster/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("SHIFT_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Int("min_manpower", cfg.Schedule.MinManpower),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level == "debug", logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	repo := repository.NewRepository(db)

	// 3.2 初始名册导入（员工表为空时）
	seedCtx, seedCancel := context.WithTimeout(context.Background(), time.Minute)
	if _, err := service.NewSeeder(repo, logger).SeedFile(seedCtx, cfg.Seed.RosterFile); err != nil {
		seedCancel()
		logger.Fatal("名册导入失败", zap.Error(err))
	}
	seedCancel()

	// 4. 连接 Redis（可选：未配置或连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Token 黑名单、限流与分布式锁将不可用", zap.Error(err))
			rdb = nil
		}
	} else {
		logger.Info("未配置 Redis，以单实例模式运行")
	}

	// 5. 指标
	var (
		rec      metrics.Recorder = metrics.NewNop()
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		rec = metrics.NewPrometheus(reg, cfg.Metrics.Namespace)
		gatherer = reg
	}

	// 6. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 7. 依赖注入: Repository → Service → Handler
	svc := service.NewService(cfg, repo, jwtMgr, rdb, rec, logger)
	h := handler.NewHandler(svc)

	// 8. 初始化路由
	engine := router.Setup(router.Deps{
		Config:   cfg,
		Handler:  h,
		JWT:      jwtMgr,
		Redis:    rdb,
		Gatherer: gatherer,
		Metrics:  rec,
		Logger:   logger,
	})

	// 9. 启动 HTTP 服务器（优雅关闭）
	// 整月生成可能等待月份锁，写超时需覆盖 lock_wait
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30*time.Second + cfg.Schedule.LockWait,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if err := sqlDB.Close(); err != nil {
		logger.Warn("关闭数据库连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lodging_console_v1_202610/internal/app"
	"lodging_console_v1_202610/internal/controller"
	"lodging_console_v1_202610/internal/middleware"
	"lodging_console_v1_202610/internal/model"
	"lodging_console_v1_202610/internal/repository"
	"lodging_console_v1_202610/internal/router"
	"lodging_console_v1_202610/internal/service"
	"lodging_console_v1_202610/internal/task"
	"lodging_console_v1_202610/pkg/config"
	"lodging_console_v1_202610/pkg/database"
	"lodging_console_v1_202610/pkg/logger"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(getEnv("CONSOLE_CONFIG", ""), getEnv("CONSOLE_ENV_FILE", ""))
	if err != nil {
		panic(err)
	}

	log := logger.Must(cfg.Log.Level, cfg.Log.Development)
	defer func() { _ = log.Sync() }()

	// 2. 初始化数据库
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatal("数据库初始化失败", zap.Error(err))
	}

	// 3. 初始化依赖
	deps, err := initDependencies(cfg, db, log)
	if err != nil {
		log.Fatal("依赖初始化失败", zap.Error(err))
	}

	// 4. 启动定时任务
	if err := deps.Tasks.Start(); err != nil {
		log.Fatal("定时任务启动失败", zap.Error(err))
	}

	// 5. 初始化路由
	r := initRouter(cfg, deps)

	// 6. 启动服务
	startServer(cfg, r, deps, log)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Submissions repository.SubmissionRepository
	Wizards     *service.WizardService
	Geo         *service.GeoService
	Limiter     *middleware.CooldownLimiter
	Tasks       *task.TaskManager
	Log         *zap.Logger
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库并注册审计回调
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.InitDB(database.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		LogSQL: cfg.Database.LogSQL,
	}, &model.ListingSubmission{})
	if err != nil {
		return nil, err
	}
	middleware.RegisterAuditCallbacks(db)
	return db, nil
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB, log *zap.Logger) (*Dependencies, error) {
	// -------- Repo 层 --------
	submissions := repository.NewSubmissionRepository(db)

	// -------- 提交流水线 --------
	pipeline, err := app.NewPipeline(cfg, submissions, log)
	if err != nil {
		return nil, err
	}

	// -------- 业务服务 --------
	wizards := service.NewWizardService(pipeline.Submit, service.ContextCredentials{}, log)
	geo := service.NewGeoService(pipeline.Backend, cfg.Geo.CacheTTL, log)

	// -------- 定时任务 --------
	tasks := task.NewTaskManager(&task.TaskManagerDeps{
		Sessions: wizards,
		Logger:   log,
	}, &task.TaskManagerConfig{
		SweepEnabled: true,
		SweepSpec:    cfg.Session.SweepSpec,
		IdleTTL:      cfg.Session.IdleTTL,
	})

	return &Dependencies{
		DB:          db,
		Submissions: submissions,
		Wizards:     wizards,
		Geo:         geo,
		Limiter:     middleware.NewCooldownLimiter(),
		Tasks:       tasks,
		Log:         log,
	}, nil
}

// initRouter 初始化控制器与路由
func initRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = cfg.Server.MaxUploadMiB << 20

	// 本地存储时由本服务提供文件访问
	if cfg.Uploader == "storage" && cfg.Storage.Provider == "local" && cfg.Storage.Endpoint == "" {
		r.Static("/uploads", cfg.Storage.BasePath)
	}

	router.InitRoutes(r, router.Options{
		Auth:           middleware.AuthConfig{SecretKey: cfg.Auth.JWTSecret, Issuer: "lodging-console"},
		SubmitCooldown: cfg.Session.SubmitCooldown,
		Limiter:        deps.Limiter,
		Wizard:         controller.NewWizardController(deps.Wizards, deps.Limiter, cfg.Server.MaxUploadMiB<<20, deps.Log),
		Geo:            controller.NewGeoController(deps.Geo),
		Submissions:    controller.NewSubmissionController(deps.Submissions),
	})
	return r
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(cfg *config.Config, r *gin.Engine, deps *Dependencies, log *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务...")
	deps.Tasks.Stop()

	// 优雅关闭，最多等待 30 秒（提交中的请求需要完成）
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("服务强制关闭", zap.Error(err))
	}

	log.Info("服务已退出", zap.Int("open_sessions", deps.Wizards.Count()))
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

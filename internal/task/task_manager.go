package task

import (
	"time"

	"go.uber.org/zap"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台定时任务
type TaskManager struct {
	sweepTask *SessionSweepTask
	logger    *zap.Logger
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	Sessions SessionSweeper
	Logger   *zap.Logger
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	SweepEnabled bool
	SweepSpec    string
	IdleTTL      time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		SweepEnabled: true,
		SweepSpec:    "*/5 * * * *",
		IdleTTL:      2 * time.Hour,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tm := &TaskManager{logger: logger.Named("TaskManager")}

	if cfg.SweepEnabled && deps.Sessions != nil {
		tm.sweepTask = NewSessionSweepTask(deps.Sessions, cfg.IdleTTL, cfg.SweepSpec, logger)
	}
	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() error {
	tm.logger.Info("正在启动后台任务...")

	if tm.sweepTask != nil {
		if err := tm.sweepTask.Start(); err != nil {
			return err
		}
	}

	tm.logger.Info("后台任务已全部启动")
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	tm.logger.Info("正在停止后台任务...")

	if tm.sweepTask != nil {
		tm.sweepTask.Stop()
	}

	tm.logger.Info("后台任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerSweep 立即清理空闲会话
func (tm *TaskManager) TriggerSweep() (int, error) {
	if tm.sweepTask == nil {
		return 0, ErrTaskDisabled
	}
	return tm.sweepTask.RunOnce(), nil
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"session_sweep": tm.sweepTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)

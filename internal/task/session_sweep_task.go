package task

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ==================== SessionSweepTask 空闲会话清理任务 ====================

// SessionSweeper 关闭空闲会话，返回关闭数量
type SessionSweeper interface {
	SweepIdle(ttl time.Duration) int
}

// SessionSweepTask 定时关闭空闲的向导会话
// 被关闭的会话即使仍有提交在途，结果也会被丢弃
type SessionSweepTask struct {
	sweeper SessionSweeper
	idleTTL time.Duration
	spec    string
	cron    *cron.Cron
	logger  *zap.Logger

	mu      sync.Mutex
	lastRun time.Time
	total   int
}

// NewSessionSweepTask 创建清理任务，spec 为标准 5 段 cron 表达式
func NewSessionSweepTask(sweeper SessionSweeper, idleTTL time.Duration, spec string, logger *zap.Logger) *SessionSweepTask {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec == "" {
		spec = "*/5 * * * *"
	}
	return &SessionSweepTask{
		sweeper: sweeper,
		idleTTL: idleTTL,
		spec:    spec,
		cron:    cron.New(),
		logger:  logger.Named("SessionSweepTask"),
	}
}

// Start 启动定时清理
func (t *SessionSweepTask) Start() error {
	if _, err := t.cron.AddFunc(t.spec, func() { t.RunOnce() }); err != nil {
		return fmt.Errorf("无法启动定时任务 (spec=%s): %w", t.spec, err)
	}
	t.cron.Start()
	t.logger.Info("会话清理任务已启动", zap.String("spec", t.spec), zap.Duration("idle_ttl", t.idleTTL))
	return nil
}

// Stop 停止任务，等待正在执行的清理结束
func (t *SessionSweepTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.logger.Info("会话清理任务已停止")
}

// RunOnce 立即执行一次清理
func (t *SessionSweepTask) RunOnce() int {
	closed := t.sweeper.SweepIdle(t.idleTTL)

	t.mu.Lock()
	t.lastRun = time.Now()
	t.total += closed
	t.mu.Unlock()

	if closed > 0 {
		t.logger.Info("清理空闲会话", zap.Int("closed", closed))
	}
	return closed
}

// Stats 最近一次执行时间与累计关闭数
func (t *SessionSweepTask) Stats() (time.Time, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRun, t.total
}

package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/yourusername/ssr-first/internal/config"
	"github.com/yourusername/ssr-first/internal/logging"
)

const (
	// TaskLogCleanup は古いログファイルを削除するタスクです。
	TaskLogCleanup = "log-cleanup"

	taskTypePrefix   = "maintenance:"
	queueMaintenance = "maintenance"
)

// ErrUnknownTask は登録されていないタスク種別を指定したときのエラーです。
var ErrUnknownTask = errors.New("unknown maintenance task")

// Manager はメンテナンスジョブの投入・定期実行・状態管理を担います。
type Manager struct {
	cfg       *config.Config
	client    *asynq.Client
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	store     *Store
	logger    *logging.Logger
	now       func() time.Time
	handlers  map[string]func(context.Context) (int, error)
}

// NewManager は Manager を初期化します。
func NewManager(cfg *config.Config, store *Store, logger *logging.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	opt, err := asynq.ParseRedisURI(cfg.QueueRedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	manager := newManager(cfg, store, logger)
	manager.client = asynq.NewClient(opt)
	manager.server = asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				queueMaintenance: 1,
			},
		},
	)
	manager.scheduler = asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	manager.mux = asynq.NewServeMux()
	for name := range manager.handlers {
		manager.mux.HandleFunc(taskTypePrefix+name, manager.handleTask)
	}

	entryID, err := manager.scheduler.Register(
		cfg.LogCleanupCron,
		asynq.NewTask(taskTypePrefix+TaskLogCleanup, nil),
		asynq.Queue(queueMaintenance),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", TaskLogCleanup, err)
	}
	logger.Infof("scheduled %s cron=%q entry=%s", TaskLogCleanup, cfg.LogCleanupCron, entryID)
	return manager, nil
}

func newManager(cfg *config.Config, store *Store, logger *logging.Logger) *Manager {
	m := &Manager{
		cfg:    cfg,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	m.handlers = map[string]func(context.Context) (int, error){
		TaskLogCleanup: m.cleanupLogs,
	}
	return m
}

// StartWorkers はワーカーとスケジューラーをバックグラウンドで起動します。
func (m *Manager) StartWorkers() error {
	if err := m.server.Start(m.mux); err != nil {
		return fmt.Errorf("start asynq server: %w", err)
	}
	if err := m.scheduler.Start(); err != nil {
		m.server.Shutdown()
		return fmt.Errorf("start asynq scheduler: %w", err)
	}
	return nil
}

// Shutdown はスケジューラー・サーバー・クライアントを閉じます。
// 実行中のタスクを待つ間に ctx が終了した場合は ctx のエラーを返します。
func (m *Manager) Shutdown(ctx context.Context) error {
	return shutdownWithContext(ctx, func() error {
		m.scheduler.Shutdown()
		m.server.Shutdown()
		return m.client.Close()
	})
}

func shutdownWithContext(ctx context.Context, stop func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- stop()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("maintenance shutdown: %w", ctx.Err())
	}
}

// Known はタスク種別が登録済みかを返します。
func (m *Manager) Known(taskType string) bool {
	_, ok := m.handlers[taskType]
	return ok
}

// Enqueue はタスクを即時実行としてキューに投入し、タスクIDを返します。
func (m *Manager) Enqueue(ctx context.Context, taskType string) (string, error) {
	if !m.Known(taskType) {
		return "", fmt.Errorf("%w: %s", ErrUnknownTask, taskType)
	}

	task := asynq.NewTask(taskTypePrefix+taskType, nil, asynq.Queue(queueMaintenance))
	info, err := m.client.EnqueueContext(ctx, task, asynq.MaxRetry(1))
	if err != nil {
		return "", err
	}

	if err := m.store.Upsert(ctx, &Record{
		TaskID: info.ID,
		Type:   taskType,
		Status: StatusQueued,
	}); err != nil {
		return "", err
	}
	return info.ID, nil
}

// GetRecord は直近の実行記録を取得します。
func (m *Manager) GetRecord(ctx context.Context, taskType string) (*Record, error) {
	if !m.Known(taskType) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, taskType)
	}
	return m.store.Get(ctx, taskType)
}

func (m *Manager) handleTask(ctx context.Context, task *asynq.Task) error {
	taskType := strings.TrimPrefix(task.Type(), taskTypePrefix)
	run, ok := m.handlers[taskType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, task.Type())
	}

	taskID, _ := asynq.GetTaskID(ctx)
	if err := m.store.Upsert(ctx, &Record{
		TaskID: taskID,
		Type:   taskType,
		Status: StatusRunning,
	}); err != nil {
		return err
	}

	removed, err := run(ctx)
	if err != nil {
		m.logger.Errorf("maintenance task failed type=%s id=%s: %v", taskType, taskID, err)
		if markErr := m.store.MarkFailed(ctx, taskType, &ErrorInfo{
			Code:    "TASK_FAILED",
			Message: err.Error(),
		}); markErr != nil {
			return markErr
		}
		return err
	}

	m.logger.Infof("maintenance task done type=%s id=%s removed=%d", taskType, taskID, removed)
	return m.store.MarkDone(ctx, taskType, removed)
}

// cleanupLogs は保持期間を過ぎたログファイルを削除します。ファイル出力が無効なら何もしません。
func (m *Manager) cleanupLogs(ctx context.Context) (int, error) {
	if m.cfg.LogPath == "" {
		return 0, nil
	}
	return logging.RemoveOutdated(m.cfg.LogPath, m.cfg.LogDaysToKeep, m.now())
}

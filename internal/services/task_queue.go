package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopfloor/board/backend/internal/config"
	"github.com/shopfloor/board/backend/internal/models"
	"github.com/shopfloor/board/backend/pkg/logger"
)

const (
	TaskTypeTransition = "issue:transition"
)

// TransitionTask records one cross-column move committed by a board batch.
type TransitionTask struct {
	IssueID        uuid.UUID          `json:"issue_id"`
	ProjectID      uuid.UUID          `json:"project_id"`
	SprintID       *uuid.UUID         `json:"sprint_id,omitempty"`
	OrganizationID string             `json:"organization_id"`
	UserID         string             `json:"user_id"`
	From           models.IssueStatus `json:"from"`
	To             models.IssueStatus `json:"to"`
	Order          int                `json:"order"`
	TrackLength    int                `json:"track_length"`
	MovedAt        time.Time          `json:"moved_at"`
}

// TaskProcessor handles a transition task, synchronously or from the worker.
type TaskProcessor func(context.Context, *TransitionTask) error

// TaskQueue defines the interface for activity task processing
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *TransitionTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// Global task queue instance
var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue initializes the global task queue based on config
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalTaskQueue = queue
			}
		} else {
			logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

// GetTaskQueue returns the global task queue instance
func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	opt := redisOpt(cfg)
	client := asynq.NewClient(opt)

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue publishes the task. Activity tasks are informational, so they are
// not retried.
func (q *AsyncQueue) Enqueue(task *TransitionTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	info, err := q.client.Enqueue(asynq.NewTask(TaskTypeTransition, payload),
		asynq.Queue("activity"),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("id", info.ID).Str("queue", info.Queue).Msg("[AsyncQueue] task enqueued")
	return nil
}

// IsAsync returns true for async queue
func (q *AsyncQueue) IsAsync() bool {
	return true
}

// Close closes the async queue client
func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue with in-process processing (no Redis)
type SyncQueue struct {
	processor TaskProcessor
	wg        sync.WaitGroup
}

// NewSyncQueue creates a new synchronous queue
func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function to process tasks
func (q *SyncQueue) SetProcessor(processor TaskProcessor) {
	q.processor = processor
}

// Enqueue hands the task to the processor on its own goroutine so the board
// response does not wait on activity logging.
func (q *SyncQueue) Enqueue(task *TransitionTask) error {
	if q.processor == nil {
		logger.Warn().Str("issue_id", task.IssueID.String()).Msg("[SyncQueue] no processor set, task dropped")
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.processor(context.Background(), task); err != nil {
			logger.Warn().Err(err).Msg("[SyncQueue] task processing failed")
		}
	}()

	return nil
}

// IsAsync returns false for sync queue
func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight tasks.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}

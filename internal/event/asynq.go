package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	appConfig "github.com/festy23/prmetrics/internal/config"
)

// TaskTypeDispatch is the asynq task type that carries one Event.
const TaskTypeDispatch = "event:dispatch"

// NewTask encodes e as an asynq task.
func NewTask(e Event) (*asynq.Task, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return asynq.NewTask(TaskTypeDispatch, payload), nil
}

// RedisOpt builds the asynq Redis connection options.
func RedisOpt(cfg appConfig.EventsConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// AsynqPublisher enqueues events on Redis for an asynq server to dispatch.
type AsynqPublisher struct {
	client   *asynq.Client
	queue    string
	maxRetry int
	logger   *zap.SugaredLogger
}

// NewAsynqPublisher creates a publisher backed by an asynq client.
func NewAsynqPublisher(cfg appConfig.EventsConfig, logger *zap.SugaredLogger) *AsynqPublisher {
	return &AsynqPublisher{
		client:   asynq.NewClient(RedisOpt(cfg)),
		queue:    cfg.Queue,
		maxRetry: cfg.MaxRetry,
		logger:   logger,
	}
}

// Publish enqueues each event as its own task.
func (p *AsynqPublisher) Publish(ctx context.Context, events ...Event) error {
	for _, e := range events {
		task, err := NewTask(e)
		if err != nil {
			return err
		}
		info, err := p.client.EnqueueContext(ctx, task, asynq.Queue(p.queue), asynq.MaxRetry(p.maxRetry))
		if err != nil {
			return fmt.Errorf("failed to enqueue %s: %w", e.Kind, err)
		}
		p.logger.Debugw("event enqueued", "kind", e.Kind, "task_id", info.ID, "queue", info.Queue)
	}
	return nil
}

// Close releases the Redis connection.
func (p *AsynqPublisher) Close() error {
	return p.client.Close()
}

// NewServeMux routes dispatch tasks to d.
func NewServeMux(d *Dispatcher) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeDispatch, func(ctx context.Context, task *asynq.Task) error {
		var e Event
		if err := json.Unmarshal(task.Payload(), &e); err != nil {
			return fmt.Errorf("failed to decode event: %v: %w", err, asynq.SkipRetry)
		}
		return d.Dispatch(ctx, e)
	})
	return mux
}

// NewServer creates the asynq worker server that consumes dispatch tasks.
func NewServer(cfg appConfig.EventsConfig, logger *zap.SugaredLogger) *asynq.Server {
	return asynq.NewServer(RedisOpt(cfg), asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{cfg.Queue: 1},
		Logger:      logger,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Errorw("event task failed", "type", task.Type(), "error", err)
		}),
	})
}

// Probe reports Redis reachability for the health endpoint.
type Probe struct {
	inspector *asynq.Inspector
}

// NewProbe creates a probe on the event backend's Redis.
func NewProbe(cfg appConfig.EventsConfig) *Probe {
	return &Probe{inspector: asynq.NewInspector(RedisOpt(cfg))}
}

// Check lists queues, which fails when Redis is unreachable.
func (p *Probe) Check(_ context.Context) error {
	if _, err := p.inspector.Queues(); err != nil {
		return fmt.Errorf("redis unavailable: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (p *Probe) Close() error {
	return p.inspector.Close()
}

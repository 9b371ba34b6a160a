package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"bheem-chat/config/logger"
)

// Schedule maps each sweep task to its cron expression.
var Schedule = map[string]string{
	TypeExpireInvitations: "@every 5m",
	TypeSweepWaitingRoom:  "@every 10m",
	TypeExpireRinging:     "@every 30s",
}

type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	log       logger.CommonLogger
}

func NewWorker(redisURL string, handlers *Handlers, log logger.CommonLogger) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse REDIS_URL: %w", err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{QueueName: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			log.Error.Error().Err(err).Str("task", task.Type()).Msg("asynq task failed")
		}),
	})
	mux := asynq.NewServeMux()
	handlers.Register(mux)

	scheduler := asynq.NewScheduler(opt, nil)
	for taskType, cron := range Schedule {
		if _, err := scheduler.Register(cron, asynq.NewTask(taskType, nil), asynq.Queue(QueueName), asynq.MaxRetry(1)); err != nil {
			return nil, fmt.Errorf("asynq: schedule %s: %w", taskType, err)
		}
	}
	return &Worker{server: server, scheduler: scheduler, mux: mux, log: log}, nil
}

func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return err
	}
	w.log.Info.Info().Int("tasks", len(Schedule)).Msg("chat worker started")
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}

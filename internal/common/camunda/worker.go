// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"rpa-assistant/internal/common/logger"
)

// JobHandler completes or fails the job itself.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type WorkerConfig struct {
	TaskType      string
	MaxJobsActive int
	// Timeout is how long the broker keeps an activated job locked to us.
	Timeout time.Duration
}

type CamundaWorker struct {
	client zbc.Client
	worker worker.JobWorker
	logger logger.Logger
	config WorkerConfig
}

// NewWorker opens a job worker for cfg.TaskType. Jobs start flowing
// immediately; Stop closes the worker.
func NewWorker(client zbc.Client, cfg WorkerConfig, handler JobHandler, log logger.Logger) *CamundaWorker {
	log = log.With(map[string]interface{}{"taskType": cfg.TaskType})

	step := client.NewJobWorker().
		JobType(cfg.TaskType).
		Handler(func(jc worker.JobClient, job entities.Job) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("job handler panicked", map[string]interface{}{
						"jobKey": job.Key,
						"panic":  r,
					})
				}
			}()
			handler.Handle(jc, job)
		}).
		MaxJobsActive(cfg.MaxJobsActive)
	if cfg.Timeout > 0 {
		step = step.Timeout(cfg.Timeout)
	}

	return &CamundaWorker{
		client: client,
		worker: step.Open(),
		logger: log,
		config: cfg,
	}
}

func (w *CamundaWorker) Start() {
	w.logger.Info("worker started", map[string]interface{}{
		"maxJobsActive": w.config.MaxJobsActive,
	})
}

// Stop waits for in-flight jobs and closes the worker. The client stays open.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}

package answerquestion

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rpa-assistant/internal/chatbot"
	"rpa-assistant/internal/common/errors"
	"rpa-assistant/internal/common/logger"
	"rpa-assistant/internal/common/metrics"
	"rpa-assistant/internal/common/validation"
	"rpa-assistant/internal/models"
)

const (
	TaskType = "answer-question"
)

const inputSchema = `{
  "type": "object",
  "required": ["question"],
  "properties": {
    "question": {"type": "string", "minLength": 1, "maxLength": 2000},
    "requestId": {"type": "string"}
  }
}`

var schema = validation.MustCompile(inputSchema)

// Answerer is the part of the chatbot the worker needs.
type Answerer interface {
	Answer(ctx context.Context, text string) chatbot.Answer
}

type Handler struct {
	config       *Config
	bot          Answerer
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, bot Answerer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		bot:          bot,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType, output.Outcome).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &doc); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}
	if result := schema.Validate(doc); !result.Valid {
		stdErr := errors.NewInvalidInputError(result.Error())
		stdErr.Metadata = map[string]interface{}{"validationErrors": result.GetErrorMessages()}
		return nil, stdErr
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// Execute answers one question. Store failures are returned as errors only
// when they are worth retrying; otherwise the failure text is the answer.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.Question == "" {
		return nil, errors.NewInvalidInputError("question is required")
	}
	if input.RequestID != "" {
		ctx = chatbot.WithRequestID(ctx, input.RequestID)
	}

	answer := h.bot.Answer(ctx, input.Question)

	switch answer.Outcome {
	case models.OutcomeConnectionFailure:
		if h.config.RetryConnectionFailures {
			return nil, errors.NewDatabaseConnectionFailedError(stderrors.New(answer.Text))
		}
	case models.OutcomeQueryFailure:
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.NewQueryTimeoutError(string(answer.Intent))
		}
	}

	params := answer.Params
	if params == nil {
		params = []string{}
	}
	return &Output{
		Answer:  answer.Text,
		Intent:  string(answer.Intent),
		Params:  params,
		Matched: answer.Matched(),
		Outcome: string(answer.Outcome),
	}, nil
}

// fail and completeJob use a fresh context: the job's own deadline may be
// what made it fail.
func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

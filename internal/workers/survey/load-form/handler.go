// internal/workers/survey/load-form/handler.go
package loadform

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"survey-forms/internal/common/errors"
	"survey-forms/internal/common/logger"
	"survey-forms/internal/common/metrics"
	"survey-forms/internal/common/validation"
	"survey-forms/internal/survey/form"
	"survey-forms/internal/survey/query"
	"survey-forms/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "survey-form-load"

// Opener opens a prefilled form session.
type Opener interface {
	OpenWithParams(ctx context.Context, fileName string, params query.Params) (*form.Session, error)
}

type Handler struct {
	config       *Config
	service      Opener
	contract     *validation.Validator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service Opener, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		contract:     registry.InputContract(TaskType),
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, errors.NewInvalidInputError("parse input: "+err.Error()))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}
	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	check, err := h.contract.Validate(input)
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	if !check.Valid {
		return nil, errors.NewInvalidInputError(registry.Describe(check))
	}

	sess, err := h.service.OpenWithParams(ctx, input.FileName, Params(input.Query, input.Params))
	if err != nil {
		return nil, err
	}

	sc := sess.Schema()
	return &Output{
		SessionID: sess.ID,
		Schema:    sc.ToRaw(),
		Values:    sess.Values(),
		DryRun:    sc.DryRun(),
	}, nil
}

// Execute is exported for tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// Params merges the raw query with the explicit params. Query values win.
func Params(rawQuery string, extra map[string]string) query.Params {
	p := query.Parse(rawQuery)
	if len(extra) == 0 {
		return p
	}
	values := url.Values{}
	for k, v := range extra {
		values.Set(k, v)
	}
	for k, v := range query.FromValues(values) {
		if strings.TrimSpace(p[k]) == "" {
			p[k] = v
		}
	}
	return p
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

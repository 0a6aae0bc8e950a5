// Package survey wires the form pipeline: a definition is loaded and
// sanitized, a session is prefilled from the page query, and a submitted
// session is validated, assembled and saved (or captured in dry-run mode).
package survey

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"survey-forms/internal/common/errors"
	"survey-forms/internal/common/logger"
	"survey-forms/internal/common/metrics"
	"survey-forms/internal/common/observability"
	"survey-forms/internal/survey/form"
	"survey-forms/internal/survey/index"
	"survey-forms/internal/survey/loader"
	"survey-forms/internal/survey/prefill"
	"survey-forms/internal/survey/query"
	"survey-forms/internal/survey/schema"
	"survey-forms/internal/survey/submission"

	"github.com/google/uuid"
)

const (
	EventSurveySubmitted = "survey.submitted"

	modeLive   = "live"
	modeDryRun = "dry-run"
)

// Notice messages shown after a submit attempt.
const (
	NoticeRequired  = "Please fill in all required fields"
	NoticeSaved     = "Survey submitted successfully"
	NoticeCaptured  = "Submission is disabled for this form; the survey was captured locally"
	NoticeSaveError = "Failed to save survey"
)

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is the one-line user facing outcome of a submit attempt.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Result of Submit. Payload is nil when validation failed.
type Result struct {
	Notice      Notice              `json:"notice"`
	FieldErrors form.FieldErrors    `json:"fieldErrors,omitempty"`
	Payload     *submission.Payload `json:"payload,omitempty"`
	DryRun      bool                `json:"dryRun"`
	CaptureID   string              `json:"captureId,omitempty"`

	// CaptureError is set when the dry-run payload could not be stored.
	// The submission still counts as captured.
	CaptureError string `json:"captureError,omitempty"`
}

// CaptureStore keeps dry-run payloads.
type CaptureStore interface {
	Save(ctx context.Context, sessionID, fileName string, payload map[string]interface{}) (string, error)
}

// SubmissionIndexer receives every successful submission.
type SubmissionIndexer interface {
	Index(ctx context.Context, doc index.Document) error
}

// EventPublisher announces saved submissions.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, subject, message string) (string, error)
}

// Deps are the collaborators of a Service. Loader, Assembler and Saver are
// required; the rest are optional sinks.
type Deps struct {
	Loader    loader.SchemaLoader
	Assembler *submission.Assembler
	Saver     submission.Saver
	Guard     *SubmitGuard
	Captures  CaptureStore
	Indexer   SubmissionIndexer
	Events    EventPublisher
	Obs       *observability.Observability
}

type Service struct {
	deps   Deps
	logger logger.Logger
	now    func() time.Time
}

func NewService(deps Deps, log logger.Logger) *Service {
	if deps.Obs == nil {
		deps.Obs = observability.NewNoop()
	}
	return &Service{deps: deps, logger: log, now: time.Now}
}

// Open loads fileName and returns a session prefilled from rawQuery. On a
// load failure the returned session is in the error state and the error is
// returned as well.
func (s *Service) Open(ctx context.Context, fileName, rawQuery string) (*form.Session, error) {
	return s.OpenWithParams(ctx, fileName, query.Parse(rawQuery))
}

func (s *Service) OpenWithParams(ctx context.Context, fileName string, params query.Params) (*form.Session, error) {
	sess := form.NewSession(uuid.NewString(), fileName)

	done := s.deps.Obs.Track(ctx, observability.StageLoad)
	raw, err := s.deps.Loader.Load(ctx, fileName)
	done(err)
	if err != nil {
		var se *errors.StandardError
		if stderrors.Is(err, loader.ErrEmptyFileName) {
			se = errors.NewInvalidInputError(err.Error())
		} else {
			se = errors.NewSchemaLoadFailedError(fileName, err)
		}
		s.logger.Error("form definition unavailable", map[string]interface{}{
			"fileName": fileName,
			"error":    err.Error(),
		})
		sess.Fail(se)
		return sess, se
	}

	done = s.deps.Obs.Track(ctx, observability.StageSanitize)
	sc := schema.Sanitize(raw)
	if sc == nil {
		se := errors.NewSchemaInvalidError(fileName)
		done(se)
		sess.Fail(se)
		return sess, se
	}
	done(nil)

	done = s.deps.Obs.Track(ctx, observability.StagePrefill)
	prefilled := prefill.Resolve(sc.Fields, params)
	err = sess.Ready(sc, params, prefilled)
	done(err)
	if err != nil {
		return sess, err
	}

	s.logger.Debug("form session ready", map[string]interface{}{
		"sessionId": sess.ID,
		"fileName":  fileName,
		"schemaId":  sc.ID,
		"fields":    len(sc.Fields),
		"dryRun":    sc.DryRun(),
	})
	return sess, nil
}

// Submit applies values to sess and runs the submission. A validation
// failure or a failed save returns both a Result carrying the notice and a
// *errors.StandardError. On success (live or dry-run) the session values are
// reset to their prefilled state; on a failed save they are kept.
func (s *Service) Submit(ctx context.Context, sess *form.Session, values form.Values) (*Result, error) {
	if st := sess.State(); st != form.StateReady {
		return nil, errors.NewFormNotReadyError(string(st))
	}
	if len(values) > 0 {
		if err := sess.SetValues(values); err != nil {
			return nil, errors.NewInvalidInputError(err.Error())
		}
	}

	sc := sess.Schema()
	mode := modeLive
	if sc.DryRun() {
		mode = modeDryRun
	}

	if fieldErrors := sess.Validate(); len(fieldErrors) > 0 {
		metrics.Submissions.WithLabelValues(mode, "invalid").Inc()
		return &Result{
			Notice:      Notice{Level: NoticeError, Message: NoticeRequired},
			FieldErrors: fieldErrors,
			DryRun:      sc.DryRun(),
		}, errors.NewFormValidationFailedError(fieldErrors)
	}

	if err := sess.BeginSubmit(); err != nil {
		metrics.Submissions.WithLabelValues(mode, "conflict").Inc()
		return nil, errors.NewSubmissionInProgressError(sess.ID)
	}
	defer sess.EndSubmit()

	release, err := s.acquire(ctx, sess)
	if err != nil {
		metrics.Submissions.WithLabelValues(mode, "conflict").Inc()
		return nil, err
	}
	defer release()

	start := time.Now()
	defer func() {
		metrics.SubmissionDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()

	done := s.deps.Obs.Track(ctx, observability.StageAssemble)
	payload, err := s.deps.Assembler.Assemble(ctx, sc, sess.Values(), sess.Params())
	done(err)
	if err != nil {
		metrics.Submissions.WithLabelValues(mode, "failed").Inc()
		return nil, err
	}

	if sc.DryRun() {
		return s.capture(ctx, sess, payload), nil
	}

	done = s.deps.Obs.Track(ctx, observability.StageSave)
	err = s.deps.Saver.SaveSurveyData(ctx, payload)
	done(err)
	if err != nil {
		metrics.Submissions.WithLabelValues(mode, "failed").Inc()
		s.logger.Error("survey save failed", map[string]interface{}{
			"sessionId": sess.ID,
			"fileName":  sess.FileName,
			"uniqueId":  payload.UniqueID,
			"error":     err.Error(),
		})
		msg := err.Error()
		if msg == "" {
			msg = NoticeSaveError
		}
		return &Result{
			Notice:  Notice{Level: NoticeError, Message: msg},
			Payload: payload,
		}, errors.NewSurveySaveFailedError(err)
	}

	metrics.Submissions.WithLabelValues(mode, "success").Inc()
	s.logger.Info("survey saved", map[string]interface{}{
		"sessionId": sess.ID,
		"fileName":  sess.FileName,
		"surveyId":  payload.SurveyID,
		"uniqueId":  payload.UniqueID,
		"outletId":  payload.OutletID,
	})
	sess.Reset()

	s.index(ctx, sess, sc, payload, false)
	s.publish(ctx, sess, payload)

	return &Result{
		Notice:  Notice{Level: NoticeSuccess, Message: NoticeSaved},
		Payload: payload,
	}, nil
}

// capture handles dry-run mode: the payload is logged and stored locally
// instead of being sent to the save endpoint.
func (s *Service) capture(ctx context.Context, sess *form.Session, payload *submission.Payload) *Result {
	fields := payload.ToMap()
	s.logger.Info("survey submission disabled, payload captured locally", map[string]interface{}{
		"sessionId": sess.ID,
		"fileName":  sess.FileName,
		"payload":   fields,
	})

	res := &Result{
		Notice:  Notice{Level: NoticeSuccess, Message: NoticeCaptured},
		Payload: payload,
		DryRun:  true,
	}

	if s.deps.Captures != nil {
		done := s.deps.Obs.Track(ctx, observability.StageCapture)
		id, err := s.deps.Captures.Save(ctx, sess.ID, sess.FileName, fields)
		done(err)
		if err != nil {
			stdErr := errors.NewDatabaseInsertFailedError(err)
			s.logger.Warn("failed to store captured survey", map[string]interface{}{
				"sessionId": sess.ID,
				"errorCode": string(stdErr.Code),
				"category":  errors.GetErrorCategory(stdErr.Code),
				"retryable": errors.IsRetryableErrorCode(stdErr.Code),
				"error":     stdErr.Error(),
			})
			res.CaptureError = string(stdErr.Code)
		}
		res.CaptureID = id
	}

	metrics.Submissions.WithLabelValues(modeDryRun, "success").Inc()
	sess.Reset()
	s.index(ctx, sess, sess.Schema(), payload, true)
	return res
}

// acquire takes the cross-process submit lock. Redis errors are logged and
// the submission proceeds with the in-process guard only.
func (s *Service) acquire(ctx context.Context, sess *form.Session) (func(), error) {
	noop := func() {}
	if s.deps.Guard == nil {
		return noop, nil
	}

	key := sess.FileName + ":" + sess.ID
	if unique := sess.Params().Get(query.UniqueID...); unique != "" {
		key = sess.FileName + ":" + unique
	}

	release, err := s.deps.Guard.Acquire(ctx, key, sess.ID)
	switch {
	case err == nil:
		return release, nil
	case stderrors.Is(err, ErrLocked):
		return nil, errors.NewSubmissionInProgressError(sess.ID)
	default:
		s.logger.Warn("submit guard unavailable", map[string]interface{}{
			"sessionId": sess.ID,
			"error":     err.Error(),
		})
		return noop, nil
	}
}

func (s *Service) index(ctx context.Context, sess *form.Session, sc *schema.Schema, payload *submission.Payload, dryRun bool) {
	if s.deps.Indexer == nil {
		return
	}
	err := s.deps.Indexer.Index(ctx, index.Document{
		ID:          payload.UniqueID,
		SessionID:   sess.ID,
		FileName:    sess.FileName,
		SchemaID:    sc.ID,
		DryRun:      dryRun,
		Payload:     payload.ToMap(),
		SubmittedAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("failed to index submission", map[string]interface{}{
			"sessionId": sess.ID,
			"error":     err.Error(),
		})
	}
}

type submittedEvent struct {
	SessionID   string `json:"sessionId"`
	FileName    string `json:"fileName"`
	SurveyID    string `json:"surveyId"`
	UniqueID    string `json:"uniqueId"`
	UserID      string `json:"userId"`
	OutletID    int    `json:"outletId"`
	SubmittedAt string `json:"submittedAt"`
}

func (s *Service) publish(ctx context.Context, sess *form.Session, payload *submission.Payload) {
	if s.deps.Events == nil {
		return
	}
	msg, err := json.Marshal(submittedEvent{
		SessionID:   sess.ID,
		FileName:    sess.FileName,
		SurveyID:    payload.SurveyID,
		UniqueID:    payload.UniqueID,
		UserID:      payload.UserID,
		OutletID:    payload.OutletID,
		SubmittedAt: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if _, err := s.deps.Events.Publish(ctx, EventSurveySubmitted, "Survey submitted", string(msg)); err != nil {
		s.logger.Warn("failed to publish survey event", map[string]interface{}{
			"sessionId": sess.ID,
			"error":     err.Error(),
		})
	}
}

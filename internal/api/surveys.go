package api

import (
	"encoding/json"
	"net/http"

	"survey-forms/internal/common/errors"
	"survey-forms/internal/survey"
	"survey-forms/internal/survey/form"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type openResponse struct {
	SessionID string                 `json:"sessionId"`
	FileName  string                 `json:"fileName"`
	DryRun    bool                   `json:"dryRun"`
	Schema    map[string]interface{} `json:"schema"`
	Values    form.Values            `json:"values"`
	Controls  []form.Control         `json:"controls"`
}

type submitRequest struct {
	Values form.Values `json:"values"`
}

type submitResponse struct {
	*survey.Result
	Error *errorBody `json:"error,omitempty"`
}

// OpenSurvey loads a form and returns it prefilled from the request query.
func (h *Handler) OpenSurvey(w http.ResponseWriter, r *http.Request) {
	fileName := chi.URLParam(r, "fileName")

	sess, err := h.service.Open(r.Context(), fileName, r.URL.RawQuery)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sc := sess.Schema()
	values := sess.Values()
	controls, err := form.Render(sc, values, sess.Errors())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, openResponse{
		SessionID: sess.ID,
		FileName:  fileName,
		DryRun:    sc.DryRun(),
		Schema:    sc.ToRaw(),
		Values:    values,
		Controls:  controls,
	})
}

// SubmitSurvey opens the form with the request query, applies the posted
// values and submits.
func (h *Handler) SubmitSurvey(w http.ResponseWriter, r *http.Request) {
	fileName := chi.URLParam(r, "fileName")

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.NewInvalidInputError("invalid JSON body: "+err.Error()))
		return
	}

	sess, err := h.service.Open(r.Context(), fileName, r.URL.RawQuery)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.service.Submit(r.Context(), sess, req.Values)
	if err != nil {
		if res == nil {
			h.writeError(w, r, err)
			return
		}
		se := errors.Normalize(err)
		render.Status(r, statusFor(se.Code))
		render.JSON(w, r, submitResponse{Result: res, Error: bodyFor(se)})
		return
	}
	render.JSON(w, r, submitResponse{Result: res})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	se := errors.Normalize(err)
	status := statusFor(se.Code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			"path":  r.URL.Path,
			"code":  string(se.Code),
			"error": err.Error(),
		})
	}
	render.Status(r, status)
	render.JSON(w, r, bodyFor(se))
}

func bodyFor(se *errors.StandardError) *errorBody {
	return &errorBody{Code: string(se.Code), Message: se.Message, Details: se.Details}
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeFormValidationFailed, errors.ErrCodeSchemaInvalid:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeSubmissionInProgress:
		return http.StatusConflict
	case errors.ErrCodeSchemaLoadFailed, errors.ErrCodeSurveySaveFailed, errors.ErrCodeOutletLookupFailed:
		return http.StatusBadGateway
	case errors.ErrCodeFormNotReady:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

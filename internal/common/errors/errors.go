// Package errors provides the standardized error model of the survey service
// and its conversion to BPMN errors for the job workers.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeSchemaLoadFailed ErrorCode = "SCHEMA_LOAD_FAILED"
	ErrCodeSchemaInvalid    ErrorCode = "SCHEMA_INVALID"

	ErrCodeFormValidationFailed ErrorCode = "FORM_VALIDATION_FAILED"
	ErrCodeFormNotReady         ErrorCode = "FORM_NOT_READY"
	ErrCodeSubmissionInProgress ErrorCode = "SUBMISSION_IN_PROGRESS"

	ErrCodeOutletLookupFailed       ErrorCode = "OUTLET_LOOKUP_FAILED"
	ErrCodeSurveySaveFailed         ErrorCode = "SURVEY_SAVE_FAILED"
	ErrCodePayloadContractViolation ErrorCode = "PAYLOAD_CONTRACT_VIOLATION"

	ErrCodeDatabaseInsertFailed ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a metadata entry and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	se := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		se.Details = cause.Error()
	}
	return se
}

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// NewSchemaLoadFailedError wraps the combined failure of every schema source.
func NewSchemaLoadFailedError(fileName string, err error) *StandardError {
	return newError(ErrCodeSchemaLoadFailed, "Unable to load form definition", err, true).
		WithMetadata("fileName", fileName)
}

// NewSchemaInvalidError is returned when a loaded document is not a JSON object.
func NewSchemaInvalidError(fileName string) *StandardError {
	return newError(ErrCodeSchemaInvalid, "Form definition is not a JSON object", nil, false).
		WithMetadata("fileName", fileName)
}

func NewFormValidationFailedError(fieldErrors map[string]string) *StandardError {
	se := newError(ErrCodeFormValidationFailed, "Please fill in all required fields", nil, false)
	keys := make([]string, 0, len(fieldErrors))
	for k := range fieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	se.Details = strings.Join(keys, ", ")
	return se.WithMetadata("fieldErrors", fieldErrors)
}

func NewFormNotReadyError(state string) *StandardError {
	return newError(ErrCodeFormNotReady, "Form is not ready for submission", nil, false).
		WithMetadata("state", state)
}

func NewSubmissionInProgressError(sessionID string) *StandardError {
	return newError(ErrCodeSubmissionInProgress, "A submission for this form is already running", nil, true).
		WithMetadata("sessionId", sessionID)
}

func NewOutletLookupFailedError(outletID int, err error) *StandardError {
	return newError(ErrCodeOutletLookupFailed, "Outlet lookup failed", err, true).
		WithMetadata("outletId", outletID)
}

func NewSurveySaveFailedError(err error) *StandardError {
	return newError(ErrCodeSurveySaveFailed, "Failed to save survey", err, true)
}

func NewPayloadContractViolationError(details string) *StandardError {
	se := newError(ErrCodePayloadContractViolation, "Survey payload does not match the save contract", nil, false)
	se.Details = details
	return se
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert failed", err, true)
}

func NewInvalidInputError(details string) *StandardError {
	se := newError(ErrCodeInvalidInput, "Invalid input", nil, false)
	se.Details = details
	return se
}

// AsStandardError extracts a *StandardError from an error chain.
func AsStandardError(err error) (*StandardError, bool) {
	var se *StandardError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	se, ok := AsStandardError(err)
	return ok && se.Code == code
}

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeSchemaLoadFailed:         "SCHEMA_LOAD_FAILED",
	ErrCodeSchemaInvalid:            "SCHEMA_INVALID",
	ErrCodeFormValidationFailed:     "FORM_VALIDATION_FAILED",
	ErrCodeFormNotReady:             "FORM_NOT_READY",
	ErrCodeSubmissionInProgress:     "SUBMISSION_IN_PROGRESS",
	ErrCodeOutletLookupFailed:       "OUTLET_LOOKUP_FAILED",
	ErrCodeSurveySaveFailed:         "SURVEY_SAVE_FAILED",
	ErrCodePayloadContractViolation: "PAYLOAD_CONTRACT_VIOLATION",
	ErrCodeDatabaseInsertFailed:     "DATABASE_INSERT_FAILED",
	ErrCodeInvalidInput:             "INVALID_INPUT",
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSchemaLoadFailed,
		ErrCodeSurveySaveFailed,
		ErrCodeDatabaseInsertFailed:
		return 3
	case ErrCodeSubmissionInProgress,
		ErrCodeOutletLookupFailed:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "SCHEMA"):
		return "SCHEMA"
	case strings.HasPrefix(codeStr, "FORM") || strings.Contains(codeStr, "INPUT"):
		return "VALIDATION"
	case strings.Contains(codeStr, "SUBMISSION") || strings.Contains(codeStr, "SAVE") || strings.Contains(codeStr, "PAYLOAD"):
		return "SUBMISSION"
	case strings.Contains(codeStr, "OUTLET"):
		return "ENRICHMENT"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	default:
		return "OTHER"
	}
}

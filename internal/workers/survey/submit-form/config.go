// internal/workers/survey/submit-form/config.go
package submitform

import (
	"time"

	"survey-forms/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// ThrowOnValidation raises FORM_VALIDATION_FAILED as a BPMN error instead
	// of completing the job with the field errors.
	ThrowOnValidation bool
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{Timeout: timeout, ThrowOnValidation: wcfg.ThrowOnValidation}
}

// internal/workers/survey/submit-form/models.go
package submitform

import (
	"survey-forms/internal/survey"
	"survey-forms/internal/survey/form"
)

type Input struct {
	FileName string            `json:"fileName"`
	Query    string            `json:"query,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	Values   form.Values       `json:"values"`
}

// Output is written back as process variables. Submitted is false only when
// validation failed and the handler is configured to complete the job anyway.
type Output struct {
	Submitted   bool                   `json:"submitted"`
	DryRun      bool                   `json:"dryRun"`
	Notice      survey.Notice          `json:"notice"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	FieldErrors form.FieldErrors       `json:"fieldErrors,omitempty"`
	CaptureID   string                 `json:"captureId,omitempty"`
}

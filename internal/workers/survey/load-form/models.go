// internal/workers/survey/load-form/models.go
package loadform

import "survey-forms/internal/survey/form"

// Input is read from the job variables. Query is the raw page query string;
// Params adds values that were not in Query.
type Input struct {
	FileName string            `json:"fileName"`
	Query    string            `json:"query,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
}

type Output struct {
	SessionID string                 `json:"sessionId"`
	Schema    map[string]interface{} `json:"schema"`
	Values    form.Values            `json:"values"`
	DryRun    bool                   `json:"dryRun"`
}

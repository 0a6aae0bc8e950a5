// Package schema holds the survey form model and the sanitizer that turns an
// untyped form definition into it.
package schema

// FieldType is the closed set of field tags a form definition may use.
type FieldType string

const (
	TypeSectionHeading FieldType = "section-heading"
	TypeSmallText      FieldType = "small-text"
	TypeText           FieldType = "text"
	TypeTextarea       FieldType = "textarea"
	TypeNumber         FieldType = "number"
	TypeEmail          FieldType = "email"
	TypeDate           FieldType = "date"
	TypeSelect         FieldType = "select"
	TypeRadio          FieldType = "radio"
	TypeCheckbox       FieldType = "checkbox"
)

// FieldTypes lists every tag in declaration order.
var FieldTypes = []FieldType{
	TypeSectionHeading,
	TypeSmallText,
	TypeText,
	TypeTextarea,
	TypeNumber,
	TypeEmail,
	TypeDate,
	TypeSelect,
	TypeRadio,
	TypeCheckbox,
}

// Valid reports whether t is one of the ten known tags.
func (t FieldType) Valid() bool {
	switch t {
	case TypeSectionHeading, TypeSmallText, TypeText, TypeTextarea, TypeNumber,
		TypeEmail, TypeDate, TypeSelect, TypeRadio, TypeCheckbox:
		return true
	}
	return false
}

// Interactive is false for display-only tags.
func (t FieldType) Interactive() bool {
	return t.Valid() && t != TypeSectionHeading && t != TypeSmallText
}

// IsChoice reports whether the field carries an option list.
func (t FieldType) IsChoice() bool {
	return t == TypeSelect || t == TypeRadio || t == TypeCheckbox
}

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field is one question or display element. Display-only fields use Padding
// and Margin; interactive fields use Required, Disabled, Placeholder and, for
// choice types, Options.
type Field struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`

	Required    bool     `json:"required,omitempty"`
	Disabled    bool     `json:"disabled,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []Option `json:"options,omitempty"`

	Padding string `json:"padding,omitempty"`
	Margin  string `json:"margin,omitempty"`
}

// PlaceholderOptions reports whether f carries the synthetic options that
// replace a missing or empty option list.
func (f Field) PlaceholderOptions() bool {
	want := placeholderOptions()
	if len(f.Options) != len(want) {
		return false
	}
	for i := range want {
		if f.Options[i] != want[i] {
			return false
		}
	}
	return true
}

type SubmissionConfig struct {
	Enabled bool `json:"enabled"`
}

// Schema is a sanitized form definition. Field keys are unique.
type Schema struct {
	ID               string           `json:"id"`
	Version          int              `json:"version"`
	Title            string           `json:"title"`
	Heading          string           `json:"heading"`
	Description      string           `json:"description"`
	SubmissionConfig SubmissionConfig `json:"submissionConfig"`
	Fields           []Field          `json:"fields"`
}

// DryRun is true when submissions are only logged and captured locally.
func (s *Schema) DryRun() bool {
	return !s.SubmissionConfig.Enabled
}

// FieldByKey returns the field with key, if any.
func (s *Schema) FieldByKey(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// ToRaw renders the schema back into the untyped shape Sanitize accepts.
func (s *Schema) ToRaw() map[string]interface{} {
	fields := make([]interface{}, 0, len(s.Fields))
	for _, f := range s.Fields {
		raw := map[string]interface{}{
			"id":    f.ID,
			"key":   f.Key,
			"type":  string(f.Type),
			"label": f.Label,
		}
		if f.Description != "" {
			raw["description"] = f.Description
		}
		if f.Type.Interactive() {
			raw["required"] = f.Required
			raw["disabled"] = f.Disabled
			raw["placeholder"] = f.Placeholder
		} else {
			raw["padding"] = f.Padding
			raw["margin"] = f.Margin
		}
		if f.Type.IsChoice() {
			opts := make([]interface{}, 0, len(f.Options))
			for _, o := range f.Options {
				opts = append(opts, map[string]interface{}{"value": o.Value, "label": o.Label})
			}
			raw["options"] = opts
		}
		fields = append(fields, raw)
	}

	return map[string]interface{}{
		"id":          s.ID,
		"version":     s.Version,
		"title":       s.Title,
		"heading":     s.Heading,
		"description": s.Description,
		"submissionConfig": map[string]interface{}{
			"enabled": s.SubmissionConfig.Enabled,
		},
		"fields": fields,
	}
}

package form

import (
	"fmt"

	"survey-forms/internal/survey/schema"
)

// ControlKind is the widget a field is rendered as.
type ControlKind string

const (
	KindHeading       ControlKind = "heading"
	KindParagraph     ControlKind = "paragraph"
	KindInput         ControlKind = "input"
	KindTextarea      ControlKind = "textarea"
	KindSelect        ControlKind = "select"
	KindRadioGroup    ControlKind = "radio-group"
	KindCheckboxGroup ControlKind = "checkbox-group"
)

// Control is the render model of one field.
type Control struct {
	Key         string          `json:"key"`
	Kind        ControlKind     `json:"kind"`
	InputType   string          `json:"inputType,omitempty"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Required    bool            `json:"required,omitempty"`
	Disabled    bool            `json:"disabled,omitempty"`
	Placeholder string          `json:"placeholder,omitempty"`
	Options     []schema.Option `json:"options,omitempty"`
	Value       *Value          `json:"value,omitempty"`
	Error       string          `json:"error,omitempty"`
	Padding     string          `json:"padding,omitempty"`
	Margin      string          `json:"margin,omitempty"`
}

// Render maps every field of sc to a control carrying its current value and
// error.
func Render(sc *schema.Schema, values Values, errs FieldErrors) ([]Control, error) {
	controls := make([]Control, 0, len(sc.Fields))
	for _, f := range sc.Fields {
		c, err := renderField(f, values, errs)
		if err != nil {
			return nil, err
		}
		controls = append(controls, c)
	}
	return controls, nil
}

func renderField(f schema.Field, values Values, errs FieldErrors) (Control, error) {
	c := Control{
		Key:         f.Key,
		Label:       f.Label,
		Description: f.Description,
	}

	switch f.Type {
	case schema.TypeSectionHeading:
		c.Kind = KindHeading
	case schema.TypeSmallText:
		c.Kind = KindParagraph
	case schema.TypeText, schema.TypeNumber, schema.TypeEmail, schema.TypeDate:
		c.Kind = KindInput
		c.InputType = string(f.Type)
	case schema.TypeTextarea:
		c.Kind = KindTextarea
	case schema.TypeSelect:
		c.Kind = KindSelect
	case schema.TypeRadio:
		c.Kind = KindRadioGroup
	case schema.TypeCheckbox:
		c.Kind = KindCheckboxGroup
	default:
		return Control{}, fmt.Errorf("unsupported field type %q for %s", f.Type, f.Key)
	}

	if !f.Type.Interactive() {
		c.Padding = f.Padding
		c.Margin = f.Margin
		return c, nil
	}

	v := values.Get(f)
	c.Value = &v
	c.Required = f.Required
	c.Disabled = f.Disabled
	c.Placeholder = f.Placeholder
	c.Error = errs[f.Key]
	if f.Type.IsChoice() {
		c.Options = append([]schema.Option(nil), f.Options...)
	}
	return c, nil
}

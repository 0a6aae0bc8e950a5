// Package form tracks the values and validation state of one open survey form.
package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"survey-forms/internal/survey/schema"
)

// Value is either a single string or, for checkbox groups, a list of strings.
type Value struct {
	text  string
	items []string
	list  bool
}

func Text(s string) Value {
	return Value{text: s}
}

func List(items ...string) Value {
	out := make([]string, 0, len(items))
	out = append(out, items...)
	return Value{items: out, list: true}
}

func (v Value) IsList() bool {
	return v.list
}

// Items returns the selected entries of a list value, or a one element slice
// for a non-blank single value.
func (v Value) Items() []string {
	if v.list {
		out := make([]string, len(v.items))
		copy(out, v.items)
		return out
	}
	if strings.TrimSpace(v.text) == "" {
		return nil
	}
	return []string{v.text}
}

// String joins list values with ", ".
func (v Value) String() string {
	if v.list {
		return strings.Join(v.items, ", ")
	}
	return v.text
}

// Blank reports whether the value carries no answer.
func (v Value) Blank() bool {
	if v.list {
		return len(v.items) == 0
	}
	return strings.TrimSpace(v.text) == ""
}

func (v Value) Equal(o Value) bool {
	if v.list != o.list {
		return false
	}
	if !v.list {
		return v.text == o.text
	}
	if len(v.items) != len(o.items) {
		return false
	}
	for i := range v.items {
		if v.items[i] != o.items[i] {
			return false
		}
	}
	return true
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.list {
		items := v.items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(v.text)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = Text("")
	case data[0] == '[':
		var raw []interface{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			if item == nil {
				continue
			}
			items = append(items, fmt.Sprint(item))
		}
		*v = List(items...)
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case data[0] == '{':
		return fmt.Errorf("form value must be a string or a list, got object")
	default:
		// numbers and booleans keep their literal text
		*v = Text(string(data))
	}
	return nil
}

// Values maps field keys to their current value.
type Values map[string]Value

func (vs Values) Clone() Values {
	out := make(Values, len(vs))
	for k, v := range vs {
		out[k] = v
	}
	return out
}

// Get returns the value for key, or the zero value of the field type.
func (vs Values) Get(f schema.Field) Value {
	if v, ok := vs[f.Key]; ok {
		return v
	}
	return Empty(f)
}

// Empty is the initial value of a field: an empty list for checkbox groups
// and an empty string otherwise.
func Empty(f schema.Field) Value {
	if f.Type == schema.TypeCheckbox {
		return List()
	}
	return Text("")
}

// FieldErrors maps field keys to a user facing message.
type FieldErrors map[string]string

func (fe FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(fe))
	for k, v := range fe {
		out[k] = v
	}
	return out
}

// HasRequiredValue applies the emptiness rule of the field type: a checkbox
// group needs at least one selection, every other type a non-blank string.
func HasRequiredValue(f schema.Field, v Value) bool {
	if f.Type == schema.TypeCheckbox {
		return v.IsList() && len(v.items) > 0
	}
	return strings.TrimSpace(v.String()) != ""
}

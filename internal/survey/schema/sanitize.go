package schema

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	defaultSelectPlaceholder = "Select an option"
	syntheticIDPrefix        = "generated-"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases s, collapses every run of non-alphanumerics to "_" and
// trims leading and trailing underscores. An empty result becomes "field".
func Slug(s string) string {
	out := nonAlnum.ReplaceAllString(strings.ToLower(s), "_")
	out = strings.Trim(out, "_")
	if out == "" {
		return "field"
	}
	return out
}

// Sanitize converts a decoded JSON document into a Schema. It never fails on
// malformed nested values; anything unusable is treated as absent. The result
// is nil only when raw is not a JSON object.
func Sanitize(raw interface{}) *Schema {
	root, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}

	s := &Schema{
		ID:          trimmed(root["id"]),
		Version:     asVersion(root["version"]),
		Title:       text(root["title"]),
		Heading:     text(root["heading"]),
		Description: text(root["description"]),
		SubmissionConfig: SubmissionConfig{
			Enabled: true,
		},
		Fields: []Field{},
	}
	if s.ID == "" {
		s.ID = syntheticIDPrefix + uuid.NewString()
	}
	if sc, ok := root["submissionConfig"].(map[string]interface{}); ok {
		if enabled, ok := sc["enabled"].(bool); ok {
			s.SubmissionConfig.Enabled = enabled
		}
	}

	rawFields, _ := root["fields"].([]interface{})
	used := make(map[string]bool, len(rawFields))
	for _, entry := range rawFields {
		rf, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if f, ok := sanitizeField(rf, used); ok {
			s.Fields = append(s.Fields, f)
		}
	}
	return s
}

func sanitizeField(rf map[string]interface{}, used map[string]bool) (Field, bool) {
	typeStr, ok := rf["type"].(string)
	if !ok {
		return Field{}, false
	}
	ft := FieldType(strings.ToLower(strings.TrimSpace(typeStr)))
	if !ft.Valid() {
		return Field{}, false
	}

	label := text(rf["label"])
	base := trimmed(rf["key"])
	if base == "" {
		base = label
	}
	key := uniqueKey(Slug(base), used)

	f := Field{
		ID:          trimmed(rf["id"]),
		Key:         key,
		Type:        ft,
		Label:       label,
		Description: text(rf["description"]),
	}
	if f.ID == "" {
		f.ID = key
	}

	if !ft.Interactive() {
		f.Padding = trimmed(rf["padding"])
		f.Margin = trimmed(rf["margin"])
		return f, true
	}

	f.Required = asBool(rf["required"])
	f.Disabled = asBool(rf["disabled"])
	f.Placeholder = text(rf["placeholder"])

	if ft.IsChoice() {
		f.Options = sanitizeOptions(rf["options"])
	}
	if ft == TypeSelect && strings.TrimSpace(f.Placeholder) == "" {
		f.Placeholder = defaultSelectPlaceholder
	}
	return f, true
}

func uniqueKey(key string, used map[string]bool) string {
	candidate := key
	for n := 2; used[candidate]; n++ {
		candidate = key + "_" + strconv.Itoa(n)
	}
	used[candidate] = true
	return candidate
}

func sanitizeOptions(raw interface{}) []Option {
	entries, _ := raw.([]interface{})
	opts := make([]Option, 0, len(entries))
	for _, entry := range entries {
		var value, label string
		switch v := entry.(type) {
		case string:
			value = strings.TrimSpace(v)
			label = value
		case map[string]interface{}:
			value = trimmed(v["value"])
			label = trimmed(v["label"])
		default:
			continue
		}
		if value == "" && label == "" {
			continue
		}
		if value == "" {
			value = label
		}
		if label == "" {
			label = value
		}
		opts = append(opts, Option{Value: value, Label: label})
	}
	if len(opts) == 0 {
		return placeholderOptions()
	}
	return opts
}

func placeholderOptions() []Option {
	return []Option{
		{Value: "option_1", Label: "Option 1"},
		{Value: "option_2", Label: "Option 2"},
	}
}

// text accepts strings and numbers; everything else is "".
func text(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	}
	return ""
}

func trimmed(v interface{}) string {
	return strings.TrimSpace(text(v))
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asVersion(v interface{}) int {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 1
		}
		f = parsed
	default:
		return 1
	}
	if f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 1
	}
	return int(f)
}

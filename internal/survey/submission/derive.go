package submission

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"survey-forms/internal/survey/form"
	"survey-forms/internal/survey/schema"
)

var (
	digitsPattern = regexp.MustCompile(`\d+`)
	numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// parseInt reads a whole number from s, accepting "12", "12.0" and " 12 ".
func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// digitsIn extracts the first run of digits from free text ("Route 12" -> 12).
func digitsIn(s string) (int, bool) {
	m := digitsPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func numberIn(s string) (float64, bool) {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	return parseFloat(m)
}

// lookupString reads the first non-blank entry among keys from an outlet
// lookup payload.
func lookupString(payload map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := payload[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case fmt.Stringer:
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func lookupInt(payload map[string]interface{}, keys ...string) (int, bool) {
	return parseInt(lookupString(payload, keys...))
}

func lookupFloat(payload map[string]interface{}, keys ...string) (float64, bool) {
	return parseFloat(lookupString(payload, keys...))
}

// fieldText returns the answer of the first interactive field whose key or
// label slug is one of names.
func fieldText(sc *schema.Schema, values form.Values, names ...string) string {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	for _, f := range sc.Fields {
		if !f.Type.Interactive() {
			continue
		}
		if !want[schema.Slug(f.Key)] && !want[schema.Slug(f.Label)] {
			continue
		}
		if v, ok := values[f.Key]; ok && !v.Blank() {
			return strings.TrimSpace(v.String())
		}
	}
	return ""
}

// fieldTextMatching is fieldText with a predicate instead of names.
func fieldTextMatching(sc *schema.Schema, values form.Values, match func(schema.Field) bool) string {
	for _, f := range sc.Fields {
		if !f.Type.Interactive() || !match(f) {
			continue
		}
		if v, ok := values[f.Key]; ok && !v.Blank() {
			return strings.TrimSpace(v.String())
		}
	}
	return ""
}

// intChain is one layered numeric fallback: query, form text, lookup.
type intChain struct {
	query  string
	text   string
	lookup map[string]interface{}
	keys   []string
}

func (c intChain) resolve(def int) int {
	if n, ok := parseInt(c.query); ok && n >= 0 {
		return n
	}
	if n, ok := digitsIn(c.text); ok {
		return n
	}
	if n, ok := lookupInt(c.lookup, c.keys...); ok && n >= 0 {
		return n
	}
	return def
}

type floatChain struct {
	query    string
	text     string
	lookup   map[string]interface{}
	keys     []string
	min, max float64
}

func (c floatChain) resolve(def float64) float64 {
	in := func(f float64) bool { return f >= c.min && f <= c.max }
	if f, ok := parseFloat(c.query); ok && in(f) {
		return f
	}
	if f, ok := numberIn(c.text); ok && in(f) {
		return f
	}
	if f, ok := lookupFloat(c.lookup, c.keys...); ok && in(f) {
		return f
	}
	return def
}

// Package prefill guesses initial form values from the page query string.
// Every guess is a hint: a value that cannot be matched resolves to "".
package prefill

import (
	"strings"

	"survey-forms/internal/survey/form"
	"survey-forms/internal/survey/query"
	"survey-forms/internal/survey/schema"
)

var (
	routeSynonyms = map[string]bool{
		"route":      true,
		"route_name": true,
		"routename":  true,
		"route_id":   true,
		"routeid":    true,
	}
	outletSynonyms = map[string]bool{
		"outlet":      true,
		"outlet_name": true,
		"outletname":  true,
		"outlet_id":   true,
		"outletid":    true,
	}
)

// IsRouteField reports whether the key or label of f names a route.
// Route code fields are not routes.
func IsRouteField(f schema.Field) bool {
	return matches(f, routeSynonyms)
}

// IsOutletField reports whether the key or label of f names an outlet.
// Outlet code fields are not outlets.
func IsOutletField(f schema.Field) bool {
	return matches(f, outletSynonyms)
}

func matches(f schema.Field, synonyms map[string]bool) bool {
	candidates := []string{schema.Slug(f.Key)}
	if strings.TrimSpace(f.Label) != "" {
		candidates = append(candidates, schema.Slug(f.Label))
	}
	for _, c := range candidates {
		if strings.Contains(c, "code") {
			return false
		}
	}
	for _, c := range candidates {
		if synonyms[c] {
			return true
		}
	}
	return false
}

// RouteValue picks the route hint: name, then the DealerCode route part, then id.
func RouteValue(p query.Params) string {
	if v := p.Get(query.RouteName...); v != "" {
		return v
	}
	if v := p.DealerRoute(); v != "" {
		return v
	}
	return p.Get(query.RouteID...)
}

// OutletValue picks the outlet hint: name, then the DealerCode outlet part, then id.
func OutletValue(p query.Params) string {
	if v := p.Get(query.OutletName...); v != "" {
		return v
	}
	if v := p.DealerOutlet(); v != "" {
		return v
	}
	return p.Get(query.OutletID...)
}

// Resolve builds the initial values for every interactive field.
func Resolve(fields []schema.Field, p query.Params) form.Values {
	values := make(form.Values, len(fields))
	for _, f := range fields {
		if !f.Type.Interactive() {
			continue
		}
		values[f.Key] = resolveField(f, p)
	}
	return values
}

func resolveField(f schema.Field, p query.Params) form.Value {
	if f.Type == schema.TypeCheckbox {
		return form.List()
	}

	var hint string
	switch {
	case IsRouteField(f):
		hint = RouteValue(p)
	case IsOutletField(f):
		hint = OutletValue(p)
	default:
		return form.Text("")
	}

	if f.Type == schema.TypeSelect || f.Type == schema.TypeRadio {
		return form.Text(MatchOption(f.Options, hint))
	}
	return form.Text(hint)
}

// MatchOption returns the canonical option value for raw, comparing
// case-insensitively against option values first and labels second.
func MatchOption(options []schema.Option, raw string) string {
	needle := strings.ToLower(strings.TrimSpace(raw))
	if needle == "" {
		return ""
	}
	for _, o := range options {
		if strings.ToLower(strings.TrimSpace(o.Value)) == needle {
			return o.Value
		}
	}
	for _, o := range options {
		if strings.ToLower(strings.TrimSpace(o.Label)) == needle {
			return o.Value
		}
	}
	return ""
}

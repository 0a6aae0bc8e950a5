// Package query normalizes the page query string a survey form is opened with.
package query

import (
	"net/url"
	"strings"
)

// Alias families for the parameters the pipeline reads.
var (
	RouteName  = []string{"routeName", "route_name"}
	RouteID    = []string{"routeId", "route_id"}
	OutletName = []string{"outletName", "outlet_name"}
	OutletID   = []string{"outletId", "outlet_id"}
	DealerCode = []string{"DealerCode", "dealer_code"}
	UserID     = []string{"userId", "user_id", "uid", "repUserId"}
	SurveyID   = []string{"surveyId", "survey_id"}
	UniqueID   = []string{"uniqueId", "unique_id"}
	AuditUser  = []string{"auditUser", "repUserName"}
	Latitude   = []string{"latitude", "lat"}
	Longitude  = []string{"longitude", "lng", "lon"}
	Battery    = []string{"battery_level", "batteryLevel", "battery"}
	AgencyCode = []string{"agencyCode", "agency_code"}
	RouteCode  = []string{"routeCode", "route_code"}
	ShopCode   = []string{"shopCode", "shop_code"}
)

// Params holds query values keyed by lower-cased name. Only the first
// non-blank value of a repeated key is kept.
type Params map[string]string

// Parse splits rawQuery on "&", treats "+" as a space and percent-decodes
// names and values. A value that fails to decode is kept as written.
// Surrounding single or double quotes are stripped.
func Parse(rawQuery string) Params {
	p := make(Params)
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	if rawQuery == "" {
		return p
	}

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		name = strings.ToLower(strings.TrimSpace(decode(name)))
		if name == "" {
			continue
		}
		value = unquote(strings.TrimSpace(decode(value)))
		if existing, ok := p[name]; ok && strings.TrimSpace(existing) != "" {
			continue
		}
		p[name] = value
	}
	return p
}

// FromValues builds Params from already decoded url.Values.
func FromValues(values url.Values) Params {
	p := make(Params, len(values))
	for name, vals := range values {
		key := strings.ToLower(strings.TrimSpace(name))
		for _, v := range vals {
			v = unquote(strings.TrimSpace(v))
			if existing, ok := p[key]; ok && strings.TrimSpace(existing) != "" {
				break
			}
			p[key] = v
		}
	}
	return p
}

func decode(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

// Get returns the first non-blank value among names, matched case-insensitively.
func (p Params) Get(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(p[strings.ToLower(name)]); v != "" {
			return v
		}
	}
	return ""
}

// Has reports whether any of names carries a non-blank value.
func (p Params) Has(names ...string) bool {
	return p.Get(names...) != ""
}

// SplitDealerCode splits a "route/outlet" dealer code. Either half may be empty.
func SplitDealerCode(code string) (route, outlet string) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ""
	}
	route, outlet, found := strings.Cut(code, "/")
	if !found {
		return strings.TrimSpace(route), ""
	}
	return strings.TrimSpace(route), strings.TrimSpace(outlet)
}

// DealerRoute is the route half of the DealerCode parameter.
func (p Params) DealerRoute() string {
	route, _ := SplitDealerCode(p.Get(DealerCode...))
	return route
}

// DealerOutlet is the outlet half of the DealerCode parameter.
func (p Params) DealerOutlet() string {
	_, outlet := SplitDealerCode(p.Get(DealerCode...))
	return outlet
}

package prefill

import (
	"testing"

	"survey-forms/internal/survey/form"
	"survey-forms/internal/survey/query"
	"survey-forms/internal/survey/schema"

	"github.com/stretchr/testify/assert"
)

func TestFieldPredicates(t *testing.T) {
	tests := []struct {
		name   string
		field  schema.Field
		route  bool
		outlet bool
	}{
		{"route key", schema.Field{Key: "route"}, true, false},
		{"route label", schema.Field{Key: "q_1", Label: "Route Name"}, true, false},
		{"routeId key", schema.Field{Key: "routeId"}, true, false},
		{"route code", schema.Field{Key: "route_code", Label: "Route Code"}, false, false},
		{"route key with code label", schema.Field{Key: "route", Label: "Route code"}, false, false},
		{"outlet label", schema.Field{Key: "field_2", Label: "Outlet"}, false, true},
		{"outlet name key", schema.Field{Key: "outlet_name"}, false, true},
		{"outlet code", schema.Field{Key: "outletcode"}, false, false},
		{"partial match", schema.Field{Key: "route_visited_today"}, false, false},
		{"shop", schema.Field{Key: "shop"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.route, IsRouteField(tt.field))
			assert.Equal(t, tt.outlet, IsOutletField(tt.field))
		})
	}
}

func TestRouteAndOutletValue(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		route  string
		outlet string
	}{
		{"names win", "routeName=North&routeId=7&outletName=Lucky&outletId=12&DealerCode=R7/O12", "North", "Lucky"},
		{"dealer code next", "routeId=7&outletId=12&DealerCode=R7/O12", "R7", "O12"},
		{"ids last", "routeId=7&outletId=12", "7", "12"},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := query.Parse(tt.raw)
			assert.Equal(t, tt.route, RouteValue(p))
			assert.Equal(t, tt.outlet, OutletValue(p))
		})
	}
}

func TestMatchOption(t *testing.T) {
	opts := []schema.Option{
		{Value: "r1", Label: "North"},
		{Value: "R2", Label: "south"},
	}

	assert.Equal(t, "r1", MatchOption(opts, "R1"))
	assert.Equal(t, "R2", MatchOption(opts, " SOUTH "))
	assert.Equal(t, "r1", MatchOption(opts, "north"))
	assert.Equal(t, "", MatchOption(opts, "east"))
	assert.Equal(t, "", MatchOption(opts, ""))
}

func TestResolve(t *testing.T) {
	fields := []schema.Field{
		{Key: "heading", Type: schema.TypeSectionHeading, Label: "Route"},
		{Key: "route", Type: schema.TypeSelect, Options: []schema.Option{{Value: "r1", Label: "North"}, {Value: "r2", Label: "South"}}},
		{Key: "outlet_name", Type: schema.TypeText},
		{Key: "outlet", Type: schema.TypeRadio, Options: []schema.Option{{Value: "o1", Label: "Other"}}},
		{Key: "brands", Type: schema.TypeCheckbox, Label: "Route", Options: []schema.Option{{Value: "north", Label: "North"}}},
		{Key: "notes", Type: schema.TypeTextarea},
		{Key: "route_code", Type: schema.TypeText},
	}
	p := query.Parse("routeName=north&outletName=Lucky+Stores&routeCode=RC1")

	values := Resolve(fields, p)

	_, hasHeading := values["heading"]
	assert.False(t, hasHeading)
	assert.True(t, values["route"].Equal(form.Text("r1")))
	assert.True(t, values["outlet_name"].Equal(form.Text("Lucky Stores")))
	assert.True(t, values["outlet"].Equal(form.Text("")))
	assert.True(t, values["brands"].Equal(form.List()))
	assert.True(t, values["notes"].Equal(form.Text("")))
	assert.True(t, values["route_code"].Equal(form.Text("")))
}

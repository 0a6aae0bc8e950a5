package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	p := Parse(`?RouteName=Colombo+North&outletId=%2712%27&DealerCode=R07%2FO112&note=100%25+sure&bad=50%zz&empty=&userId=&userId=u-9`)

	assert.Equal(t, "Colombo North", p.Get(RouteName...))
	assert.Equal(t, "12", p.Get(OutletID...))
	assert.Equal(t, "R07/O112", p.Get(DealerCode...))
	assert.Equal(t, "100% sure", p.Get("note"))
	assert.Equal(t, "50%zz", p.Get("bad"))
	assert.Equal(t, "", p.Get("empty"))
	assert.Equal(t, "u-9", p.Get(UserID...))
}

func TestParse_FirstNonBlankWins(t *testing.T) {
	p := Parse("surveyId=first&surveyid=second")
	assert.Equal(t, "first", p.Get(SurveyID...))
}

func TestParse_QuotesAndCase(t *testing.T) {
	p := Parse(`OUTLETNAME="Lucky Stores"&routeid='5'`)
	assert.Equal(t, "Lucky Stores", p.Get(OutletName...))
	assert.Equal(t, "5", p.Get(RouteID...))
}

func TestParse_Empty(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("?"))
	assert.Empty(t, Parse("&&=x"))
}

func TestGet_AliasOrder(t *testing.T) {
	p := Parse("battery=40&batteryLevel=55")
	assert.Equal(t, "55", p.Get(Battery...))
	assert.True(t, p.Has(Battery...))
	assert.False(t, p.Has(ShopCode...))
}

func TestFromValues(t *testing.T) {
	p := FromValues(url.Values{"OutletName": {"", `"Shop A"`}, "lat": {"6.91"}})
	assert.Equal(t, "Shop A", p.Get(OutletName...))
	assert.Equal(t, "6.91", p.Get(Latitude...))
}

func TestSplitDealerCode(t *testing.T) {
	tests := []struct {
		code   string
		route  string
		outlet string
	}{
		{"R07/O112", "R07", "O112"},
		{" R07 / O112 ", "R07", "O112"},
		{"R07", "R07", ""},
		{"/O112", "", "O112"},
		{"", "", ""},
		{"a/b/c", "a", "b/c"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			route, outlet := SplitDealerCode(tt.code)
			assert.Equal(t, tt.route, route)
			assert.Equal(t, tt.outlet, outlet)
		})
	}

	p := Parse("dealerCode=R1%2FO2")
	assert.Equal(t, "R1", p.DealerRoute())
	assert.Equal(t, "O2", p.DealerOutlet())
}

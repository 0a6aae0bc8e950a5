package submission

import (
	"context"
	"errors"
	"testing"
	"time"

	stderrors "survey-forms/internal/common/errors"
	"survey-forms/internal/common/logger"
	"survey-forms/internal/survey/form"
	"survey-forms/internal/survey/query"
	"survey-forms/internal/survey/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutlets struct {
	payload map[string]interface{}
	err     error
	calls   []int
}

func (f *fakeOutlets) FindOutletByID(ctx context.Context, outletID int) (map[string]interface{}, error) {
	f.calls = append(f.calls, outletID)
	return f.payload, f.err
}

var fixedNow = time.Date(2026, 10, 19, 14, 5, 9, 0, time.UTC)

func newTestAssembler(t *testing.T, outlets OutletFinder) *Assembler {
	return NewAssembler(outlets, logger.NewTestLogger(t)).
		WithClock(func() time.Time { return fixedNow }).
		WithIDs(func() string { return "uid-1" })
}

func visitSchema() *schema.Schema {
	return &schema.Schema{
		ID:               "outlet-visit",
		SubmissionConfig: schema.SubmissionConfig{Enabled: true},
		Fields: []schema.Field{
			field("route", schema.TypeText),
			field("outlet", schema.TypeText),
			field("shop_code", schema.TypeText),
			field("question1", schema.TypeText),
			field("notes", schema.TypeTextarea),
		},
	}
}

func TestAssemble_QueryWins(t *testing.T) {
	outlets := &fakeOutlets{payload: map[string]interface{}{"routeId": 99.0, "latitude": 7.1}}
	p := query.Parse("userId=u1&surveyId=s9&uniqueId=q-1&repUserName=audit&latitude=6.5&lng=80.1" +
		"&battery_level=55&routeId=3&routeName=North&outletId=12&outletName=Lucky&agencyCode=4&routeCode=5&shopCode=6")
	values := form.Values{"question1": form.Text("yes"), "notes": form.Text("clean shelf")}

	payload, err := newTestAssembler(t, outlets).Assemble(context.Background(), visitSchema(), values, p)
	require.NoError(t, err)

	assert.Equal(t, []int{12}, outlets.calls)
	assert.Equal(t, &Payload{
		UserID:       "u1",
		SurveyID:     "s9",
		UniqueID:     "q-1",
		AuditUser:    "audit",
		Latitude:     6.5,
		Longitude:    80.1,
		BatteryLevel: 55,
		Date:         "2026-10-19",
		Time:         "14:05:09",
		RouteID:      3,
		RouteName:    "North",
		OutletID:     12,
		OutletName:   "Lucky",
		AgencyCode:   4,
		RouteCode:    5,
		ShopCode:     6,
		Question1:    "yes",
		Question2:    "clean shelf",
		Question10:   "Lucky",
		IsActive:     true,
	}, payload)
}

func TestAssemble_FormTextThenLookupThenDefaults(t *testing.T) {
	outlets := &fakeOutlets{payload: map[string]interface{}{
		"routeId":    "31",
		"routeName":  "Lookup Route",
		"outletName": "Lookup Outlet",
		"agencyCode": 8.0,
		"latitude":   "7.25",
	}}
	values := form.Values{
		"route":     form.Text("Colombo North"),
		"outlet":    form.Text("Outlet No 112"),
		"shop_code": form.Text("SC-0042"),
	}

	payload, err := newTestAssembler(t, outlets).Assemble(context.Background(), visitSchema(), values, query.Params{})
	require.NoError(t, err)

	assert.Equal(t, []int{112}, outlets.calls)
	assert.Equal(t, 112, payload.OutletID)
	assert.Equal(t, 31, payload.RouteID)
	assert.Equal(t, "Colombo North", payload.RouteName)
	assert.Equal(t, "Outlet No 112", payload.OutletName)
	assert.Equal(t, 8, payload.AgencyCode)
	assert.Equal(t, 0, payload.RouteCode)
	assert.Equal(t, 42, payload.ShopCode)
	assert.Equal(t, 7.25, payload.Latitude)
	assert.Equal(t, DefaultLongitude, payload.Longitude)
	assert.Equal(t, 0, payload.BatteryLevel)
	assert.Equal(t, "outlet-visit", payload.SurveyID)
	assert.Equal(t, "uid-1", payload.UniqueID)
	assert.Equal(t, "", payload.UserID)
}

func TestAssemble_LookupFailureIsIgnored(t *testing.T) {
	outlets := &fakeOutlets{err: errors.New("outlet service down")}
	p := query.Parse("outletId=7&DealerCode=R12/O7")

	payload, err := newTestAssembler(t, outlets).Assemble(context.Background(), visitSchema(), form.Values{}, p)
	require.NoError(t, err)

	assert.Equal(t, 7, payload.OutletID)
	assert.Equal(t, 12, payload.RouteID)
	assert.Equal(t, "R12", payload.RouteName)
	assert.Equal(t, DefaultLatitude, payload.Latitude)
	assert.Equal(t, 0, payload.AgencyCode)
}

func TestAssemble_NoLookupWithoutOutletID(t *testing.T) {
	outlets := &fakeOutlets{}
	payload, err := newTestAssembler(t, outlets).Assemble(context.Background(), visitSchema(), form.Values{}, query.Params{})
	require.NoError(t, err)

	assert.Empty(t, outlets.calls)
	assert.Equal(t, 0, payload.OutletID)

	payload, err = newTestAssembler(t, nil).Assemble(context.Background(), visitSchema(), form.Values{}, query.Parse("outletId=5"))
	require.NoError(t, err)
	assert.Equal(t, 5, payload.OutletID)
}

func TestAssemble_OutOfRangeQueryValues(t *testing.T) {
	p := query.Parse("latitude=123&longitude=abc&battery=180&routeId=-4")

	payload, err := newTestAssembler(t, nil).Assemble(context.Background(), visitSchema(), form.Values{}, p)
	require.NoError(t, err)

	assert.Equal(t, DefaultLatitude, payload.Latitude)
	assert.Equal(t, DefaultLongitude, payload.Longitude)
	assert.Equal(t, 100, payload.BatteryLevel)
	assert.Equal(t, 0, payload.RouteID)
}

func TestCheckContract(t *testing.T) {
	valid := &Payload{SurveyID: "s", UniqueID: "u", Date: "2026-10-19", Time: "10:00:00", Latitude: 1, Longitude: 1, IsActive: true}
	res, err := CheckContract(valid)
	require.NoError(t, err)
	assert.True(t, res.Valid, res.GetErrorMessages())

	invalid := *valid
	invalid.SurveyID = ""
	invalid.Date = "19/10/2026"
	invalid.IsActive = false
	res, err = CheckContract(&invalid)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("surveyId"))
	assert.True(t, res.HasErrors("date"))
	assert.True(t, res.HasErrors("isActive"))
}

func TestContractViolationError(t *testing.T) {
	sc := visitSchema()
	sc.ID = ""

	_, err := newTestAssembler(t, nil).Assemble(context.Background(), sc, form.Values{}, query.Params{})
	require.Error(t, err)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodePayloadContractViolation))
}

func TestPayload_ToMap(t *testing.T) {
	p := &Payload{SurveyID: "s", IsActive: true}
	p.SetAnswers([QuestionSlots]string{"a", "", "", "", "", "", "", "", "", "j"})

	m := p.ToMap()
	assert.Equal(t, "a", m["question1"])
	assert.Equal(t, "j", m["question10"])
	assert.Equal(t, true, m["isActive"])
	assert.Len(t, m, 27)
}

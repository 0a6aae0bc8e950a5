package submission

import (
	"context"
	"strings"
	"time"

	"survey-forms/internal/common/errors"
	"survey-forms/internal/common/logger"
	"survey-forms/internal/survey/form"
	"survey-forms/internal/survey/prefill"
	"survey-forms/internal/survey/query"
	"survey-forms/internal/survey/schema"

	"github.com/google/uuid"
)

// OutletFinder looks up outlet master data for enrichment.
type OutletFinder interface {
	FindOutletByID(ctx context.Context, outletID int) (map[string]interface{}, error)
}

// Assembler builds save payloads from form values and the page query.
type Assembler struct {
	outlets OutletFinder
	logger  logger.Logger
	now     func() time.Time
	newID   func() string
}

// NewAssembler returns an assembler. outlets may be nil, in which case no
// enrichment lookup is made.
func NewAssembler(outlets OutletFinder, log logger.Logger) *Assembler {
	return &Assembler{
		outlets: outlets,
		logger:  log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// WithClock replaces the clock used for the date and time columns.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// WithIDs replaces the generator used when the query has no uniqueId.
func (a *Assembler) WithIDs(newID func() string) *Assembler {
	a.newID = newID
	return a
}

// Assemble derives the payload. The outlet lookup is best effort: a failure
// is logged and the outlet derived columns fall back to their defaults. The
// only error returned is a contract violation of the finished payload.
func (a *Assembler) Assemble(ctx context.Context, sc *schema.Schema, values form.Values, p query.Params) (*Payload, error) {
	routeText := firstNonBlank(fieldTextMatching(sc, values, prefill.IsRouteField), p.DealerRoute())
	outletText := firstNonBlank(fieldTextMatching(sc, values, prefill.IsOutletField), p.DealerOutlet())

	outletID := intChain{query: p.Get(query.OutletID...), text: outletText}.resolve(0)
	lookup := a.lookupOutlet(ctx, outletID)

	payload := &Payload{
		UserID:   p.Get(query.UserID...),
		SurveyID: firstNonBlank(p.Get(query.SurveyID...), sc.ID),
		UniqueID: p.Get(query.UniqueID...),
		OutletID: outletID,
		IsActive: true,
	}
	if payload.UniqueID == "" {
		payload.UniqueID = a.newID()
	}
	payload.AuditUser = firstNonBlank(p.Get(query.AuditUser...), payload.UserID)

	payload.RouteID = intChain{
		query:  p.Get(query.RouteID...),
		text:   routeText,
		lookup: lookup,
		keys:   []string{"routeId", "route_id"},
	}.resolve(0)
	payload.RouteName = firstNonBlank(
		p.Get(query.RouteName...),
		fieldTextMatching(sc, values, prefill.IsRouteField),
		p.DealerRoute(),
		lookupString(lookup, "routeName", "route_name"),
	)
	payload.OutletName = firstNonBlank(
		p.Get(query.OutletName...),
		fieldTextMatching(sc, values, prefill.IsOutletField),
		lookupString(lookup, "outletName", "outlet_name", "name"),
	)

	payload.AgencyCode = intChain{
		query:  p.Get(query.AgencyCode...),
		text:   fieldText(sc, values, "agency_code", "agencycode", "agency"),
		lookup: lookup,
		keys:   []string{"agencyCode", "agency_code"},
	}.resolve(0)
	payload.RouteCode = intChain{
		query:  p.Get(query.RouteCode...),
		text:   fieldText(sc, values, "route_code", "routecode"),
		lookup: lookup,
		keys:   []string{"routeCode", "route_code"},
	}.resolve(0)
	payload.ShopCode = intChain{
		query:  p.Get(query.ShopCode...),
		text:   fieldText(sc, values, "shop_code", "shopcode"),
		lookup: lookup,
		keys:   []string{"shopCode", "shop_code"},
	}.resolve(0)

	payload.Latitude = floatChain{
		query:  p.Get(query.Latitude...),
		text:   fieldText(sc, values, "latitude", "lat"),
		lookup: lookup,
		keys:   []string{"latitude", "lat"},
		min:    -90,
		max:    90,
	}.resolve(DefaultLatitude)
	payload.Longitude = floatChain{
		query:  p.Get(query.Longitude...),
		text:   fieldText(sc, values, "longitude", "lng", "lon"),
		lookup: lookup,
		keys:   []string{"longitude", "lng", "lon"},
		min:    -180,
		max:    180,
	}.resolve(DefaultLongitude)

	battery := intChain{
		query: p.Get(query.Battery...),
		text:  fieldText(sc, values, "battery_level", "battery"),
	}.resolve(0)
	if battery > 100 {
		battery = 100
	}
	payload.BatteryLevel = battery

	now := a.now()
	payload.Date = now.Format(DateLayout)
	payload.Time = now.Format(TimeLayout)

	payload.SetAnswers(Answers(sc, values, p))

	res, err := CheckContract(payload)
	if err != nil {
		return nil, errors.NewPayloadContractViolationError(err.Error())
	}
	if !res.Valid {
		return nil, errors.NewPayloadContractViolationError(strings.Join(res.GetErrorMessages(), "; "))
	}
	return payload, nil
}

func (a *Assembler) lookupOutlet(ctx context.Context, outletID int) map[string]interface{} {
	if outletID <= 0 || a.outlets == nil {
		return nil
	}
	data, err := a.outlets.FindOutletByID(ctx, outletID)
	if err != nil {
		a.logger.Warn("outlet lookup failed, continuing without enrichment", map[string]interface{}{
			"outletId": outletID,
			"error":    errors.NewOutletLookupFailedError(outletID, err),
		})
		return nil
	}
	return data
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

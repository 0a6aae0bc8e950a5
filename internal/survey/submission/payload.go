// Package submission turns form values into the fixed save payload and talks
// to the outlet and survey services.
package submission

import (
	"survey-forms/internal/common/validation"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"

	DefaultLatitude  = 6.9271
	DefaultLongitude = 79.8612

	// QuestionSlots is the number of questionN columns of the save contract.
	QuestionSlots = 10
)

// Payload is the request body of the survey save endpoint. Its shape does not
// depend on the form that produced it.
type Payload struct {
	UserID       string  `json:"userId"`
	SurveyID     string  `json:"surveyId"`
	UniqueID     string  `json:"uniqueId"`
	AuditUser    string  `json:"auditUser"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	BatteryLevel int     `json:"batteryLevel"`
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	RouteID      int     `json:"routeId"`
	RouteName    string  `json:"routeName"`
	OutletID     int     `json:"outletId"`
	OutletName   string  `json:"outletName"`
	AgencyCode   int     `json:"agencyCode"`
	RouteCode    int     `json:"routeCode"`
	ShopCode     int     `json:"shopCode"`
	Question1    string  `json:"question1"`
	Question2    string  `json:"question2"`
	Question3    string  `json:"question3"`
	Question4    string  `json:"question4"`
	Question5    string  `json:"question5"`
	Question6    string  `json:"question6"`
	Question7    string  `json:"question7"`
	Question8    string  `json:"question8"`
	Question9    string  `json:"question9"`
	Question10   string  `json:"question10"`
	IsActive     bool    `json:"isActive"`
}

// SetAnswers copies the ten answer slots into the question columns.
func (p *Payload) SetAnswers(a [QuestionSlots]string) {
	p.Question1, p.Question2, p.Question3, p.Question4, p.Question5 = a[0], a[1], a[2], a[3], a[4]
	p.Question6, p.Question7, p.Question8, p.Question9, p.Question10 = a[5], a[6], a[7], a[8], a[9]
}

// Answers returns the question columns in slot order.
func (p *Payload) Answers() [QuestionSlots]string {
	return [QuestionSlots]string{
		p.Question1, p.Question2, p.Question3, p.Question4, p.Question5,
		p.Question6, p.Question7, p.Question8, p.Question9, p.Question10,
	}
}

// ToMap is the payload as a generic JSON object, used for job variables and
// index documents.
func (p *Payload) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"userId":       p.UserID,
		"surveyId":     p.SurveyID,
		"uniqueId":     p.UniqueID,
		"auditUser":    p.AuditUser,
		"latitude":     p.Latitude,
		"longitude":    p.Longitude,
		"batteryLevel": p.BatteryLevel,
		"date":         p.Date,
		"time":         p.Time,
		"routeId":      p.RouteID,
		"routeName":    p.RouteName,
		"outletId":     p.OutletID,
		"outletName":   p.OutletName,
		"agencyCode":   p.AgencyCode,
		"routeCode":    p.RouteCode,
		"shopCode":     p.ShopCode,
		"isActive":     p.IsActive,
	}
	for i, a := range p.Answers() {
		m[questionKey(i+1)] = a
	}
	return m
}

const payloadContract = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": [
    "userId", "surveyId", "uniqueId", "auditUser", "latitude", "longitude", "batteryLevel",
    "date", "time", "routeId", "routeName", "outletId", "outletName", "agencyCode",
    "routeCode", "shopCode", "question1", "question2", "question3", "question4", "question5",
    "question6", "question7", "question8", "question9", "question10", "isActive"
  ],
  "properties": {
    "userId": {"type": "string"},
    "surveyId": {"type": "string", "minLength": 1},
    "uniqueId": {"type": "string", "minLength": 1},
    "auditUser": {"type": "string"},
    "latitude": {"type": "number", "minimum": -90, "maximum": 90},
    "longitude": {"type": "number", "minimum": -180, "maximum": 180},
    "batteryLevel": {"type": "integer", "minimum": 0, "maximum": 100},
    "date": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
    "time": {"type": "string", "pattern": "^[0-9]{2}:[0-9]{2}:[0-9]{2}$"},
    "routeId": {"type": "integer", "minimum": 0},
    "routeName": {"type": "string"},
    "outletId": {"type": "integer", "minimum": 0},
    "outletName": {"type": "string"},
    "agencyCode": {"type": "integer", "minimum": 0},
    "routeCode": {"type": "integer", "minimum": 0},
    "shopCode": {"type": "integer", "minimum": 0},
    "question1": {"type": "string"},
    "question2": {"type": "string"},
    "question3": {"type": "string"},
    "question4": {"type": "string"},
    "question5": {"type": "string"},
    "question6": {"type": "string"},
    "question7": {"type": "string"},
    "question8": {"type": "string"},
    "question9": {"type": "string"},
    "question10": {"type": "string"},
    "isActive": {"type": "boolean", "const": true}
  }
}`

var contract = validation.MustValidator(payloadContract)

// CheckContract validates p against the save endpoint contract.
func CheckContract(p *Payload) (*validation.ValidationResult, error) {
	return contract.Validate(p)
}

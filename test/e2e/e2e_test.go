// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-forms/internal/api"
	commonhttp "survey-forms/internal/common/http"
	"survey-forms/internal/common/logger"
	"survey-forms/internal/survey"
	"survey-forms/internal/survey/capture"
	"survey-forms/internal/survey/index"
	"survey-forms/internal/survey/loader"
	"survey-forms/internal/survey/submission"
)

// stack wires the real survey pipeline against in-process fakes of every
// outside system: the form builder, the outlet and survey APIs, Redis,
// Elasticsearch and PostgreSQL.
type stack struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	sql    sqlmock.Sqlmock

	mu          sync.Mutex
	formReads   int
	outletCalls int
	saved       []map[string]interface{}
	indexed     []map[string]interface{}
	events      []string
}

func (s *stack) Publish(ctx context.Context, eventType, subject, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, eventType+" "+subject)
	return "msg-1", nil
}

var forms = map[string]interface{}{
	"visit.json": map[string]interface{}{
		"id":               "outlet-visit",
		"submissionConfig": map[string]interface{}{"enabled": true},
		"fields": []interface{}{
			map[string]interface{}{"type": "text", "label": "Outlet", "required": true},
			map[string]interface{}{"type": "radio", "label": "Cooler clean", "required": true,
				"options": []interface{}{"Yes", "No"}},
			map[string]interface{}{"type": "number", "label": "Facings"},
		},
	},
	"audit.json": map[string]interface{}{
		"id":               "merch-audit",
		"submissionConfig": map[string]interface{}{"enabled": false},
		"fields": []interface{}{
			map[string]interface{}{"type": "text", "label": "Display", "required": true},
		},
	},
}

func newStack(t *testing.T) *stack {
	t.Helper()
	s := &stack{}
	log := logger.NewTestLogger(t)

	formBuilder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.formReads++
		s.mu.Unlock()
		doc, ok := forms[r.URL.Query().Get("fileName")]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"File not found"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": doc})
	}))
	t.Cleanup(formBuilder.Close)

	services := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/outlets/12":
			s.mu.Lock()
			s.outletCalls++
			s.mu.Unlock()
			w.Write([]byte(`{"payload":{"routeId":5,"routeName":"North","agencyCode":77,"shopCode":901}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/survey/save":
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			s.mu.Lock()
			s.saved = append(s.saved, body)
			s.mu.Unlock()
			w.Write([]byte(`{"success":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(services.Close)

	es := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		raw, _ := io.ReadAll(r.Body)
		var doc map[string]interface{}
		_ = json.Unmarshal(raw, &doc)
		s.mu.Lock()
		s.indexed = append(s.indexed, doc)
		s.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	}))
	t.Cleanup(es.Close)
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{es.URL}})
	require.NoError(t, err)

	s.redis = miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	t.Cleanup(func() { rdb.Close() })

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s.sql = mock

	httpClient := commonhttp.NewClient(5 * time.Second)
	schemaLoader := loader.New(log,
		loader.NewAPISource(httpClient, formBuilder.URL),
		loader.NewBundledSource(nil),
	)

	cached := loader.NewCachedLoader(schemaLoader, rdb, time.Minute, log)
	service := survey.NewService(survey.Deps{
		Loader:    cached,
		Assembler: submission.NewAssembler(submission.NewOutletClient(httpClient, services.URL), log),
		Saver:     submission.NewSaveClient(httpClient, services.URL, "/survey/save"),
		Guard:     survey.NewSubmitGuard(rdb, time.Minute),
		Captures:  capture.NewStore(db),
		Indexer:   index.NewIndexer(esClient, "survey-submissions"),
		Events:    s,
	}, log)

	s.server = httptest.NewServer(api.NewHandler(service, t.TempDir(), nil, log).WithSchemaCache(cached).Routes())
	t.Cleanup(s.server.Close)
	return s
}

func (s *stack) get(t *testing.T, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(s.server.URL + path)
	require.NoError(t, err)
	return decode(t, resp)
}

func (s *stack) post(t *testing.T, path, body string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) (int, map[string]interface{}) {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

const visitQuery = "?outletId=12&outletName=Keells&userId=u1&uniqueId=visit-001"

func TestE2E_OpenAndSubmitLiveSurvey(t *testing.T) {
	s := newStack(t)

	status, opened := s.get(t, "/api/surveys/visit.json"+visitQuery)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, opened["dryRun"])
	assert.Equal(t, "Keells", opened["values"].(map[string]interface{})["outlet"])
	assert.Len(t, opened["controls"], 3)

	status, result := s.post(t, "/api/surveys/visit.json/submit"+visitQuery,
		`{"values":{"cooler_clean":"Yes","facings":"4"}}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, survey.NoticeSaved, result["notice"].(map[string]interface{})["message"])

	s.mu.Lock()
	defer s.mu.Unlock()

	require.Len(t, s.saved, 1)
	saved := s.saved[0]
	assert.Equal(t, "u1", saved["userId"])
	assert.Equal(t, "outlet-visit", saved["surveyId"])
	assert.Equal(t, "visit-001", saved["uniqueId"])
	assert.Equal(t, float64(12), saved["outletId"])
	assert.Equal(t, "Keells", saved["outletName"])
	assert.Equal(t, float64(5), saved["routeId"])
	assert.Equal(t, "North", saved["routeName"])
	assert.Equal(t, float64(77), saved["agencyCode"])
	assert.Equal(t, float64(901), saved["shopCode"])
	assert.Equal(t, "Yes", saved["question1"])
	assert.Equal(t, "4", saved["question2"])
	assert.Equal(t, "Keells", saved["question10"])
	assert.Equal(t, true, saved["isActive"])

	assert.Equal(t, 1, s.outletCalls)
	assert.Equal(t, 1, s.formReads, "second open is served from the redis cache")
	assert.True(t, s.redis.Exists(loader.CacheKey("visit.json")))

	require.Len(t, s.indexed, 1)
	assert.Equal(t, "visit.json", s.indexed[0]["fileName"])
	assert.Equal(t, false, s.indexed[0]["dryRun"])
	assert.Equal(t, []string{survey.EventSurveySubmitted + " Survey submitted"}, s.events)

	assert.False(t, s.redis.Exists(survey.SubmitKey("visit.json:visit-001")), "submit lock is released")
}

func TestE2E_ValidationFailureKeepsServicesIdle(t *testing.T) {
	s := newStack(t)

	status, result := s.post(t, "/api/surveys/visit.json/submit"+visitQuery, `{"values":{"facings":"2"}}`)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "FORM_VALIDATION_FAILED", result["error"].(map[string]interface{})["code"])
	assert.Contains(t, result["fieldErrors"], "cooler_clean")

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.saved)
	assert.Empty(t, s.indexed)
	assert.Zero(t, s.outletCalls)
}

func TestE2E_DryRunIsCapturedNotSaved(t *testing.T) {
	s := newStack(t)
	s.sql.ExpectExec(`INSERT INTO survey_captures`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "audit.json", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	status, result := s.post(t, "/api/surveys/audit.json/submit?userId=u2", `{"values":{"display":"Good"}}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, result["dryRun"])
	assert.Equal(t, survey.NoticeCaptured, result["notice"].(map[string]interface{})["message"])
	assert.Len(t, result["captureId"], 36)
	assert.NoError(t, s.sql.ExpectationsWereMet())

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.saved)
	assert.Empty(t, s.events)
	require.Len(t, s.indexed, 1)
	assert.Equal(t, true, s.indexed[0]["dryRun"])
}

func TestE2E_ConcurrentSubmitIsRejected(t *testing.T) {
	s := newStack(t)
	require.NoError(t, s.redis.Set(survey.SubmitKey("visit.json:visit-001"), "other-session"))

	status, _ := s.post(t, "/api/surveys/visit.json/submit"+visitQuery, `{"values":{"cooler_clean":"No"}}`)
	assert.Equal(t, http.StatusConflict, status)

	got, err := s.redis.Get(survey.SubmitKey("visit.json:visit-001"))
	require.NoError(t, err)
	assert.Equal(t, "other-session", got)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.saved)
}

func TestE2E_UnknownFormFallsBackThenFails(t *testing.T) {
	s := newStack(t)

	status, body := s.get(t, "/api/surveys/outlet-visit.json")
	require.Equal(t, http.StatusOK, status, "bundled definition serves when the form builder has none")
	assert.Equal(t, "outlet-visit.json", body["fileName"])

	status, body = s.get(t, "/api/surveys/nowhere.json")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "SCHEMA_LOAD_FAILED", body["code"])
	assert.True(t, strings.HasPrefix(body["details"].(string), "unable to load nowhere.json"))
}

func TestE2E_ReadJSONRefreshEvictsCachedDefinition(t *testing.T) {
	s := newStack(t)

	status, _ := s.get(t, "/api/surveys/outlet-visit.json")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, s.redis.Exists(loader.CacheKey("outlet-visit.json")))

	status, _ = s.get(t, "/api/form-builder/read-json?fileName=outlet-visit.json")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, s.redis.Exists(loader.CacheKey("outlet-visit.json")))

	status, _ = s.get(t, "/api/form-builder/read-json?fileName=outlet-visit.json&refresh=1")
	require.Equal(t, http.StatusOK, status)
	assert.False(t, s.redis.Exists(loader.CacheKey("outlet-visit.json")))
}

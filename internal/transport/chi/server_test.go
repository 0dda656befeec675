package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/soclens/internal/artifact"
	"github.com/kailas-cloud/soclens/internal/domain"
	"github.com/kailas-cloud/soclens/internal/domain/incident"
	domplaybook "github.com/kailas-cloud/soclens/internal/domain/playbook"
	"github.com/kailas-cloud/soclens/internal/domain/prediction"
	"github.com/kailas-cloud/soclens/internal/domain/similarity"
	"github.com/kailas-cloud/soclens/internal/session"
	"github.com/kailas-cloud/soclens/internal/usecase/dashboard"
	healthuc "github.com/kailas-cloud/soclens/internal/usecase/health"
	"github.com/kailas-cloud/soclens/internal/usecase/predict"
)

type fakeSession struct {
	records    []incident.Record
	stats      dashboard.Stats
	err        error
	prediction prediction.Prediction
	predictErr error
	retrieval  session.Retrieval
	retrieveK  int
	gotFilter  incident.Filter
	gotRequest predict.Request
	panicOn    string
}

func (f *fakeSession) Capabilities(context.Context) []artifact.Status {
	return []artifact.Status{
		{Capability: domain.CapTextEncoder, Available: true, Artifact: "tfidf_vectorizer.json"},
		{Capability: domain.CapHighCriticalClassifier, Available: false, Reason: "not found"},
	}
}

func (f *fakeSession) TopKBounds() (int, int) { return 8, 20 }

func (f *fakeSession) Incidents(_ context.Context, flt incident.Filter, limit int) ([]incident.Record, int, error) {
	f.gotFilter = flt
	if f.err != nil {
		return nil, 0, f.err
	}
	n := len(f.records)
	if limit > 0 && limit < n {
		return f.records[:limit], n, nil
	}
	return f.records, n, nil
}

func (f *fakeSession) Stats(_ context.Context, flt incident.Filter) (dashboard.Stats, error) {
	f.gotFilter = flt
	return f.stats, f.err
}

func (f *fakeSession) Options(context.Context, incident.Filter) (dashboard.FilterOptions, dashboard.PredictorOptions, error) {
	if f.err != nil {
		return dashboard.FilterOptions{}, dashboard.PredictorOptions{}, f.err
	}
	return dashboard.FilterOptions{Severity: []string{"all", "High"}},
		dashboard.PredictorOptions{ThreatType: []string{"unknown", "Phishing"}, HourMax: 23, MonthMin: 1, MonthMax: 12},
		nil
}

func (f *fakeSession) Predict(_ context.Context, req predict.Request) (prediction.Prediction, error) {
	if f.panicOn == "predict" {
		panic("boom")
	}
	f.gotRequest = req
	return f.prediction, f.predictErr
}

func (f *fakeSession) Retrieve(_ context.Context, _ string, k int) (session.Retrieval, error) {
	f.retrieveK = k
	return f.retrieval, f.err
}

type fakeHealth struct {
	report healthuc.Report
}

func (f fakeHealth) Check(context.Context) healthuc.Report { return f.report }

func testRecords() []incident.Record {
	ts := time.Date(2024, 3, 1, 9, 12, 0, 0, time.UTC)
	return []incident.Record{
		incident.New(0, incident.Attrs{
			Description: "Phishing email credential harvest", ThreatType: "Phishing",
			Severity: "High", Status: "Open", Department: "HR", Timestamp: &ts, AssetName: "LAP-7",
		}),
		incident.New(1, incident.Attrs{
			Description: "Ransomware encrypted file server", ThreatType: "Ransomware",
			Severity: "Critical", Status: "Investigating", Department: "Finance",
		}),
	}
}

func newTestRouter(sess Session, keys ...string) http.Handler {
	health := fakeHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}}
	return NewRouter(NewServer(sess, health), keys, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			health := fakeHealth{report: healthuc.Report{
				Status: tt.status,
				Checks: map[string]healthuc.CheckResult{"corpus": healthuc.CheckOK},
			}}
			h := NewRouter(NewServer(&fakeSession{}, health), nil, zap.NewNop())

			rr := do(t, h, http.MethodGet, "/health", nil)
			require.Equal(t, tt.want, rr.Code)
			resp := decode[HealthResponse](t, rr)
			assert.Equal(t, string(tt.status), resp.Status)
			assert.Equal(t, "ok", resp.Checks["corpus"])
		})
	}
}

func TestGetCapabilities(t *testing.T) {
	rr := do(t, newTestRouter(&fakeSession{}), http.MethodGet, "/api/v1/capabilities", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[CapabilitiesResponse](t, rr)
	require.Len(t, resp.Capabilities, 2)
	assert.Equal(t, "text_encoder", resp.Capabilities[0].Capability)
	assert.True(t, resp.Capabilities[0].Available)
	assert.Equal(t, "not found", resp.Capabilities[1].Reason)
	assert.Equal(t, 8, resp.DefaultTopK)
	assert.Equal(t, 20, resp.MaxTopK)
}

func TestListIncidents(t *testing.T) {
	sess := &fakeSession{records: testRecords()}
	h := newTestRouter(sess)

	rr := do(t, h, http.MethodGet, "/api/v1/incidents?severity=High&department=all&limit=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[IncidentListResponse](t, rr)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Phishing", resp.Items[0].ThreatType)
	assert.Equal(t, "LAP-7", resp.Items[0].AssetName)
	require.NotNil(t, resp.Items[0].Timestamp)
	assert.Equal(t, incident.Filter{Severity: "High", Department: "all"}, sess.gotFilter)
}

func TestListIncidents_InvalidLimit(t *testing.T) {
	for _, limit := range []string{"abc", "0", "-3"} {
		rr := do(t, newTestRouter(&fakeSession{}), http.MethodGet, "/api/v1/incidents?limit="+limit, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "limit=%s", limit)
	}
}

func TestGetStats(t *testing.T) {
	sess := &fakeSession{stats: dashboard.Stats{
		KPIs:          dashboard.KPIs{Incidents: 3, HighCritical: 2},
		Distributions: map[string][]dashboard.Count{"severity": {{Label: "High", Count: 2}}},
		Daily:         []dashboard.DailyCount{{Day: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Count: 3}},
	}}

	rr := do(t, newTestRouter(sess), http.MethodGet, "/api/v1/stats?threat_type=Phishing", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[StatsResponse](t, rr)
	assert.Equal(t, 3, resp.KPIs.Incidents)
	assert.Equal(t, 2, resp.KPIs.HighCritical)
	assert.Equal(t, []CountResponse{{Label: "High", Count: 2}}, resp.Distributions["severity"])
	assert.Equal(t, []DailyResponse{{Day: "2024-03-01", Count: 3}}, resp.Daily)
	assert.Equal(t, "Phishing", sess.gotFilter.ThreatType)
}

func TestGetStats_CorpusUnavailable(t *testing.T) {
	sess := &fakeSession{err: fmt.Errorf("%w: open incidents.csv", domain.ErrCorpusUnavailable)}

	rr := do(t, newTestRouter(sess), http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	resp := decode[ErrorResponse](t, rr)
	assert.Equal(t, CodeCorpusUnavailable, resp.Code)
	assert.Equal(t, domain.ErrCorpusUnavailable.Error(), resp.Message)
}

func TestGetOptions(t *testing.T) {
	rr := do(t, newTestRouter(&fakeSession{}), http.MethodGet, "/api/v1/options", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[OptionsResponse](t, rr)
	assert.Equal(t, []string{"all", "High"}, resp.Filters.Severity)
	assert.Equal(t, []string{"unknown", "Phishing"}, resp.Predictor.ThreatType)
	assert.Equal(t, 23, resp.Predictor.HourMax)
	assert.Equal(t, 12, resp.Predictor.MonthMax)
}

func validPredictBody() PredictRequest {
	return PredictRequest{
		Description: "Suspicious login from new country",
		ThreatType:  "Phishing",
		Status:      "Open",
		AssetType:   "Laptop",
		Department:  "HR",
		DayOfWeek:   "Monday",
		Hour:        9,
		Month:       3,
	}
}

func TestPredict_Available(t *testing.T) {
	flag := true
	sess := &fakeSession{prediction: prediction.New("High", &flag)}

	rr := do(t, newTestRouter(sess), http.MethodPost, "/api/v1/predict", validPredictBody())
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[PredictResponse](t, rr)
	assert.True(t, resp.Available)
	assert.Equal(t, "High", resp.Severity)
	require.NotNil(t, resp.HighCritical)
	assert.True(t, *resp.HighCritical)
	assert.Equal(t, 9, sess.gotRequest.Hour)
	assert.Equal(t, "HR", sess.gotRequest.Department)
}

func TestPredict_FlagOmittedWithoutBinaryClassifier(t *testing.T) {
	sess := &fakeSession{prediction: prediction.New("Low", nil)}

	rr := do(t, newTestRouter(sess), http.MethodPost, "/api/v1/predict", validPredictBody())
	require.Equal(t, http.StatusOK, rr.Code)

	var raw map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	assert.Equal(t, "Low", raw["severity"])
	assert.NotContains(t, raw, "high_critical")
}

func TestPredict_Unavailable(t *testing.T) {
	sess := &fakeSession{prediction: prediction.Unavailable(domain.CapTextEncoder, domain.CapSeverityClassifier)}

	rr := do(t, newTestRouter(sess), http.MethodPost, "/api/v1/predict", validPredictBody())
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[PredictResponse](t, rr)
	assert.False(t, resp.Available)
	assert.Equal(t, []string{"text_encoder", "severity_classifier"}, resp.Missing)
	assert.Equal(t, "Severity prediction unavailable: missing text_encoder, severity_classifier", resp.Warning)
}

func TestPredict_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		body     any
		wantCode int
		wantErr  ErrorCode
	}{
		{
			name:     "invalid request",
			err:      fmt.Errorf("%w: hour must be between 0 and 23, got 24", domain.ErrInvalidRequest),
			body:     validPredictBody(),
			wantCode: http.StatusBadRequest,
			wantErr:  CodeValidationFailed,
		},
		{
			name:     "feature mismatch",
			err:      &domain.MismatchError{Component: "severity_classifier", Want: 8, Got: 7},
			body:     validPredictBody(),
			wantCode: http.StatusInternalServerError,
			wantErr:  CodeConfigurationError,
		},
		{
			name:     "unexpected",
			err:      fmt.Errorf("disk on fire"),
			body:     validPredictBody(),
			wantCode: http.StatusInternalServerError,
			wantErr:  CodeInternalError,
		},
		{
			name:     "malformed body",
			body:     `{"description": 42}`,
			wantCode: http.StatusBadRequest,
			wantErr:  CodeBadRequest,
		},
		{
			name:     "unknown field",
			body:     `{"description": "x", "priority": 1}`,
			wantCode: http.StatusBadRequest,
			wantErr:  CodeBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &fakeSession{predictErr: tt.err}

			rr := do(t, newTestRouter(sess), http.MethodPost, "/api/v1/predict", tt.body)
			require.Equal(t, tt.wantCode, rr.Code)
			resp := decode[ErrorResponse](t, rr)
			assert.Equal(t, tt.wantErr, resp.Code)
		})
	}
}

func TestPredict_MismatchMessageNamesComponent(t *testing.T) {
	sess := &fakeSession{predictErr: &domain.MismatchError{Component: "severity_classifier", Want: 8, Got: 7}}

	rr := do(t, newTestRouter(sess), http.MethodPost, "/api/v1/predict", validPredictBody())
	resp := decode[ErrorResponse](t, rr)
	assert.Contains(t, resp.Message, "severity_classifier")
	assert.Contains(t, resp.Message, "want width 8, got 7")
}

func TestRetrieve(t *testing.T) {
	recs := testRecords()
	res := similarity.NewResult([]similarity.Hit{
		similarity.NewHit(recs[0], 0.91),
		similarity.NewHit(recs[1], 0.12),
	})
	sess := &fakeSession{retrieval: session.Retrieval{
		Result: res,
		Recommendation: domplaybook.NewRecommendation(
			[]string{"Quarantine/purge emails", "Isolate endpoints"}, []string{"phishing", "malware"}, false,
		),
	}}

	rr := do(t, newTestRouter(sess), http.MethodPost, "/api/v1/retrieve", RetrieveRequest{Query: "phishing", TopK: 2})
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[RetrieveResponse](t, rr)
	assert.True(t, resp.Available)
	require.Len(t, resp.Hits, 2)
	assert.Equal(t, "Phishing", resp.Hits[0].Incident.ThreatType)
	assert.InDelta(t, 0.91, resp.Hits[0].Score, 1e-9)
	assert.Equal(t, []string{"Quarantine/purge emails", "Isolate endpoints"}, resp.RecommendedActions)
	assert.Equal(t, []string{"phishing", "malware"}, resp.MatchedRules)
	assert.Equal(t, 2, sess.retrieveK)
}

func TestRetrieve_EncoderUnavailable(t *testing.T) {
	sess := &fakeSession{err: &domain.CapabilityError{
		Action:  "similarity retrieval",
		Missing: []domain.Capability{domain.CapRetrievalEncoder},
	}}

	rr := do(t, newTestRouter(sess), http.MethodPost, "/api/v1/retrieve", RetrieveRequest{Query: "x"})
	require.Equal(t, http.StatusOK, rr.Code)

	var raw map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	assert.Equal(t, false, raw["available"])
	assert.Equal(t, []any{}, raw["hits"])
	assert.Equal(t, "Similarity retrieval unavailable: missing retrieval_encoder", raw["warning"])
}

func TestRetrieve_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  ErrorCode
	}{
		{"invalid top k", fmt.Errorf("%w: top_k must be between 1 and 20, got 50", domain.ErrInvalidRequest),
			http.StatusBadRequest, CodeValidationFailed},
		{"corpus unavailable", domain.ErrCorpusUnavailable, http.StatusServiceUnavailable, CodeCorpusUnavailable},
		{"embedding provider", fmt.Errorf("encode query: %w", domain.ErrEmbeddingProviderError),
			http.StatusBadGateway, CodeEmbeddingProviderError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, newTestRouter(&fakeSession{err: tt.err}), http.MethodPost, "/api/v1/retrieve",
				RetrieveRequest{Query: "x", TopK: 50})
			require.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantErr, decode[ErrorResponse](t, rr).Code)
		})
	}
}

func TestRouter_PanicRecoveredAsJSON(t *testing.T) {
	rr := do(t, newTestRouter(&fakeSession{panicOn: "predict"}), http.MethodPost, "/api/v1/predict", validPredictBody())
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, CodeInternalError, decode[ErrorResponse](t, rr).Code)
}

func TestRouter_AuthAndRequestID(t *testing.T) {
	h := newTestRouter(&fakeSession{}, "secret")

	rr := do(t, h, http.MethodGet, "/api/v1/capabilities", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/capabilities", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_NotFound(t *testing.T) {
	rr := do(t, newTestRouter(&fakeSession{}), http.MethodGet, "/api/v1/collections", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

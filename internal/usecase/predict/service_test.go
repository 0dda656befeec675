package predict

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/soclens/internal/domain"
	"github.com/kailas-cloud/soclens/internal/domain/feature"
)

// --- Mocks ---

// mockText maps "phish" to column 0 and everything else to column 1.
type mockText struct{}

func (mockText) Identity() string { return "mock" }
func (mockText) Width() int       { return 2 }
func (mockText) Encode(_ context.Context, text string) (domain.SparseVector, error) {
	if text == "" {
		return domain.SparseVector{}, nil
	}
	if text == "phish" {
		return domain.NewSparseVector(map[int]float64{0: 1}), nil
	}
	return domain.NewSparseVector(map[int]float64{1: 1}), nil
}

// mockCat has a single field with two buckets: "Phishing" and unknown.
type mockCat struct{}

func (mockCat) Fields() []string     { return []string{"threat_type"} }
func (mockCat) Cardinalities() []int { return []int{2} }
func (mockCat) Width() int           { return 2 }
func (mockCat) Indicators(values []string) ([]float64, error) {
	if values[0] == "Phishing" {
		return []float64{1, 0}, nil
	}
	return []float64{0, 1}, nil
}

type mockNum struct{}

func (mockNum) Fields() []string { return []string{"hour", "month"} }
func (mockNum) Scale(values []float64) ([]float64, error) {
	return append([]float64(nil), values...), nil
}

// mockClassifier picks classes[1] when column 0 is set, classes[0] otherwise.
type mockClassifier struct {
	width    int
	classes  []string
	declared *feature.Layout
	calls    int
}

func (m *mockClassifier) Width() int        { return m.width }
func (m *mockClassifier) Classes() []string { return m.classes }
func (m *mockClassifier) Predict(features []float64) (string, error) {
	m.calls++
	if len(features) != m.width {
		return "", &domain.MismatchError{Component: "classifier", Want: m.width, Got: len(features)}
	}
	if features[0] > 0 {
		return m.classes[1], nil
	}
	return m.classes[0], nil
}
func (m *mockClassifier) DeclaredLayout() (feature.Layout, bool) {
	if m.declared == nil {
		return feature.Layout{}, false
	}
	return *m.declared, true
}

// fused width: text 2 + categorical 2 + numeric 2
const testWidth = 6

func fullCaps() Capabilities {
	return Capabilities{
		Text:         mockText{},
		Categorical:  mockCat{},
		Numeric:      mockNum{},
		Severity:     &mockClassifier{width: testWidth, classes: []string{"Low", "High"}},
		HighCritical: &mockClassifier{width: testWidth, classes: []string{"0", "1"}},
	}
}

func validRequest() Request {
	return Request{
		Description: "phish",
		ThreatType:  "Phishing",
		DayOfWeek:   "Monday",
		Hour:        12,
		Month:       6,
	}
}

// --- Tests ---

func TestPredict_FullCapabilities(t *testing.T) {
	svc, err := New(fullCaps(), zap.NewNop())
	require.NoError(t, err)

	p, err := svc.Predict(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, p.Available())
	assert.Equal(t, "High", p.Severity())

	flag, ok := p.HighCritical()
	assert.True(t, ok)
	assert.True(t, flag)
}

func TestPredict_Deterministic(t *testing.T) {
	svc, err := New(fullCaps(), zap.NewNop())
	require.NoError(t, err)

	req := validRequest()
	req.Description = "port scan"
	first, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)
	for range 5 {
		again, err := svc.Predict(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "Low", first.Severity())
}

func TestPredict_HighCriticalOmittedWhenAbsent(t *testing.T) {
	caps := fullCaps()
	caps.HighCritical = domain.Absent{Capability: domain.CapHighCriticalClassifier}

	svc, err := New(caps, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, svc.HasHighCritical())

	p, err := svc.Predict(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, p.Available())
	_, ok := p.HighCritical()
	assert.False(t, ok, "flag must be omitted, not false")
}

func TestPredict_UnavailableListsMissing(t *testing.T) {
	caps := fullCaps()
	caps.Text = domain.Absent{Capability: domain.CapTextEncoder}
	caps.Severity = nil

	svc, err := New(caps, zap.NewNop())
	require.NoError(t, err)

	p, err := svc.Predict(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, p.Available())
	assert.Empty(t, p.Severity())
	assert.Equal(t,
		[]domain.Capability{domain.CapTextEncoder, domain.CapSeverityClassifier},
		p.Missing())
}

func TestNew_WidthMismatchIsConfigurationError(t *testing.T) {
	caps := fullCaps()
	caps.Severity = &mockClassifier{width: testWidth + 1, classes: []string{"Low", "High"}}

	_, err := New(caps, zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFeatureMismatch))
}

func TestNew_DeclaredOrderMismatch(t *testing.T) {
	caps := fullCaps()
	caps.HighCritical = &mockClassifier{
		width:    testWidth,
		classes:  []string{"0", "1"},
		declared: &feature.Layout{NumericFields: []string{"month", "hour"}},
	}

	_, err := New(caps, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFeatureMismatch)
}

func TestPredict_InvalidRequest(t *testing.T) {
	svc, err := New(fullCaps(), zap.NewNop())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"hour too high", func(r *Request) { r.Hour = 24 }},
		{"negative hour", func(r *Request) { r.Hour = -1 }},
		{"month zero", func(r *Request) { r.Month = 0 }},
		{"month 13", func(r *Request) { r.Month = 13 }},
		{"bad weekday", func(r *Request) { r.DayOfWeek = "Funday" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.Predict(context.Background(), req)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}

func TestPredict_BlankDescriptionStillClassifies(t *testing.T) {
	svc, err := New(fullCaps(), zap.NewNop())
	require.NoError(t, err)

	req := validRequest()
	req.Description = ""
	p, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, p.Available())
	assert.Equal(t, "Low", p.Severity())
}

func TestRequest_InputNumericFields(t *testing.T) {
	in := validRequest().Input()
	assert.InDelta(t, 12.0, in.Numeric["hour"], 0)
	assert.InDelta(t, 6.0, in.Numeric["month"], 0)
	assert.Equal(t, "Phishing", in.Categorical["threat_type"])
	assert.Equal(t, "Monday", in.Categorical["day_of_week"])
}

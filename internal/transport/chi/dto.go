package chi

import (
	"strings"
	"time"

	"github.com/kailas-cloud/soclens/internal/artifact"
	"github.com/kailas-cloud/soclens/internal/domain"
	"github.com/kailas-cloud/soclens/internal/domain/incident"
	"github.com/kailas-cloud/soclens/internal/domain/prediction"
	"github.com/kailas-cloud/soclens/internal/domain/similarity"
	"github.com/kailas-cloud/soclens/internal/session"
	"github.com/kailas-cloud/soclens/internal/usecase/dashboard"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeCorpusUnavailable      ErrorCode = "corpus_unavailable"
	CodeConfigurationError     ErrorCode = "configuration_error"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// CapabilityResponse reports one pre-trained capability.
type CapabilityResponse struct {
	Capability string `json:"capability"`
	Available  bool   `json:"available"`
	Artifact   string `json:"artifact,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// CapabilitiesResponse is the body of GET /api/v1/capabilities.
type CapabilitiesResponse struct {
	Capabilities []CapabilityResponse `json:"capabilities"`
	DefaultTopK  int                  `json:"default_top_k"`
	MaxTopK      int                  `json:"max_top_k"`
}

// IncidentResponse is one corpus record.
type IncidentResponse struct {
	ID                 string             `json:"id"`
	Position           int                `json:"position"`
	Timestamp          *time.Time         `json:"timestamp,omitempty"`
	Description        string             `json:"description"`
	ThreatType         string             `json:"threat_type"`
	Severity           string             `json:"severity,omitempty"`
	Status             string             `json:"status"`
	AssetType          string             `json:"asset_type"`
	Department         string             `json:"asset_owner_department"`
	DayOfWeek          string             `json:"day_of_week,omitempty"`
	AssetName          string             `json:"asset_name,omitempty"`
	EmployeeName       string             `json:"emp_name,omitempty"`
	TimeToResolveHours *float64           `json:"time_to_resolve_hours,omitempty"`
	Numerics           map[string]float64 `json:"numerics,omitempty"`
}

// IncidentListResponse is the body of GET /api/v1/incidents.
type IncidentListResponse struct {
	Items []IncidentResponse `json:"items"`
	Total int                `json:"total"`
}

// KPIsResponse holds the headline counters.
type KPIsResponse struct {
	Incidents         int `json:"incidents"`
	UniqueAssets      int `json:"unique_assets"`
	HighCritical      int `json:"high_critical"`
	OpenInvestigating int `json:"open_investigating"`
}

// CountResponse is one distribution bar.
type CountResponse struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DailyResponse is one day of incident volume.
type DailyResponse struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	KPIs          KPIsResponse               `json:"kpis"`
	Distributions map[string][]CountResponse `json:"distributions"`
	Daily         []DailyResponse            `json:"daily,omitempty"`
}

// FilterOptionsResponse lists incident filter values.
type FilterOptionsResponse struct {
	Severity   []string `json:"severity"`
	ThreatType []string `json:"threat_type"`
	Department []string `json:"department"`
}

// PredictorOptionsResponse lists predictor form values.
type PredictorOptionsResponse struct {
	ThreatType []string `json:"threat_type"`
	Status     []string `json:"status"`
	AssetType  []string `json:"asset_type"`
	Department []string `json:"department"`
	DayOfWeek  []string `json:"day_of_week"`
	HourMin    int      `json:"hour_min"`
	HourMax    int      `json:"hour_max"`
	MonthMin   int      `json:"month_min"`
	MonthMax   int      `json:"month_max"`
}

// OptionsResponse is the body of GET /api/v1/options.
type OptionsResponse struct {
	Filters   FilterOptionsResponse    `json:"filters"`
	Predictor PredictorOptionsResponse `json:"predictor"`
}

// PredictRequest is the body of POST /api/v1/predict.
type PredictRequest struct {
	Description string `json:"description"`
	ThreatType  string `json:"threat_type"`
	Status      string `json:"status"`
	AssetType   string `json:"asset_type"`
	Department  string `json:"department"`
	DayOfWeek   string `json:"day_of_week"`
	Hour        int    `json:"hour"`
	Month       int    `json:"month"`
}

// PredictResponse is the body of a prediction. HighCritical is omitted, not
// false, when the binary classifier is absent.
type PredictResponse struct {
	Available    bool     `json:"available"`
	Severity     string   `json:"severity,omitempty"`
	HighCritical *bool    `json:"high_critical,omitempty"`
	Missing      []string `json:"missing,omitempty"`
	Warning      string   `json:"warning,omitempty"`
}

// RetrieveRequest is the body of POST /api/v1/retrieve. A zero top_k uses the default.
type RetrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// HitResponse is one ranked incident.
type HitResponse struct {
	Incident IncidentResponse `json:"incident"`
	Score    float64          `json:"score"`
}

// RetrieveResponse is the body of a retrieval.
type RetrieveResponse struct {
	Available          bool          `json:"available"`
	Hits               []HitResponse `json:"hits"`
	RecommendedActions []string      `json:"recommended_actions"`
	MatchedRules       []string      `json:"matched_rules,omitempty"`
	Warning            string        `json:"warning,omitempty"`
}

// NewCapabilitiesResponse renders the capability report.
func NewCapabilitiesResponse(statuses []artifact.Status, defaultTopK, maxTopK int) CapabilitiesResponse {
	items := make([]CapabilityResponse, len(statuses))
	for i, st := range statuses {
		items[i] = capabilityToResponse(st)
	}
	return CapabilitiesResponse{Capabilities: items, DefaultTopK: defaultTopK, MaxTopK: maxTopK}
}

// NewPredictResponse renders a prediction, with a warning when it is unavailable.
func NewPredictResponse(p prediction.Prediction) PredictResponse {
	if !p.Available() {
		missing := capabilityNames(p.Missing())
		return PredictResponse{
			Missing: missing,
			Warning: "Severity prediction unavailable: missing " + strings.Join(missing, ", "),
		}
	}

	resp := PredictResponse{Available: true, Severity: p.Severity()}
	if flag, ok := p.HighCritical(); ok {
		resp.HighCritical = &flag
	}
	return resp
}

// NewRetrieveResponse renders ranked hits and their recommended actions.
func NewRetrieveResponse(r session.Retrieval) RetrieveResponse {
	hits := r.Result.Hits()
	items := make([]HitResponse, len(hits))
	for i := range hits {
		items[i] = hitToResponse(&hits[i])
	}
	return RetrieveResponse{
		Available:          true,
		Hits:               items,
		RecommendedActions: r.Recommendation.Actions(),
		MatchedRules:       r.Recommendation.MatchedRules(),
	}
}

// NewRetrieveUnavailable renders a retrieval that could not run.
func NewRetrieveUnavailable(missing []domain.Capability) RetrieveResponse {
	return RetrieveResponse{
		Hits:               []HitResponse{},
		RecommendedActions: []string{},
		Warning:            "Similarity retrieval unavailable: missing " + strings.Join(capabilityNames(missing), ", "),
	}
}

func capabilityNames(caps []domain.Capability) []string {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	return names
}

func capabilityToResponse(st artifact.Status) CapabilityResponse {
	return CapabilityResponse{
		Capability: string(st.Capability),
		Available:  st.Available,
		Artifact:   st.Artifact,
		Reason:     st.Reason,
	}
}

func incidentToResponse(r *incident.Record) IncidentResponse {
	return IncidentResponse{
		ID:                 r.ID(),
		Position:           r.Position(),
		Timestamp:          r.Timestamp(),
		Description:        r.Description(),
		ThreatType:         r.ThreatType(),
		Severity:           r.Severity(),
		Status:             r.Status(),
		AssetType:          r.AssetType(),
		Department:         r.Department(),
		DayOfWeek:          r.DayOfWeek(),
		AssetName:          r.AssetName(),
		EmployeeName:       r.EmployeeName(),
		TimeToResolveHours: r.TimeToResolveHours(),
		Numerics:           r.Numerics(),
	}
}

func hitToResponse(h *similarity.Hit) HitResponse {
	rec := h.Record()
	return HitResponse{Incident: incidentToResponse(&rec), Score: h.Score()}
}

func statsToResponse(st dashboard.Stats) StatsResponse {
	resp := StatsResponse{
		KPIs: KPIsResponse{
			Incidents:         st.KPIs.Incidents,
			UniqueAssets:      st.KPIs.UniqueAssets,
			HighCritical:      st.KPIs.HighCritical,
			OpenInvestigating: st.KPIs.OpenInvestigating,
		},
		Distributions: make(map[string][]CountResponse, len(st.Distributions)),
	}
	for col, counts := range st.Distributions {
		bars := make([]CountResponse, len(counts))
		for i, c := range counts {
			bars[i] = CountResponse{Label: c.Label, Count: c.Count}
		}
		resp.Distributions[col] = bars
	}
	for _, d := range st.Daily {
		resp.Daily = append(resp.Daily, DailyResponse{Day: d.Day.Format(time.DateOnly), Count: d.Count})
	}
	return resp
}

func optionsToResponse(f dashboard.FilterOptions, p dashboard.PredictorOptions) OptionsResponse {
	return OptionsResponse{
		Filters: FilterOptionsResponse{
			Severity:   f.Severity,
			ThreatType: f.ThreatType,
			Department: f.Department,
		},
		Predictor: PredictorOptionsResponse{
			ThreatType: p.ThreatType,
			Status:     p.Status,
			AssetType:  p.AssetType,
			Department: p.Department,
			DayOfWeek:  p.DayOfWeek,
			HourMin:    p.HourMin,
			HourMax:    p.HourMax,
			MonthMin:   p.MonthMin,
			MonthMax:   p.MonthMax,
		},
	}
}

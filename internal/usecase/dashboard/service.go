package dashboard

import (
	"cmp"
	"slices"
	"time"

	"github.com/kailas-cloud/soclens/internal/domain/incident"
	"github.com/kailas-cloud/soclens/internal/usecase/predict"
)

// DefaultPreviewRows is the preview size when none is configured.
const DefaultPreviewRows = 30

// DefaultMaxDailyDays bounds the daily volume series when none is configured.
const DefaultMaxDailyDays = 730

var (
	highCriticalSeverities = []string{"high", "critical"}
	activeStatuses         = []string{"open", "investigating"}
)

// Service computes read-only views over a corpus snapshot.
type Service struct {
	previewRows  int
	maxDailyDays int
}

// New creates a dashboard service. previewRows <= 0 uses DefaultPreviewRows.
func New(previewRows int) *Service {
	if previewRows <= 0 {
		previewRows = DefaultPreviewRows
	}
	return &Service{previewRows: previewRows, maxDailyDays: DefaultMaxDailyDays}
}

// WithMaxDailyDays bounds the daily series to the n days ending at the latest
// observation. n <= 0 keeps the current bound.
func (s *Service) WithMaxDailyDays(n int) *Service {
	if n > 0 {
		s.maxDailyDays = n
	}
	return s
}

// Preview returns the first rows of the view. limit <= 0 uses the configured size.
func (s *Service) Preview(view incident.Corpus, limit int) []incident.Record {
	if limit <= 0 {
		limit = s.previewRows
	}
	n := min(limit, view.Len())
	out := make([]incident.Record, n)
	for i := range n {
		out[i] = view.At(i)
	}
	return out
}

// Stats computes KPIs, distributions and daily volume for the view.
func (s *Service) Stats(view incident.Corpus) Stats {
	schema := view.Schema()
	records := view.Records()

	st := Stats{
		KPIs:          kpis(schema, records),
		Distributions: make(map[string][]Count, 3),
	}

	for _, col := range []incident.Column{incident.ColThreatType, incident.ColSeverity, incident.ColStatus} {
		if schema.Has(col) {
			st.Distributions[string(col)] = distribution(records, column(col))
		}
	}
	if schema.Has(incident.ColTimestamp) {
		st.Daily = daily(records, s.maxDailyDays)
	}
	return st
}

// FilterOptions lists distinct filter values of the full corpus.
func (s *Service) FilterOptions(corpus incident.Corpus) FilterOptions {
	schema := corpus.Schema()
	records := corpus.Records()
	opts := func(col incident.Column) []string {
		out := []string{incident.All}
		if schema.Has(col) {
			out = append(out, distinct(records, column(col))...)
		}
		return out
	}
	return FilterOptions{
		Severity:   opts(incident.ColSeverity),
		ThreatType: opts(incident.ColThreatType),
		Department: opts(incident.ColDepartment),
	}
}

// PredictorOptions lists the form choices derived from the filtered view.
// Each categorical list starts with "unknown".
func (s *Service) PredictorOptions(view incident.Corpus) PredictorOptions {
	schema := view.Schema()
	records := view.Records()
	opts := func(col incident.Column) []string {
		out := []string{unknown}
		if !schema.Has(col) {
			return out
		}
		for _, v := range distinct(records, column(col)) {
			if v != unknown {
				out = append(out, v)
			}
		}
		return out
	}
	return PredictorOptions{
		ThreatType: opts(incident.ColThreatType),
		Status:     opts(incident.ColStatus),
		AssetType:  opts(incident.ColAssetType),
		Department: opts(incident.ColDepartment),
		DayOfWeek:  slices.Clone(predict.DaysOfWeek),
		HourMin:    0,
		HourMax:    23,
		MonthMin:   1,
		MonthMax:   12,
	}
}

const unknown = "unknown"

func kpis(schema incident.Schema, records []incident.Record) KPIs {
	k := KPIs{Incidents: len(records)}

	assets := make(map[string]struct{})
	for i := range records {
		r := &records[i]
		if id := r.AssetID(); id != "" {
			assets[id] = struct{}{}
		}
		if schema.Has(incident.ColSeverity) && slices.Contains(highCriticalSeverities, r.Severity()) {
			k.HighCritical++
		}
		if schema.Has(incident.ColStatus) && slices.Contains(activeStatuses, r.Status()) {
			k.OpenInvestigating++
		}
	}
	if schema.Has(incident.ColAssetID) {
		k.UniqueAssets = len(assets)
	}
	return k
}

func column(col incident.Column) func(*incident.Record) string {
	switch col {
	case incident.ColSeverity:
		return (*incident.Record).Severity
	case incident.ColThreatType:
		return (*incident.Record).ThreatType
	case incident.ColStatus:
		return (*incident.Record).Status
	case incident.ColAssetType:
		return (*incident.Record).AssetType
	case incident.ColDepartment:
		return (*incident.Record).Department
	case incident.ColDayOfWeek:
		return (*incident.Record).DayOfWeek
	default:
		return func(*incident.Record) string { return "" }
	}
}

// distinct returns the sorted non-empty values of a column.
func distinct(records []incident.Record, get func(*incident.Record) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range records {
		v := get(&records[i])
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// distribution counts non-empty values, most frequent first, ties by label.
func distribution(records []incident.Record, get func(*incident.Record) string) []Count {
	counts := make(map[string]int)
	for i := range records {
		if v := get(&records[i]); v != "" {
			counts[v]++
		}
	}
	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, Count: n})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

// daily buckets timestamps by UTC day, filling empty days with zero. The
// series covers at most maxDays days ending at the latest observation; older
// records and records without a timestamp are skipped.
func daily(records []incident.Record, maxDays int) []DailyCount {
	counts := make(map[time.Time]int)
	var last time.Time
	for i := range records {
		ts := records[i].Timestamp()
		if ts == nil {
			continue
		}
		day := truncateDay(*ts)
		if len(counts) == 0 || day.After(last) {
			last = day
		}
		counts[day]++
	}
	if len(counts) == 0 {
		return []DailyCount{}
	}

	start := last.AddDate(0, 0, -(maxDays - 1))
	first := last
	for day := range counts {
		if !day.Before(start) && day.Before(first) {
			first = day
		}
	}

	out := make([]DailyCount, 0, int(last.Sub(first).Hours()/24)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, DailyCount{Day: d, Count: counts[d]})
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

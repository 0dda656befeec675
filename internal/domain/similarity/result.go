package similarity

import "github.com/kailas-cloud/soclens/internal/domain/incident"

// Hit pairs a corpus record with its similarity to the query.
type Hit struct {
	record incident.Record
	score  float64
}

// NewHit creates a Hit.
func NewHit(record incident.Record, score float64) Hit {
	return Hit{record: record, score: score}
}

// Record returns the matched incident.
func (h *Hit) Record() incident.Record { return h.record }

// Score returns the similarity score.
func (h *Hit) Score() float64 { return h.score }

// Result is an ordered hit list, non-increasing by score.
type Result struct {
	hits []Hit
}

// NewResult wraps hits that are already ranked.
func NewResult(hits []Hit) Result {
	return Result{hits: append([]Hit(nil), hits...)}
}

// Hits returns a copy of the ranked hits.
func (r Result) Hits() []Hit { return append([]Hit(nil), r.hits...) }

// Len returns the number of hits.
func (r Result) Len() int { return len(r.hits) }

// ThreatTypes returns the distinct non-empty threat types in rank order.
func (r Result) ThreatTypes() []string {
	seen := make(map[string]bool, len(r.hits))
	out := make([]string, 0, len(r.hits))
	for i := range r.hits {
		rec := r.hits[i].Record()
		tt := rec.ThreatType()
		if tt == "" || seen[tt] {
			continue
		}
		seen[tt] = true
		out = append(out, tt)
	}
	return out
}

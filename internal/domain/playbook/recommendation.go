package playbook

// Recommendation is the deduplicated action list derived from a retrieval.
type Recommendation struct {
	actions  []string
	matched  []string
	fallback bool
}

// NewRecommendation creates a Recommendation.
func NewRecommendation(actions, matched []string, fallback bool) Recommendation {
	return Recommendation{
		actions:  append([]string(nil), actions...),
		matched:  append([]string(nil), matched...),
		fallback: fallback,
	}
}

// Actions returns the recommended actions in first-seen order.
func (r Recommendation) Actions() []string { return append([]string(nil), r.actions...) }

// MatchedRules returns the names of rules that fired.
func (r Recommendation) MatchedRules() []string { return append([]string(nil), r.matched...) }

// IsFallback reports whether only the default action was produced.
func (r Recommendation) IsFallback() bool { return r.fallback }

package playbook

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/soclens/internal/domain"
	domplaybook "github.com/kailas-cloud/soclens/internal/domain/playbook"
	"github.com/kailas-cloud/soclens/internal/domain/similarity"
)

// RuleSet is the on-disk form of a playbook.
type RuleSet struct {
	Fallback string             `yaml:"fallback"`
	Rules    []domplaybook.Rule `yaml:"rules"`
}

// Engine maps the threat types of a retrieval to remediation actions.
// Rules are evaluated independently in order; it holds no mutable state.
type Engine struct {
	rules    []domplaybook.Rule
	fallback string
}

// Default returns an engine with the built-in rule set.
func Default() *Engine {
	return &Engine{rules: domplaybook.DefaultRules(), fallback: domplaybook.DefaultAction}
}

// New creates an engine from a rule set. An empty fallback uses the built-in default action.
func New(set RuleSet) (*Engine, error) {
	for i, r := range set.Rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%w: rule %d: %w", domain.ErrInvalidRequest, i, err)
		}
	}
	fallback := set.Fallback
	if fallback == "" {
		fallback = domplaybook.DefaultAction
	}
	return &Engine{rules: append([]domplaybook.Rule(nil), set.Rules...), fallback: fallback}, nil
}

// Decode parses a YAML rule set.
func Decode(r io.Reader) (RuleSet, error) {
	var set RuleSet
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		return RuleSet{}, fmt.Errorf("decode playbook rules: %w", err)
	}
	return set, nil
}

// LoadFile builds an engine from a YAML rules file.
func LoadFile(path string) (*Engine, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("open playbook rules: %w", err)
	}
	defer func() { _ = f.Close() }()

	set, err := Decode(f)
	if err != nil {
		return nil, err
	}
	return New(set)
}

// Rules returns the rules in evaluation order.
func (e *Engine) Rules() []domplaybook.Rule {
	return append([]domplaybook.Rule(nil), e.rules...)
}

// Recommend evaluates every rule against the threat-type set and returns the
// union of actions with duplicates removed in first-seen order. When no rule
// matches, the single fallback action is returned.
func (e *Engine) Recommend(threatTypes []string) domplaybook.Recommendation {
	var (
		actions []string
		matched []string
		seen    = make(map[string]bool)
	)
	for _, r := range e.rules {
		if !r.Matches(threatTypes) {
			continue
		}
		matched = append(matched, r.Name)
		for _, a := range r.Actions {
			if seen[a] {
				continue
			}
			seen[a] = true
			actions = append(actions, a)
		}
	}

	if len(actions) == 0 {
		return domplaybook.NewRecommendation([]string{e.fallback}, nil, true)
	}
	return domplaybook.NewRecommendation(actions, matched, false)
}

// RecommendFor recommends actions for the distinct threat types of a retrieval result.
func (e *Engine) RecommendFor(res similarity.Result) domplaybook.Recommendation {
	return e.Recommend(res.ThreatTypes())
}

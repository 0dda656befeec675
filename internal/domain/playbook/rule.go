package playbook

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// MatchKind selects how a rule compares threat types against its terms.
type MatchKind string

const (
	// Contains matches free-form categories by case-insensitive substring.
	Contains MatchKind = "contains"
	// Equals matches closed categories by case-insensitive exact membership.
	Equals MatchKind = "equals"
)

// DefaultAction is recommended when no rule matches.
const DefaultAction = "Open incident, triage logs, escalate with SLA"

// Rule pairs a predicate over the retrieved threat-type set with actions.
type Rule struct {
	Name    string    `yaml:"name"`
	Match   MatchKind `yaml:"match"`
	Terms   []string  `yaml:"terms"`
	Actions []string  `yaml:"actions"`
}

// Validate checks that the rule can be evaluated.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Match != Contains && r.Match != Equals {
		return fmt.Errorf("rule %q: match must be %q or %q, got %q", r.Name, Contains, Equals, r.Match)
	}
	if len(r.Terms) == 0 {
		return fmt.Errorf("rule %q: at least one term is required", r.Name)
	}
	if len(r.Actions) == 0 {
		return fmt.Errorf("rule %q: at least one action is required", r.Name)
	}
	return nil
}

// Matches reports whether any threat type satisfies the rule.
func (r Rule) Matches(threatTypes []string) bool {
	// Casers are stateful; one per evaluation.
	folder := cases.Fold()
	for _, tt := range threatTypes {
		ft := folder.String(tt)
		for _, term := range r.Terms {
			fterm := folder.String(term)
			switch r.Match {
			case Contains:
				if fterm != "" && strings.Contains(ft, fterm) {
					return true
				}
			case Equals:
				if ft == fterm {
					return true
				}
			}
		}
	}
	return false
}

// DefaultRules returns the built-in rule set in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:  "phishing",
			Match: Contains,
			Terms: []string{"phish"},
			Actions: []string{
				"Quarantine/purge emails",
				"Reset creds + enforce MFA",
				"Block sender/domain; IOC hunt",
			},
		},
		{
			Name:  "malware",
			Match: Equals,
			Terms: []string{"malware", "ransomware"},
			Actions: []string{
				"Isolate endpoints",
				"Block hashes/domains; IOC sweep",
				"Restore from backups; check persistence",
			},
		},
		{
			Name:  "ddos",
			Match: Contains,
			Terms: []string{"ddos"},
			Actions: []string{
				"Rate-limit/geo-filter; WAF rules",
				"Engage ISP; scale services",
			},
		},
	}
}

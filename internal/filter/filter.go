// Package filter evaluates declarative filter specifications against
// scored user records. Specs double as live table filters and as the
// saved predicate of a cohort, so evaluation is pure and side-effect
// free: membership is always recomputed, never stored.
package filter

import (
	"strings"

	"userinsight/internal/scoring"
)

// Range is one numeric clause: either bound may be absent. A record's
// missing metric value compares as 0.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Spec is a flat filter specification. Every present clause must pass
// for a record to be included; absent clauses impose no constraint.
//
// Boolean clauses are tri-state: true requires the flag set, false
// requires it explicitly unset (a user with no feature data fails
// both), nil imposes nothing.
type Spec struct {
	// Search matches case-insensitively as a substring of the identity
	// key, first name, or last name.
	Search string `json:"search,omitempty"`

	MCP            *bool `json:"mcp,omitempty"`
	RuleCreator    *bool `json:"rule_creator,omitempty"`
	RuleUser       *bool `json:"rule_user,omitempty"`
	CommandCreator *bool `json:"command_creator,omitempty"`
	CommandUser    *bool `json:"command_user,omitempty"`

	Sessions     Range `json:"sessions,omitempty"`
	Requests     Range `json:"requests,omitempty"`
	AILines      Range `json:"ai_lines,omitempty"`
	TotalLines   Range `json:"total_lines,omitempty"`
	Commits      Range `json:"commits,omitempty"`
	AIPercent    Range `json:"ai_percent,omitempty"`
	FeatureCount Range `json:"feature_count,omitempty"`
	MemberDays   Range `json:"member_days,omitempty"`
	Score        Range `json:"score,omitempty"`

	// Classifications is an inclusion set over the manual-classification
	// labels "true", "false", "unmarked". Empty means no constraint.
	Classifications []string `json:"classifications,omitempty"`
}

// Apply returns the order-preserving subsequence of pop matching spec.
func Apply(pop []scoring.ScoredUser, spec Spec) []scoring.ScoredUser {
	out := make([]scoring.ScoredUser, 0, len(pop))
	for _, u := range pop {
		if Matches(u, spec) {
			out = append(out, u)
		}
	}
	return out
}

// Matches reports whether a single record passes every present clause.
func Matches(u scoring.ScoredUser, spec Spec) bool {
	if !matchSearch(u, spec.Search) {
		return false
	}

	if u.Features != nil {
		f := u.Features
		if !matchFlag(f.MCP, spec.MCP) ||
			!matchFlag(f.RuleCreator, spec.RuleCreator) ||
			!matchFlag(f.RuleUser, spec.RuleUser) ||
			!matchFlag(f.CommandCreator, spec.CommandCreator) ||
			!matchFlag(f.CommandUser, spec.CommandUser) {
			return false
		}
	} else if spec.MCP != nil || spec.RuleCreator != nil || spec.RuleUser != nil ||
		spec.CommandCreator != nil || spec.CommandUser != nil {
		// A flag constraint of either polarity needs flag data to pass.
		return false
	}

	if !matchRange(asFloat(u.Sessions), spec.Sessions) ||
		!matchRange(asFloat(u.Requests), spec.Requests) ||
		!matchRange(asFloat(u.AILines), spec.AILines) ||
		!matchRange(asFloat(u.TotalLines), spec.TotalLines) ||
		!matchRange(asFloat(u.Commits), spec.Commits) ||
		!matchRange(floatOrZero(u.AIPercent), spec.AIPercent) ||
		!matchRange(asFloat(u.FeatureCount), spec.FeatureCount) ||
		!matchRange(asFloat(u.MemberDays), spec.MemberDays) ||
		!matchRange(float64(u.Score), spec.Score) {
		return false
	}

	return matchClassification(u, spec.Classifications)
}

func matchSearch(u scoring.ScoredUser, search string) bool {
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u.ID), q) ||
		strings.Contains(strings.ToLower(u.FirstName), q) ||
		strings.Contains(strings.ToLower(u.LastName), q)
}

func matchFlag(value bool, want *bool) bool {
	return want == nil || value == *want
}

func matchRange(v float64, r Range) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func matchClassification(u scoring.ScoredUser, include []string) bool {
	if len(include) == 0 {
		return true
	}
	label := u.Classification.String()
	for _, want := range include {
		if want == label {
			return true
		}
	}
	return false
}

func asFloat(v *int64) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

package cohort

import (
	"userinsight/internal/filter"
	"userinsight/internal/scoring"
)

// MaxCohorts bounds how many cohorts one comparison considers; extra
// cohorts beyond the first six are ignored rather than rejected.
const MaxCohorts = 6

// Cohort is a named filter specification as the comparison engine sees
// it. Membership is never stored: it is re-evaluated against the
// current population on every comparison.
type Cohort struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Color  string      `json:"color,omitempty"`
	Filter filter.Spec `json:"filter"`
}

// CohortStats is one cohort's share of a multi-cohort comparison.
type CohortStats struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Count int    `json:"count"`

	Stats map[Metric]Stats `json:"stats"`

	// FeatureAdoption is the percentage of members with each feature
	// flag set, keyed mcp / rule_creator / rule_user / command_creator /
	// command_user.
	FeatureAdoption map[string]float64 `json:"feature_adoption"`
}

// MetricSpread summarizes how one metric's mean varies across cohorts.
// Best names the cohort with the maximum mean; Spread (max-min) ranks
// which metrics differentiate the cohorts most.
type MetricSpread struct {
	Metric Metric             `json:"metric"`
	Means  map[string]float64 `json:"means"` // cohort id -> mean
	Min    float64            `json:"min"`
	Max    float64            `json:"max"`
	Spread float64            `json:"spread"`
	Best   string             `json:"best"` // cohort id
}

// MultiResult is the full multi-cohort comparison.
type MultiResult struct {
	Cohorts []CohortStats  `json:"cohorts"`
	Spreads []MetricSpread `json:"spreads"`
}

// CompareMany re-evaluates each cohort's filter against the population
// and compares the resulting groups. Fewer than two cohorts is not an
// error: the comparison is undefined, so the result is nil.
func CompareMany(pop []scoring.ScoredUser, cohorts []Cohort) *MultiResult {
	if len(cohorts) < 2 {
		return nil
	}
	if len(cohorts) > MaxCohorts {
		cohorts = cohorts[:MaxCohorts]
	}

	members := make([][]scoring.ScoredUser, len(cohorts))
	out := &MultiResult{Cohorts: make([]CohortStats, 0, len(cohorts))}
	for i, c := range cohorts {
		members[i] = filter.Apply(pop, c.Filter)

		cs := CohortStats{
			ID:              c.ID,
			Name:            c.Name,
			Color:           c.Color,
			Count:           len(members[i]),
			Stats:           make(map[Metric]Stats, len(Metrics)),
			FeatureAdoption: featureAdoption(members[i]),
		}
		for _, m := range Metrics {
			cs.Stats[m] = Calculate(metricValues(members[i], m))
		}
		out.Cohorts = append(out.Cohorts, cs)
	}

	out.Spreads = make([]MetricSpread, 0, len(Metrics))
	for _, m := range Metrics {
		sp := MetricSpread{Metric: m, Means: make(map[string]float64, len(cohorts))}
		for i, c := range cohorts {
			mean := out.Cohorts[i].Stats[m].Mean
			sp.Means[c.ID] = mean
			if i == 0 || mean < sp.Min {
				sp.Min = mean
			}
			if i == 0 || mean > sp.Max {
				sp.Max = mean
				sp.Best = c.ID
			}
		}
		sp.Spread = sp.Max - sp.Min
		out.Spreads = append(out.Spreads, sp)
	}
	return out
}

// featureAdoption computes the share of members with each flag set.
// Members without feature data count toward the denominator with no
// flags set; an empty cohort adopts nothing.
func featureAdoption(group []scoring.ScoredUser) map[string]float64 {
	counts := map[string]int{
		"mcp": 0, "rule_creator": 0, "rule_user": 0,
		"command_creator": 0, "command_user": 0,
	}
	for _, u := range group {
		if u.Features == nil {
			continue
		}
		if u.Features.MCP {
			counts["mcp"]++
		}
		if u.Features.RuleCreator {
			counts["rule_creator"]++
		}
		if u.Features.RuleUser {
			counts["rule_user"]++
		}
		if u.Features.CommandCreator {
			counts["command_creator"]++
		}
		if u.Features.CommandUser {
			counts["command_user"]++
		}
	}

	out := make(map[string]float64, len(counts))
	for k, c := range counts {
		if len(group) == 0 {
			out[k] = 0
			continue
		}
		out[k] = float64(c) / float64(len(group)) * 100
	}
	return out
}

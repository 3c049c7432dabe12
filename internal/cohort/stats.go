// Package cohort computes descriptive statistics for named subsets of
// the scored population and compares them against each other or against
// the analyst-labeled power/non-power split.
package cohort

import (
	"math"
	"sort"

	"userinsight/internal/scoring"
)

// Metric names one of the fixed per-user measures every comparison
// reports on.
type Metric string

const (
	MetricTotalLines   Metric = "total_lines"
	MetricAILines      Metric = "ai_lines"
	MetricCommits      Metric = "commits"
	MetricAIPercent    Metric = "ai_percent"
	MetricSessions     Metric = "sessions"
	MetricRequests     Metric = "requests"
	MetricFeatureCount Metric = "feature_count"
	MetricMemberDays   Metric = "member_days"
	MetricScore        Metric = "score"
)

// Metrics is the fixed, ordered metric list used by both comparison modes.
var Metrics = []Metric{
	MetricTotalLines,
	MetricAILines,
	MetricCommits,
	MetricAIPercent,
	MetricSessions,
	MetricRequests,
	MetricFeatureCount,
	MetricMemberDays,
	MetricScore,
}

// Stats holds the descriptive statistics for one metric within one group.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	P90    float64 `json:"p90"`
	Sum    float64 `json:"sum"`
}

// Calculate computes descriptive statistics over values. The empty
// input yields the zero Stats, never an error. Percentiles use the
// element at index ceil(n*q)-1 of the ascending sort, clamped to 0.
func Calculate(values []float64) Stats {
	n := len(values)
	if n == 0 {
		return Stats{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	var median float64
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return Stats{
		Count:  n,
		Mean:   sum / float64(n),
		Median: median,
		P75:    sorted[ceilIndex(n, 0.75)],
		P90:    sorted[ceilIndex(n, 0.90)],
		Sum:    sum,
	}
}

func ceilIndex(n int, q float64) int {
	i := int(math.Ceil(float64(n)*q)) - 1
	if i < 0 {
		return 0
	}
	return i
}

// metricValue extracts one metric from a scored record. Fields absent
// from the merged record compare as 0, matching the filter semantics.
func metricValue(u scoring.ScoredUser, m Metric) float64 {
	switch m {
	case MetricTotalLines:
		return intOrZero(u.TotalLines)
	case MetricAILines:
		return intOrZero(u.AILines)
	case MetricCommits:
		return intOrZero(u.Commits)
	case MetricAIPercent:
		if u.AIPercent == nil {
			return 0
		}
		return *u.AIPercent
	case MetricSessions:
		return intOrZero(u.Sessions)
	case MetricRequests:
		return intOrZero(u.Requests)
	case MetricFeatureCount:
		return intOrZero(u.FeatureCount)
	case MetricMemberDays:
		return intOrZero(u.MemberDays)
	case MetricScore:
		return float64(u.Score)
	}
	return 0
}

func metricValues(group []scoring.ScoredUser, m Metric) []float64 {
	out := make([]float64, len(group))
	for i, u := range group {
		out[i] = metricValue(u, m)
	}
	return out
}

func intOrZero(v *int64) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}

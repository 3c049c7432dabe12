package cohort

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userinsight/internal/dataset"
	"userinsight/internal/filter"
	"userinsight/internal/scoring"
)

func i64(v int64) *int64 { return &v }

func f64(v float64) *float64 { return &v }

func labeled(id string, c dataset.Classification, sessions int64, score int) scoring.ScoredUser {
	return scoring.ScoredUser{
		User:  dataset.User{ID: id, Classification: c, Sessions: i64(sessions)},
		Score: score,
	}
}

func metricByName(t *testing.T, r ComparisonResult, m Metric) MetricComparison {
	t.Helper()
	for _, mc := range r.Metrics {
		if mc.Metric == m {
			return mc
		}
	}
	t.Fatalf("metric %s missing from result", m)
	return MetricComparison{}
}

func TestCompareGroupCounts(t *testing.T) {
	pop := []scoring.ScoredUser{
		labeled("p1@x.com", dataset.MarkedPower, 100, 50),
		labeled("p2@x.com", dataset.MarkedPower, 200, 60),
		labeled("n1@x.com", dataset.MarkedNonPower, 10, 5),
		labeled("u1@x.com", dataset.Unmarked, 0, 0),
	}

	r := Compare(pop)
	assert.Equal(t, 2, r.PowerCount)
	assert.Equal(t, 1, r.NonPowerCount)
	assert.Equal(t, 1, r.UnmarkedCount)
	assert.Len(t, r.Metrics, len(Metrics))
}

func TestCompareRatioAndPercentDiff(t *testing.T) {
	pop := []scoring.ScoredUser{
		labeled("p@x.com", dataset.MarkedPower, 100, 0),
		labeled("n@x.com", dataset.MarkedNonPower, 50, 0),
	}

	r := Compare(pop)
	mc := metricByName(t, r, MetricSessions)
	assert.Equal(t, 100.0, mc.Power.Mean)
	assert.Equal(t, 50.0, mc.NonPower.Mean)
	assert.Equal(t, 2.0, mc.Ratio)
	assert.Equal(t, 100.0, mc.PercentDiff)
}

func TestCompareRatioSentinel(t *testing.T) {
	pop := []scoring.ScoredUser{
		{User: dataset.User{ID: "p@x.com", Classification: dataset.MarkedPower, Sessions: i64(5)}},
		{User: dataset.User{ID: "n@x.com", Classification: dataset.MarkedNonPower, Sessions: i64(0)}},
	}

	r := Compare(pop)
	mc := metricByName(t, r, MetricSessions)
	assert.Equal(t, RatioUndefined, mc.Ratio, "zero non-power mean against non-zero power mean")
	assert.Equal(t, RatioUndefined, mc.PercentDiff)

	// Both means zero: defined as 0, not the sentinel.
	mc = metricByName(t, r, MetricCommits)
	assert.Equal(t, 0.0, mc.Ratio)
	assert.Equal(t, 0.0, mc.PercentDiff)
}

func TestCompareEmptyPopulation(t *testing.T) {
	r := Compare(nil)
	assert.Equal(t, 0, r.PowerCount)
	assert.Equal(t, 0, r.NonPowerCount)
	require.Len(t, r.Metrics, len(Metrics))
	for _, mc := range r.Metrics {
		assert.Equal(t, Stats{}, mc.Power)
		assert.Equal(t, 0.0, mc.Ratio)
	}
}

func TestCompareManyMinimumCohorts(t *testing.T) {
	pop := []scoring.ScoredUser{labeled("a@x.com", dataset.Unmarked, 10, 10)}

	assert.Nil(t, CompareMany(pop, nil))
	assert.Nil(t, CompareMany(pop, []Cohort{{ID: "c1", Name: "One"}}),
		"comparison is undefined for fewer than two cohorts")
}

func TestCompareManyMembership(t *testing.T) {
	pop := []scoring.ScoredUser{
		labeled("a@x.com", dataset.Unmarked, 150, 0),
		labeled("b@x.com", dataset.Unmarked, 100, 0),
		labeled("c@x.com", dataset.Unmarked, 50, 0),
	}

	strict := Cohort{ID: "strict", Name: "Heavy", Filter: filter.Spec{Sessions: filter.Range{Min: f64(120)}}}
	loose := Cohort{ID: "loose", Name: "Any", Filter: filter.Spec{Sessions: filter.Range{Min: f64(10)}}}

	r := CompareMany(pop, []Cohort{strict, loose})
	require.NotNil(t, r)
	require.Len(t, r.Cohorts, 2)

	assert.Equal(t, 1, r.Cohorts[0].Count)
	assert.Equal(t, 3, r.Cohorts[1].Count)
	assert.LessOrEqual(t, r.Cohorts[0].Count, r.Cohorts[1].Count,
		"a stricter cohort can never out-count a looser one")
}

func TestCompareManySpreads(t *testing.T) {
	pop := []scoring.ScoredUser{
		labeled("a@x.com", dataset.Unmarked, 200, 0),
		labeled("b@x.com", dataset.Unmarked, 100, 0),
	}
	high := Cohort{ID: "high", Name: "High", Filter: filter.Spec{Sessions: filter.Range{Min: f64(150)}}}
	all := Cohort{ID: "all", Name: "All", Filter: filter.Spec{}}

	r := CompareMany(pop, []Cohort{high, all})
	require.NotNil(t, r)

	var sp MetricSpread
	for _, s := range r.Spreads {
		if s.Metric == MetricSessions {
			sp = s
		}
	}
	assert.Equal(t, 200.0, sp.Means["high"])
	assert.Equal(t, 150.0, sp.Means["all"])
	assert.Equal(t, 200.0, sp.Max)
	assert.Equal(t, 150.0, sp.Min)
	assert.Equal(t, 50.0, sp.Spread)
	assert.Equal(t, "high", sp.Best)
}

func TestCompareManyFeatureAdoption(t *testing.T) {
	withMCP := scoring.ScoredUser{User: dataset.User{
		ID: "m@x.com", Features: &dataset.FeatureUsage{MCP: true, RuleUser: true},
	}}
	plain := scoring.ScoredUser{User: dataset.User{ID: "p@x.com"}}
	pop := []scoring.ScoredUser{withMCP, plain}

	r := CompareMany(pop, []Cohort{
		{ID: "all", Name: "All"},
		{ID: "none", Name: "None", Filter: filter.Spec{Search: "no-such-user"}},
	})
	require.NotNil(t, r)

	adoption := r.Cohorts[0].FeatureAdoption
	assert.Equal(t, 50.0, adoption["mcp"])
	assert.Equal(t, 50.0, adoption["rule_user"])
	assert.Equal(t, 0.0, adoption["command_user"])

	empty := r.Cohorts[1]
	assert.Equal(t, 0, empty.Count)
	assert.Equal(t, 0.0, empty.FeatureAdoption["mcp"], "empty cohort adopts nothing")
	assert.Equal(t, Stats{}, empty.Stats[MetricSessions])
}

func TestCompareManyTruncatesToSix(t *testing.T) {
	pop := []scoring.ScoredUser{labeled("a@x.com", dataset.Unmarked, 1, 1)}
	cohorts := make([]Cohort, 8)
	for i := range cohorts {
		cohorts[i] = Cohort{ID: string(rune('a' + i)), Name: "c"}
	}
	r := CompareMany(pop, cohorts)
	require.NotNil(t, r)
	assert.Len(t, r.Cohorts, MaxCohorts)
}

package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userinsight/internal/dataset"
)

func i64(v int64) *int64 { return &v }

func TestScoreBounds(t *testing.T) {
	zero := dataset.User{ID: "z@x.com"}
	assert.Equal(t, 0, Score(zero), "all-missing user scores 0")

	capped := dataset.User{
		ID:       "cap@x.com",
		Sessions: i64(1000),
		Requests: i64(10000),
		Features: &dataset.FeatureUsage{
			MCP: true, RuleCreator: true, RuleUser: true,
			CommandCreator: true, CommandUser: true,
		},
	}
	assert.Equal(t, 100, Score(capped), "at-cap user scores 100")

	over := dataset.User{ID: "over@x.com", Sessions: i64(999999), Requests: i64(999999)}
	s := Score(over)
	assert.LessOrEqual(t, s, 100)
	assert.GreaterOrEqual(t, s, 0)
}

func TestScoreComponents(t *testing.T) {
	tests := []struct {
		name string
		user dataset.User
		want int
	}{
		{
			name: "sessions only, half of cap",
			user: dataset.User{Sessions: i64(500)},
			want: 23, // 500/1000*45 = 22.5, rounds to 23
		},
		{
			name: "requests only, at cap",
			user: dataset.User{Requests: i64(10000)},
			want: 35,
		},
		{
			name: "mcp flag alone",
			user: dataset.User{Features: &dataset.FeatureUsage{MCP: true}},
			want: 4,
		},
		{
			name: "rule pair both set",
			user: dataset.User{Features: &dataset.FeatureUsage{RuleCreator: true, RuleUser: true}},
			want: 8,
		},
		{
			name: "rule pair one set",
			user: dataset.User{Features: &dataset.FeatureUsage{RuleUser: true}},
			want: 4,
		},
		{
			name: "command pair one set",
			user: dataset.User{Features: &dataset.FeatureUsage{CommandCreator: true}},
			want: 4,
		},
		{
			name: "all feature points",
			user: dataset.User{Features: &dataset.FeatureUsage{
				MCP: true, RuleCreator: true, RuleUser: true,
				CommandCreator: true, CommandUser: true,
			}},
			want: 20,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.user))
		})
	}
}

func TestPercentilesShape(t *testing.T) {
	assert.Empty(t, Percentiles(nil))
	assert.Empty(t, Percentiles([]int{}))
	assert.Equal(t, []int{0}, Percentiles([]int{50}), "single value is percentile 0")

	scores := []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	pcts := Percentiles(scores)
	assert.Equal(t, 0, pcts[0], "lowest value's percentile is 0")
	assert.Equal(t, 90, pcts[9], "highest value's percentile is 90")
}

func TestPercentilesTies(t *testing.T) {
	// Ties all take the rank of the first equal element in the sorted
	// order; repeated scores share one (understated) percentile.
	pcts := Percentiles([]int{30, 30, 60})
	assert.Equal(t, []int{0, 0, 67}, pcts)
}

func TestPercentilesRankAligned(t *testing.T) {
	scores := []int{90, 10, 50}
	pcts := Percentiles(scores)
	require.Len(t, pcts, 3)
	assert.Equal(t, 67, pcts[0])
	assert.Equal(t, 0, pcts[1])
	assert.Equal(t, 33, pcts[2])
}

func TestSegmentFor(t *testing.T) {
	tests := []struct {
		score int
		want  Segment
	}{
		{100, SegmentPower},
		{70, SegmentPower},
		{69, SegmentActive},
		{50, SegmentActive},
		{49, SegmentCasual},
		{30, SegmentCasual},
		{29, SegmentAtRisk},
		{0, SegmentAtRisk},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SegmentFor(tt.score), "score %d", tt.score)
	}
}

func TestScoreAll(t *testing.T) {
	users := []dataset.User{
		{ID: "a@x.com", Sessions: i64(1000), Requests: i64(10000)},
		{ID: "b@x.com", Sessions: i64(100)},
		{ID: "c@x.com"},
	}
	scored := ScoreAll(users)
	require.Len(t, scored, 3)

	assert.Equal(t, "a@x.com", scored[0].ID, "input order preserved")
	assert.Equal(t, 80, scored[0].Score)
	assert.Equal(t, SegmentPower, scored[0].Segment)
	assert.Equal(t, 67, scored[0].Percentile)

	assert.Equal(t, 5, scored[1].Score) // 100/1000*45 = 4.5 -> 5
	assert.Equal(t, SegmentAtRisk, scored[1].Segment)

	assert.Equal(t, 0, scored[2].Score)
	assert.Equal(t, 0, scored[2].Percentile)
}

// Package scoring derives the composite engagement score, population
// percentile, and segment label for merged user records.
package scoring

import (
	"math"
	"sort"

	"userinsight/internal/dataset"
)

// Segment is the discrete engagement band for a score.
type Segment string

const (
	SegmentPower  Segment = "power"
	SegmentActive Segment = "active"
	SegmentCasual Segment = "casual"
	SegmentAtRisk Segment = "at-risk"
)

// Component weights. Sessions saturate at 1000 for 45 points, requests
// at 10000 for 35, feature adoption contributes up to 20.
const (
	sessionCap    = 1000.0
	sessionPoints = 45.0
	requestCap    = 10000.0
	requestPoints = 35.0
	mcpPoints     = 4.0
	pairBoth      = 8.0
	pairOne       = 4.0
)

// ScoredUser is a canonical record plus its derived engagement values.
// Derived values are recomputed whenever the population changes and are
// never persisted on their own.
type ScoredUser struct {
	dataset.User
	Score      int     `json:"score"`
	Percentile int     `json:"percentile"`
	Segment    Segment `json:"segment"`
}

// Score computes the bounded composite engagement score. Missing
// sessions or requests contribute nothing; the result is clamped to
// [0,100] and rounded to the nearest integer.
func Score(u dataset.User) int {
	var total float64
	if u.Sessions != nil {
		total += math.Min(float64(*u.Sessions)/sessionCap*sessionPoints, sessionPoints)
	}
	if u.Requests != nil {
		total += math.Min(float64(*u.Requests)/requestCap*requestPoints, requestPoints)
	}
	if f := u.Features; f != nil {
		if f.MCP {
			total += mcpPoints
		}
		total += pairScore(f.RuleCreator, f.RuleUser)
		total += pairScore(f.CommandCreator, f.CommandUser)
	}
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	return int(math.Round(total))
}

// pairScore rewards creator/user flag pairs: both set is worth more
// than the sum of either alone counting once.
func pairScore(creator, user bool) float64 {
	switch {
	case creator && user:
		return pairBoth
	case creator || user:
		return pairOne
	}
	return 0
}

// Percentiles returns, rank-aligned with the input, each score's
// percentile as round(rank/n*100) where rank is the index of the first
// element >= the score in the ascending sort. Ties all receive the rank
// of the first equal element, which understates percentiles for
// repeated scores relative to the textbook "percent at or below"
// definition; downstream displays assume this exact behavior, so it is
// kept as is.
func Percentiles(scores []int) []int {
	n := len(scores)
	if n == 0 {
		return []int{}
	}
	sorted := append([]int(nil), scores...)
	sort.Ints(sorted)

	out := make([]int, n)
	for i, s := range scores {
		rank := sort.SearchInts(sorted, s)
		out[i] = int(math.Round(float64(rank) / float64(n) * 100))
	}
	return out
}

// SegmentFor discretizes a score. Band lower bounds are inclusive.
func SegmentFor(score int) Segment {
	switch {
	case score >= 70:
		return SegmentPower
	case score >= 50:
		return SegmentActive
	case score >= 30:
		return SegmentCasual
	default:
		return SegmentAtRisk
	}
}

// ScoreAll scores a whole population and attaches percentiles and
// segments in one pass. Input order is preserved.
func ScoreAll(users []dataset.User) []ScoredUser {
	scores := make([]int, len(users))
	for i, u := range users {
		scores[i] = Score(u)
	}
	pcts := Percentiles(scores)

	out := make([]ScoredUser, len(users))
	for i, u := range users {
		out[i] = ScoredUser{
			User:       u,
			Score:      scores[i],
			Percentile: pcts[i],
			Segment:    SegmentFor(scores[i]),
		}
	}
	return out
}

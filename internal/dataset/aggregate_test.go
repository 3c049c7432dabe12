package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findUser(t *testing.T, users []User, id string) User {
	t.Helper()
	for _, u := range users {
		if u.ID == id {
			return u
		}
	}
	t.Fatalf("user %q not in result", id)
	return User{}
}

func TestAggregateCodeMergePolicy(t *testing.T) {
	code := []CodeMetrics{
		{Email: "a@x.com", AILines: 1000, TotalLines: 2000, Commits: 10, AIPercent: 50, ProfileURL: "https://git/a"},
		{Email: " A@X.com ", AILines: 500, TotalLines: 1000, Commits: 5, AIPercent: 60},
	}

	users := Aggregate(code, nil, nil)
	require.Len(t, users, 1)

	u := users[0]
	assert.Equal(t, "a@x.com", u.ID)
	assert.Equal(t, int64(1500), *u.AILines)
	assert.Equal(t, int64(3000), *u.TotalLines)
	assert.Equal(t, int64(15), *u.Commits)
	assert.Equal(t, 60.0, *u.AIPercent)
	assert.Equal(t, "https://git/a", u.ProfileURL)
	assert.Equal(t, SourceSet{Code: true}, u.Sources)
}

func TestAggregateFlagsMergePolicy(t *testing.T) {
	flags := []FeatureFlags{
		{Email: "b@x.com", IsMCPUser: false, IsRuleCreator: true, FeatureCount: 2, MemberDays: 90},
		{Email: "B@x.com", IsMCPUser: true, IsCommandUser: true, FeatureCount: 3, MemberDays: 30},
	}

	users := Aggregate(nil, flags, nil)
	require.Len(t, users, 1)

	u := users[0]
	require.NotNil(t, u.Features)
	assert.True(t, u.Features.MCP, "OR merge should set MCP")
	assert.True(t, u.Features.RuleCreator)
	assert.True(t, u.Features.CommandUser)
	assert.False(t, u.Features.RuleUser)
	assert.Equal(t, int64(3), *u.FeatureCount)
	assert.Equal(t, int64(90), *u.MemberDays)
}

func TestAggregateUsageMergePolicy(t *testing.T) {
	usage := []UsageCounters{
		{Email: "c@x.com", FirstName: "", LastName: "Ng", Requests: 100, Sessions: 20},
		{Email: "c@x.com", FirstName: "Carol", LastName: "Wong", Requests: 400, Sessions: 15},
	}

	users := Aggregate(nil, nil, usage)
	require.Len(t, users, 1)

	u := users[0]
	assert.Equal(t, "Carol", u.FirstName, "first non-empty wins")
	assert.Equal(t, "Ng", u.LastName, "first non-empty wins")
	assert.Equal(t, int64(400), *u.Requests, "cumulative counters take max, not sum")
	assert.Equal(t, int64(20), *u.Sessions)
}

func TestAggregateCrossSourceMerge(t *testing.T) {
	code := []CodeMetrics{{Email: "d@x.com", AILines: 10, TotalLines: 20, Commits: 1}}
	flags := []FeatureFlags{{Email: "d@x.com", IsMCPUser: true, FeatureCount: 1}}
	usage := []UsageCounters{{Email: "d@x.com", FirstName: "Dee", Sessions: 5, Requests: 50}}

	users := Aggregate(code, flags, usage)
	require.Len(t, users, 1)

	u := users[0]
	assert.Equal(t, SourceSet{Code: true, Flags: true, Usage: true}, u.Sources)
	assert.Equal(t, int64(10), *u.AILines)
	assert.True(t, u.Features.MCP)
	assert.Equal(t, "Dee", u.FirstName)
	assert.Equal(t, int64(5), *u.Sessions)
}

func TestAggregateAbsentSourceLeavesNil(t *testing.T) {
	users := Aggregate(nil, []FeatureFlags{{Email: "e@x.com"}}, nil)
	require.Len(t, users, 1)

	u := users[0]
	assert.Nil(t, u.AILines, "no code data must stay nil, not zero")
	assert.Nil(t, u.Sessions)
	assert.Nil(t, u.Requests)
	assert.False(t, u.Sources.Code)
	assert.False(t, u.Sources.Usage)
	assert.True(t, u.Sources.Flags)
}

func TestAggregateOrdering(t *testing.T) {
	usage := []UsageCounters{
		{Email: "low@x.com", Sessions: 1},
		{Email: "high@x.com", Sessions: 50},
	}
	code := []CodeMetrics{
		{Email: "zz@x.com", AILines: 900},
		{Email: "aa@x.com", AILines: 900},
	}

	users := Aggregate(code, nil, usage)
	require.Len(t, users, 4)

	// Sessions desc, then AI lines desc, then identity key asc.
	assert.Equal(t, "high@x.com", users[0].ID)
	assert.Equal(t, "low@x.com", users[1].ID)
	assert.Equal(t, "aa@x.com", users[2].ID)
	assert.Equal(t, "zz@x.com", users[3].ID)
}

func TestAggregateDeterministicAcrossInputOrder(t *testing.T) {
	code := []CodeMetrics{
		{Email: "a@x.com", AILines: 1, TotalLines: 2, Commits: 1, AIPercent: 10},
		{Email: "b@x.com", AILines: 3, TotalLines: 4, Commits: 2, AIPercent: 20},
		{Email: "a@x.com", AILines: 5, TotalLines: 6, Commits: 3, AIPercent: 5},
	}
	reversed := []CodeMetrics{code[2], code[1], code[0]}

	first := Aggregate(code, nil, nil)
	second := Aggregate(reversed, nil, nil)

	require.Equal(t, len(first), len(second))
	for i := range first {
		a, b := first[i], second[i]
		assert.Equal(t, a.ID, b.ID)
		assert.Equal(t, *a.AILines, *b.AILines)
		assert.Equal(t, *a.TotalLines, *b.TotalLines)
		assert.Equal(t, *a.Commits, *b.Commits)
		assert.Equal(t, *a.AIPercent, *b.AIPercent)
	}
}

func TestAggregateSkipsEmptyIdentity(t *testing.T) {
	users := Aggregate([]CodeMetrics{{Email: "   ", AILines: 10}}, nil, nil)
	assert.Empty(t, users)
}

func TestApplyOverrides(t *testing.T) {
	users := Aggregate(nil, nil, []UsageCounters{
		{Email: "f@x.com", FirstName: "Typo", LastName: "Name", Sessions: 1},
		{Email: "g@x.com", Sessions: 2},
	})

	ov := Overrides{
		Names:           map[string]NameOverride{" F@X.com ": {FirstName: "Fiona"}},
		Classifications: map[string]Classification{"g@x.com": MarkedPower},
	}
	out := ApplyOverrides(users, ov)

	f := findUser(t, out, "f@x.com")
	assert.Equal(t, "Fiona", f.FirstName)
	assert.Equal(t, "Name", f.LastName, "empty override field leaves merged value")
	assert.Equal(t, Unmarked, f.Classification)

	g := findUser(t, out, "g@x.com")
	assert.Equal(t, MarkedPower, g.Classification)

	// Input untouched.
	orig := findUser(t, users, "f@x.com")
	assert.Equal(t, "Typo", orig.FirstName)
}

func TestClassificationRoundTrip(t *testing.T) {
	for _, c := range []Classification{Unmarked, MarkedPower, MarkedNonPower} {
		assert.Equal(t, c, ParseClassification(c.String()))
	}
	assert.Equal(t, Unmarked, ParseClassification("garbage"))
}

package dataset

import (
	"sort"

	"userinsight/internal/identity"
)

// Aggregate merges up to three independently uploaded datasets into one
// canonical record per identity key. Any dataset may be nil or empty;
// absent sources simply contribute no fields and leave their provenance
// flag false.
//
// Each source is first reduced on its own (rows sharing a key are
// combined with per-field policies), then the reduced sources are
// merged across. Output ordering is sessions descending, then AI lines
// descending, then identity key ascending, so repeated calls over the
// same inputs produce identical output.
func Aggregate(code []CodeMetrics, flags []FeatureFlags, usage []UsageCounters) []User {
	codeByID := reduceCode(code)
	flagsByID := reduceFlags(flags)
	usageByID := reduceUsage(usage)

	seen := make(map[string]struct{}, len(codeByID)+len(flagsByID)+len(usageByID))
	for id := range codeByID {
		seen[id] = struct{}{}
	}
	for id := range flagsByID {
		seen[id] = struct{}{}
	}
	for id := range usageByID {
		seen[id] = struct{}{}
	}

	users := make([]User, 0, len(seen))
	for id := range seen {
		u := User{ID: id}

		if c, ok := codeByID[id]; ok {
			u.Sources.Code = true
			u.ProfileURL = c.ProfileURL
			u.AILines = i64(c.AILines)
			u.TotalLines = i64(c.TotalLines)
			u.AIPercent = f64(c.AIPercent)
			u.Commits = i64(c.Commits)
		}
		if f, ok := flagsByID[id]; ok {
			u.Sources.Flags = true
			u.Features = &FeatureUsage{
				MCP:            f.IsMCPUser,
				RuleCreator:    f.IsRuleCreator,
				RuleUser:       f.IsRuleUser,
				CommandCreator: f.IsCommandCreator,
				CommandUser:    f.IsCommandUser,
			}
			u.FeatureCount = i64(f.FeatureCount)
			u.MemberDays = i64(f.MemberDays)
		}
		if g, ok := usageByID[id]; ok {
			u.Sources.Usage = true
			u.FirstName = g.FirstName
			u.LastName = g.LastName
			u.Requests = i64(g.Requests)
			u.Sessions = i64(g.Sessions)
		}

		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool {
		si, sj := orZero(users[i].Sessions), orZero(users[j].Sessions)
		if si != sj {
			return si > sj
		}
		ai, aj := orZero(users[i].AILines), orZero(users[j].AILines)
		if ai != aj {
			return ai > aj
		}
		return users[i].ID < users[j].ID
	})

	return users
}

// reduceCode collapses code-metrics rows sharing an identity key:
// line and commit counts are summed, AI percentage keeps the maximum,
// the profile URL keeps the first non-empty value in input order.
func reduceCode(rows []CodeMetrics) map[string]*CodeMetrics {
	out := make(map[string]*CodeMetrics)
	for _, row := range rows {
		id := identity.Normalize(row.Email)
		if id == "" {
			continue
		}
		acc, ok := out[id]
		if !ok {
			r := row
			r.Email = id
			out[id] = &r
			continue
		}
		acc.AILines += row.AILines
		acc.TotalLines += row.TotalLines
		acc.Commits += row.Commits
		if row.AIPercent > acc.AIPercent {
			acc.AIPercent = row.AIPercent
		}
		if acc.ProfileURL == "" {
			acc.ProfileURL = row.ProfileURL
		}
	}
	return out
}

// reduceFlags ORs the boolean flags and keeps the maximum feature count
// and membership duration.
func reduceFlags(rows []FeatureFlags) map[string]*FeatureFlags {
	out := make(map[string]*FeatureFlags)
	for _, row := range rows {
		id := identity.Normalize(row.Email)
		if id == "" {
			continue
		}
		acc, ok := out[id]
		if !ok {
			r := row
			r.Email = id
			out[id] = &r
			continue
		}
		acc.IsMCPUser = acc.IsMCPUser || row.IsMCPUser
		acc.IsRuleCreator = acc.IsRuleCreator || row.IsRuleCreator
		acc.IsRuleUser = acc.IsRuleUser || row.IsRuleUser
		acc.IsCommandCreator = acc.IsCommandCreator || row.IsCommandCreator
		acc.IsCommandUser = acc.IsCommandUser || row.IsCommandUser
		if row.FeatureCount > acc.FeatureCount {
			acc.FeatureCount = row.FeatureCount
		}
		if row.MemberDays > acc.MemberDays {
			acc.MemberDays = row.MemberDays
		}
	}
	return out
}

// reduceUsage keeps the first non-empty names and the maximum request
// and session counts. Requests and sessions are cumulative counters at
// export time, so a later, larger snapshot supersedes an earlier one;
// summing them would double-count.
func reduceUsage(rows []UsageCounters) map[string]*UsageCounters {
	out := make(map[string]*UsageCounters)
	for _, row := range rows {
		id := identity.Normalize(row.Email)
		if id == "" {
			continue
		}
		acc, ok := out[id]
		if !ok {
			r := row
			r.Email = id
			out[id] = &r
			continue
		}
		if acc.FirstName == "" {
			acc.FirstName = row.FirstName
		}
		if acc.LastName == "" {
			acc.LastName = row.LastName
		}
		if row.Requests > acc.Requests {
			acc.Requests = row.Requests
		}
		if row.Sessions > acc.Sessions {
			acc.Sessions = row.Sessions
		}
	}
	return out
}

func i64(v int64) *int64 { return &v }

func f64(v float64) *float64 { return &v }

func orZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

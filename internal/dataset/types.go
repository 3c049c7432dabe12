package dataset

import "encoding/json"

// CodeMetrics is one row of code-authorship data as uploaded. Rows are
// keyed by email; several rows may describe the same user and are
// reduced before merging (see Aggregate).
type CodeMetrics struct {
	Email      string  `json:"email"`
	ProfileURL string  `json:"profile_url,omitempty"`
	AILines    int64   `json:"ai_lines"`
	TotalLines int64   `json:"total_lines"`
	AIPercent  float64 `json:"ai_percent"`
	Commits    int64   `json:"commits"`
}

// FeatureFlags is one row of feature-adoption data. The five booleans
// are independent; FeatureCount and MemberDays come precomputed from
// the exporting system.
type FeatureFlags struct {
	Email            string `json:"email"`
	IsMCPUser        bool   `json:"is_mcp_user"`
	IsRuleCreator    bool   `json:"is_rule_creator"`
	IsRuleUser       bool   `json:"is_rule_user"`
	IsCommandCreator bool   `json:"is_command_creator"`
	IsCommandUser    bool   `json:"is_command_user"`
	FeatureCount     int64  `json:"feature_count"`
	MemberDays       int64  `json:"member_days"`
}

// UsageCounters is one row of agent-usage data. Requests and Sessions
// are cumulative counters at export time, not deltas.
type UsageCounters struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Requests  int64  `json:"requests"`
	Sessions  int64  `json:"sessions"`
}

// FeatureUsage is the merged set of feature-adoption flags for one user.
type FeatureUsage struct {
	MCP            bool `json:"mcp"`
	RuleCreator    bool `json:"rule_creator"`
	RuleUser       bool `json:"rule_user"`
	CommandCreator bool `json:"command_creator"`
	CommandUser    bool `json:"command_user"`
}

// SourceSet records which uploaded datasets contributed to a merged user.
type SourceSet struct {
	Code  bool `json:"code"`
	Flags bool `json:"flags"`
	Usage bool `json:"usage"`
}

// Classification is the analyst-assigned power-user label. It is
// tri-state on purpose: "unmarked" is meaningfully different from
// "marked non-power", and the two must never collapse into one value.
type Classification int

const (
	Unmarked Classification = iota
	MarkedPower
	MarkedNonPower
)

func (c Classification) String() string {
	switch c {
	case MarkedPower:
		return "true"
	case MarkedNonPower:
		return "false"
	default:
		return "unmarked"
	}
}

// ParseClassification maps the wire form ("true", "false", anything
// else) back to the tri-state label.
func ParseClassification(s string) Classification {
	switch s {
	case "true":
		return MarkedPower
	case "false":
		return MarkedNonPower
	default:
		return Unmarked
	}
}

// Classifications travel as their string form in JSON so snapshots stay
// readable and stable across reorderings of the enum.
func (c Classification) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Classification) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*c = ParseClassification(s)
	return nil
}

// User is the canonical merged record for one identity key. Numeric
// fields are pointers: nil means the contributing dataset was never
// uploaded for this user, which is not the same as a reported zero.
type User struct {
	ID         string `json:"id"` // normalized identity key
	ProfileURL string `json:"profile_url,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`

	AILines    *int64   `json:"ai_lines,omitempty"`
	TotalLines *int64   `json:"total_lines,omitempty"`
	AIPercent  *float64 `json:"ai_percent,omitempty"`
	Commits    *int64   `json:"commits,omitempty"`

	Features     *FeatureUsage `json:"features,omitempty"`
	FeatureCount *int64        `json:"feature_count,omitempty"`
	MemberDays   *int64        `json:"member_days,omitempty"`

	Requests *int64 `json:"requests,omitempty"`
	Sessions *int64 `json:"sessions,omitempty"`

	Classification Classification `json:"classification"`

	Sources SourceSet `json:"sources"`
}

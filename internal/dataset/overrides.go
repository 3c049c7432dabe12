package dataset

import "userinsight/internal/identity"

// NameOverride replaces the display name merged from the usage dataset.
type NameOverride struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Overrides holds out-of-band, per-user corrections kept alongside a
// snapshot: analyst-assigned classifications and display-name fixes.
// Both maps are keyed by identity; keys are normalized on application
// so hand-edited snapshots still resolve.
type Overrides struct {
	Names           map[string]NameOverride   `json:"names,omitempty"`
	Classifications map[string]Classification `json:"classifications,omitempty"`
}

// ApplyOverrides returns a copy of users with overrides layered on top.
// Overrides are not part of aggregation; they must be re-applied after
// every aggregation run, which is why this never mutates its input.
func ApplyOverrides(users []User, ov Overrides) []User {
	names := make(map[string]NameOverride, len(ov.Names))
	for k, v := range ov.Names {
		names[identity.Normalize(k)] = v
	}
	marks := make(map[string]Classification, len(ov.Classifications))
	for k, v := range ov.Classifications {
		marks[identity.Normalize(k)] = v
	}

	out := make([]User, len(users))
	copy(out, users)
	for i := range out {
		if n, ok := names[out[i].ID]; ok {
			if n.FirstName != "" {
				out[i].FirstName = n.FirstName
			}
			if n.LastName != "" {
				out[i].LastName = n.LastName
			}
		}
		if c, ok := marks[out[i].ID]; ok {
			out[i].Classification = c
		}
	}
	return out
}

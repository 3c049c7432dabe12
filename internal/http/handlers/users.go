package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"userinsight/internal/dataset"
	dbpkg "userinsight/internal/db"
	"userinsight/internal/filter"
	"userinsight/internal/identity"
	"userinsight/internal/scoring"
)

// parseFilterSpec builds a filter specification from query args. Every
// clause is optional; unparseable values are ignored rather than
// rejected so a half-typed filter still narrows the table.
func parseFilterSpec(ctx *fasthttp.RequestCtx) filter.Spec {
	spec := filter.Spec{
		Search:         string(ctx.QueryArgs().Peek("search")),
		MCP:            queryBool(ctx, "mcp"),
		RuleCreator:    queryBool(ctx, "rule_creator"),
		RuleUser:       queryBool(ctx, "rule_user"),
		CommandCreator: queryBool(ctx, "command_creator"),
		CommandUser:    queryBool(ctx, "command_user"),
		Sessions:       queryRange(ctx, "sessions"),
		Requests:       queryRange(ctx, "requests"),
		AILines:        queryRange(ctx, "ai_lines"),
		TotalLines:     queryRange(ctx, "total_lines"),
		Commits:        queryRange(ctx, "commits"),
		AIPercent:      queryRange(ctx, "ai_percent"),
		FeatureCount:   queryRange(ctx, "feature_count"),
		MemberDays:     queryRange(ctx, "member_days"),
		Score:          queryRange(ctx, "score"),
	}

	if raw := string(ctx.QueryArgs().Peek("classifications")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			switch part = strings.TrimSpace(part); part {
			case "true", "false", "unmarked":
				spec.Classifications = append(spec.Classifications, part)
			}
		}
	}
	return spec
}

func queryBool(ctx *fasthttp.RequestCtx, key string) *bool {
	switch string(ctx.QueryArgs().Peek(key)) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

func queryRange(ctx *fasthttp.RequestCtx, key string) filter.Range {
	var r filter.Range
	if s := string(ctx.QueryArgs().Peek(key + "_min")); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			r.Min = &f
		}
	}
	if s := string(ctx.QueryArgs().Peek(key + "_max")); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			r.Max = &f
		}
	}
	return r
}

// UsersList returns the scored population, filtered by the query's
// filter clauses and paged.
func UsersList(snapshots *dbpkg.SnapshotStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		pop, err := loadPopulation(snapshots)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load population")
			return
		}

		matched := filter.Apply(pop, parseFilterSpec(ctx))

		limit, offset := parsePaging(ctx, 50, 500)
		page := matched
		if offset >= len(page) {
			page = nil
		} else {
			page = page[offset:]
		}
		if len(page) > limit {
			page = page[:limit]
		}

		jsonResponse(ctx, map[string]any{
			"users":    page,
			"total":    len(matched),
			"has_more": offset+limit < len(matched),
		})
	}
}

// UsersSummary reports population-level aggregates for the dashboard
// header: size, mean score, and per-segment counts.
func UsersSummary(snapshots *dbpkg.SnapshotStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		pop, err := loadPopulation(snapshots)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load population")
			return
		}

		segments := map[scoring.Segment]int{}
		classified := 0
		var scoreSum float64
		for _, u := range pop {
			segments[u.Segment]++
			scoreSum += float64(u.Score)
			if u.Classification != dataset.Unmarked {
				classified++
			}
		}
		meanScore := 0.0
		if len(pop) > 0 {
			meanScore = scoreSum / float64(len(pop))
		}

		jsonResponse(ctx, map[string]any{
			"population": len(pop),
			"mean_score": meanScore,
			"classified": classified,
			"segments": map[string]int{
				"power":   segments[scoring.SegmentPower],
				"active":  segments[scoring.SegmentActive],
				"casual":  segments[scoring.SegmentCasual],
				"at-risk": segments[scoring.SegmentAtRisk],
			},
		})
	}
}

// ClassifyUser sets or clears the manual power-user classification for
// one identity. The override lives in the snapshot's overrides map and
// is re-applied on every aggregation run.
func ClassifyUser(snapshots *dbpkg.SnapshotStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		id, ok := pathIdentity(ctx)
		if !ok {
			return
		}

		value := string(ctx.PostArgs().Peek("value"))
		if value != "true" && value != "false" && value != "clear" {
			errResponse(ctx, fasthttp.StatusBadRequest, "value must be true, false, or clear")
			return
		}

		snap, _, err := snapshots.Load()
		if err != nil || snap == nil {
			errResponse(ctx, fasthttp.StatusNotFound, "no datasets uploaded")
			return
		}

		if snap.Overrides.Classifications == nil {
			snap.Overrides.Classifications = map[string]dataset.Classification{}
		}
		if value == "clear" {
			delete(snap.Overrides.Classifications, id)
		} else {
			snap.Overrides.Classifications[id] = dataset.ParseClassification(value)
		}
		snap.UploadedAt = time.Now().UTC()

		version, err := snapshots.Save(snap)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to persist classification")
			return
		}
		jsonResponse(ctx, map[string]any{"status": "ok", "version": version})
	}
}

// OverrideName sets or clears the display-name override for one identity.
func OverrideName(snapshots *dbpkg.SnapshotStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		id, ok := pathIdentity(ctx)
		if !ok {
			return
		}

		first := string(ctx.PostArgs().Peek("first_name"))
		last := string(ctx.PostArgs().Peek("last_name"))

		snap, _, err := snapshots.Load()
		if err != nil || snap == nil {
			errResponse(ctx, fasthttp.StatusNotFound, "no datasets uploaded")
			return
		}

		if snap.Overrides.Names == nil {
			snap.Overrides.Names = map[string]dataset.NameOverride{}
		}
		if first == "" && last == "" {
			delete(snap.Overrides.Names, id)
		} else {
			snap.Overrides.Names[id] = dataset.NameOverride{FirstName: first, LastName: last}
		}
		snap.UploadedAt = time.Now().UTC()

		version, err := snapshots.Save(snap)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to persist name override")
			return
		}
		jsonResponse(ctx, map[string]any{"status": "ok", "version": version})
	}
}

// pathIdentity reads the {id} path segment and normalizes it.
func pathIdentity(ctx *fasthttp.RequestCtx) (string, bool) {
	v := ctx.UserValue("id")
	raw, ok := v.(string)
	if !ok || identity.Normalize(raw) == "" {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid user identity")
		return "", false
	}
	return identity.Normalize(raw), true
}

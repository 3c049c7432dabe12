package handlers

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"userinsight/internal/cohort"
	dbpkg "userinsight/internal/db"
	"userinsight/internal/filter"
)

type cohortView struct {
	ID        uint        `json:"id"`
	Name      string      `json:"name"`
	Color     string      `json:"color,omitempty"`
	CreatedAt string      `json:"created_at"`
	Filter    filter.Spec `json:"filter"`
	Members   int         `json:"members"`
}

// ListCohorts returns every saved cohort with its live member count.
// Membership is recomputed against the current population on each call.
func ListCohorts(cohorts *dbpkg.CohortStore, snapshots *dbpkg.SnapshotStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		rows, err := cohorts.List()
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load cohorts")
			return
		}
		pop, err := loadPopulation(snapshots)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load population")
			return
		}

		views := make([]cohortView, 0, len(rows))
		for _, row := range rows {
			var spec filter.Spec
			if err := json.Unmarshal(row.Filter, &spec); err != nil {
				continue
			}
			views = append(views, cohortView{
				ID:        row.ID,
				Name:      row.Name,
				Color:     row.Color,
				CreatedAt: row.CreatedAt.UTC().Format(time.RFC3339),
				Filter:    spec,
				Members:   len(filter.Apply(pop, spec)),
			})
		}
		jsonResponse(ctx, map[string]any{"cohorts": views})
	}
}

type createCohortRequest struct {
	Name   string      `json:"name"`
	Color  string      `json:"color"`
	Filter filter.Spec `json:"filter"`
}

// CreateCohort saves the submitted filter specification as a named
// cohort. The filter is frozen at creation; later edits touch only the
// display name and color.
func CreateCohort(cohorts *dbpkg.CohortStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		var req createCohortRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "name required")
			return
		}

		row, err := cohorts.Create(strings.TrimSpace(req.Name), req.Color, req.Filter)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to save cohort")
			return
		}

		ctx.SetStatusCode(fasthttp.StatusCreated)
		jsonResponse(ctx, map[string]any{"id": row.ID, "name": row.Name})
	}
}

type updateCohortRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// UpdateCohort renames or recolors a cohort. Filter changes are
// rejected by omission: the stored specification is immutable.
func UpdateCohort(cohorts *dbpkg.CohortStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		id, ok := cohortIDFromPath(ctx)
		if !ok {
			return
		}
		var req updateCohortRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "name required")
			return
		}

		if _, err := cohorts.Get(id); err != nil {
			errResponse(ctx, fasthttp.StatusNotFound, "cohort not found")
			return
		}
		if err := cohorts.Rename(id, strings.TrimSpace(req.Name), req.Color); err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to update cohort")
			return
		}
		jsonResponse(ctx, map[string]any{"status": "ok"})
	}
}

// DeleteCohort removes a saved cohort.
func DeleteCohort(cohorts *dbpkg.CohortStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		id, ok := cohortIDFromPath(ctx)
		if !ok {
			return
		}
		if _, err := cohorts.Get(id); err != nil {
			errResponse(ctx, fasthttp.StatusNotFound, "cohort not found")
			return
		}
		if err := cohorts.Delete(id); err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to delete cohort")
			return
		}
		jsonResponse(ctx, map[string]any{"status": "ok"})
	}
}

// CompareClassification runs the binary power/non-power comparison over
// the manually classified population.
func CompareClassification(snapshots *dbpkg.SnapshotStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		pop, err := loadPopulation(snapshots)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load population")
			return
		}
		result := cohort.Compare(pop)

		ctx.SetContentType("application/json")
		body, _ := json.Marshal(result)
		ctx.SetBody(body)
	}
}

// CompareCohorts runs the multi-cohort comparison. Cohorts come from
// the ids query param (comma-separated), defaulting to every saved
// cohort; fewer than two resolvable cohorts yields a null result with
// 200, matching the engine's "comparison undefined" semantics.
func CompareCohorts(cohorts *dbpkg.CohortStore, snapshots *dbpkg.SnapshotStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}

		var resolved []cohort.Cohort
		var err error
		if raw := string(ctx.QueryArgs().Peek("ids")); raw != "" {
			var ids []uint
			for _, part := range strings.Split(raw, ",") {
				if n, perr := strconv.ParseUint(strings.TrimSpace(part), 10, 32); perr == nil {
					ids = append(ids, uint(n))
				}
			}
			resolved, err = cohorts.ResolveByIDs(ids)
		} else {
			resolved, err = cohorts.Resolve()
		}
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load cohorts")
			return
		}

		pop, err := loadPopulation(snapshots)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load population")
			return
		}

		result := cohort.CompareMany(pop, resolved)

		ctx.SetContentType("application/json")
		body, _ := json.Marshal(map[string]any{"result": result})
		ctx.SetBody(body)
	}
}

func cohortIDFromPath(ctx *fasthttp.RequestCtx) (uint, bool) {
	idStr, ok := ctx.UserValue("id").(string)
	if !ok {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid cohort ID")
		return 0, false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid cohort ID")
		return 0, false
	}
	return uint(id), true
}

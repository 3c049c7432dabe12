package handlers

import (
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"

	"userinsight/internal/dataset"
	dbpkg "userinsight/internal/db"
	httpctx "userinsight/internal/http/ctx"
	"userinsight/internal/identity"
)

var (
	datasetRowsTotal   *prometheus.CounterVec
	datasetRowsDropped *prometheus.CounterVec
	populationSize     prometheus.Gauge
	snapshotVersion    prometheus.Gauge
)

func InitPrometheusMetrics() {
	datasetRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "userinsight",
			Name:      "dataset_rows_total",
			Help:      "Total number of accepted dataset rows.",
		},
		[]string{"source", "dataset"},
	)
	datasetRowsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "userinsight",
			Name:      "dataset_rows_dropped_total",
			Help:      "Rows dropped at ingestion for missing or malformed identity.",
		},
		[]string{"source", "dataset"},
	)
	populationSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "userinsight",
			Name:      "population_size",
			Help:      "Number of merged users in the current population.",
		},
	)
	snapshotVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "userinsight",
			Name:      "snapshot_version",
			Help:      "Version number of the current dataset snapshot.",
		},
	)
	prometheus.MustRegister(datasetRowsTotal, datasetRowsDropped, populationSize, snapshotVersion)
}

// uploadRequest carries any subset of the three source collections.
// A collection that is present replaces the stored one; absent
// collections are carried over from the previous snapshot version.
type uploadRequest struct {
	Code  []dataset.CodeMetrics   `json:"code"`
	Flags []dataset.FeatureFlags  `json:"flags"`
	Usage []dataset.UsageCounters `json:"usage"`
}

// UploadDatasets ingests dataset uploads from exporters. Rows without
// a resolvable identity are dropped and counted, never rejected as a
// hard failure; overrides from the previous snapshot are carried
// forward so re-uploads don't lose analyst classifications.
func UploadDatasets(snapshots *dbpkg.SnapshotStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var payload uploadRequest
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if payload.Code == nil && payload.Flags == nil && payload.Usage == nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "no datasets provided")
			return
		}

		source := "unknown"
		if ak, ok := httpctx.APIKeyFromCtx(ctx); ok && ak != nil {
			source = ak.Name
		}

		prev, _, err := snapshots.Load()
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load current snapshot")
			return
		}

		next := dbpkg.SnapshotPayload{UploadedAt: time.Now().UTC()}
		if prev != nil {
			next = *prev
			next.UploadedAt = time.Now().UTC()
		}

		dropped := 0
		if payload.Code != nil {
			rows := make([]dataset.CodeMetrics, 0, len(payload.Code))
			for _, r := range payload.Code {
				if identity.Normalize(r.Email) == "" {
					dropped++
					datasetRowsDropped.WithLabelValues(source, "code").Inc()
					continue
				}
				rows = append(rows, r)
			}
			next.Code = rows
			datasetRowsTotal.WithLabelValues(source, "code").Add(float64(len(rows)))
		}
		if payload.Flags != nil {
			rows := make([]dataset.FeatureFlags, 0, len(payload.Flags))
			for _, r := range payload.Flags {
				if identity.Normalize(r.Email) == "" {
					dropped++
					datasetRowsDropped.WithLabelValues(source, "flags").Inc()
					continue
				}
				rows = append(rows, r)
			}
			next.Flags = rows
			datasetRowsTotal.WithLabelValues(source, "flags").Add(float64(len(rows)))
		}
		if payload.Usage != nil {
			rows := make([]dataset.UsageCounters, 0, len(payload.Usage))
			for _, r := range payload.Usage {
				if identity.Normalize(r.Email) == "" {
					dropped++
					datasetRowsDropped.WithLabelValues(source, "usage").Inc()
					continue
				}
				rows = append(rows, r)
			}
			next.Usage = rows
			datasetRowsTotal.WithLabelValues(source, "usage").Add(float64(len(rows)))
		}

		version, err := snapshots.Save(&next)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to persist snapshot")
			return
		}

		population := dataset.ApplyOverrides(
			dataset.Aggregate(next.Code, next.Flags, next.Usage), next.Overrides)
		populationSize.Set(float64(len(population)))
		snapshotVersion.Set(float64(version))

		ctx.SetStatusCode(fasthttp.StatusAccepted)
		jsonResponse(ctx, map[string]any{
			"status":     "accepted",
			"version":    version,
			"dropped":    dropped,
			"population": len(population),
		})
	}
}

// SnapshotInfo reports the current snapshot version and collection sizes.
func SnapshotInfo(snapshots *dbpkg.SnapshotStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		snap, version, err := snapshots.Load()
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to load snapshot")
			return
		}
		if snap == nil {
			jsonResponse(ctx, map[string]any{"version": 0})
			return
		}
		jsonResponse(ctx, map[string]any{
			"version":     version,
			"uploaded_at": snap.UploadedAt.Format(time.RFC3339),
			"code_rows":   len(snap.Code),
			"flags_rows":  len(snap.Flags),
			"usage_rows":  len(snap.Usage),
		})
	}
}

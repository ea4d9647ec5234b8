package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the sync pipeline's counters. The scheduled trigger runs
// unattended, so these are the main liveness signal besides the run-log table.
type Registry struct {
	reg *prometheus.Registry

	RunsSucceeded prometheus.Counter
	RunsFailed    prometheus.Counter
	OffersSynced  prometheus.Counter
	PagesFetched  prometheus.Counter
	ChunkFailures prometheus.Counter
	LastRunUnix   prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	runsOK := prometheus.NewCounter(prometheus.CounterOpts{Name: "offers_sync_runs_succeeded_total"})
	runsFail := prometheus.NewCounter(prometheus.CounterOpts{Name: "offers_sync_runs_failed_total"})
	synced := prometheus.NewCounter(prometheus.CounterOpts{Name: "offers_sync_offers_synced_total"})
	pages := prometheus.NewCounter(prometheus.CounterOpts{Name: "offers_sync_pages_fetched_total"})
	chunkFail := prometheus.NewCounter(prometheus.CounterOpts{Name: "offers_sync_chunk_failures_total"})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{Name: "offers_sync_last_run_timestamp_seconds"})

	r.MustRegister(runsOK, runsFail, synced, pages, chunkFail, lastRun)
	return &Registry{
		reg:           r,
		RunsSucceeded: runsOK,
		RunsFailed:    runsFail,
		OffersSynced:  synced,
		PagesFetched:  pages,
		ChunkFailures: chunkFail,
		LastRunUnix:   lastRun,
	}
}

// ObserveRun records one finished run.
func (r *Registry) ObserveRun(success bool, offersSynced int) {
	if success {
		r.RunsSucceeded.Inc()
	} else {
		r.RunsFailed.Inc()
	}
	r.OffersSynced.Add(float64(offersSynced))
	r.LastRunUnix.Set(float64(time.Now().Unix()))
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

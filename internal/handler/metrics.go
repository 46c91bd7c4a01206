package handler

import (
	"fmt"
	"net/http"

	"github.com/lexicognize/lexicognize/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "lexicognize_training_jobs_submitted_total %d\n", snap.TrainingJobsSubmitted)
	for status, count := range snap.TrainingJobsByStatus {
		writeMetric(w, "lexicognize_training_jobs_finished_total{status=%q} %d\n", status, count)
	}
	writeMetric(w, "lexicognize_training_duration_seconds_count %d\n", snap.TrainingDurationCount)
	writeMetric(w, "lexicognize_training_duration_seconds_sum %.6f\n", float64(snap.TrainingDurationTotalNs)/1e9)
	writeMetric(w, "lexicognize_training_queue_depth %d\n", snap.TrainingQueueDepth)

	for status, count := range snap.InferenceByStatus {
		writeMetric(w, "lexicognize_inference_requests_total{status=%q} %d\n", status, count)
	}
	writeMetric(w, "lexicognize_inference_duration_seconds_count %d\n", snap.InferenceDurationCount)
	writeMetric(w, "lexicognize_inference_duration_seconds_sum %.6f\n", float64(snap.InferenceDurationTotal)/1e9)

	writeMetric(w, "lexicognize_translation_cache_hits_total %d\n", snap.TranslationCacheHits)
	writeMetric(w, "lexicognize_translation_cache_misses_total %d\n", snap.TranslationCacheMisses)

	writeMetric(w, "lexicognize_datasets_uploaded_total %d\n", snap.DatasetsUploaded)
	writeMetric(w, "lexicognize_datasets_imported_total %d\n", snap.DatasetsImported)

	for status, count := range snap.WebhookByStatus {
		writeMetric(w, "lexicognize_webhook_deliveries_total{status=%q} %d\n", status, count)
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

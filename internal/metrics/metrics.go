// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Training pipeline metrics
	IncTrainingJobSubmitted()
	IncTrainingJobCompleted(status string) // status: "completed", "failed", "cancelled"
	ObserveTrainingDuration(duration time.Duration)
	SetTrainingQueueDepth(depth int64)

	// Inference metrics
	IncInferenceRequest(status string) // status: "completed" or "failed"
	ObserveInferenceDuration(duration time.Duration)
	IncTranslationCacheHit()
	IncTranslationCacheMiss()

	// Dataset metrics
	IncDatasetUploaded()
	IncDatasetImported()

	// Activity pipeline metrics
	IncActivityEventPublished(status string) // status: "success" or "dropped"
	IncActivityEventProcessed(status string) // status: "success", "failed", "skipped"
	ObserveActivityBatchSize(size int)

	// Webhook metrics
	IncWebhookDelivery(status string) // status: "success", "failed", "exhausted"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncTrainingJobSubmitted is a no-op.
func (n *NoopRecorder) IncTrainingJobSubmitted() {}

// IncTrainingJobCompleted is a no-op.
func (n *NoopRecorder) IncTrainingJobCompleted(status string) {}

// ObserveTrainingDuration is a no-op.
func (n *NoopRecorder) ObserveTrainingDuration(duration time.Duration) {}

// SetTrainingQueueDepth is a no-op.
func (n *NoopRecorder) SetTrainingQueueDepth(depth int64) {}

// IncInferenceRequest is a no-op.
func (n *NoopRecorder) IncInferenceRequest(status string) {}

// ObserveInferenceDuration is a no-op.
func (n *NoopRecorder) ObserveInferenceDuration(duration time.Duration) {}

// IncTranslationCacheHit is a no-op.
func (n *NoopRecorder) IncTranslationCacheHit() {}

// IncTranslationCacheMiss is a no-op.
func (n *NoopRecorder) IncTranslationCacheMiss() {}

// IncDatasetUploaded is a no-op.
func (n *NoopRecorder) IncDatasetUploaded() {}

// IncDatasetImported is a no-op.
func (n *NoopRecorder) IncDatasetImported() {}

// IncActivityEventPublished is a no-op.
func (n *NoopRecorder) IncActivityEventPublished(status string) {}

// IncActivityEventProcessed is a no-op.
func (n *NoopRecorder) IncActivityEventProcessed(status string) {}

// ObserveActivityBatchSize is a no-op.
func (n *NoopRecorder) ObserveActivityBatchSize(size int) {}

// IncWebhookDelivery is a no-op.
func (n *NoopRecorder) IncWebhookDelivery(status string) {}

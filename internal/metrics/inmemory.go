package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	TrainingJobsSubmitted   uint64
	TrainingJobsByStatus    map[string]uint64
	TrainingDurationCount   uint64
	TrainingDurationTotalNs int64
	TrainingQueueDepth      int64
	InferenceByStatus       map[string]uint64
	InferenceDurationCount  uint64
	InferenceDurationTotal  int64
	TranslationCacheHits    uint64
	TranslationCacheMisses  uint64
	DatasetsUploaded        uint64
	DatasetsImported        uint64
	WebhookByStatus         map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests and the
// introspection endpoint.
type InMemoryRecorder struct {
	trainingJobsSubmitted   uint64
	trainingDurationCount   uint64
	trainingDurationTotalNs int64
	trainingQueueDepth      int64
	translationCacheHits    uint64
	translationCacheMisses  uint64
	inferenceDurationCount  uint64
	inferenceDurationTotal  int64
	datasetsUploaded        uint64
	datasetsImported        uint64

	mu                sync.Mutex
	trainingByStatus  map[string]uint64
	inferenceByStatus map[string]uint64
	webhookByStatus   map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		trainingByStatus:  make(map[string]uint64),
		inferenceByStatus: make(map[string]uint64),
		webhookByStatus:   make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	training := copyMap(m.trainingByStatus)
	inference := copyMap(m.inferenceByStatus)
	webhook := copyMap(m.webhookByStatus)
	m.mu.Unlock()

	return Snapshot{
		TrainingJobsSubmitted:   atomic.LoadUint64(&m.trainingJobsSubmitted),
		TrainingJobsByStatus:    training,
		TrainingDurationCount:   atomic.LoadUint64(&m.trainingDurationCount),
		TrainingDurationTotalNs: atomic.LoadInt64(&m.trainingDurationTotalNs),
		TrainingQueueDepth:      atomic.LoadInt64(&m.trainingQueueDepth),
		InferenceByStatus:       inference,
		InferenceDurationCount:  atomic.LoadUint64(&m.inferenceDurationCount),
		InferenceDurationTotal:  atomic.LoadInt64(&m.inferenceDurationTotal),
		TranslationCacheHits:    atomic.LoadUint64(&m.translationCacheHits),
		TranslationCacheMisses:  atomic.LoadUint64(&m.translationCacheMisses),
		DatasetsUploaded:        atomic.LoadUint64(&m.datasetsUploaded),
		DatasetsImported:        atomic.LoadUint64(&m.datasetsImported),
		WebhookByStatus:         webhook,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// IncTrainingJobSubmitted increments the submission counter.
func (m *InMemoryRecorder) IncTrainingJobSubmitted() {
	atomic.AddUint64(&m.trainingJobsSubmitted, 1)
}

// IncTrainingJobCompleted increments the per-status completion counter.
func (m *InMemoryRecorder) IncTrainingJobCompleted(status string) {
	m.mu.Lock()
	m.trainingByStatus[status]++
	m.mu.Unlock()
}

// ObserveTrainingDuration records a job wall-clock duration.
func (m *InMemoryRecorder) ObserveTrainingDuration(duration time.Duration) {
	atomic.AddUint64(&m.trainingDurationCount, 1)
	atomic.AddInt64(&m.trainingDurationTotalNs, duration.Nanoseconds())
}

// SetTrainingQueueDepth records the pending queue depth.
func (m *InMemoryRecorder) SetTrainingQueueDepth(depth int64) {
	atomic.StoreInt64(&m.trainingQueueDepth, depth)
}

// IncInferenceRequest increments the per-status inference counter.
func (m *InMemoryRecorder) IncInferenceRequest(status string) {
	m.mu.Lock()
	m.inferenceByStatus[status]++
	m.mu.Unlock()
}

// ObserveInferenceDuration records a generation duration.
func (m *InMemoryRecorder) ObserveInferenceDuration(duration time.Duration) {
	atomic.AddUint64(&m.inferenceDurationCount, 1)
	atomic.AddInt64(&m.inferenceDurationTotal, duration.Nanoseconds())
}

// IncTranslationCacheHit increments the translation cache hit counter.
func (m *InMemoryRecorder) IncTranslationCacheHit() {
	atomic.AddUint64(&m.translationCacheHits, 1)
}

// IncTranslationCacheMiss increments the translation cache miss counter.
func (m *InMemoryRecorder) IncTranslationCacheMiss() {
	atomic.AddUint64(&m.translationCacheMisses, 1)
}

// IncDatasetUploaded increments the dataset upload counter.
func (m *InMemoryRecorder) IncDatasetUploaded() {
	atomic.AddUint64(&m.datasetsUploaded, 1)
}

// IncDatasetImported increments the dataset import counter.
func (m *InMemoryRecorder) IncDatasetImported() {
	atomic.AddUint64(&m.datasetsImported, 1)
}

// IncActivityEventPublished is tracked only by status in tests; counts
// fold into the webhook map in snapshots when needed.
func (m *InMemoryRecorder) IncActivityEventPublished(status string) {
	m.mu.Lock()
	m.webhookByStatus["activity_published_"+status]++
	m.mu.Unlock()
}

// IncActivityEventProcessed increments the per-status processing counter.
func (m *InMemoryRecorder) IncActivityEventProcessed(status string) {
	m.mu.Lock()
	m.webhookByStatus["activity_processed_"+status]++
	m.mu.Unlock()
}

// ObserveActivityBatchSize is a no-op in the in-memory recorder.
func (m *InMemoryRecorder) ObserveActivityBatchSize(size int) {}

// IncWebhookDelivery increments the per-status delivery counter.
func (m *InMemoryRecorder) IncWebhookDelivery(status string) {
	m.mu.Lock()
	m.webhookByStatus[status]++
	m.mu.Unlock()
}

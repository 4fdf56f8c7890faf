package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	uploadsTotal          atomic.Uint64
	extractionFailedTotal atomic.Uint64

	generationStarted   = newCounterVec()
	generationSucceeded = newCounterVec()
	generationEmpty     = newCounterVec()
	generationFailed    = newCounterVec()
	generationRejected  = newCounterVec()

	generationDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	extractionDuration = newHistogram([]float64{5, 25, 100, 250, 1000, 5000})
)

// IncUpload counts a received PDF upload.
func IncUpload() { uploadsTotal.Add(1) }

// IncExtractionFailed counts an upload whose text could not be extracted.
func IncExtractionFailed() { extractionFailedTotal.Add(1) }

// IncGenerationStarted counts a remote call issued for the given action.
func IncGenerationStarted(action string) { generationStarted.inc(action) }

// IncGenerationSucceeded counts a call that returned text.
func IncGenerationSucceeded(action string) { generationSucceeded.inc(action) }

// IncGenerationEmpty counts a call that succeeded without usable text.
func IncGenerationEmpty(action string) { generationEmpty.inc(action) }

// IncGenerationFailed counts a failed call.
func IncGenerationFailed(action string) { generationFailed.inc(action) }

// IncGenerationRejected counts a press answered without a remote call (validation, busy).
func IncGenerationRejected(action string) { generationRejected.inc(action) }

// ObserveGenerationDurationMs records a remote call duration in milliseconds.
func ObserveGenerationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	generationDuration.Observe(value)
}

// ObserveExtractionDurationMs records a PDF extraction duration in milliseconds.
func ObserveExtractionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	extractionDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "pdf_uploads_total", "Total PDF uploads received", uploadsTotal.Load())
	writeCounter(&buf, "pdf_extraction_failed_total", "Total PDF uploads that failed extraction", extractionFailedTotal.Load())
	writeHistogram(&buf, "pdf_extraction_duration_ms", "PDF extraction duration in milliseconds", extractionDuration.Snapshot())
	writeCounterVec(&buf, "generation_started_total", "Remote generation calls issued", generationStarted.snapshot())
	writeCounterVec(&buf, "generation_succeeded_total", "Remote generation calls that returned text", generationSucceeded.snapshot())
	writeCounterVec(&buf, "generation_empty_total", "Remote generation calls that returned no text", generationEmpty.snapshot())
	writeCounterVec(&buf, "generation_failed_total", "Remote generation calls that failed", generationFailed.snapshot())
	writeCounterVec(&buf, "generation_rejected_total", "Actions answered without a remote call", generationRejected.snapshot())
	writeHistogram(&buf, "generation_duration_ms", "Remote generation duration in milliseconds", generationDuration.Snapshot())
	return buf.String()
}

type counterVec struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newCounterVec() *counterVec {
	return &counterVec{values: make(map[string]uint64)}
}

func (v *counterVec) inc(action string) {
	v.mu.Lock()
	v.values[action]++
	v.mu.Unlock()
}

func (v *counterVec) snapshot() map[string]uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]uint64, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeCounterVec(buf *bytes.Buffer, name, help string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	actions := make([]string, 0, len(values))
	for k := range values {
		actions = append(actions, k)
	}
	sort.Strings(actions)
	for _, action := range actions {
		fmt.Fprintf(buf, "%s{action=%q} %d\n", name, action, values[action])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

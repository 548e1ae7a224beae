package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	scanStartedTotal atomic.Uint64
	scanCleanTotal   atomic.Uint64
	scanFlaggedTotal atomic.Uint64
	scanFailedTotal  atomic.Uint64

	scanDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2500, 5000, 15000, 60000})

	scanJobsReceivedTotal             atomic.Uint64
	scanJobsCompletedTotal            atomic.Uint64
	scanJobsFailedTotal               atomic.Uint64
	scanJobsDeletedUnrecoverableTotal atomic.Uint64
)

// IncScanStarted increments the started counter.
func IncScanStarted() {
	scanStartedTotal.Add(1)
}

// IncScanClean increments the counter for scans that found nothing.
func IncScanClean() {
	scanCleanTotal.Add(1)
}

// IncScanFlagged increments the counter for scans that produced findings.
func IncScanFlagged() {
	scanFlaggedTotal.Add(1)
}

// IncScanFailed increments the counter for scans that ended in ERROR.
func IncScanFailed() {
	scanFailedTotal.Add(1)
}

// ObserveScanDurationMs records a scan duration in milliseconds.
func ObserveScanDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	scanDuration.Observe(value)
}

// IncScanJobsReceived increments the worker queue-message counter.
func IncScanJobsReceived() {
	scanJobsReceivedTotal.Add(1)
}

// IncScanJobsCompleted increments the worker completed-job counter.
func IncScanJobsCompleted() {
	scanJobsCompletedTotal.Add(1)
}

// IncScanJobsFailed increments the worker failed-job counter.
func IncScanJobsFailed() {
	scanJobsFailedTotal.Add(1)
}

// IncScanJobsDeletedUnrecoverable counts malformed messages dropped from the queue.
func IncScanJobsDeletedUnrecoverable() {
	scanJobsDeletedUnrecoverableTotal.Add(1)
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
	writeCounter(&buf, "scan_started_total", "Total document scans started", scanStartedTotal.Load())
	writeCounter(&buf, "scan_clean_total", "Total document scans with no findings", scanCleanTotal.Load())
	writeCounter(&buf, "scan_flagged_total", "Total document scans with findings", scanFlaggedTotal.Load())
	writeCounter(&buf, "scan_failed_total", "Total document scans that failed", scanFailedTotal.Load())
	writeHistogram(&buf, "scan_duration_ms", "Document scan duration in milliseconds", scanDuration.snapshot())
	writeCounter(&buf, "scan_jobs_received_total", "Total scan queue messages received", scanJobsReceivedTotal.Load())
	writeCounter(&buf, "scan_jobs_completed_total", "Total scan queue jobs completed", scanJobsCompletedTotal.Load())
	writeCounter(&buf, "scan_jobs_failed_total", "Total scan queue jobs that failed", scanJobsFailedTotal.Load())
	writeCounter(&buf, "scan_jobs_deleted_unrecoverable_total", "Total malformed scan messages dropped", scanJobsDeletedUnrecoverableTotal.Load())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
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
		}
	}
}

func (h *histogram) snapshot() *histogram {
	h.mu.Lock()
	defer h.mu.Unlock()
	return &histogram{
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

func writeHistogram(buf *bytes.Buffer, name, help string, snap *histogram) {
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

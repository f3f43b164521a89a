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
	healAttemptsTotal    atomic.Uint64
	healSucceededTotal   atomic.Uint64
	healFailedTotal      atomic.Uint64
	healPersistFailed    atomic.Uint64
	formattedServedTotal atomic.Uint64
	viewsRecordedTotal   atomic.Uint64
	viewsFailedTotal     atomic.Uint64
	portalNotFoundTotal  atomic.Uint64

	healDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncHealAttempt counts a raw-text resume sent to the structuring capability.
func IncHealAttempt() { healAttemptsTotal.Add(1) }

// IncHealSucceeded counts a structuring call that produced a valid resume.
func IncHealSucceeded() { healSucceededTotal.Add(1) }

// IncHealFailed counts a structuring call that errored or returned an invalid shape.
func IncHealFailed() { healFailedTotal.Add(1) }

// IncHealPersistFailed counts a healed resume whose write-back failed.
func IncHealPersistFailed() { healPersistFailed.Add(1) }

// IncFormattedServed counts page loads served from an already structured resume.
func IncFormattedServed() { formattedServedTotal.Add(1) }

func IncViewRecorded() { viewsRecordedTotal.Add(1) }

func IncViewFailed() { viewsFailedTotal.Add(1) }

func IncPortalNotFound() { portalNotFoundTotal.Add(1) }

// ObserveHealDurationMs records a structuring call duration in milliseconds.
func ObserveHealDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	healDuration.Observe(value)
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
	writeCounter(&buf, "resume_heal_attempts_total", "Raw resumes sent for structuring", healAttemptsTotal.Load())
	writeCounter(&buf, "resume_heal_succeeded_total", "Structuring calls that produced a valid resume", healSucceededTotal.Load())
	writeCounter(&buf, "resume_heal_failed_total", "Structuring calls that failed", healFailedTotal.Load())
	writeCounter(&buf, "resume_heal_persist_failed_total", "Healed resumes whose write-back failed", healPersistFailed.Load())
	writeCounter(&buf, "resume_formatted_served_total", "Page loads served from a stored structured resume", formattedServedTotal.Load())
	writeCounter(&buf, "deck_views_recorded_total", "Deck views recorded", viewsRecordedTotal.Load())
	writeCounter(&buf, "deck_views_failed_total", "Deck view writes that failed", viewsFailedTotal.Load())
	writeCounter(&buf, "portal_not_found_total", "Portal requests for unknown tenants or decks", portalNotFoundTotal.Load())
	writeHistogram(&buf, "resume_heal_duration_ms", "Structuring call duration in milliseconds", healDuration.Snapshot())
	return buf.String()
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
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
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

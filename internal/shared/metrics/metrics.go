package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	documentsProcessedTotal atomic.Uint64
	documentsFailedTotal    atomic.Uint64
	sectionsEmbeddedTotal   atomic.Uint64
	embeddingFailedTotal    atomic.Uint64
	chatRequestsTotal       atomic.Uint64
	chatDegradedTotal       atomic.Uint64

	ingestDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncDocumentProcessed increments the processed-documents counter.
func IncDocumentProcessed() {
	documentsProcessedTotal.Add(1)
}

// IncDocumentFailed increments the failed-documents counter.
func IncDocumentFailed() {
	documentsFailedTotal.Add(1)
}

// AddSectionsEmbedded adds to the embedded-sections counter.
func AddSectionsEmbedded(n int) {
	if n > 0 {
		sectionsEmbeddedTotal.Add(uint64(n))
	}
}

// IncEmbeddingFailed increments the embedding-failures counter.
func IncEmbeddingFailed() {
	embeddingFailedTotal.Add(1)
}

// IncChatRequest increments the chat-requests counter.
func IncChatRequest() {
	chatRequestsTotal.Add(1)
}

// IncChatDegraded increments the degraded-context chat counter.
func IncChatDegraded() {
	chatDegradedTotal.Add(1)
}

// ObserveIngestDurationMs records a document ingestion duration in milliseconds.
func ObserveIngestDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	ingestDuration.Observe(value)
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
	writeCounter(&buf, "documents_processed_total", "Total documents ingested", documentsProcessedTotal.Load())
	writeCounter(&buf, "documents_failed_total", "Total document ingestions failed", documentsFailedTotal.Load())
	writeCounter(&buf, "sections_embedded_total", "Total sections embedded", sectionsEmbeddedTotal.Load())
	writeCounter(&buf, "embedding_failed_total", "Total embedding passes failed", embeddingFailedTotal.Load())
	writeCounter(&buf, "chat_requests_total", "Total chat requests", chatRequestsTotal.Load())
	writeCounter(&buf, "chat_degraded_total", "Total chat requests with degraded context", chatDegradedTotal.Load())
	writeHistogram(&buf, "ingest_duration_ms", "Document ingestion duration in milliseconds", ingestDuration.Snapshot())
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

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}

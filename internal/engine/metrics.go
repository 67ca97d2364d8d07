package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the service.
var metrics struct {
	TranscriptRequests atomic.Int64
	TrackRequests      atomic.Int64
	MetadataRequests   atomic.Int64
	UpstreamRequests   atomic.Int64
	UpstreamErrors     atomic.Int64
}

func IncrTranscript()    { metrics.TranscriptRequests.Add(1) }
func IncrTracks()        { metrics.TrackRequests.Add(1) }
func IncrMetadata()      { metrics.MetadataRequests.Add(1) }
func IncrUpstream()      { metrics.UpstreamRequests.Add(1) }
func IncrUpstreamError() { metrics.UpstreamErrors.Add(1) }

// GetMetrics returns a snapshot of all counters, including cache stats.
func GetMetrics(cacheHits, cacheMisses int64) map[string]int64 {
	return map[string]int64{
		"transcript_requests": metrics.TranscriptRequests.Load(),
		"track_requests":      metrics.TrackRequests.Load(),
		"metadata_requests":   metrics.MetadataRequests.Load(),
		"upstream_requests":   metrics.UpstreamRequests.Load(),
		"upstream_errors":     metrics.UpstreamErrors.Load(),
		"cache_hits":          cacheHits,
		"cache_misses":        cacheMisses,
	}
}

// FormatMetrics renders counters as plain text for the metrics endpoint.
func FormatMetrics(cacheHits, cacheMisses int64) string {
	m := GetMetrics(cacheHits, cacheMisses)
	keys := []string{
		"transcript_requests", "track_requests", "metadata_requests",
		"upstream_requests", "upstream_errors",
		"cache_hits", "cache_misses",
	}
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

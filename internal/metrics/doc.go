// Package metrics collects per-route request metrics for the site server.
//
// Request handling emits events into a buffered channel; a single collector
// goroutine folds them into counters:
//   - requests per route (contact, preflight, static)
//   - HTTP status code distribution
//   - response times with percentiles (P50, P95, P99)
//   - connections aborted before a response (oversized submissions)
//
// Sends are non-blocking, so a full buffer drops events instead of slowing
// requests. On context cancellation the collector drains what is buffered.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventResponseCompleted,
//		Route:      "static",
//		Duration:   3 * time.Millisecond,
//		StatusCode: 200,
//	})
//
//	snapshot := collector.Snapshot()
package metrics

// Package tasks runs long feed operations with real-time progress reporting.
//
// # Bulk Parsing
//
// [FeedEngine.BulkParse] fetches many feeds through a [services.FeedParser]:
//
//   - a producer goroutine paces dispatch with a [rate.Limiter]
//   - a bounded pool of workers parses each feed and writes it with [formatter.WriteExport]
//   - the collector tallies results and writes a JSON manifest next to the exports
//
// Failures are per feed. A feed that cannot be fetched is recorded in the manifest and the
// remaining feeds still run. Cancelling the context stops dispatch; undispatched feeds are
// recorded as failed.
//
// # Progress Reporting
//
// Progress is reported on an optional channel of [ProgressUpdate]. Sends never block: when the
// channel is full the update is dropped.
package tasks

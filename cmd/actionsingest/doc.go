// Package main hosts the ingestion service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, and ingestion control endpoints. The trigger endpoint
//     is guarded by a shared cron secret and either starts the scheduler or runs a one-off check when the loop is
//     already active.
//   - Scheduler: internal/scheduler runs ingestion cycles on a fixed interval with an immediate first check. A
//     mutex serializes cycles, and a consecutive-failure counter disables the loop when it reaches the configured
//     threshold.
//   - Fetch pipeline: a lightweight Colly probe fetch is promoted to a headless Chromedp fetch when the heuristic
//     detector flags a script-heavy or interstitial response; alternatively a hosted rendering API returns
//     structured page data directly.
//   - Extraction & normalization: the extractor tries embedded JSON payloads first and falls back to goquery-based
//     HTML parsing; the normalizer derives identifiers, resolves document types, parses dates against the floor,
//     and classifies categories and agencies by keyword.
//   - Persistence & fanout: new documents are written to Postgres in a single transaction per cycle, optionally
//     mirrored to Redis in fixed-size pipeline chunks, raw listing snapshots archived to the configured BlobStore
//     (local/GCS), and a compact Pub/Sub event published when a topic is configured.
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging; Prometheus
//     metrics are exported via the telemetry middleware and /metrics handler.
//
// Operational notes:
//   - Concurrency model: one cycle at a time; detail-page enrichment fans out inside a cycle with a bounded
//     errgroup. Shutdown is coordinated via context cancellation propagated from main through the scheduler.
//   - Observability: zap logs carry run IDs and URLs at key transitions; Prometheus counters/histograms track
//     cycle outcomes, extraction and persistence volume, and API activity.
//   - Cloud Run: the HTTP server listens on the configured port, health endpoints remain lightweight, and the
//     process reacts to SIGTERM for graceful drain with in-flight cycles allowed to finish.
//
// Run locally: go run ./cmd/actionsingest -config config.yaml (or rely solely on INGEST_* env overrides).
package main

// Package telemetry persists error logs to Parquet and exposes Prometheus
// metrics for the question answering and ingestion paths.
package telemetry

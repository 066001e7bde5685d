// Package metrics records build and stage metrics for the post pipeline.
//
// Components receive a Recorder and default to NoopRecorder, so metrics
// collection never needs nil checks at call sites:
//
//	b := index.NewBuilder(opts) // uses metrics.NoopRecorder{}
//	b.Recorder = metrics.NewPrometheusRecorder(reg)
//
// The CLI is a one-shot process, so there is no scrape endpoint. When
// metrics.textfile is configured the registry is written once per build in
// the node_exporter textfile format (WriteTextfile).
package metrics

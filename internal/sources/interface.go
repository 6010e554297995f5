// Package sources provides the line-source backends that feed raw telemetry
// lines into the ingestion queue.
package sources

// Source is an interface that provides standard methods for the various
// telemetry line-source backends. A source owns its own reader goroutine and
// pushes newline-delimited records into the shared queue; it never consumes
// from it.
type Source interface {
	StartSource() error
	SourceName() string
}

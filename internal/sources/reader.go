package sources

import (
	"bufio"
	"bytes"
	"context"
	"io"
)

// maxLineSize bounds a single telemetry line. Decoder frames are a few
// hundred bytes; anything near this limit is garbage, but a bigger buffer is
// cheaper than a scan error.
const maxLineSize = 1024 * 1024

// EnqueueLines reads newline-delimited data from r and pushes one queue entry
// per non-blank line until EOF, a read error, or context cancellation. Each
// pushed slice is a copy, safe to hold after the next scan.
func EnqueueLines(ctx context.Context, r io.Reader, queue chan<- []byte) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		line := make([]byte, len(raw))
		copy(line, raw)

		select {
		case queue <- line:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return scanner.Err()
}

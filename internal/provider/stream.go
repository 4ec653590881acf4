package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/planforge/planforge/internal/apperr"
)

const (
	connectTimeout  = 5 * time.Second
	stallTimeout    = 60 * time.Second
	requestTimeout  = 300 * time.Second
	defaultChunkLen = 4096
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// lineBuffer reassembles newline-delimited frames whose bytes may split at
// any offset across network reads. Returned lines are trimmed copies, safe to
// retain across subsequent feeds.
type lineBuffer struct {
	rest []byte
}

func (b *lineBuffer) feed(p []byte) [][]byte {
	b.rest = append(b.rest, p...)

	var lines [][]byte
	for {
		i := bytes.IndexByte(b.rest, '\n')
		if i < 0 {
			return lines
		}
		line := bytes.TrimSpace(b.rest[:i])
		b.rest = b.rest[i+1:]
		if len(line) > 0 {
			lines = append(lines, append([]byte(nil), line...))
		}
	}
}

// flush returns any trailing unterminated line and resets the buffer.
func (b *lineBuffer) flush() []byte {
	line := bytes.TrimSpace(b.rest)
	b.rest = nil
	if len(line) == 0 {
		return nil
	}
	return append([]byte(nil), line...)
}

// consumeLines drives a streaming read loop over body, invoking handle for
// every complete line. handle returning true stops the loop cleanly.
//
// ctx is the caller's context and is checked before committing to each read.
// watchdog is reset to stall after every completed read; when it fires it
// cancels the request context, which surfaces here as a read error with ctx
// still live. That is reported as StreamInterrupted, distinct from caller
// cancellation.
func consumeLines(ctx context.Context, body io.Reader, watchdog *time.Timer, stall time.Duration, handle func(line []byte) bool) error {
	var buf lineBuffer
	chunk := make([]byte, defaultChunkLen)

	for {
		select {
		case <-ctx.Done():
			return apperr.Wrap(apperr.Cancelled, "response cancelled", ctx.Err())
		default:
		}

		n, err := body.Read(chunk)
		if watchdog != nil {
			watchdog.Reset(stall)
		}
		if n > 0 {
			for _, line := range buf.feed(chunk[:n]) {
				if handle(line) {
					return nil
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if tail := buf.flush(); tail != nil {
					handle(tail)
				}
				return nil
			}
			if ctx.Err() != nil {
				return apperr.Wrap(apperr.Cancelled, "response cancelled", ctx.Err())
			}
			return apperr.Wrap(apperr.StreamInterrupted, "response stream interrupted", err)
		}
	}
}

// snippet truncates a response body for error messages.
func snippet(b []byte) string {
	const max = 200
	s := string(bytes.TrimSpace(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

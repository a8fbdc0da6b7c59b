package fetch

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/andybalholm/brotli"
)

// Open issues a rate-limited GET for a large document and returns the
// decompressed body as a stream. Only connection establishment is
// retried; once a body is handed to the caller, a mid-stream failure
// belongs to that hospital alone.
//
// The stream carries a stall timeout: if no chunk completes within the
// configured window the underlying request is cancelled and subsequent
// reads fail with a *FetchError.
func (c *Client) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	var lastErr error
	var lastStatus int
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if err := c.gate.Wait(ctx); err != nil {
			return nil, err
		}

		// Per-stream context: a stalled download cancels this without
		// touching the caller's run context.
		streamCtx, cancel := context.WithCancel(ctx)

		req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, rawURL, nil)
		if err != nil {
			cancel()
			return nil, &FetchError{URL: rawURL, Err: err}
		}
		// Ask for compressed transfer; both encodings are decoded below.
		req.Header.Set("Accept-Encoding", "gzip, br")

		resp, err := c.streamClient().Do(req)
		if err != nil {
			cancel()
			if !isRetryableNetErr(err) {
				return nil, &FetchError{URL: rawURL, Err: err}
			}
			lastErr = err
			c.backoff(ctx, attempt, 0)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := readAndClose(resp.Body)
			cancel()
			statusErr := fmt.Errorf("unexpected status %s: %s", resp.Status, snippet(body, 300))
			if !isRetryableStatus(resp.StatusCode) {
				return nil, &FetchError{URL: rawURL, Status: resp.StatusCode, Err: statusErr}
			}
			lastErr, lastStatus = statusErr, resp.StatusCode
			c.backoff(ctx, attempt, parseRetryAfter(resp))
			continue
		}

		return newBodyStream(resp, rawURL, c.stall, cancel)
	}

	return nil, &FetchError{URL: rawURL, Status: lastStatus, Err: fmt.Errorf("giving up after %d attempts: %w", c.retry.MaxAttempts, lastErr)}
}

// streamClient returns an http.Client without the per-call deadline;
// large MRF downloads are bounded by the stall timeout instead.
func (c *Client) streamClient() *http.Client {
	return &http.Client{Transport: c.http.Transport}
}

// bodyStream decorates a response body with stall detection and
// transparent gzip/brotli decoding.
type bodyStream struct {
	reader  io.Reader
	body    io.Closer
	cancel  context.CancelFunc
	timer   *time.Timer
	stalled atomic.Bool
	url     string
	stall   time.Duration
}

func newBodyStream(resp *http.Response, rawURL string, stall time.Duration, cancel context.CancelFunc) (io.ReadCloser, error) {
	s := &bodyStream{
		body:   resp.Body,
		cancel: cancel,
		url:    rawURL,
		stall:  stall,
	}
	if stall > 0 {
		s.timer = time.AfterFunc(stall, func() {
			s.stalled.Store(true)
			cancel()
		})
	}

	// Stall detection wraps the raw network body, so a stuck transfer
	// trips the timer even while a decompressor is mid-block.
	raw := io.Reader(&stallReader{stream: s, r: resp.Body})

	decoded, err := decodeBody(raw, resp, rawURL)
	if err != nil {
		s.Close()
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	s.reader = decoded
	return s, nil
}

func (s *bodyStream) Read(p []byte) (int, error) {
	n, err := s.reader.Read(p)
	if err != nil && err != io.EOF && s.stalled.Load() {
		return n, &FetchError{URL: s.url, Err: fmt.Errorf("download stalled: no chunk within %s", s.stall)}
	}
	return n, err
}

func (s *bodyStream) Close() error {
	if s.timer != nil {
		s.timer.Stop()
	}
	err := s.body.Close()
	s.cancel()
	return err
}

// stallReader resets the stall timer every time a chunk completes.
type stallReader struct {
	stream *bodyStream
	r      io.Reader
}

func (sr *stallReader) Read(p []byte) (int, error) {
	n, err := sr.r.Read(p)
	if sr.stream.timer != nil && (err == nil || err == io.EOF) {
		sr.stream.timer.Reset(sr.stream.stall)
	}
	return n, err
}

// decodeBody picks a decompressor from the response encoding, the URL
// suffix, or the gzip magic bytes. Plain bodies pass through buffered.
func decodeBody(raw io.Reader, resp *http.Response, rawURL string) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		return gzip.NewReader(raw)
	case "br":
		return brotli.NewReader(raw), nil
	}

	br := bufio.NewReaderSize(raw, 256*1024)
	if strings.HasSuffix(strings.ToLower(strippedPath(rawURL)), ".gz") {
		return gzip.NewReader(br)
	}
	if magic, err := br.Peek(2); err == nil && len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(br)
	}
	return br, nil
}

func strippedPath(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

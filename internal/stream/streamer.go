// Package stream is the live-proxy delivery path: it resolves a direct
// media URL for a completed proxy-mode record and relays upstream bytes
// to the client without buffering the whole file or touching disk.
package stream

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"video-downloader/internal/format"
	"video-downloader/internal/record"
	"video-downloader/internal/ytdlp"
)

// Extractor is the metadata-only slice of the extraction engine the
// streamer needs.
type Extractor interface {
	ExtractInfo(ctx context.Context, url string, opts ytdlp.InfoOptions) (*ytdlp.Info, error)
}

// UpstreamError reports a non-2xx response from the resolved direct URL.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

type Streamer struct {
	engine    Extractor
	cache     *URLCache
	client    *http.Client
	headers   map[string]string
	chunkSize int
}

func NewStreamer(engine Extractor, cache *URLCache, headers map[string]string, timeout time.Duration, chunkSize int) *Streamer {
	if chunkSize <= 0 {
		chunkSize = 512 * 1024
	}
	// The timeout bounds connect and the wait for response headers. A
	// client-level Timeout would cover the whole body read and cut off
	// any relay that runs longer than it, so the transfer itself stays
	// unbounded while bytes flow.
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}
	return &Streamer{
		engine:    engine,
		cache:     cache,
		client:    &http.Client{Transport: transport},
		headers:   headers,
		chunkSize: chunkSize,
	}
}

// Resolve returns a direct-fetch URL for the record, reusing the cached
// entry when fresh and re-invoking the engine on miss or expiry. The
// selector is rebuilt from the record's stored quality, same as at
// creation time.
func (s *Streamer) Resolve(ctx context.Context, rec *record.DownloadRecord) (string, error) {
	if u, ok := s.cache.Get(rec.ID); ok {
		return u, nil
	}

	info, err := s.engine.ExtractInfo(ctx, rec.URL, ytdlp.InfoOptions{
		Selector: format.StreamSelector(rec.Quality),
		Headers:  s.headers,
	})
	if err != nil {
		return "", err
	}

	direct, err := PickProgressiveURL(info)
	if err != nil {
		return "", err
	}

	s.cache.Set(rec.ID, direct)
	return direct, nil
}

// Relay copies the media at directURL to w in fixed-size chunks. The
// upstream connection is released on every exit path; a failed downstream
// write aborts the upstream fetch promptly. HLS playlists are resolved to
// their best variant and relayed segment by segment.
func (s *Streamer) Relay(ctx context.Context, directURL string, w http.ResponseWriter) error {
	if looksLikePlaylist(directURL) {
		return s.relayHLS(ctx, directURL, w)
	}

	resp, err := s.fetch(ctx, directURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)

	return s.copyChunks(w, resp.Body)
}

func (s *Streamer) relayHLS(ctx context.Context, playlistURL string, w http.ResponseWriter) error {
	plan, err := s.fetchPlaylist(ctx, playlistURL)
	if err != nil {
		return err
	}

	// A master playlist points at variant playlists; one more hop
	// reaches the media playlist with actual segments.
	if plan.variantURL != "" {
		plan, err = s.fetchPlaylist(ctx, plan.variantURL)
		if err != nil {
			return err
		}
		if plan.variantURL != "" {
			return fmt.Errorf("%w: nested master playlists", ErrNoStreamableURL)
		}
	}

	w.Header().Set("Content-Type", "video/mp2t")
	w.WriteHeader(http.StatusOK)

	for _, segURL := range plan.segmentURLs {
		resp, err := s.fetch(ctx, segURL)
		if err != nil {
			return err
		}
		copyErr := s.copyChunks(w, resp.Body)
		resp.Body.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return nil
}

func (s *Streamer) fetchPlaylist(ctx context.Context, rawURL string) (*hlsPlan, error) {
	resp, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse playlist url: %w", err)
	}
	return parseHLS(resp.Body, base)
}

// fetch opens an upstream request with impersonation headers. Callers own
// the response body on success.
func (s *Streamer) fetch(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream fetch: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func (s *Streamer) copyChunks(w http.ResponseWriter, body io.Reader) error {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, s.chunkSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				// Client went away; stop draining upstream.
				return writeErr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

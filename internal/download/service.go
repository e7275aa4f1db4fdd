// Package download commits delivery plans: it opens a download record,
// runs either the stored-file pipeline or the proxy-mode metadata flow,
// and finalizes the record exactly once.
package download

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"video-downloader/internal/ffmpeg"
	"video-downloader/internal/format"
	"video-downloader/internal/record"
	"video-downloader/internal/stream"
	"video-downloader/internal/ytdlp"
)

// ErrMissingOutput means the engine reported success but no file matching
// the expected naming convention was found on disk.
var ErrMissingOutput = errors.New("downloaded file not found")

// Extractor is the slice of the extraction engine the service drives.
type Extractor interface {
	ExtractInfo(ctx context.Context, url string, opts ytdlp.InfoOptions) (*ytdlp.Info, error)
	Download(ctx context.Context, url string, opts ytdlp.DownloadOptions) error
}

// Store owns record lifecycle persistence.
type Store interface {
	Create(rec *record.DownloadRecord) error
	Finalize(id, filePath string, fileSize int64) error
	MarkFailed(id string) error
}

// URLCache receives resolved direct URLs for proxy-mode records.
type URLCache interface {
	Set(id, url string)
}

type Mode string

const (
	ModeFile   Mode = "file"
	ModeStream Mode = "stream"
)

// Result describes a committed and finalized plan.
type Result struct {
	Record    *record.DownloadRecord
	Mode      Mode
	Filename  string
	Size      int64
	DirectURL string
}

type Service struct {
	engine       Extractor
	store        Store
	cache        URLCache
	downloadsDir string
	headers      map[string]string
}

func NewService(engine Extractor, store Store, cache URLCache, downloadsDir string, headers map[string]string) *Service {
	return &Service{
		engine:       engine,
		store:        store,
		cache:        cache,
		downloadsDir: downloadsDir,
		headers:      headers,
	}
}

// DownloadVideo runs the full video plan for url. Proxy-classified
// platforms never touch disk; everything else goes through the
// stored-file pipeline with a selector shaped by quality and transcoder
// availability.
func (s *Service) DownloadVideo(ctx context.Context, url, quality, container string, ff ffmpeg.Capability) (*Result, error) {
	if format.ProxyOnly(url) {
		return s.streamPlan(ctx, url, quality)
	}

	selector := format.Selector(url, quality, ff.Available)

	opts := ytdlp.DownloadOptions{Selector: selector}
	if ff.Available {
		opts.MergeFormat = container
		opts.FFmpegDir = ff.Dir
	}

	return s.storedPlan(ctx, url, quality, "video_", selector, opts)
}

// DownloadAudio runs the audio-only plan. Without a transcoder the file
// is kept in its original container instead of being converted.
func (s *Service) DownloadAudio(ctx context.Context, url, audioFormat string, ff ffmpeg.Capability) (*Result, error) {
	if format.ProxyOnly(url) {
		// Same quality marker as the stored path so history tells audio
		// requests apart. The stream selector treats it as "best".
		return s.streamPlan(ctx, url, "audio")
	}

	selector := format.AudioSelector(ff.Available)

	opts := ytdlp.DownloadOptions{Selector: selector}
	if ff.Available {
		opts.ExtractAudio = true
		opts.AudioFormat = audioFormat
		opts.FFmpegDir = ff.Dir
	}

	return s.storedPlan(ctx, url, "audio", "audio_", selector, opts)
}

// DirectURL resolves a direct-fetch URL without downloading and without
// creating a record.
func (s *Service) DirectURL(ctx context.Context, url, quality string) (*ytdlp.Info, string, error) {
	info, err := s.engine.ExtractInfo(ctx, url, ytdlp.InfoOptions{Selector: format.DirectSelector(quality)})
	if err != nil {
		return nil, "", err
	}

	direct := info.URL
	if direct == "" {
		for i := len(info.Formats) - 1; i >= 0; i-- {
			if u := info.Formats[i].URL; u != "" {
				direct = u
				break
			}
		}
	}
	if direct == "" {
		direct = info.WebpageURL
	}
	return info, direct, nil
}

// streamPlan is the proxy-mode commit: metadata-only extraction, record
// created directly as completed with empty file fields, direct URL cached
// under the new record id.
func (s *Service) streamPlan(ctx context.Context, url, quality string) (*Result, error) {
	info, err := s.engine.ExtractInfo(ctx, url, ytdlp.InfoOptions{
		Selector: format.StreamSelector(quality),
		Headers:  s.headers,
	})
	if err != nil {
		return nil, err
	}

	direct, err := stream.PickProgressiveURL(info)
	if err != nil {
		return nil, err
	}

	rec := &record.DownloadRecord{
		ID:        uuid.NewString(),
		URL:       url,
		Title:     info.Title,
		Platform:  info.ExtractorKey,
		Thumbnail: info.Thumbnail,
		Duration:  int64(info.Duration),
		Quality:   quality,
		Status:    record.StatusCompleted,
	}
	if err := s.store.Create(rec); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	s.cache.Set(rec.ID, direct)

	return &Result{Record: rec, Mode: ModeStream, DirectURL: direct}, nil
}

// storedPlan is the stored-file commit: record opened as downloading,
// engine invoked against a uuid-named output template, output located by
// prefix scan, record finalized with path and size.
func (s *Service) storedPlan(ctx context.Context, url, quality, kind, selector string, opts ytdlp.DownloadOptions) (*Result, error) {
	if err := os.MkdirAll(s.downloadsDir, 0755); err != nil {
		return nil, fmt.Errorf("create downloads directory: %w", err)
	}

	// uuid in the template keeps concurrent requests from picking up
	// each other's output during the prefix scan.
	prefix := kind + uuid.NewString()
	opts.OutputTemplate = filepath.Join(s.downloadsDir, prefix+".%(ext)s")

	info, err := s.engine.ExtractInfo(ctx, url, ytdlp.InfoOptions{Selector: selector})
	if err != nil {
		// No record exists yet; surface directly.
		return nil, err
	}

	rec := &record.DownloadRecord{
		ID:        uuid.NewString(),
		URL:       url,
		Title:     info.Title,
		Platform:  info.ExtractorKey,
		Thumbnail: info.Thumbnail,
		Duration:  int64(info.Duration),
		Quality:   quality,
		Status:    record.StatusDownloading,
	}
	if err := s.store.Create(rec); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	filename, size, err := s.acquire(ctx, url, opts, prefix)
	if err != nil {
		s.fail(rec.ID)
		return nil, err
	}

	filePath := "downloads/" + filename
	if err := s.store.Finalize(rec.ID, filePath, size); err != nil {
		s.fail(rec.ID)
		return nil, fmt.Errorf("finalize record: %w", err)
	}
	rec.FilePath = filePath
	rec.FileSize = size
	rec.Status = record.StatusCompleted

	return &Result{Record: rec, Mode: ModeFile, Filename: filename, Size: size}, nil
}

// acquire invokes the engine in download mode and locates the output by
// its prefix. Zero matches is a hard failure, never silent success.
func (s *Service) acquire(ctx context.Context, url string, opts ytdlp.DownloadOptions, prefix string) (string, int64, error) {
	if err := s.engine.Download(ctx, url, opts); err != nil {
		return "", 0, err
	}

	entries, err := os.ReadDir(s.downloadsDir)
	if err != nil {
		return "", 0, fmt.Errorf("scan downloads directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return "", 0, fmt.Errorf("stat downloaded file: %w", err)
		}
		return entry.Name(), fi.Size(), nil
	}
	return "", 0, ErrMissingOutput
}

// fail is the best-effort failure transition. A secondary error here is
// logged and discarded so it never masks the original failure.
func (s *Service) fail(id string) {
	if err := s.store.MarkFailed(id); err != nil {
		log.Printf("record %s: could not mark failed: %v", id, err)
	}
}

// Package ytdlp drives the external extraction engine over exec. The
// engine resolves a source URL into metadata plus candidate formats and
// can perform the actual download, invoking ffmpeg itself when a merge
// postprocessing step is configured.
package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"
)

var (
	// ErrFormatUnavailable means the URL resolved but the requested
	// selector matched no candidate format.
	ErrFormatUnavailable = errors.New("requested format is not available")
	// ErrTranscoderRequired means the download needed a merge/convert
	// step but ffmpeg is missing.
	ErrTranscoderRequired = errors.New("ffmpeg is required for this download")
)

// Format is one candidate media format reported by the engine.
type Format struct {
	FormatID   string  `json:"format_id"`
	FormatNote string  `json:"format_note"`
	Ext        string  `json:"ext"`
	Filesize   int64   `json:"filesize"`
	Resolution string  `json:"resolution"`
	FPS        float64 `json:"fps"`
	VCodec     string  `json:"vcodec"`
	ACodec     string  `json:"acodec"`
	URL        string  `json:"url"`
	Height     int     `json:"height"`
}

// HasVideo reports whether the format carries a video track.
func (f Format) HasVideo() bool { return f.VCodec != "" && f.VCodec != "none" }

// HasAudio reports whether the format carries an audio track.
func (f Format) HasAudio() bool { return f.ACodec != "" && f.ACodec != "none" }

// Info is the engine's structured result for a single media page.
type Info struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Thumbnail    string   `json:"thumbnail"`
	Duration     float64  `json:"duration"`
	Uploader     string   `json:"uploader"`
	Channel      string   `json:"channel"`
	UploadDate   string   `json:"upload_date"`
	ViewCount    int64    `json:"view_count"`
	Description  string   `json:"description"`
	ExtractorKey string   `json:"extractor_key"`
	WebpageURL   string   `json:"webpage_url"`
	URL          string   `json:"url"`
	Ext          string   `json:"ext"`
	Formats      []Format `json:"formats"`
}

type Client struct {
	bin string
}

func NewClient(bin string) *Client {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &Client{bin: bin}
}

// InfoOptions control a metadata-only extraction.
type InfoOptions struct {
	Selector string
	Headers  map[string]string
}

// DownloadOptions control a download-mode invocation.
type DownloadOptions struct {
	Selector       string
	OutputTemplate string
	MergeFormat    string // container passed to --merge-output-format, "" to skip
	FFmpegDir      string // passed to --ffmpeg-location, "" to skip
	ExtractAudio   bool
	AudioFormat    string
}

// ExtractInfo resolves url in metadata-only mode. No file is written.
func (c *Client) ExtractInfo(ctx context.Context, url string, opts InfoOptions) (*Info, error) {
	args := []string{"--dump-single-json", "--no-playlist", "--no-warnings", "--no-check-certificates"}
	if opts.Selector != "" {
		args = append(args, "-f", opts.Selector)
	}
	args = append(args, headerArgs(opts.Headers)...)
	args = append(args, url)

	out, err := c.run(ctx, args)
	if err != nil {
		return nil, err
	}

	var info Info
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("decode engine output: %w", err)
	}
	if info.Uploader == "" {
		info.Uploader = info.Channel
	}
	return &info, nil
}

// Download runs the engine in download mode against the given output
// template. Blocking for the full duration of the transfer.
func (c *Client) Download(ctx context.Context, url string, opts DownloadOptions) error {
	args := []string{"--no-playlist", "--no-warnings", "--no-check-certificates"}
	if opts.Selector != "" {
		args = append(args, "-f", opts.Selector)
	}
	if opts.OutputTemplate != "" {
		args = append(args, "-o", opts.OutputTemplate)
	}
	if opts.MergeFormat != "" {
		args = append(args, "--merge-output-format", opts.MergeFormat)
	}
	if opts.FFmpegDir != "" {
		args = append(args, "--ffmpeg-location", opts.FFmpegDir)
	}
	if opts.ExtractAudio {
		args = append(args, "-x", "--audio-format", opts.AudioFormat, "--audio-quality", "192K")
	}
	args = append(args, url)

	_, err := c.run(ctx, args)
	return err
}

// Extractors lists the names of the engine's supported site extractors.
func (c *Client) Extractors(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, []string{"--list-extractors"})
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Version returns the engine version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := c.run(ctx, []string{"--version"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func headerArgs(headers map[string]string) []string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var args []string
	for _, k := range keys {
		args = append(args, "--add-headers", fmt.Sprintf("%s:%s", k, headers[k]))
	}
	return args
}

// classify maps engine stderr to the error taxonomy so callers can pick
// the right recovery message.
func classify(err error) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("extraction engine: %w", err)
	}
	return classifyStderr(string(exitErr.Stderr))
}

func classifyStderr(stderr string) error {
	lower := strings.ToLower(stderr)
	detail := lastLine(stderr)

	switch {
	case strings.Contains(stderr, "Requested format is not available"):
		return fmt.Errorf("%w: %s", ErrFormatUnavailable, detail)
	case strings.Contains(lower, "ffmpeg") || strings.Contains(lower, "merging"):
		return fmt.Errorf("%w: %s", ErrTranscoderRequired, detail)
	default:
		return fmt.Errorf("extraction engine failed: %s", detail)
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

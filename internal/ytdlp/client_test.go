package ytdlp

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestClassifyStderr(t *testing.T) {
	tests := []struct {
		stderr string
		want   error
	}{
		{"ERROR: [youtube] abc: Requested format is not available. Use --list-formats", ErrFormatUnavailable},
		{"ERROR: You have requested merging of formats but ffmpeg is not installed", ErrTranscoderRequired},
		{"ERROR: ffmpeg not found. Please install", ErrTranscoderRequired},
		{"ERROR: [youtube] abc: Video unavailable", nil},
	}

	for _, tt := range tests {
		err := classifyStderr(tt.stderr)
		if tt.want == nil {
			if errors.Is(err, ErrFormatUnavailable) || errors.Is(err, ErrTranscoderRequired) {
				t.Errorf("classifyStderr(%q) = %v, want generic", tt.stderr, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("classifyStderr(%q) = %v, want %v", tt.stderr, err, tt.want)
		}
	}
}

func TestLastLine(t *testing.T) {
	in := "WARNING: something\nERROR: the real problem\n"
	if got := lastLine(in); got != "ERROR: the real problem" {
		t.Errorf("lastLine = %q", got)
	}
	if got := lastLine(""); got != "" {
		t.Errorf("lastLine(empty) = %q", got)
	}
}

func TestHeaderArgsDeterministic(t *testing.T) {
	headers := map[string]string{
		"User-Agent":      "ua",
		"Accept-Language": "en-US",
		"Referer":         "https://www.tiktok.com/",
	}

	got := headerArgs(headers)
	want := []string{
		"--add-headers", "Accept-Language:en-US",
		"--add-headers", "Referer:https://www.tiktok.com/",
		"--add-headers", "User-Agent:ua",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("headerArgs = %v", got)
	}
}

func TestInfoDecoding(t *testing.T) {
	payload := `{
		"id": "abc",
		"title": "Test",
		"duration": 42.5,
		"channel": "SomeChannel",
		"extractor_key": "Youtube",
		"formats": [
			{"format_id": "18", "ext": "mp4", "vcodec": "h264", "acodec": "aac", "height": 360},
			{"format_id": "137", "ext": "mp4", "vcodec": "h264", "acodec": "none", "height": 1080}
		]
	}`

	var info Info
	if err := json.Unmarshal([]byte(payload), &info); err != nil {
		t.Fatal(err)
	}

	if info.ID != "abc" || info.Duration != 42.5 || info.ExtractorKey != "Youtube" {
		t.Errorf("info = %+v", info)
	}
	if !info.Formats[0].HasVideo() || !info.Formats[0].HasAudio() {
		t.Errorf("combined format flags wrong: %+v", info.Formats[0])
	}
	if !info.Formats[1].HasVideo() || info.Formats[1].HasAudio() {
		t.Errorf("video-only format flags wrong: %+v", info.Formats[1])
	}
}

func TestFormatCodecFlags(t *testing.T) {
	if (Format{}).HasVideo() || (Format{}).HasAudio() {
		t.Error("empty codecs must not count as present")
	}
	if (Format{VCodec: "none", ACodec: "none"}).HasVideo() {
		t.Error("vcodec none counted as video")
	}
}

func TestNewClientDefaultsBinary(t *testing.T) {
	c := NewClient("")
	if c.bin != "yt-dlp" {
		t.Errorf("bin = %q", c.bin)
	}
	c = NewClient("/opt/yt-dlp/yt-dlp")
	if !strings.HasSuffix(c.bin, "yt-dlp") {
		t.Errorf("bin = %q", c.bin)
	}
}

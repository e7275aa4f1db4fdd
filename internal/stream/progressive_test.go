package stream

import (
	"errors"
	"testing"

	"video-downloader/internal/ytdlp"
)

func TestPickProgressiveURLTopLevelMP4(t *testing.T) {
	info := &ytdlp.Info{
		URL: "https://cdn.example/top.mp4",
		Ext: "mp4",
		Formats: []ytdlp.Format{
			{URL: "https://cdn.example/other.mp4", Ext: "mp4", VCodec: "h264", ACodec: "aac"},
		},
	}
	got, err := PickProgressiveURL(info)
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://cdn.example/top.mp4" {
		t.Errorf("got %q, want top-level url", got)
	}
}

func TestPickProgressiveURLLastCombinedFormat(t *testing.T) {
	// Formats are ordered worst-first; the later combined mp4 wins.
	info := &ytdlp.Info{
		Formats: []ytdlp.Format{
			{URL: "https://cdn.example/low.mp4", Ext: "mp4", VCodec: "h264", ACodec: "aac"},
			{URL: "https://cdn.example/video-only.mp4", Ext: "mp4", VCodec: "h264", ACodec: "none"},
			{URL: "https://cdn.example/high.mp4", Ext: "mp4", VCodec: "h264", ACodec: "aac"},
			{URL: "https://cdn.example/best.webm", Ext: "webm", VCodec: "vp9", ACodec: "opus"},
		},
	}
	got, err := PickProgressiveURL(info)
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://cdn.example/high.mp4" {
		t.Errorf("got %q, want best combined mp4", got)
	}
}

func TestPickProgressiveURLFallsBackToAnyTopLevel(t *testing.T) {
	info := &ytdlp.Info{
		URL: "https://cdn.example/stream.webm",
		Ext: "webm",
		Formats: []ytdlp.Format{
			{URL: "https://cdn.example/video-only.webm", Ext: "webm", VCodec: "vp9", ACodec: "none"},
		},
	}
	got, err := PickProgressiveURL(info)
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://cdn.example/stream.webm" {
		t.Errorf("got %q, want top-level fallback", got)
	}
}

func TestPickProgressiveURLFallsBackToAnyFormat(t *testing.T) {
	info := &ytdlp.Info{
		Formats: []ytdlp.Format{
			{URL: "", Ext: "mp4"},
			{URL: "https://cdn.example/only.webm", Ext: "webm", VCodec: "vp9", ACodec: "none"},
		},
	}
	got, err := PickProgressiveURL(info)
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://cdn.example/only.webm" {
		t.Errorf("got %q, want any-url fallback", got)
	}
}

func TestPickProgressiveURLNoMatch(t *testing.T) {
	info := &ytdlp.Info{Formats: []ytdlp.Format{{Ext: "mp4"}}}
	_, err := PickProgressiveURL(info)
	if !errors.Is(err, ErrNoStreamableURL) {
		t.Errorf("got %v, want ErrNoStreamableURL", err)
	}
}

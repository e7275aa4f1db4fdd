package stream

import (
	"errors"
	"strings"

	"video-downloader/internal/ytdlp"
)

// ErrNoStreamableURL means the engine resolved the page but offered no
// URL suitable for a live relay.
var ErrNoStreamableURL = errors.New("no streamable URL found")

// PickProgressiveURL picks a single-file (audio+video together) URL from
// an extraction result. The engine lists formats worst-first, so the
// scans walk the list backwards. Priority: top-level mp4 URL, then the
// best mp4 format with both codecs, then any top-level URL, then the
// best format with any URL at all.
func PickProgressiveURL(info *ytdlp.Info) (string, error) {
	if info.URL != "" && (info.Ext == "mp4" || strings.Contains(info.URL, ".mp4")) {
		return info.URL, nil
	}

	for i := len(info.Formats) - 1; i >= 0; i-- {
		f := info.Formats[i]
		if f.URL == "" {
			continue
		}
		if f.Ext == "mp4" && f.HasVideo() && f.HasAudio() {
			return f.URL, nil
		}
	}

	if info.URL != "" {
		return info.URL, nil
	}
	for i := len(info.Formats) - 1; i >= 0; i-- {
		if u := info.Formats[i].URL; u != "" {
			return u, nil
		}
	}

	return "", ErrNoStreamableURL
}

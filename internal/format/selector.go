// Package format builds yt-dlp format selector expressions from the
// target URL, the requested quality tier and transcoder availability.
// Selector chains are tried left-to-right by yt-dlp and, with one
// deliberate exception for height-capped platforms without a transcoder,
// end in an unconditional "best" so extraction never fails on
// constraints alone.
package format

import (
	"fmt"
	"strings"
)

// Platform is a closed classification of how a site serves media.
type Platform int

const (
	// PlatformDefault supports separate video+audio elementary streams
	// (YouTube and most sites).
	PlatformDefault Platform = iota
	// PlatformProgressive serves only ephemeral progressive URLs that
	// must be proxied, never stored (TikTok).
	PlatformProgressive
	// PlatformCoerce serves pre-merged streams; we only coerce the
	// container (Facebook, Instagram).
	PlatformCoerce
	// PlatformCapped supports height-capped combined streams but no
	// useful separate elementary streams (Twitter/X).
	PlatformCapped
)

var platformHosts = []struct {
	class Platform
	hosts []string
}{
	{PlatformProgressive, []string{"tiktok.com", "vm.tiktok.com", "vt.tiktok.com"}},
	{PlatformCoerce, []string{"facebook.com", "fb.watch", "fb.com", "instagram.com"}},
	{PlatformCapped, []string{"twitter.com", "x.com"}},
}

// Classify maps a URL to its platform class by host substring match.
// Pure: the same URL always yields the same class.
func Classify(rawURL string) Platform {
	u := strings.ToLower(rawURL)
	for _, p := range platformHosts {
		for _, h := range p.hosts {
			if strings.Contains(u, h) {
				return p.class
			}
		}
	}
	return PlatformDefault
}

// ProxyOnly reports whether media from this URL must be relayed live and
// never written to disk.
func ProxyOnly(rawURL string) bool {
	return Classify(rawURL) == PlatformProgressive
}

// height maps a quality tier to its max pixel height. Unknown tiers
// degrade to 0, which means unconstrained "best".
func height(quality string) int {
	switch strings.ToLower(quality) {
	case "1080p", "1080":
		return 1080
	case "720p", "720":
		return 720
	case "480p", "480":
		return 480
	case "360p", "360":
		return 360
	default:
		return 0
	}
}

// Selector returns the format selector expression for a stored download.
func Selector(rawURL, quality string, hasTranscoder bool) string {
	h := height(quality)

	switch Classify(rawURL) {
	case PlatformProgressive:
		return StreamSelector(quality)

	case PlatformCoerce:
		if hasTranscoder {
			return "best[ext=mp4]/best"
		}
		return "best"

	case PlatformCapped:
		if h == 0 {
			if hasTranscoder {
				return "best[ext=mp4]/best"
			}
			return "best"
		}
		if hasTranscoder {
			return fmt.Sprintf("best[height<=%d][ext=mp4]/best[height<=%d]/best", h, h)
		}
		return fmt.Sprintf("best[height<=%d]", h)

	default:
		if hasTranscoder {
			if h == 0 {
				return "bestvideo[ext=mp4]+bestaudio[ext=m4a]/bestvideo+bestaudio/best[ext=mp4]/best"
			}
			return fmt.Sprintf(
				"bestvideo[height<=%d][ext=mp4]+bestaudio[ext=m4a]/bestvideo[height<=%d]+bestaudio/best[height<=%d][ext=mp4]/best[height<=%d]/best",
				h, h, h, h)
		}
		if h == 0 {
			return "best[ext=mp4]/best"
		}
		return fmt.Sprintf("best[height<=%d][ext=mp4]/best[height<=%d]/best", h, h)
	}
}

// StreamSelector returns a selector restricted to progressive streams
// (single file, audio and video together). Used for the live-proxy path,
// which cannot merge.
func StreamSelector(quality string) string {
	h := height(quality)
	if h == 0 {
		return "best[ext=mp4][vcodec!=none][acodec!=none]/best"
	}
	return fmt.Sprintf(
		"best[height<=%d][ext=mp4][vcodec!=none][acodec!=none]/best[ext=mp4][vcodec!=none][acodec!=none]/best",
		h)
}

// DirectSelector returns the simple height-capped selector used when
// resolving a direct URL without merging.
func DirectSelector(quality string) string {
	h := height(quality)
	if h == 0 {
		return "best"
	}
	return fmt.Sprintf("best[height<=%d]", h)
}

// AudioSelector returns the selector for audio-only downloads. Without a
// transcoder the chain prefers containers that need no conversion.
func AudioSelector(hasTranscoder bool) string {
	if hasTranscoder {
		return "bestaudio/best"
	}
	return "bestaudio[ext=m4a]/bestaudio[ext=webm]/bestaudio/best"
}

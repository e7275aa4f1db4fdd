package stream

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/grafov/m3u8"
)

// Some platforms hand out HLS playlists as their "direct" URL. A playlist
// cannot be relayed as one progressive body, so the streamer resolves a
// master playlist to its highest-bandwidth variant and relays a media
// playlist segment by segment.

func looksLikePlaylist(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".m3u8")
}

type hlsPlan struct {
	// variantURL is set when the playlist was a master: relay should
	// re-resolve against this URL.
	variantURL string
	// segmentURLs is set when the playlist was a media playlist:
	// relay these in order.
	segmentURLs []string
}

func parseHLS(content io.Reader, base *url.URL) (*hlsPlan, error) {
	p, listType, err := m3u8.DecodeFrom(content, true)
	if err != nil {
		return nil, fmt.Errorf("parse playlist: %w", err)
	}

	switch listType {
	case m3u8.MASTER:
		master := p.(*m3u8.MasterPlaylist)
		if len(master.Variants) == 0 {
			return nil, fmt.Errorf("master playlist has no variants")
		}
		best := master.Variants[0]
		for _, v := range master.Variants {
			if v.Bandwidth > best.Bandwidth {
				best = v
			}
		}
		return &hlsPlan{variantURL: resolveRef(base, best.URI)}, nil

	case m3u8.MEDIA:
		media := p.(*m3u8.MediaPlaylist)
		var urls []string
		for _, seg := range media.Segments {
			if seg == nil || seg.URI == "" {
				continue
			}
			urls = append(urls, resolveRef(base, seg.URI))
		}
		if len(urls) == 0 {
			return nil, fmt.Errorf("media playlist has no segments")
		}
		return &hlsPlan{segmentURLs: urls}, nil

	default:
		return nil, fmt.Errorf("unknown playlist type")
	}
}

func resolveRef(base *url.URL, ref string) string {
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref // fallback
	}
	return base.ResolveReference(refURL).String()
}

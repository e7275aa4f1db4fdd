package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	Port             int               `json:"port"`
	DownloadsDir     string            `json:"downloads_dir"`
	DataDir          string            `json:"data_dir"`
	YtDlpPath        string            `json:"ytdlp_path"`
	UpstreamHeaders  map[string]string `json:"upstream_headers"`
	UpstreamTimeout  int               `json:"upstream_timeout_seconds"`
	DirectURLTTL     int               `json:"direct_url_ttl_seconds"`
	HistoryLimit     int               `json:"history_limit"`
	StreamChunkBytes int               `json:"stream_chunk_bytes"`
}

var GlobalConfig = Config{
	Port:         8080,
	DownloadsDir: "./media/downloads",
	DataDir:      "./data",
	YtDlpPath:    "yt-dlp",
	UpstreamHeaders: map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Referer":         "https://www.tiktok.com/",
		"Accept-Language": "en-US,en;q=0.9",
	},
	UpstreamTimeout:  45,
	DirectURLTTL:     1800,
	HistoryLimit:     50,
	StreamChunkBytes: 512 * 1024,
}

func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Use defaults
		}
		return err
	}
	return json.Unmarshal(data, &GlobalConfig)
}

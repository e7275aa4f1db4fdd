package main

import (
	"log"
	"os"
	"time"

	"video-downloader/internal/api"
	"video-downloader/internal/config"
	"video-downloader/internal/database"
	"video-downloader/internal/download"
	"video-downloader/internal/record"
	"video-downloader/internal/stream"
	"video-downloader/internal/ytdlp"
)

func main() {
	// Optional: Load config from file if exists
	if err := config.LoadConfig("config.json"); err != nil {
		log.Println("Note: config.json not found or invalid, using defaults")
	}
	cfg := config.GlobalConfig

	if err := os.MkdirAll(cfg.DownloadsDir, 0755); err != nil {
		log.Fatalf("Failed to create downloads directory: %v", err)
	}

	db, err := database.Init(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to init db: %v", err)
	}

	records, err := record.NewStore(db)
	if err != nil {
		log.Fatalf("Failed to init record store: %v", err)
	}

	extractor := ytdlp.NewClient(cfg.YtDlpPath)
	cache := stream.NewURLCache(time.Duration(cfg.DirectURLTTL) * time.Second)
	streamer := stream.NewStreamer(extractor, cache, cfg.UpstreamHeaders,
		time.Duration(cfg.UpstreamTimeout)*time.Second, cfg.StreamChunkBytes)
	service := download.NewService(extractor, records, cache, cfg.DownloadsDir, cfg.UpstreamHeaders)

	server := api.NewServer(cfg.Port, service, streamer, records, extractor)
	if err := server.Start(); err != nil {
		log.Fatal(err)
	}
}

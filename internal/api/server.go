// Package api is the HTTP surface of the service: request validation,
// routing and response shaping around the download service and the
// live-proxy streamer.
package api

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"video-downloader/internal/download"
	"video-downloader/internal/record"
	"video-downloader/internal/stream"
	"video-downloader/internal/ytdlp"
)

type Server struct {
	engine    *gin.Engine
	service   *download.Service
	streamer  *stream.Streamer
	records   *record.Store
	extractor *ytdlp.Client
	addr      string
}

func NewServer(port int, service *download.Service, streamer *stream.Streamer, records *record.Store, extractor *ytdlp.Client) *Server {
	s := &Server{
		service:   service,
		streamer:  streamer,
		records:   records,
		extractor: extractor,
		addr:      fmt.Sprintf(":%d", port),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		ExposeHeaders:   []string{"Content-Length", "Content-Disposition"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/", s.handleRoot)

	api := r.Group("/api")
	{
		api.POST("/info", s.handleInfo)
		api.POST("/download", s.handleDownload)
		api.POST("/download-audio", s.handleDownloadAudio)
		api.POST("/direct-url", s.handleDirectURL)
		api.GET("/file/:id", s.handleFile)
		api.GET("/stream/:id", s.handleStream)
		api.GET("/supported-sites", s.handleSupportedSites)
		api.GET("/health", s.handleHealth)
		api.GET("/history", s.handleHistory)
	}

	s.engine = r
	return s
}

func (s *Server) Start() error {
	log.Printf("Server starting at http://localhost%s", s.addr)
	return s.engine.Run(s.addr)
}

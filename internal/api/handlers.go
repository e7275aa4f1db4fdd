package api

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"video-downloader/internal/config"
	"video-downloader/internal/download"
	"video-downloader/internal/ffmpeg"
	"video-downloader/internal/record"
	"video-downloader/internal/ytdlp"
)

type infoRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type downloadRequest struct {
	URL     string `json:"url" binding:"required,url"`
	Quality string `json:"quality" binding:"omitempty,oneof=best 1080p 720p 480p 360p"`
	Format  string `json:"format" binding:"omitempty,oneof=mp4 webm mkv"`
}

type audioRequest struct {
	URL    string `json:"url" binding:"required,url"`
	Format string `json:"format" binding:"omitempty,oneof=mp3 m4a wav flac"`
}

const (
	videoWarning = "FFmpeg not installed. Video quality may be limited to pre-merged formats."
	audioWarning = "FFmpeg not installed. Audio downloaded in original format."
)

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Video Downloader API is running",
		"endpoints": gin.H{
			"api":    "/api/",
			"health": "/api/health",
		},
	})
}

// handleInfo returns metadata and candidate formats without downloading.
func (s *Server) handleInfo(c *gin.Context) {
	var req infoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request", "details": err.Error()})
		return
	}

	info, err := s.extractor.ExtractInfo(c.Request.Context(), req.URL, ytdlp.InfoOptions{})
	if err != nil {
		writeError(c, err, "Failed to fetch video information")
		return
	}

	formats := make([]gin.H, 0, len(info.Formats))
	for _, f := range info.Formats {
		if !f.HasVideo() && !f.HasAudio() {
			continue
		}
		quality := f.FormatNote
		if quality == "" {
			quality = "unknown"
		}
		formats = append(formats, gin.H{
			"format_id":  f.FormatID,
			"quality":    quality,
			"ext":        f.Ext,
			"filesize":   f.Filesize,
			"resolution": f.Resolution,
			"fps":        f.FPS,
			"has_video":  f.HasVideo(),
			"has_audio":  f.HasAudio(),
		})
		if len(formats) == 20 {
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"id":               info.ID,
		"title":            info.Title,
		"thumbnail":        info.Thumbnail,
		"duration":         info.Duration,
		"uploader":         info.Uploader,
		"upload_date":      info.UploadDate,
		"view_count":       info.ViewCount,
		"description":      truncate(info.Description, 500),
		"platform":         info.ExtractorKey,
		"webpage_url":      info.WebpageURL,
		"formats":          formats,
		"ffmpeg_available": ffmpeg.Probe().Available,
	})
}

// handleDownload commits a video plan: stored file for most platforms,
// live-proxy for ephemeral-URL platforms.
func (s *Server) handleDownload(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request", "details": err.Error()})
		return
	}
	if req.Quality == "" {
		req.Quality = "best"
	}
	if req.Format == "" {
		req.Format = "mp4"
	}

	ff := ffmpeg.Probe()
	res, err := s.service.DownloadVideo(c.Request.Context(), req.URL, req.Quality, req.Format, ff)
	if err != nil {
		writeError(c, err, "Failed to download video")
		return
	}

	if res.Mode == download.ModeStream {
		s.respondStream(c, res, "Video ready to stream")
		return
	}

	resp := gin.H{
		"success":      true,
		"message":      "Video downloaded successfully",
		"id":           res.Record.ID,
		"filename":     res.Filename,
		"size":         res.Size,
		"download_url": "/api/file/" + res.Record.ID,
		"title":        res.Record.Title,
		"platform":     res.Record.Platform,
	}
	if !ff.Available {
		resp["warning"] = videoWarning
	}
	c.JSON(http.StatusOK, resp)
}

// handleDownloadAudio commits an audio-only plan. Proxy-classified
// platforms short-circuit to the stream flow.
func (s *Server) handleDownloadAudio(c *gin.Context) {
	var req audioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request", "details": err.Error()})
		return
	}
	if req.Format == "" {
		req.Format = "mp3"
	}

	ff := ffmpeg.Probe()
	res, err := s.service.DownloadAudio(c.Request.Context(), req.URL, req.Format, ff)
	if err != nil {
		writeError(c, err, "Failed to download audio")
		return
	}

	if res.Mode == download.ModeStream {
		s.respondStream(c, res, "Ready to stream")
		return
	}

	resp := gin.H{
		"success":      true,
		"message":      "Audio downloaded successfully",
		"id":           res.Record.ID,
		"filename":     res.Filename,
		"size":         res.Size,
		"download_url": "/api/file/" + res.Record.ID,
		"title":        res.Record.Title,
		"platform":     res.Record.Platform,
	}
	if !ff.Available {
		resp["warning"] = fmt.Sprintf("%s Requested format was %s.", audioWarning, req.Format)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) respondStream(c *gin.Context, res *download.Result, message string) {
	rec := res.Record
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    message,
		"id":         rec.ID,
		"title":      rec.Title,
		"platform":   rec.Platform,
		"thumbnail":  rec.Thumbnail,
		"duration":   rec.Duration,
		"mode":       "stream",
		"stream_url": "/api/stream/" + rec.ID,
		"direct_url": res.DirectURL,
	})
}

// handleDirectURL resolves a direct download URL without server storage.
func (s *Server) handleDirectURL(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request", "details": err.Error()})
		return
	}
	if req.Quality == "" {
		req.Quality = "best"
	}

	info, direct, err := s.service.DirectURL(c.Request.Context(), req.URL, req.Quality)
	if err != nil {
		writeError(c, err, "Failed to get direct URL")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"direct_url": direct,
		"title":      info.Title,
		"thumbnail":  info.Thumbnail,
		"duration":   info.Duration,
	})
}

// handleFile serves a previously stored file by record id.
func (s *Server) handleFile(c *gin.Context) {
	rec, err := s.records.Get(c.Param("id"))
	if err != nil {
		writeError(c, err, "Failed to load download record")
		return
	}

	if rec.Status != record.StatusCompleted || rec.FilePath == "" {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "File not found"})
		return
	}

	path := filepath.Join(config.GlobalConfig.DownloadsDir, filepath.Base(rec.FilePath))
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "File not found"})
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

// handleStream relays a proxy-mode record live from its source.
func (s *Server) handleStream(c *gin.Context) {
	rec, err := s.records.Get(c.Param("id"))
	if err != nil {
		writeError(c, err, "Failed to load download record")
		return
	}

	direct, err := s.streamer.Resolve(c.Request.Context(), rec)
	if err != nil {
		writeError(c, err, "Failed to resolve stream")
		return
	}

	c.Header("Access-Control-Allow-Origin", "*")
	if err := s.streamer.Relay(c.Request.Context(), direct, c.Writer); err != nil {
		if !c.Writer.Written() {
			writeError(c, err, "Failed to stream from source")
			return
		}
		// Mid-stream failure: the status line is gone, just stop.
		log.Printf("stream %s aborted: %v", rec.ID, err)
	}
}

func (s *Server) handleSupportedSites(c *gin.Context) {
	names, err := s.extractor.Extractors(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to list supported sites")
		return
	}

	total := len(names)
	if len(names) > 100 {
		names = names[:100]
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      total,
		"extractors": names,
		"message":    fmt.Sprintf("Total %d sites supported", total),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	version, err := s.extractor.Version(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	ff := ffmpeg.Probe()
	var ffmpegVersion string
	if ff.Available {
		ffmpegVersion = ffmpeg.Version(c.Request.Context())
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"message":          "API is running",
		"yt_dlp_version":   version,
		"ffmpeg_installed": ff.Available,
		"ffmpeg_location":  ff.Dir,
		"ffmpeg_version":   ffmpegVersion,
		"capabilities": gin.H{
			"video_merge":      ff.Available,
			"audio_conversion": ff.Available,
			"high_quality":     ff.Available,
		},
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	recs, err := s.records.Recent(config.GlobalConfig.HistoryLimit)
	if err != nil {
		writeError(c, err, "Failed to load download history")
		return
	}
	if recs == nil {
		recs = []record.DownloadRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"count":     len(recs),
		"downloads": recs,
	})
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

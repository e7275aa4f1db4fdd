package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"video-downloader/internal/download"
	"video-downloader/internal/record"
	"video-downloader/internal/stream"
	"video-downloader/internal/ytdlp"
)

// writeError converts the error taxonomy into a structured response with
// a stable category and a human-readable detail. fallback names the
// operation for uncategorized failures.
func writeError(c *gin.Context, err error, fallback string) {
	var upstreamErr *stream.UpstreamError

	switch {
	case errors.Is(err, record.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Download record not found",
		})

	case errors.Is(err, ytdlp.ErrTranscoderRequired):
		c.JSON(http.StatusFailedDependency, gin.H{
			"success":  false,
			"error":    "FFmpeg is required for high-quality downloads",
			"details":  err.Error(),
			"solution": "Please install FFmpeg",
			"installation_guide": gin.H{
				"Windows": []string{
					"1. Download FFmpeg from https://ffmpeg.org/download.html",
					"2. Extract to C:\\ffmpeg\\",
					"3. Add C:\\ffmpeg\\bin to System PATH",
					"4. Restart the server",
				},
				"Ubuntu/Debian": "sudo apt-get install ffmpeg",
				"MacOS":         "brew install ffmpeg",
			},
		})

	case errors.Is(err, ytdlp.ErrFormatUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{
			"success":    false,
			"error":      "Requested format is not available",
			"details":    err.Error(),
			"solution":   "Try downloading with \"best\" quality or check if the video is available",
			"suggestion": "The video platform may not support the requested quality level",
		})

	case errors.Is(err, download.ErrMissingOutput):
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Downloaded file not found",
			"details": err.Error(),
		})

	case errors.Is(err, stream.ErrNoStreamableURL), errors.As(err, &upstreamErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   "Failed to stream from source",
			"details": err.Error(),
		})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   fallback,
			"details": err.Error(),
		})
	}
}

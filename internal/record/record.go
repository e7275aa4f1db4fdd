package record

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no record exists for a given id.
var ErrNotFound = errors.New("download record not found")

type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// DownloadRecord is the durable unit of download state. A record is
// created once a plan is committed and mutated exactly once more at
// finalization. Proxy-mode records are completed immediately with empty
// file fields; the resolved direct URL lives in the stream cache, not
// here.
type DownloadRecord struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Platform  string    `json:"platform"`
	Thumbnail string    `json:"thumbnail"`
	Duration  int64     `json:"duration"`
	Quality   string    `json:"quality"`
	FilePath  string    `json:"file_path"`
	FileSize  int64     `json:"file_size"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"video-downloader/internal/config"
	"video-downloader/internal/database"
	"video-downloader/internal/record"
)

func newTestServer(t *testing.T) (*Server, *record.Store) {
	t.Helper()
	db, err := database.Init(t.TempDir())
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	records, err := record.NewStore(db)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}

	// Service, streamer and extractor are only reached by requests that
	// pass validation; these tests stop before that.
	return NewServer(0, nil, nil, records, nil), records
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	s.engine.ServeHTTP(rr, req)
	return rr
}

func TestDownloadRejectsMissingURL(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/download", `{"quality":"720p"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestDownloadRejectsMalformedURL(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/download", `{"url":"not a url"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestDownloadRejectsInvalidQuality(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/download",
		`{"url":"https://www.youtube.com/watch?v=abc","quality":"8000p"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestDownloadRejectsInvalidContainer(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/download",
		`{"url":"https://www.youtube.com/watch?v=abc","format":"avi"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestDownloadAudioRejectsInvalidFormat(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/download-audio",
		`{"url":"https://www.youtube.com/watch?v=abc","format":"ogg"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestFileUnknownRecord(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodGet, "/api/file/does-not-exist", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["success"] != false {
		t.Errorf("body = %v", body)
	}
}

func TestFileRecordWithoutStoredFile(t *testing.T) {
	s, records := newTestServer(t)

	// Proxy-mode record: completed but no file fields.
	rec := &record.DownloadRecord{ID: "rec-1", URL: "u", Status: record.StatusCompleted}
	if err := records.Create(rec); err != nil {
		t.Fatal(err)
	}

	rr := doJSON(t, s, http.MethodGet, "/api/file/rec-1", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestFileServesStoredFile(t *testing.T) {
	s, records := newTestServer(t)

	dir := t.TempDir()
	prev := config.GlobalConfig.DownloadsDir
	config.GlobalConfig.DownloadsDir = dir
	t.Cleanup(func() { config.GlobalConfig.DownloadsDir = prev })

	if err := os.WriteFile(filepath.Join(dir, "video_x.mp4"), []byte("bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	rec := &record.DownloadRecord{
		ID:       "rec-1",
		URL:      "u",
		Status:   record.StatusCompleted,
		FilePath: "downloads/video_x.mp4",
		FileSize: 5,
	}
	if err := records.Create(rec); err != nil {
		t.Fatal(err)
	}

	rr := doJSON(t, s, http.MethodGet, "/api/file/rec-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Body.String() != "bytes" {
		t.Errorf("body = %q", rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestStreamUnknownRecord(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodGet, "/api/stream/does-not-exist", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestHistoryEmpty(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodGet, "/api/history", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var body struct {
		Success   bool                    `json:"success"`
		Count     int                     `json:"count"`
		Downloads []record.DownloadRecord `json:"downloads"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || body.Count != 0 || body.Downloads == nil {
		t.Errorf("body = %+v", body)
	}
}

func TestHistoryReturnsRecords(t *testing.T) {
	s, records := newTestServer(t)

	rec := &record.DownloadRecord{ID: "rec-1", URL: "u", Title: "First", Status: record.StatusCompleted}
	if err := records.Create(rec); err != nil {
		t.Fatal(err)
	}

	rr := doJSON(t, s, http.MethodGet, "/api/history", "")
	var body struct {
		Count     int                     `json:"count"`
		Downloads []record.DownloadRecord `json:"downloads"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 || len(body.Downloads) != 1 || body.Downloads[0].Title != "First" {
		t.Errorf("body = %+v", body)
	}
}

func TestRootBanner(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doJSON(t, s, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Video Downloader API") {
		t.Errorf("body = %q", rr.Body.String())
	}
}

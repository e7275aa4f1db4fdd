package record

import (
	"database/sql"
	"time"
)

// Store persists download records in SQLite. Each record is written by
// exactly one request; readers never see partial rows because create and
// finalize are single statements.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.initTable(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) initTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS downloads (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		title TEXT,
		platform TEXT,
		thumbnail TEXT,
		duration INTEGER,
		quality TEXT,
		file_path TEXT,
		file_size INTEGER,
		status TEXT,
		created_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_downloads_created_at ON downloads(created_at);
	`
	_, err := s.db.Exec(query)
	return err
}

// Create inserts a new record. CreatedAt is stamped here.
func (s *Store) Create(rec *DownloadRecord) error {
	rec.CreatedAt = time.Now().UTC()
	query := `INSERT INTO downloads (id, url, title, platform, thumbnail, duration, quality, file_path, file_size, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, rec.ID, rec.URL, rec.Title, rec.Platform, rec.Thumbnail,
		rec.Duration, rec.Quality, rec.FilePath, rec.FileSize, string(rec.Status), rec.CreatedAt)
	return err
}

func (s *Store) Get(id string) (*DownloadRecord, error) {
	query := `SELECT id, url, title, platform, thumbnail, duration, quality, file_path, file_size, status, created_at
		FROM downloads WHERE id = ?`
	row := s.db.QueryRow(query, id)
	var rec DownloadRecord
	var status string
	err := row.Scan(&rec.ID, &rec.URL, &rec.Title, &rec.Platform, &rec.Thumbnail,
		&rec.Duration, &rec.Quality, &rec.FilePath, &rec.FileSize, &status, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	return &rec, nil
}

// Finalize marks a record completed with its stored file path and size.
func (s *Store) Finalize(id, filePath string, fileSize int64) error {
	query := `UPDATE downloads SET file_path = ?, file_size = ?, status = ? WHERE id = ?`
	_, err := s.db.Exec(query, filePath, fileSize, string(StatusCompleted), id)
	return err
}

// MarkFailed transitions a record to failed. File fields are left as-is;
// readers must not trust them once the status is failed.
func (s *Store) MarkFailed(id string) error {
	query := `UPDATE downloads SET status = ? WHERE id = ?`
	_, err := s.db.Exec(query, string(StatusFailed), id)
	return err
}

// Recent returns the most recently created records, newest first.
func (s *Store) Recent(limit int) ([]DownloadRecord, error) {
	query := `SELECT id, url, title, platform, thumbnail, duration, quality, file_path, file_size, status, created_at
		FROM downloads ORDER BY created_at DESC LIMIT ?`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []DownloadRecord
	for rows.Next() {
		var rec DownloadRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.URL, &rec.Title, &rec.Platform, &rec.Thumbnail,
			&rec.Duration, &rec.Quality, &rec.FilePath, &rec.FileSize, &status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Status = Status(status)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Package store is the persistence collaborator for the Writegeist backend.
//
// It holds three things in a single SQLite database: the project markdown
// document (an opaque string keyed by a fixed identifier), the ingested
// chapters with their extracted metadata, and the chapter audio jobs.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DocKey identifies the single project document. One document per project.
const DocKey = "project"

// ErrNotFound reports a row that does not exist. Callers decide whether that
// is an error or a normal state.
var ErrNotFound = errors.New("store: not found")

// Chapter is an ingested chapter with its extracted metadata.
type Chapter struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Characters []string       `json:"characters"`
	Locations  []string       `json:"locations"`
	POV        []string       `json:"pov"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  string         `json:"created_at"`
}

// AudioJob tracks one text-to-speech rendering of a chapter.
type AudioJob struct {
	ID        string `json:"id"`
	ChapterID string `json:"chapter_id"`
	Status    string `json:"status"`
	AudioPath string `json:"audio_path,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Audio job statuses.
const (
	AudioPending    = "pending"
	AudioProcessing = "processing"
	AudioComplete   = "complete"
	AudioFailed     = "failed"
)

type Config struct {
	// DataDir holds writegeist.db; created if missing.
	DataDir string
}

type Store struct {
	db *sql.DB
}

func New(cfg Config) (*Store, error) {
	if cfg.DataDir == "" {
		return nil, errors.New("store: DataDir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(cfg.DataDir, "writegeist.db"))
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}
	// modernc sqlite is not safe for concurrent writers on one connection pool
	// beyond what SQLite itself serializes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS project_doc (
	key        TEXT PRIMARY KEY,
	markdown   TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chapters (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	text       TEXT NOT NULL,
	characters TEXT NOT NULL DEFAULT '[]',
	locations  TEXT NOT NULL DEFAULT '[]',
	pov        TEXT NOT NULL DEFAULT '[]',
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chapter_audio (
	id         TEXT PRIMARY KEY,
	chapter_id TEXT NOT NULL REFERENCES chapters(id),
	status     TEXT NOT NULL,
	audio_path TEXT NOT NULL DEFAULT '',
	duration   INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("store: migrating schema: %w", err)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ─── Project document ───────────────────────────────────────────────────────

// GetDocument loads the document stored under key. A missing document is the
// normal first-access state and is reported as ("", false, nil).
func (s *Store) GetDocument(key string) (string, bool, error) {
	var doc string
	err := s.db.QueryRow(`SELECT markdown FROM project_doc WHERE key = ?`, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: loading document %q: %w", key, err)
	}
	return doc, true, nil
}

// PutDocument stores the full document under key, replacing any prior value.
func (s *Store) PutDocument(key, doc string) error {
	_, err := s.db.Exec(`
INSERT INTO project_doc (key, markdown, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET markdown = excluded.markdown, updated_at = excluded.updated_at`,
		key, doc, now())
	if err != nil {
		return fmt.Errorf("store: saving document %q: %w", key, err)
	}
	return nil
}

// ─── Chapters ───────────────────────────────────────────────────────────────

func (s *Store) InsertChapter(ch Chapter) error {
	chars, err := json.Marshal(orEmpty(ch.Characters))
	if err != nil {
		return fmt.Errorf("store: encoding characters: %w", err)
	}
	locs, err := json.Marshal(orEmpty(ch.Locations))
	if err != nil {
		return fmt.Errorf("store: encoding locations: %w", err)
	}
	pov, err := json.Marshal(orEmpty(ch.POV))
	if err != nil {
		return fmt.Errorf("store: encoding pov: %w", err)
	}
	meta := ch.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("store: encoding metadata: %w", err)
	}

	createdAt := ch.CreatedAt
	if createdAt == "" {
		createdAt = now()
	}

	_, err = s.db.Exec(`
INSERT INTO chapters (id, title, text, characters, locations, pov, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ch.ID, ch.Title, ch.Text, string(chars), string(locs), string(pov), string(metaJSON), createdAt)
	if err != nil {
		return fmt.Errorf("store: inserting chapter %q: %w", ch.ID, err)
	}
	return nil
}

func (s *Store) GetChapter(id string) (*Chapter, error) {
	row := s.db.QueryRow(`
SELECT id, title, text, characters, locations, pov, metadata, created_at
FROM chapters WHERE id = ?`, id)
	ch, err := scanChapter(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: loading chapter %q: %w", id, err)
	}
	return ch, nil
}

// ListChapters returns all chapters in creation order.
func (s *Store) ListChapters() ([]Chapter, error) {
	rows, err := s.db.Query(`
SELECT id, title, text, characters, locations, pov, metadata, created_at
FROM chapters ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("store: listing chapters: %w", err)
	}
	defer rows.Close()

	var out []Chapter
	for rows.Next() {
		ch, err := scanChapter(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("store: scanning chapter: %w", err)
		}
		out = append(out, *ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: listing chapters: %w", err)
	}
	return out, nil
}

func scanChapter(scan func(...any) error) (*Chapter, error) {
	var ch Chapter
	var chars, locs, pov, meta string
	if err := scan(&ch.ID, &ch.Title, &ch.Text, &chars, &locs, &pov, &meta, &ch.CreatedAt); err != nil {
		return nil, err
	}
	// Metadata columns are written by this process; decode failures mean a
	// corrupted row, surfaced rather than silently dropped.
	if err := json.Unmarshal([]byte(chars), &ch.Characters); err != nil {
		return nil, fmt.Errorf("decoding characters: %w", err)
	}
	if err := json.Unmarshal([]byte(locs), &ch.Locations); err != nil {
		return nil, fmt.Errorf("decoding locations: %w", err)
	}
	if err := json.Unmarshal([]byte(pov), &ch.POV); err != nil {
		return nil, fmt.Errorf("decoding pov: %w", err)
	}
	if err := json.Unmarshal([]byte(meta), &ch.Metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return &ch, nil
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// ─── Audio jobs ─────────────────────────────────────────────────────────────

func (s *Store) CreateAudioJob(id, chapterID string) error {
	ts := now()
	_, err := s.db.Exec(`
INSERT INTO chapter_audio (id, chapter_id, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`, id, chapterID, AudioPending, ts, ts)
	if err != nil {
		return fmt.Errorf("store: creating audio job %q: %w", id, err)
	}
	return nil
}

// UpdateAudioStatus moves a job through its lifecycle. Path and duration are
// recorded only when non-zero so a failure does not erase a prior result.
func (s *Store) UpdateAudioStatus(id, status, audioPath string, duration int) error {
	var err error
	if audioPath != "" || duration != 0 {
		_, err = s.db.Exec(`
UPDATE chapter_audio SET status = ?, audio_path = ?, duration = ?, updated_at = ? WHERE id = ?`,
			status, audioPath, duration, now(), id)
	} else {
		_, err = s.db.Exec(`
UPDATE chapter_audio SET status = ?, updated_at = ? WHERE id = ?`, status, now(), id)
	}
	if err != nil {
		return fmt.Errorf("store: updating audio job %q: %w", id, err)
	}
	return nil
}

func (s *Store) GetAudioJob(id string) (*AudioJob, error) {
	var job AudioJob
	err := s.db.QueryRow(`
SELECT id, chapter_id, status, audio_path, duration, created_at, updated_at
FROM chapter_audio WHERE id = ?`, id).
		Scan(&job.ID, &job.ChapterID, &job.Status, &job.AudioPath, &job.Duration, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: loading audio job %q: %w", id, err)
	}
	return &job, nil
}

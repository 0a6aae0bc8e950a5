// Package capture persists dry-run submissions that were assembled but never
// sent to the survey save API.
package capture

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrCaptureFailed = errors.New("CAPTURE_FAILED")

const createTable = `
	CREATE TABLE IF NOT EXISTS survey_captures (
		id          UUID PRIMARY KEY,
		session_id  TEXT NOT NULL,
		file_name   TEXT NOT NULL,
		payload     JSONB NOT NULL,
		captured_at TIMESTAMPTZ NOT NULL
	)`

// Record is one captured submission.
type Record struct {
	ID         string
	SessionID  string
	FileName   string
	Payload    map[string]interface{}
	CapturedAt time.Time
}

// Store writes captures to Postgres.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// EnsureSchema creates the captures table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("%w: create table: %v", ErrCaptureFailed, err)
	}
	return nil
}

// Save inserts payload and returns the capture id.
func (s *Store) Save(ctx context.Context, sessionID, fileName string, payload map[string]interface{}) (string, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal payload: %v", ErrCaptureFailed, err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO survey_captures (id, session_id, file_name, payload, captured_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id,
		sessionID,
		fileName,
		payloadJSON,
		s.now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: insert failed: %v", ErrCaptureFailed, err)
	}
	return id, nil
}

// Recent returns the latest captures for fileName, newest first.
func (s *Store) Recent(ctx context.Context, fileName string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, file_name, payload, captured_at
		FROM survey_captures
		WHERE file_name = $1
		ORDER BY captured_at DESC
		LIMIT $2`, fileName, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query failed: %v", ErrCaptureFailed, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec Record
			raw []byte
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.FileName, &raw, &rec.CapturedAt); err != nil {
			return nil, fmt.Errorf("%w: scan failed: %v", ErrCaptureFailed, err)
		}
		if err := json.Unmarshal(raw, &rec.Payload); err != nil {
			return nil, fmt.Errorf("%w: bad payload for %s: %v", ErrCaptureFailed, rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

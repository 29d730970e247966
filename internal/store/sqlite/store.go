// Package sqlite keeps the install history in a local sqlite database.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("install not found")

const (
	StatusRunning              = "running"
	StatusSucceeded            = "succeeded"
	StatusSucceededWithWarning = "succeeded_with_warnings"
	StatusFailed               = "failed"
)

type Store struct {
	db *sql.DB
}

type InstallRecord struct {
	InstallID string `json:"installId"`
	Status    string `json:"status"`
	Platform  string `json:"platform"`
	Python    string `json:"python,omitempty"`
	StartedAt string `json:"startedAt"`
	EndedAt   string `json:"endedAt,omitempty"`
	LastError string `json:"lastError,omitempty"`
}

type StepRecord struct {
	InstallID string `json:"installId"`
	Step      string `json:"step"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	At        string `json:"at"`
}

// Open opens (creating if needed) the database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS installs (
			install_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			platform TEXT NOT NULL,
			python TEXT,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			last_error TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS install_steps (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			install_id TEXT NOT NULL,
			step TEXT NOT NULL,
			status TEXT NOT NULL,
			detail TEXT,
			at TEXT NOT NULL,
			FOREIGN KEY(install_id) REFERENCES installs(install_id)
		);`,
		`CREATE INDEX IF NOT EXISTS install_steps_by_install ON install_steps(install_id, seq);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) InsertInstall(r InstallRecord) error {
	if r.StartedAt == "" {
		r.StartedAt = now()
	}
	if r.Status == "" {
		r.Status = StatusRunning
	}
	_, err := s.db.Exec(
		`INSERT INTO installs (install_id, status, platform, python, started_at, ended_at, last_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.InstallID, r.Status, r.Platform, nullableString(r.Python), r.StartedAt, nullableString(r.EndedAt), nullableString(r.LastError),
	)
	return err
}

func (s *Store) SetPython(installID, python string) error {
	_, err := s.db.Exec(`UPDATE installs SET python = ? WHERE install_id = ?`, nullableString(python), installID)
	return err
}

func (s *Store) AppendStep(r StepRecord) error {
	if r.At == "" {
		r.At = now()
	}
	_, err := s.db.Exec(
		`INSERT INTO install_steps (install_id, step, status, detail, at) VALUES (?, ?, ?, ?, ?)`,
		r.InstallID, r.Step, r.Status, nullableString(r.Detail), r.At,
	)
	return err
}

func (s *Store) CompleteInstall(installID, status, lastError string) error {
	res, err := s.db.Exec(
		`UPDATE installs SET status = ?, ended_at = ?, last_error = ? WHERE install_id = ?`,
		status, now(), nullableString(lastError), installID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, installID)
	}
	return nil
}

func (s *Store) GetInstall(installID string) (InstallRecord, error) {
	row := s.db.QueryRow(`SELECT install_id, status, platform, COALESCE(python,''), started_at, COALESCE(ended_at,''), COALESCE(last_error,'')
		FROM installs WHERE install_id = ?`, installID)
	var r InstallRecord
	if err := row.Scan(&r.InstallID, &r.Status, &r.Platform, &r.Python, &r.StartedAt, &r.EndedAt, &r.LastError); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return InstallRecord{}, fmt.Errorf("%w: %s", ErrNotFound, installID)
		}
		return InstallRecord{}, err
	}
	return r, nil
}

func (s *Store) ListInstalls(limit int) ([]InstallRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT install_id, status, platform, COALESCE(python,''), started_at, COALESCE(ended_at,''), COALESCE(last_error,'')
		FROM installs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]InstallRecord, 0)
	for rows.Next() {
		var r InstallRecord
		if err := rows.Scan(&r.InstallID, &r.Status, &r.Platform, &r.Python, &r.StartedAt, &r.EndedAt, &r.LastError); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Steps returns the recorded steps of one install in the order they ran.
func (s *Store) Steps(installID string) ([]StepRecord, error) {
	rows, err := s.db.Query(`SELECT install_id, step, status, COALESCE(detail,''), at
		FROM install_steps WHERE install_id = ? ORDER BY seq`, installID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StepRecord, 0)
	for rows.Next() {
		var r StepRecord
		if err := rows.Scan(&r.InstallID, &r.Step, &r.Status, &r.Detail, &r.At); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

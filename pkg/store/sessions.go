package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrSessionNotFound = errors.New("store: session not found")

// SessionOutcome is the terminal state of an audited session.
type SessionOutcome string

const (
	OutcomeOpen      SessionOutcome = "open"
	OutcomeCompleted SessionOutcome = "completed"
	OutcomeRejected  SessionOutcome = "rejected"
	OutcomeTimeout   SessionOutcome = "timeout"
	OutcomeError     SessionOutcome = "error"
)

// Session is one row of the append-only session audit log. ID is
// caller-supplied (pkg/astm/server mints one xid per accepted
// connection and uses it both as the store key and the per-line log
// correlation field).
type Session struct {
	ID          string
	Role        string
	PeerAddr    string
	OpenedAt    time.Time
	ClosedAt    *time.Time
	Outcome     SessionOutcome
	RecordCount int
	RejectCount int
	LastError   string
}

// SessionStore records and queries session outcomes.
type SessionStore interface {
	Open(ctx context.Context, id, role, peerAddr string) error
	RecordAccepted(ctx context.Context, id string) error
	RecordRejected(ctx context.Context, id, reason string) error
	Close(ctx context.Context, id string, outcome SessionOutcome, lastError string) error
	Get(ctx context.Context, id string) (*Session, error)
	List(ctx context.Context, limit int) ([]*Session, error)
}

// Sessions returns a SessionStore for this database.
func (db *DB) Sessions() SessionStore { return &sessionStore{db: db} }

type sessionStore struct{ db *DB }

func (s *sessionStore) Open(ctx context.Context, id, role, peerAddr string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, role, peer_addr, outcome)
		VALUES (?, ?, ?, ?)
	`, id, role, peerAddr, OutcomeOpen)
	if err != nil {
		return fmt.Errorf("store: open session: %w", err)
	}
	return nil
}

func (s *sessionStore) RecordAccepted(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET record_count = record_count + 1 WHERE id = ?
	`, id)
	return err
}

func (s *sessionStore) RecordRejected(ctx context.Context, id, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET reject_count = reject_count + 1, last_error = ? WHERE id = ?
	`, reason, id)
	return err
}

func (s *sessionStore) Close(ctx context.Context, id string, outcome SessionOutcome, lastError string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET closed_at = datetime('now'), outcome = ?, last_error = ?
		WHERE id = ?
	`, outcome, lastError, id)
	if err != nil {
		return fmt.Errorf("store: close session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *sessionStore) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, role, peer_addr, opened_at, closed_at, outcome, record_count, reject_count, last_error
		FROM sessions WHERE id = ?
	`, id)
	return scanSession(row.Scan)
}

func (s *sessionStore) List(ctx context.Context, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, peer_addr, opened_at, closed_at, outcome, record_count, reject_count, last_error
		FROM sessions ORDER BY opened_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func scanSession(scan func(...any) error) (*Session, error) {
	sess := &Session{}
	var openedAt string
	var closedAt sql.NullString
	err := scan(&sess.ID, &sess.Role, &sess.PeerAddr, &openedAt, &closedAt,
		&sess.Outcome, &sess.RecordCount, &sess.RejectCount, &sess.LastError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	sess.OpenedAt, _ = time.Parse(time.DateTime, openedAt)
	if closedAt.Valid {
		t, _ := time.Parse(time.DateTime, closedAt.String)
		sess.ClosedAt = &t
	}
	return sess, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrConnectionProfileNotFound = errors.New("store: connection profile not found")

// ConnectionProfile is a saved client target, the store analogue of
// astm.Config's connection-shaped fields, for cmd/astmsend and
// pkg/admin to list and reuse without re-entering host/port/timeout
// flags every run.
type ConnectionProfile struct {
	ID            string
	Name          string
	Host          string
	Port          int
	Encoding      string
	TimeoutMS     int
	RetryAttempts int
	ChunkSize     int
	BulkMode      bool
	IsDefault     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Timeout returns TimeoutMS as a time.Duration.
func (p *ConnectionProfile) Timeout() time.Duration {
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

// ConnectionProfileStore provides connection-profile CRUD operations.
type ConnectionProfileStore interface {
	Get(ctx context.Context, id string) (*ConnectionProfile, error)
	GetByName(ctx context.Context, name string) (*ConnectionProfile, error)
	GetDefault(ctx context.Context) (*ConnectionProfile, error)
	List(ctx context.Context) ([]*ConnectionProfile, error)
	Create(ctx context.Context, p *ConnectionProfile) error
	Update(ctx context.Context, p *ConnectionProfile) error
	SetDefault(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// ConnectionProfiles returns a ConnectionProfileStore for this database.
func (db *DB) ConnectionProfiles() ConnectionProfileStore {
	return &connectionProfileStore{db: db}
}

type connectionProfileStore struct{ db *DB }

func (s *connectionProfileStore) Get(ctx context.Context, id string) (*ConnectionProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, host, port, encoding, timeout_ms, retry_attempts, chunk_size, bulk_mode, is_default, created_at, updated_at
		FROM connection_profiles WHERE id = ?
	`, id)
	return scanConnectionProfile(row.Scan)
}

func (s *connectionProfileStore) GetByName(ctx context.Context, name string) (*ConnectionProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, host, port, encoding, timeout_ms, retry_attempts, chunk_size, bulk_mode, is_default, created_at, updated_at
		FROM connection_profiles WHERE name = ?
	`, name)
	return scanConnectionProfile(row.Scan)
}

func (s *connectionProfileStore) GetDefault(ctx context.Context) (*ConnectionProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, host, port, encoding, timeout_ms, retry_attempts, chunk_size, bulk_mode, is_default, created_at, updated_at
		FROM connection_profiles WHERE is_default = 1 LIMIT 1
	`)
	return scanConnectionProfile(row.Scan)
}

func (s *connectionProfileStore) List(ctx context.Context) ([]*ConnectionProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, host, port, encoding, timeout_ms, retry_attempts, chunk_size, bulk_mode, is_default, created_at, updated_at
		FROM connection_profiles ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*ConnectionProfile
	for rows.Next() {
		p, err := scanConnectionProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *connectionProfileStore) Create(ctx context.Context, p *ConnectionProfile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO connection_profiles
			(id, name, host, port, encoding, timeout_ms, retry_attempts, chunk_size, bulk_mode, is_default)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Host, p.Port, p.Encoding, p.TimeoutMS, p.RetryAttempts, p.ChunkSize, p.BulkMode, p.IsDefault)
	if err != nil {
		return fmt.Errorf("store: create connection profile: %w", err)
	}
	return nil
}

func (s *connectionProfileStore) Update(ctx context.Context, p *ConnectionProfile) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE connection_profiles
		SET name = ?, host = ?, port = ?, encoding = ?, timeout_ms = ?, retry_attempts = ?,
			chunk_size = ?, bulk_mode = ?, updated_at = datetime('now')
		WHERE id = ?
	`, p.Name, p.Host, p.Port, p.Encoding, p.TimeoutMS, p.RetryAttempts, p.ChunkSize, p.BulkMode, p.ID)
	return err
}

func (s *connectionProfileStore) SetDefault(ctx context.Context, id string) error {
	return s.db.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE connection_profiles SET is_default = 0`); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `UPDATE connection_profiles SET is_default = 1 WHERE id = ?`, id)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrConnectionProfileNotFound
		}
		return nil
	})
}

func (s *connectionProfileStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM connection_profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConnectionProfileNotFound
	}
	return nil
}

func scanConnectionProfile(scan func(...any) error) (*ConnectionProfile, error) {
	p := &ConnectionProfile{}
	var createdAt, updatedAt string
	err := scan(&p.ID, &p.Name, &p.Host, &p.Port, &p.Encoding, &p.TimeoutMS, &p.RetryAttempts,
		&p.ChunkSize, &p.BulkMode, &p.IsDefault, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConnectionProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	p.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return p, nil
}

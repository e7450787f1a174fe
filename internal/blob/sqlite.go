package blob

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	_ "modernc.org/sqlite"

	"github.com/example/ripeness/api-go/internal/model"
)

// SQLite keeps objects as rows of a single table. Suited to single-node
// deployments where a bucket is not available.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS blobs (
  key TEXT PRIMARY KEY,
  content_type TEXT NOT NULL,
  size INTEGER NOT NULL,
  data BLOB NOT NULL,
  created_at INTEGER NOT NULL
);
`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("blob put %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO blobs (key, content_type, size, data, created_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET
             content_type = excluded.content_type,
             size = excluded.size,
             data = excluded.data,
             created_at = excluded.created_at`,
		key,
		contentType,
		len(data),
		data,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("blob put %s: %w", key, err)
	}
	return key, nil
}

func (s *SQLite) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM blobs WHERE key = ?`, key).Scan(&n); err != nil {
		return false, fmt.Errorf("blob stat %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("blob delete %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("blob delete %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("blob delete %s: %w", key, model.ErrNotFound)
	}
	return nil
}

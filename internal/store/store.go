package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dshills/lyon/internal/review"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS reviews (
    id            TEXT PRIMARY KEY,
    repository    TEXT NOT NULL DEFAULT '',
    pr_number     INTEGER NOT NULL DEFAULT 0,
    provider      TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL,
    diff_key      TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL,
    payload       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS reviews_repo_created ON reviews (repository, created_at DESC);
CREATE INDEX IF NOT EXISTS reviews_diff_key ON reviews (diff_key);
`

// ErrNotFound is returned when no review has the requested id.
var ErrNotFound = errors.New("review not found")

// Store persists finished review results in a sqlite database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save inserts or replaces res. diffKey identifies the reviewed input (see
// [BuildKey]); it may be empty.
func (s *Store) Save(ctx context.Context, res review.Result, diffKey string) error {
	if res.ID == "" {
		return fmt.Errorf("saving review: empty id")
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshaling review: %w", err)
	}
	created := res.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, repository, pr_number, provider, status, diff_key, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			repository = excluded.repository,
			pr_number  = excluded.pr_number,
			provider   = excluded.provider,
			status     = excluded.status,
			diff_key   = excluded.diff_key,
			created_at = excluded.created_at,
			payload    = excluded.payload`,
		res.ID, res.Repository, res.PRNumber, res.Provider, string(res.Status), diffKey, created.UnixNano(), string(payload))
	if err != nil {
		return fmt.Errorf("saving review %s: %w", res.ID, err)
	}
	return nil
}

// Get returns the review with the given id.
func (s *Store) Get(ctx context.Context, id string) (review.Result, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM reviews WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return review.Result{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return review.Result{}, fmt.Errorf("loading review %s: %w", id, err)
	}
	return decode(payload)
}

// List returns up to limit reviews, newest first. An empty repository lists
// every repository; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, repository string, limit int) ([]review.Result, error) {
	q := "SELECT payload FROM reviews"
	var args []any
	if repository != "" {
		q += " WHERE repository = ?"
		args = append(args, repository)
	}
	q += " ORDER BY created_at DESC, id"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var out []review.Result
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		res, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Delete removes the review with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	r, err := s.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting review %s: %w", id, err)
	}
	if n, _ := r.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// FindByKey returns the newest completed review saved under diffKey that is
// younger than ttl. A ttl of zero never expires.
func (s *Store) FindByKey(ctx context.Context, diffKey string, ttl time.Duration) (review.Result, bool, error) {
	if diffKey == "" {
		return review.Result{}, false, nil
	}
	var payload string
	var created int64
	err := s.db.QueryRowContext(ctx, `
		SELECT payload, created_at FROM reviews
		WHERE diff_key = ? AND status = ?
		ORDER BY created_at DESC LIMIT 1`,
		diffKey, string(review.StatusCompleted)).Scan(&payload, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return review.Result{}, false, nil
	}
	if err != nil {
		return review.Result{}, false, fmt.Errorf("looking up cached review: %w", err)
	}
	if ttl > 0 && s.now().Sub(time.Unix(0, created)) > ttl {
		return review.Result{}, false, nil
	}
	res, err := decode(payload)
	if err != nil {
		return review.Result{}, false, err
	}
	return res, true, nil
}

// Count returns the number of stored reviews.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reviews").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting reviews: %w", err)
	}
	return n, nil
}

func decode(payload string) (review.Result, error) {
	var res review.Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return review.Result{}, fmt.Errorf("decoding stored review: %w", err)
	}
	return res, nil
}

// BuildKey creates the lookup key for a review of diff by provider and model.
func BuildKey(provider, model, diff string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", provider, model, diff)))
	return fmt.Sprintf("%x", h)
}

// DefaultPath returns the platform location of the history database.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "lyon", "history.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "lyon", "history.db"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "lyon", "history.db"), nil
		}
		return filepath.Join(home, "AppData", "Local", "lyon", "history.db"), nil
	default:
		return filepath.Join(home, ".local", "share", "lyon", "history.db"), nil
	}
}

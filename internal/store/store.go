// Package store provides SQLite-backed persistence for obligations, goals and
// their history.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // register sqlite driver
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous is returned when an id prefix or name matches more than one record.
	ErrAmbiguous = errors.New("ambiguous reference")

	// ErrConflict is returned when a write was based on a stale snapshot
	// (another writer already advanced the due date or changed the balance).
	ErrConflict = errors.New("record changed since it was read")
)

// Store is the fundwise database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// SaveCategory inserts or renames a category.
func (s *Store) SaveCategory(c model.Category) error {
	return saveCategory(s.db, c)
}

func saveCategory(ex execer, c model.Category) error {
	_, err := ex.Exec(`INSERT INTO categories (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		c.ID.String(), c.Name)
	if err != nil {
		return fmt.Errorf("saving category %q: %w", c.Name, err)
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories() ([]model.Category, error) {
	rows, err := s.db.Query("SELECT id, name FROM categories ORDER BY name COLLATE NOCASE")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Category
	for rows.Next() {
		var id string
		var c model.Category
		if err := rows.Scan(&id, &c.Name); err != nil {
			return nil, err
		}
		if c.ID, err = ulid.Parse(id); err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CategoryByName looks up a category case-insensitively.
func (s *Store) CategoryByName(name string) (model.Category, error) {
	var id string
	c := model.Category{}
	err := s.db.QueryRow("SELECT id, name FROM categories WHERE name = ? COLLATE NOCASE", name).Scan(&id, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("category %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return c, err
	}
	c.ID, err = ulid.Parse(id)
	return c, err
}

// CategoryNames returns a map of category id -> name.
func (s *Store) CategoryNames() (map[ulid.ULID]string, error) {
	cats, err := s.ListCategories()
	if err != nil {
		return nil, err
	}
	names := make(map[ulid.ULID]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names, nil
}

// ResolveObligationID finds an obligation by id, id prefix or exact name.
func (s *Store) ResolveObligationID(ref string) (ulid.ULID, error) {
	return s.resolve("obligations", ref)
}

// ResolveGoalID finds a goal by id, id prefix or exact name.
func (s *Store) ResolveGoalID(ref string) (ulid.ULID, error) {
	return s.resolve("goals", ref)
}

func (s *Store) resolve(table, ref string) (ulid.ULID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ulid.ULID{}, fmt.Errorf("empty reference: %w", ErrNotFound)
	}

	//nolint:gosec // table is one of two constants
	rows, err := s.db.Query("SELECT id FROM "+table+" WHERE id LIKE ? OR name = ? COLLATE NOCASE LIMIT 2",
		strings.ToUpper(ref)+"%", ref)
	if err != nil {
		return ulid.ULID{}, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return ulid.ULID{}, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return ulid.ULID{}, err
	}

	switch len(ids) {
	case 0:
		return ulid.ULID{}, fmt.Errorf("%q: %w", ref, ErrNotFound)
	case 1:
		return ulid.Parse(ids[0])
	default:
		return ulid.ULID{}, fmt.Errorf("%q: %w", ref, ErrAmbiguous)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullDate(d *model.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullID(id *ulid.ULID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

package registry

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// UserRecord is written once on first contact and never mutated.
type UserRecord struct {
	UserID    int64
	Username  string
	FullName  string
	FirstSeen time.Time
}

// Store persists the user registry
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id INTEGER PRIMARY KEY,
    username TEXT NOT NULL DEFAULT '',
    full_name TEXT NOT NULL DEFAULT '',
    first_seen DATETIME NOT NULL
);
`

// Open opens (creating if needed) the registry database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the record for userID, or nil if the user is unknown.
func (s *Store) Get(userID int64) (*UserRecord, error) {
	row := s.db.QueryRow(
		`SELECT user_id, username, full_name, first_seen FROM users WHERE user_id = ?`,
		userID)

	var rec UserRecord
	err := row.Scan(&rec.UserID, &rec.Username, &rec.FullName, &rec.FirstSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// Put records a user on first contact. Existing records are left alone.
func (s *Store) Put(rec UserRecord) error {
	if rec.FirstSeen.IsZero() {
		rec.FirstSeen = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO users (user_id, username, full_name, first_seen)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO NOTHING`,
		rec.UserID, rec.Username, rec.FullName, rec.FirstSeen)
	return err
}

// ListAll returns every registered user ID.
func (s *Store) ListAll() ([]int64, error) {
	rows, err := s.db.Query(`SELECT user_id FROM users ORDER BY first_seen`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Count reports how many users are registered.
func (s *Store) Count() (int, error) {
	row := s.db.QueryRow(`SELECT COUNT(*) FROM users`)

	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}

// Package store persists users, messages and searches for the dashboard.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/bmatch/matchbot/internal/chat"
)

// Message types recorded in the messages table.
const (
	TypeText    = "text"
	TypeStart   = "start"
	TypeCommand = "command"
)

const (
	defaultMessageLimit = 50
	defaultSearchLimit  = 20
	topUsersLimit       = 5
	activeWindow        = 24 * time.Hour
)

var ErrNotFound = errors.New("not found")

// User is a stored Telegram user with activity counters.
type User struct {
	ID            int64     `json:"user_id"`
	Username      string    `json:"username"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	CreatedAt     time.Time `json:"created_at"`
	LastActivity  time.Time `json:"last_activity"`
	TotalSearches int       `json:"total_searches"`
	TotalMessages int       `json:"total_messages"`
}

// DisplayName returns the best human readable name.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	switch {
	case name != "":
		return name
	case u.Username != "":
		return "@" + u.Username
	default:
		return fmt.Sprintf("user %d", u.ID)
	}
}

// Message is a logged chat message.
type Message struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"message_type"`
	Content   string    `json:"content"`
	IsBot     bool      `json:"is_bot"`
	CreatedAt time.Time `json:"created_at"`
}

// Search is a completed match request.
type Search struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Query     string    `json:"search_query"`
	Result    string    `json:"search_result"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats aggregates dashboard counters.
type Stats struct {
	TotalUsers    int    `json:"total_users"`
	TotalMessages int    `json:"total_messages"`
	TotalSearches int    `json:"total_searches"`
	ActiveUsers   int    `json:"active_users"`
	TopUsers      []User `json:"top_users"`
}

// SQLiteStore is the SQLite-backed audit trail.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and applies
// migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertUser creates the user or refreshes its profile and last activity.
// Creation time and counters are preserved.
func (s *SQLiteStore) UpsertUser(ctx context.Context, u chat.User) error {
	now := s.now().UnixMilli()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, first_name, last_name, created_at, last_activity)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			last_activity = excluded.last_activity
	`, u.ID, u.Username, u.FirstName, u.LastName, now, now)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

// LogMessage records a message and bumps the user's activity.
func (s *SQLiteStore) LogMessage(ctx context.Context, userID int64, content string, isBot bool, messageType string) error {
	if messageType == "" {
		messageType = TypeText
	}
	now := s.now()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureUser(ctx, tx, userID, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, user_id, message_type, content, is_bot, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, ulid.Make().String(), userID, messageType, content, isBot, now.UnixMilli()); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET last_activity = ? WHERE user_id = ?`, now.UnixMilli(), userID); err != nil {
			return fmt.Errorf("touch user: %w", err)
		}
		return nil
	})
}

// LogSearch records a completed search and increments the user's counter.
func (s *SQLiteStore) LogSearch(ctx context.Context, userID int64, query, result string) error {
	now := s.now()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureUser(ctx, tx, userID, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO search_history (id, user_id, search_query, search_result, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, ulid.Make().String(), userID, query, result, now.UnixMilli()); err != nil {
			return fmt.Errorf("insert search: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET total_searches = total_searches + 1 WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("count search: %w", err)
		}
		return nil
	})
}

const userColumns = `
	SELECT u.user_id, u.username, u.first_name, u.last_name,
	       u.created_at, u.last_activity, u.total_searches,
	       (SELECT COUNT(*) FROM messages m WHERE m.user_id = u.user_id) AS total_messages
	FROM users u`

// ListUsers returns all users, most recently active first.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]User, error) {
	return s.queryUsers(ctx, userColumns+` ORDER BY u.last_activity DESC, u.user_id`)
}

// GetUser returns a single user or ErrNotFound.
func (s *SQLiteStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	users, err := s.queryUsers(ctx, userColumns+` WHERE u.user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return &users[0], nil
}

// UserMessages returns the newest messages of a user.
func (s *SQLiteStore) UserMessages(ctx context.Context, userID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message_type, content, is_bot, created_at
		FROM messages
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var (
			m       Message
			created int64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Type, &m.Content, &m.IsBot, &created); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt = time.UnixMilli(created).UTC()
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// UserSearches returns the newest searches of a user.
func (s *SQLiteStore) UserSearches(ctx context.Context, userID int64, limit int) ([]Search, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, search_query, search_result, created_at
		FROM search_history
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query searches: %w", err)
	}
	defer rows.Close()

	var searches []Search
	for rows.Next() {
		var (
			sr      Search
			created int64
		)
		if err := rows.Scan(&sr.ID, &sr.UserID, &sr.Query, &sr.Result, &created); err != nil {
			return nil, fmt.Errorf("scan search: %w", err)
		}
		sr.CreatedAt = time.UnixMilli(created).UTC()
		searches = append(searches, sr)
	}
	return searches, rows.Err()
}

// Stats returns totals, the number of users active in the last 24 hours and
// the top users by searches then messages.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats

	counters := []struct {
		query string
		dest  *int
		args  []any
	}{
		{query: `SELECT COUNT(*) FROM users`, dest: &stats.TotalUsers},
		{query: `SELECT COUNT(*) FROM messages`, dest: &stats.TotalMessages},
		{query: `SELECT COUNT(*) FROM search_history`, dest: &stats.TotalSearches},
		{
			query: `SELECT COUNT(*) FROM users WHERE last_activity > ?`,
			dest:  &stats.ActiveUsers,
			args:  []any{s.now().Add(-activeWindow).UnixMilli()},
		},
	}
	for _, c := range counters {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}

	top, err := s.queryUsers(ctx, userColumns+` ORDER BY u.total_searches DESC, total_messages DESC, u.user_id LIMIT ?`, topUsersLimit)
	if err != nil {
		return nil, err
	}
	stats.TopUsers = top

	return &stats, nil
}

func (s *SQLiteStore) queryUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var (
			u                 User
			created, activity int64
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &created, &activity, &u.TotalSearches, &u.TotalMessages); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.CreatedAt = time.UnixMilli(created).UTC()
		u.LastActivity = time.UnixMilli(activity).UTC()
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ensureUser creates a bare user row so messages from users that were never
// upserted still satisfy the foreign key.
func ensureUser(ctx context.Context, tx *sql.Tx, userID int64, now time.Time) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (user_id, created_at, last_activity) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING
	`, userID, now.UnixMilli(), now.UnixMilli()); err != nil {
		return fmt.Errorf("ensure user %d: %w", userID, err)
	}
	return nil
}

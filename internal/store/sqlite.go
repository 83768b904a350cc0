package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/theSp0ty/Weather-bot-tg/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// SaveSession inserts or updates a session. The whole record is written
// on every save; callers persist immediately after each mutation and
// before acknowledging it to the user.
func (r *SQLiteRepo) SaveSession(ctx context.Context, s *domain.Session) error {
	if s == nil {
		return errors.New("nil session")
	}

	created := s.CreatedAt.UTC().Unix()
	if s.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (
			chat_id, created_at, cities, timezones, notify_city, send_time, state
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			cities      = excluded.cities,
			timezones   = excluded.timezones,
			notify_city = excluded.notify_city,
			send_time   = excluded.send_time,
			state       = excluded.state`,
		s.ChatID, created,
		encodeCities(s.Cities), encodeTimezones(s.Timezones),
		toNullString(s.NotifyCity), toNullString(s.SendTime),
		string(s.State),
	)
	return err
}

// GetSession returns the session for chatID or ErrNotFound.
func (r *SQLiteRepo) GetSession(ctx context.Context, chatID int64) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT chat_id, created_at, cities, timezones, notify_city, send_time, state
		FROM sessions
		WHERE chat_id = ?`,
		chatID,
	)
	s, err := scanSession(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListSessions returns every stored session, ordered by chat id. Used
// once at startup to rebuild notification triggers.
func (r *SQLiteRepo) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, created_at, cities, timezones, notify_city, send_time, state
		FROM sessions
		ORDER BY chat_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Session
	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func scanSession(scan func(dest ...any) error) (*domain.Session, error) {
	var (
		chatID     int64
		createdAt  int64
		cities     string
		timezones  string
		notifyCity sql.NullString
		sendTime   sql.NullString
		state      string
	)
	if err := scan(&chatID, &createdAt, &cities, &timezones, &notifyCity, &sendTime, &state); err != nil {
		return nil, err
	}
	return &domain.Session{
		ChatID:     chatID,
		Cities:     decodeCities(cities),
		Timezones:  decodeTimezones(timezones),
		NotifyCity: fromNullString(notifyCity),
		SendTime:   fromNullString(sendTime),
		State:      domain.ParseState(state),
		CreatedAt:  time.Unix(createdAt, 0).UTC(),
	}, nil
}

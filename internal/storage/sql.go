package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hammamikhairi/napflow/internal/domain"
	"github.com/hammamikhairi/napflow/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.Gateway          = (*SQLStore)(nil)
	_ domain.SessionCompleter = (*SQLStore)(nil)
)

// timeLayout is fixed-width so completion times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// schema is shared by SQLite and PostgreSQL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		identity TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		xp INTEGER NOT NULL,
		total_naps INTEGER NOT NULL,
		total_minutes INTEGER NOT NULL,
		current_streak INTEGER NOT NULL,
		last_nap_date TEXT,
		updated_at TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS naps (
		id TEXT PRIMARY KEY,
		identity TEXT NOT NULL,
		day TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		xp_awarded INTEGER NOT NULL,
		label TEXT NOT NULL,
		source TEXT NOT NULL,
		completed_at TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_naps_identity_day ON naps(identity, day);`,
}

const (
	qGetProfile = `SELECT name, xp, total_naps, total_minutes, current_streak, last_nap_date
FROM profiles WHERE identity = ?;`

	qUpsertProfile = `INSERT INTO profiles (identity, name, xp, total_naps, total_minutes, current_streak, last_nap_date, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(identity) DO UPDATE SET
  name=excluded.name,
  xp=excluded.xp,
  total_naps=excluded.total_naps,
  total_minutes=excluded.total_minutes,
  current_streak=excluded.current_streak,
  last_nap_date=excluded.last_nap_date,
  updated_at=excluded.updated_at;`

	qDeleteProfile = `DELETE FROM profiles WHERE identity = ?;`
	qDeleteNaps    = `DELETE FROM naps WHERE identity = ?;`

	qInsertNap = `INSERT INTO naps (id, identity, day, duration_minutes, xp_awarded, label, source, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`

	qQueryNaps = `SELECT id, day, duration_minutes, xp_awarded, label, source, completed_at
FROM naps WHERE identity = ? AND day >= ? AND day <= ?
ORDER BY day, completed_at;`
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLStore is a gateway on top of database/sql. The same statements run
// on SQLite and PostgreSQL; only the placeholder style differs.
type SQLStore struct {
	db     *sql.DB
	driver string
	rebind func(string) string
	log    *logger.Logger
}

func newSQLStore(ctx context.Context, db *sql.DB, driver string, rebind func(string) string, log *logger.Logger) (*SQLStore, error) {
	s := &SQLStore{db: db, driver: driver, rebind: rebind, log: log}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s.log.Debug("%s schema ready", s.driver)
	return nil
}

// GetProfile returns the stored profile or domain.ErrNotFound.
func (s *SQLStore) GetProfile(ctx context.Context, identity string) (*domain.Profile, error) {
	if err := checkIdentity(identity); err != nil {
		return nil, err
	}

	var (
		p    domain.Profile
		last sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.rebind(qGetProfile), identity).
		Scan(&p.Name, &p.XP, &p.TotalNaps, &p.TotalMinutes, &p.CurrentStreak, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if last.Valid && last.String != "" {
		d, err := domain.ParseDate(last.String)
		if err != nil {
			return nil, fmt.Errorf("get profile: %w", err)
		}
		p.LastNapDate = &d
	}
	return &p, nil
}

// SetProfile stores a profile, overwriting any previous one.
func (s *SQLStore) SetProfile(ctx context.Context, identity string, profile domain.Profile) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}
	return s.upsertProfile(ctx, s.db, identity, profile)
}

// Clear removes the profile and every nap of identity in one transaction.
func (s *SQLStore) Clear(ctx context.Context, identity string) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind(qDeleteNaps), identity); err != nil {
			return fmt.Errorf("delete naps: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(qDeleteProfile), identity); err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		return nil
	})
}

// AppendSession adds a completed nap to the log.
func (s *SQLStore) AppendSession(ctx context.Context, identity string, record domain.SessionRecord) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}
	return s.insertNap(ctx, s.db, identity, record)
}

// CompleteSession inserts the nap and stores the profile in one transaction.
func (s *SQLStore) CompleteSession(ctx context.Context, identity string, profile domain.Profile, record domain.SessionRecord) error {
	if err := checkIdentity(identity); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.insertNap(ctx, tx, identity, record); err != nil {
			return err
		}
		return s.upsertProfile(ctx, tx, identity, profile)
	})
}

// QuerySessions returns the naps in r, ordered by date and completion time.
func (s *SQLStore) QuerySessions(ctx context.Context, identity string, r domain.DateRange) ([]domain.SessionRecord, error) {
	if err := checkIdentity(identity); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(qQueryNaps), identity, r.From.String(), r.To.String())
	if err != nil {
		return nil, fmt.Errorf("query naps: %w", err)
	}
	defer rows.Close()

	out := []domain.SessionRecord{}
	for rows.Next() {
		var (
			rec       domain.SessionRecord
			day       string
			source    string
			completed string
		)
		if err := rows.Scan(&rec.ID, &day, &rec.DurationMinutes, &rec.XPAwarded, &rec.Label, &source, &completed); err != nil {
			return nil, fmt.Errorf("scan nap: %w", err)
		}
		if rec.Date, err = domain.ParseDate(day); err != nil {
			return nil, fmt.Errorf("scan nap %s: %w", rec.ID, err)
		}
		if rec.CompletedAt, err = time.Parse(time.RFC3339Nano, completed); err != nil {
			return nil, fmt.Errorf("scan nap %s: %w", rec.ID, err)
		}
		rec.Source = domain.Source(source)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query naps: %w", err)
	}
	return out, nil
}

func (s *SQLStore) upsertProfile(ctx context.Context, db execer, identity string, p domain.Profile) error {
	var last sql.NullString
	if p.LastNapDate != nil {
		last = sql.NullString{String: p.LastNapDate.String(), Valid: true}
	}
	_, err := db.ExecContext(ctx, s.rebind(qUpsertProfile),
		identity,
		p.Name,
		p.XP,
		p.TotalNaps,
		p.TotalMinutes,
		p.CurrentStreak,
		last,
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *SQLStore) insertNap(ctx context.Context, db execer, identity string, rec domain.SessionRecord) error {
	_, err := db.ExecContext(ctx, s.rebind(qInsertNap),
		rec.ID,
		identity,
		rec.Date.String(),
		rec.DurationMinutes,
		rec.XPAwarded,
		rec.Label,
		string(rec.Source),
		rec.CompletedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert nap: %w", err)
	}
	return nil
}

func (s *SQLStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// keepPlaceholders leaves "?" placeholders alone.
func keepPlaceholders(q string) string { return q }

// numberPlaceholders rewrites "?" placeholders as $1, $2, ...
func numberPlaceholders(q string) string {
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ykvlv/sunrise-countdown/internal/domain"
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

	// SQLite is a single-writer engine.
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

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
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

// LoadStages reads the persisted stage list. It returns ErrNotFound when
// nothing was saved yet and ErrCorrupt when the stored value cannot be used.
func (r *SQLiteRepo) LoadStages(ctx context.Context) ([]domain.StageDefinition, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, StagesKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var stages []domain.StageDefinition
	if err := json.Unmarshal([]byte(raw), &stages); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: empty stage list", ErrCorrupt)
	}
	if err := domain.ValidateStages(stages); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return stages, nil
}

// SaveStages replaces the persisted stage list.
func (r *SQLiteRepo) SaveStages(ctx context.Context, stages []domain.StageDefinition) error {
	raw, err := json.Marshal(stages)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at`,
		StagesKey, string(raw), time.Now().UTC().Unix(),
	)
	return err
}

// RecordNotification appends an emitted crossing to the log.
func (r *SQLiteRepo) RecordNotification(ctx context.Context, n Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (stage, sunrise_at, stage_at, fired_at, error)
		VALUES (?, ?, ?, ?, ?)`,
		n.Stage, n.SunriseAt.UTC().Unix(), n.StageAt.UTC().Unix(), n.FiredAt.UTC().Unix(),
		toNullString(n.Error),
	)
	return err
}

// ListNotifications returns crossings fired in [from, to), oldest first.
func (r *SQLiteRepo) ListNotifications(ctx context.Context, from, to time.Time) ([]Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, stage, sunrise_at, stage_at, fired_at, error
		FROM notifications
		WHERE fired_at >= ? AND fired_at < ?
		ORDER BY fired_at ASC, id ASC`,
		from.UTC().Unix(), to.UTC().Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Notification
	for rows.Next() {
		var (
			n                         Notification
			sunriseAt, stageAt, fired int64
			errText                   sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.Stage, &sunriseAt, &stageAt, &fired, &errText); err != nil {
			return nil, err
		}
		n.SunriseAt = fromUnix(sunriseAt)
		n.StageAt = fromUnix(stageAt)
		n.FiredAt = fromUnix(fired)
		n.Error = errText.String
		res = append(res, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

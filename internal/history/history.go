// Package history keeps an audit log of check-in runs in sqlite, it is only
// ever appended to and listed, never used to decide what a run does.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"acgfun-checkin/pkg/migrations"
)

//go:embed schema.sql
var Schema string

type Run struct {
	Id           int64
	StartedAt    time.Time
	User         string
	Success      bool
	State        string
	Via          string
	Notification string
	// Balance is nil when the balance could not be read.
	Balance *int
	Detail  string
}

type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the history database at path.
func Open(path string) (Store, error) {
	db, err := migrations.OpenAndMigrateDB(Schema, path)
	if err != nil {
		return Store{}, fmt.Errorf("history: %w", err)
	}
	return Store{db: db}, nil
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

func (s Store) Close() error {
	return s.db.Close()
}

func (s Store) Record(ctx context.Context, run Run) (int64, error) {
	var balance sql.NullInt64
	if run.Balance != nil {
		balance = sql.NullInt64{Int64: int64(*run.Balance), Valid: true}
	}

	res, err := s.db.ExecContext(
		ctx,
		`insert into runs(started_at, user, success, state, via, notification, balance, detail)
		values (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.Unix(),
		run.User,
		run.Success,
		run.State,
		run.Via,
		run.Notification,
		balance,
		run.Detail,
	)
	if err != nil {
		return 0, fmt.Errorf("history: record run: %w", err)
	}
	return res.LastInsertId()
}

// List returns the most recent runs first, at most `limit` of them.
func (s Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(
		ctx,
		`select id, started_at, user, success, state, via, notification, balance, detail
		from runs
		order by started_at desc, id desc
		limit ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt int64
		var balance sql.NullInt64
		err = rows.Scan(
			&run.Id,
			&startedAt,
			&run.User,
			&run.Success,
			&run.State,
			&run.Via,
			&run.Notification,
			&balance,
			&run.Detail,
		)
		if err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		run.StartedAt = time.Unix(startedAt, 0)
		if balance.Valid {
			b := int(balance.Int64)
			run.Balance = &b
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

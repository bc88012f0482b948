package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/bnema/flashota/internal/application/port"
	"github.com/bnema/flashota/internal/domain/entity"
	"github.com/bnema/flashota/internal/logging"
)

const sessionsTable = "update_sessions"

var sessionColumns = []string{
	"id", "kind", "current_version", "target_version", "status", "error",
	"bytes_written", "total_bytes", "started_at", "ended_at",
}

type journalRepo struct {
	db *sql.DB
}

// NewJournalRepository creates a SQLite-backed session journal.
func NewJournalRepository(db *sql.DB) port.SessionJournal {
	return &journalRepo{db: db}
}

// Record inserts the session, or updates it when a row with the same ID exists.
func (r *journalRepo) Record(ctx context.Context, session *entity.UpdateSession) error {
	if err := session.Validate(); err != nil {
		return err
	}

	var endedAt sql.NullTime
	if session.EndedAt != nil {
		endedAt = sql.NullTime{Time: session.EndedAt.UTC(), Valid: true}
	}

	query, args, err := squirrel.Insert(sessionsTable).
		Columns(sessionColumns...).
		Values(
			string(session.ID),
			string(session.Kind),
			session.CurrentVersion,
			session.TargetVersion,
			session.Status.String(),
			session.Error.String(),
			int64(session.BytesWritten),
			int64(session.TotalBytes),
			session.StartedAt.UTC(),
			endedAt,
		).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			target_version = excluded.target_version,
			status = excluded.status,
			error = excluded.error,
			bytes_written = excluded.bytes_written,
			total_bytes = excluded.total_bytes,
			ended_at = excluded.ended_at`).
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return fmt.Errorf("build session upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record session %s: %w", session.ShortID(), err)
	}

	logging.FromContext(ctx).Debug().
		Str("session", session.ShortID()).
		Str("kind", string(session.Kind)).
		Str("status", session.Status.String()).
		Msg("session recorded")
	return nil
}

// Recent returns up to limit sessions, newest first.
func (r *journalRepo) Recent(ctx context.Context, limit int) ([]*entity.UpdateSession, error) {
	if limit <= 0 {
		return nil, nil
	}

	query, args, err := squirrel.Select(sessionColumns...).
		From(sessionsTable).
		OrderBy("started_at DESC", "id DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build session query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sessions := make([]*entity.UpdateSession, 0, limit)
	for rows.Next() {
		s, err := scanSession(ctx, rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(ctx context.Context, rows *sql.Rows) (*entity.UpdateSession, error) {
	var (
		id, kind, current, target, status, errKind string
		written, total                             int64
		startedAt                                  time.Time
		endedAt                                    sql.NullTime
	)
	if err := rows.Scan(&id, &kind, &current, &target, &status, &errKind,
		&written, &total, &startedAt, &endedAt); err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	s := &entity.UpdateSession{
		ID:             entity.SessionID(id),
		Kind:           entity.SessionKind(kind),
		CurrentVersion: current,
		TargetVersion:  target,
		BytesWritten:   uint64(max(written, 0)),
		TotalBytes:     uint64(max(total, 0)),
		StartedAt:      startedAt.UTC(),
	}

	var ok bool
	if s.Status, ok = entity.ParseUpdateStatus(status); !ok {
		logging.FromContext(ctx).Warn().Str("session", id).Str("status", status).Msg("unknown status in journal")
	}
	if s.Error, ok = entity.ParseUpdateError(errKind); !ok {
		logging.FromContext(ctx).Warn().Str("session", id).Str("error", errKind).Msg("unknown error kind in journal")
	}
	if endedAt.Valid {
		t := endedAt.Time.UTC()
		s.EndedAt = &t
	}
	return s, nil
}

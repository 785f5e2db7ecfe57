// Package store persists pipeline run records to PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/wizreport/internal/config"
	"github.com/JonMunkholm/wizreport/internal/core"
)

// ErrDisabled is returned when no database is configured.
var ErrDisabled = errors.New("run log is not configured")

// DefaultRecentLimit is the page size used when Recent is called without one.
const DefaultRecentLimit = 50

const schemaSQL = `
CREATE TABLE IF NOT EXISTS run_log (
	id           UUID PRIMARY KEY,
	session_id   UUID,
	file_name    TEXT NOT NULL,
	kind         TEXT NOT NULL,
	total_rows   INTEGER,
	matched_rows INTEGER,
	sort_keys    INTEGER NOT NULL,
	filter_rows  INTEGER NOT NULL,
	logic        TEXT NOT NULL,
	duration_ms  BIGINT NOT NULL,
	error        TEXT,
	ip_address   INET,
	user_agent   TEXT,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS run_log_created_at_idx ON run_log (created_at DESC);
`

// RunEntry is one stored run record.
type RunEntry struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id,omitempty"`
	FileName    string    `json:"file_name"`
	Kind        string    `json:"kind"`
	TotalRows   int       `json:"total_rows"`
	MatchedRows int       `json:"matched_rows"`
	SortKeys    int       `json:"sort_keys"`
	FilterRows  int       `json:"filter_rows"`
	Logic       string    `json:"logic"`
	DurationMS  int64     `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunLog writes and reads the run_log table. It implements core.RunRecorder.
type RunLog struct {
	pool *pgxpool.Pool
}

var _ core.RunRecorder = (*RunLog)(nil)

// Open connects a pool using the audit settings and verifies it with a ping.
// It returns ErrDisabled when no database URL is configured.
func Open(ctx context.Context, cfg config.AuditConfig) (*pgxpool.Pool, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewRunLog wraps pool.
func NewRunLog(pool *pgxpool.Pool) *RunLog {
	return &RunLog{pool: pool}
}

// EnsureSchema creates the run_log table if it does not exist.
func (l *RunLog) EnsureSchema(ctx context.Context) error {
	if _, err := l.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create run_log: %w", err)
	}
	return nil
}

// RecordRun inserts one run record.
func (l *RunLog) RecordRun(ctx context.Context, rec core.RunRecord) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := l.pool.Exec(ctx, `
		INSERT INTO run_log (id, session_id, file_name, kind, total_rows, matched_rows,
			sort_keys, filter_rows, logic, duration_ms, error, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		toPgUUID(uuid.NewString()),
		toPgUUID(rec.SessionID),
		rec.FileName,
		rec.Kind,
		toPgInt4(rec.TotalRows, rec.Error == ""),
		toPgInt4(rec.MatchedRows, rec.Error == ""),
		rec.SortKeys,
		rec.FilterRows,
		string(rec.Logic),
		rec.Duration.Milliseconds(),
		toPgText(rec.Error),
		parseIP(rec.IPAddress),
		toPgText(rec.UserAgent),
		at,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the newest run records, newest first.
func (l *RunLog) Recent(ctx context.Context, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := l.pool.Query(ctx, `
		SELECT id, session_id, file_name, kind, total_rows, matched_rows, sort_keys,
			filter_rows, logic, duration_ms, error, ip_address, user_agent, created_at
		FROM run_log ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanRunEntry)
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	return entries, nil
}

// Purge deletes records older than retentionDays and returns how many were
// removed. A non-positive retention keeps everything.
func (l *RunLog) Purge(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	tag, err := l.pool.Exec(ctx, `DELETE FROM run_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRunEntry(row pgx.CollectableRow) (RunEntry, error) {
	var (
		id, sessionID      pgtype.UUID
		total, matched     pgtype.Int4
		errText, userAgent pgtype.Text
		ip                 *netip.Addr
		e                  RunEntry
	)
	err := row.Scan(&id, &sessionID, &e.FileName, &e.Kind, &total, &matched, &e.SortKeys,
		&e.FilterRows, &e.Logic, &e.DurationMS, &errText, &ip, &userAgent, &e.CreatedAt)
	if err != nil {
		return RunEntry{}, err
	}
	e.ID = fromPgUUID(id)
	e.SessionID = fromPgUUID(sessionID)
	e.TotalRows = int(total.Int32)
	e.MatchedRows = int(matched.Int32)
	e.Error = errText.String
	e.UserAgent = userAgent.String
	if ip != nil {
		e.IPAddress = ip.String()
	}
	return e, nil
}

// toPgUUID converts a string UUID to pgtype.UUID. Empty or invalid strings
// become NULL.
func toPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{}
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: u, Valid: true}
}

func fromPgUUID(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

func toPgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func toPgInt4(n int, valid bool) pgtype.Int4 {
	return pgtype.Int4{Int32: int32(n), Valid: valid}
}

// parseIP strips a port if present. Unparsable addresses are stored as NULL.
func parseIP(s string) *netip.Addr {
	if s == "" {
		return nil
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		s = h
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return nil
	}
	return &addr
}

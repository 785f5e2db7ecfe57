package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionLimit is returned when the maximum number of open sessions is reached.
var ErrSessionLimit = errors.New("session limit reached")

// Run kinds recorded in the run log.
const (
	RunUpload = "upload"
	RunQuery  = "query"
)

// RunRecord describes one pipeline run for the run log.
type RunRecord struct {
	SessionID   string
	FileName    string
	Kind        string
	TotalRows   int
	MatchedRows int
	SortKeys    int
	FilterRows  int
	Logic       LogicOp
	Duration    time.Duration
	Error       string
	IPAddress   string
	UserAgent   string
	At          time.Time
}

// RunRecorder persists run records. Recording failures are logged and never
// fail the run.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec RunRecord) error
}

// NopRecorder discards run records.
type NopRecorder struct{}

// RecordRun implements RunRecorder.
func (NopRecorder) RecordRun(context.Context, RunRecord) error { return nil }

// ServiceConfig holds the limits of a Service. Zero values use defaults.
type ServiceConfig struct {
	MaxConcurrent int
	MaxWait       time.Duration
	RunTimeout    time.Duration
	SessionTTL    time.Duration
	MaxSessions   int

	// OnRun, if set, is called after every run with its outcome.
	OnRun func(kind string, res *Result, err error)
}

// Default session settings.
const (
	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxSessions = 100
	DefaultRunTimeout  = 2 * time.Minute
)

// ColumnInfo describes one column of a session's table.
type ColumnInfo struct {
	Name       string      `json:"name"`
	Kind       Kind        `json:"kind"`
	Conditions []Condition `json:"conditions"`
}

// SessionInfo is the public view of a session.
type SessionInfo struct {
	ID        string       `json:"id"`
	FileName  string       `json:"file_name"`
	Bytes     int          `json:"bytes"`
	Rows      int          `json:"rows"`
	Columns   []ColumnInfo `json:"columns"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type session struct {
	info     SessionInfo
	raw      []byte
	lastUsed time.Time
}

// Service owns uploaded reports and runs the pipeline over them.
// Each session keeps only its raw bytes; every run rebuilds the table.
type Service struct {
	cfg      ServiceConfig
	pipeline *Pipeline
	limiter  *UploadLimiter
	recorder RunRecorder
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewService creates a Service. A nil recorder discards run records.
func NewService(cfg ServiceConfig, recorder RunRecorder, observe StageObserver) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Service{
		cfg:      cfg,
		pipeline: &Pipeline{Observe: observe},
		limiter:  NewUploadLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		recorder: recorder,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Limiter returns the run limiter, for status reporting and shutdown draining.
func (s *Service) Limiter() *UploadLimiter {
	return s.limiter
}

// CreateSession validates data by loading it once and stores it under a new
// session ID. Nothing is stored if the load fails.
func (s *Service) CreateSession(ctx context.Context, fileName string, data []byte) (SessionInfo, error) {
	if s.SessionCount() >= s.cfg.MaxSessions {
		return SessionInfo{}, fmt.Errorf("%w (%d open)", ErrSessionLimit, s.cfg.MaxSessions)
	}

	res, err := s.run(ctx, "", fileName, RunUpload, data, Request{})
	if err != nil {
		return SessionInfo{}, err
	}

	now := s.now()
	info := SessionInfo{
		ID:        uuid.New().String(),
		FileName:  fileName,
		Bytes:     len(data),
		Rows:      res.TotalRows,
		Columns:   describeColumns(res.Source),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		return SessionInfo{}, fmt.Errorf("%w (%d open)", ErrSessionLimit, s.cfg.MaxSessions)
	}
	s.sessions[info.ID] = &session{info: info, raw: data, lastUsed: now}

	slog.InfoContext(ctx, "session created",
		"session_id", info.ID,
		"file", fileName,
		"rows", info.Rows,
		"columns", len(info.Columns),
	)
	return info, nil
}

// Session returns the info of a live session.
func (s *Service) Session(id string) (SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return SessionInfo{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess.info, nil
}

// Sessions returns all live sessions, newest first.
func (s *Service) Sessions() []SessionInfo {
	s.mu.RLock()
	out := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.info)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// DeleteSession removes a session.
func (s *Service) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// Run executes req against the session's original upload and extends the
// session's lifetime.
func (s *Service) Run(ctx context.Context, id string, req Request) (*Result, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		now := s.now()
		sess.lastUsed = now
		sess.info.ExpiresAt = now.Add(s.cfg.SessionTTL)
	}
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	return s.run(ctx, id, sess.info.FileName, RunQuery, sess.raw, req)
}

// run acquires a slot, runs the pipeline with the run timeout, and records
// the outcome.
func (s *Service) run(ctx context.Context, id, fileName, kind string, raw []byte, req Request) (*Result, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	start := s.now()
	res, err := s.pipeline.Run(runCtx, bytes.NewReader(raw), req)

	rec := RunRecord{
		SessionID:  id,
		FileName:   fileName,
		Kind:       kind,
		SortKeys:   len(req.Sort),
		FilterRows: len(req.Filters.Rows),
		Logic:      req.Filters.Logic,
		Duration:   s.now().Sub(start),
		IPAddress:  GetIPAddressFromContext(ctx),
		UserAgent:  GetUserAgentFromContext(ctx),
		At:         start,
	}
	if rec.Logic == "" {
		rec.Logic = LogicAnd
	}
	if err != nil {
		rec.Error = err.Error()
	} else {
		rec.TotalRows = res.TotalRows
		rec.MatchedRows = res.MatchedRows()
	}
	if recErr := s.recorder.RecordRun(ctx, rec); recErr != nil {
		slog.WarnContext(ctx, "failed to record run", "session_id", id, "error", recErr)
	}
	if s.cfg.OnRun != nil {
		s.cfg.OnRun(kind, res, err)
	}

	return res, err
}

// SweepExpired removes sessions idle for longer than the TTL and returns how
// many were removed.
func (s *Service) SweepExpired() int {
	cutoff := s.now().Add(-s.cfg.SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func describeColumns(t *Table) []ColumnInfo {
	cols := make([]ColumnInfo, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = ColumnInfo{Name: c.Name, Kind: c.Kind, Conditions: ConditionsFor(c.Kind)}
	}
	return cols
}

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/wizreport/internal/core"
	"github.com/JonMunkholm/wizreport/internal/store"
)

// maxRequestBody caps JSON query bodies.
const maxRequestBody = 1 << 20

// HighlightStatus reports whether a highlight rule ran and, if not, why.
type HighlightStatus struct {
	Rule    core.HighlightRule `json:"rule"`
	Active  bool               `json:"active"`
	Matches int                `json:"matches"`
	Error   string             `json:"error,omitempty"`
}

// QueryResponse is the JSON form of one pipeline result.
type QueryResponse struct {
	TotalRows   int                `json:"total_rows"`
	MatchedRows int                `json:"matched_rows"`
	Columns     []core.ColumnInfo  `json:"columns"`
	Rows        [][]string         `json:"rows"`
	Styles      [][]string         `json:"styles,omitempty"`
	Truncated   bool               `json:"truncated"`
	Highlights  []HighlightStatus  `json:"highlights,omitempty"`
	Stages      []core.StageTiming `json:"stages"`
}

// RunsResponse lists recent run records.
type RunsResponse struct {
	Enabled bool             `json:"enabled"`
	Runs    []store.RunEntry `json:"runs"`
}

// HealthResponse is served by /healthz.
type HealthResponse struct {
	Status   string                   `json:"status"`
	Sessions int                      `json:"sessions"`
	Runs     core.UploadLimiterStatus `json:"runs"`
}

// handleCreateSession accepts a multipart "file" field or a raw CSV body.
// Raw bodies take their file name from the "name" query parameter.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var (
		name string
		data []byte
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		name, data, err = s.readUpload(w, r)
	} else {
		name = r.URL.Query().Get("name")
		if name == "" {
			name = "upload.csv"
		}
		data, err = io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize))
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			err = fmt.Errorf("file too large: %w", err)
		} else if err == nil && len(data) == 0 {
			err = errNoFile
		}
	}
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	info, err := s.service.CreateSession(r.Context(), name, data)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	w.Header().Set("Location", "/api/sessions/"+info.ID)
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Sessions())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteSession(chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleQuery runs a JSON request against a session. Rows are capped by the
// "limit" parameter (default RENDER_MAX_ROWS, 0 for all rows).
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var req core.Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && err != io.EOF {
		respondError(w, r, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)
		return
	}

	res, err := s.service.Run(r.Context(), id, req)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	limit := parseLimit(r.URL.Query(), "limit", s.cfg.Render.MaxRows)
	writeJSON(w, http.StatusOK, buildQueryResponse(res, limit))
}

// handleSummary runs the report query parameters and returns the summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r.URL.Query())
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	res, err := s.service.Run(r.Context(), chi.URLParam(r, "sessionID"), req)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, core.Summarize(res))
}

// handleRuns lists recent run records when the run log is configured.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusOK, RunsResponse{Runs: []store.RunEntry{}})
		return
	}
	runs, err := s.runs.Recent(r.Context(), parseLimit(r.URL.Query(), "limit", store.DefaultRecentLimit))
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, RunsResponse{Enabled: true, Runs: runs})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Sessions: s.service.SessionCount(),
		Runs:     s.service.Limiter().Status(),
	})
}

func buildQueryResponse(res *core.Result, limit int) QueryResponse {
	t := res.Table
	n := t.NumRows()
	if limit > 0 && n > limit {
		n = limit
	}

	resp := QueryResponse{
		TotalRows:   res.TotalRows,
		MatchedRows: res.MatchedRows(),
		Columns:     make([]core.ColumnInfo, len(t.Columns)),
		Rows:        make([][]string, n),
		Truncated:   n < t.NumRows(),
		Stages:      res.Stages,
	}
	for i, c := range t.Columns {
		resp.Columns[i] = core.ColumnInfo{Name: c.Name, Kind: c.Kind, Conditions: core.ConditionsFor(c.Kind)}
	}
	for i := 0; i < n; i++ {
		resp.Rows[i] = t.Row(i)
	}

	active := false
	for _, h := range res.Highlights {
		st := HighlightStatus{Rule: h.Rule, Active: h.Active()}
		if h.Active() {
			active = true
			st.Matches = h.Mask.Count()
		} else {
			st.Error = h.Err.Error()
		}
		resp.Highlights = append(resp.Highlights, st)
	}
	if active {
		resp.Styles = core.CellStyles(t, res.Highlights)[:n]
	}
	return resp
}

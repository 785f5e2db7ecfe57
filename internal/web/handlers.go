package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/wizreport/internal/core"
	"github.com/JonMunkholm/wizreport/internal/export"
	"github.com/JonMunkholm/wizreport/internal/logging"
	"github.com/JonMunkholm/wizreport/internal/web/templates"
)

// multipartMemory is how much of a multipart upload is buffered in memory
// before spilling to a temp file.
const multipartMemory = 32 << 20

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	render(w, r, templates.UploadPage(s.service.Sessions(), s.cfg.Upload.MaxFileSize))
}

// handleUpload creates a session from a multipart upload and redirects to
// its report.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	info, err := s.service.CreateSession(r.Context(), name, data)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	http.Redirect(w, r, "/report/"+info.ID, http.StatusSeeOther)
}

// readUpload returns the file name and contents of the "file" form field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
			return "", nil, fmt.Errorf("file too large: %w", err)
		}
		return "", nil, errNoFile
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errNoFile
	}
	defer file.Close()

	data, err := readAll(file, header)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

func readAll(file multipart.File, header *multipart.FileHeader) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, header.Size))
	if _, err := io.Copy(buf, file); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// handleReport runs the pipeline with the query's sort, filters, and
// highlights and renders the result.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	info, err := s.service.Session(id)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	req, err := parseRequest(r.URL.Query())
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	res, err := s.service.Run(r.Context(), id, req)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	render(w, r, templates.ReportPage(templates.ReportView{
		Session: info,
		Result:  res,
		Summary: core.Summarize(res),
		Styles:  core.CellStyles(res.Table, res.Highlights),
		Request: req,
		MaxRows: s.cfg.Render.MaxRows,
		Exports: exportLinks(id, r.URL.Query()),
	}))
}

// handleExport streams the full, uncapped result as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	q := r.URL.Query()

	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	req, err := parseRequest(q)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	info, err := s.service.Session(id)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	res, err := s.service.Run(r.Context(), id, req)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	// Buffer so a failed export still gets a proper error response.
	var buf bytes.Buffer
	if err := export.Write(&buf, res.Table, format); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	logging.WithFields(r.Context(), "session_id", id, "format", format).
		Info("report exported", "rows", res.MatchedRows(), "bytes", buf.Len())

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName(info.FileName)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// render writes an HTML component with a 200 status.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Warn("render failed", "error", err)
	}
}

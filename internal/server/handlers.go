package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/lepinkainen/readingwrapped/internal/goodreads"
)

// uploadMemory is how much of a multipart upload is kept in memory; the
// rest spills to temporary files.
const uploadMemory = 1 << 20

// Client facing upload error messages.
const (
	msgNoFile          = "No file uploaded"
	msgInvalidFileType = "Invalid file type"
	msgFileTooLarge    = "File too large"
)

// uploadError is a rejected upload with the status to answer with.
type uploadError struct {
	status  int
	message string
}

func (e *uploadError) Error() string {
	return e.message
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "working"})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	file, cleanup, ok := s.upload(w, r)
	if !ok {
		return
	}
	defer cleanup()

	result := s.analyzer.Validate(file)
	slog.Info("Validated upload", "status", result.Status, "books", result.TotalBooks, "request_id", RequestIDFrom(r.Context()))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	file, cleanup, ok := s.upload(w, r)
	if !ok {
		return
	}
	defer cleanup()

	result, err := s.analyzer.Analyze(r.Context(), file, s.period)
	if errors.Is(err, goodreads.ErrInvalidExport) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("Analysis failed", "error", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// upload returns the "file" part of a multipart request and a cleanup that
// closes it and removes spilled temp files. On failure the error response
// has already been written.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) (multipart.File, func(), bool) {
	file, err := openUpload(r)
	if err != nil {
		removeUploads(r.MultipartForm)

		uerr := &uploadError{status: http.StatusBadRequest, message: msgNoFile}
		_ = errors.As(err, &uerr)
		slog.Debug("Rejected upload", "error", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, uerr.status, uerr.message)
		return nil, nil, false
	}

	cleanup := func() {
		_ = file.Close()
		removeUploads(r.MultipartForm)
	}
	return file, cleanup, true
}

func openUpload(r *http.Request) (multipart.File, error) {
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &uploadError{status: http.StatusRequestEntityTooLarge, message: msgFileTooLarge}
		}
		return nil, &uploadError{status: http.StatusBadRequest, message: msgNoFile}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &uploadError{status: http.StatusBadRequest, message: msgNoFile}
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		_ = file.Close()
		return nil, &uploadError{status: http.StatusBadRequest, message: msgInvalidFileType}
	}

	slog.Debug("Upload received", "filename", filepath.Base(header.Filename), "size", header.Size)
	return file, nil
}

func removeUploads(form *multipart.Form) {
	if form == nil {
		return
	}
	if err := form.RemoveAll(); err != nil {
		slog.Warn("Failed to remove upload temp files", "error", err)
	}
}

package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MimeLyc/sentence-sub-translator/internal/config"
	"github.com/MimeLyc/sentence-sub-translator/internal/service"
	"github.com/MimeLyc/sentence-sub-translator/internal/subtitle"
	"github.com/MimeLyc/sentence-sub-translator/internal/termmap"
	"github.com/MimeLyc/sentence-sub-translator/pkg/log"
)

func (s *Server) handleLoadSubtitles(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "subtitle file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	res, err := s.session.Load(data, r.URL.Query().Get("format"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleListSubtitles(w http.ResponseWriter, r *http.Request) {
	entries := s.session.Entries(r.URL.Query().Get("q"))
	if entries == nil {
		entries = []subtitle.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleEditSubtitle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subtitle id")
		return
	}

	var patch service.EntryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	entry, err := s.session.EditEntry(id, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleBackendStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.BackendStatus())
}

func (s *Server) handleBackendCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.CheckConnection(r.Context()))
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Languages())
}

func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	var req service.StartRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
	}

	job, err := s.session.StartTranslation(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleCurrentJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.session.CurrentJob()
	if !ok {
		writeError(w, http.StatusNotFound, "no translation job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.session.CancelTranslation()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	encoding := query.Get("encoding")
	if encoding == "" {
		encoding = subtitle.EncodingUTF8
	}

	var buf bytes.Buffer
	if err := s.session.Export(&buf, encoding); err != nil {
		writeServiceError(w, err)
		return
	}

	name := s.session.ExportName(query.Get("filename"))
	w.Header().Set("Content-Type", fmt.Sprintf("application/x-subrip; charset=%s", encoding))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn("Failed to send export %s: %v", name, err)
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Settings())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req config.RuntimeSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	saved, err := s.session.ApplyRuntimeSettings(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleGetGlossary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Glossary())
}

func (s *Server) handlePutGlossary(w http.ResponseWriter, r *http.Request) {
	var req termmap.TermMap
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	saved, err := s.session.UpdateGlossary(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var stErr *service.SubTransError
	if !errors.As(err, &stErr) {
		log.Error("Unexpected error: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	body := map[string]any{
		"error": stErr.Message,
		"type":  stErr.Type.String(),
	}
	if len(stErr.Context) > 0 {
		body["details"] = stErr.Context
	}

	status := statusFor(stErr.Type)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed: %v", err)
	}
	writeJSON(w, status, body)
}

func statusFor(t service.ErrorType) int {
	switch t {
	case service.ErrValidation:
		return http.StatusBadRequest
	case service.ErrNotFound:
		return http.StatusNotFound
	case service.ErrConflict:
		return http.StatusConflict
	case service.ErrParse:
		return http.StatusUnprocessableEntity
	case service.ErrBackendUnavailable:
		return http.StatusServiceUnavailable
	case service.ErrTranslationBackend:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

package server

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/solarsim/solarsim/pkg/export"
	"github.com/solarsim/solarsim/pkg/log"
	"github.com/solarsim/solarsim/pkg/types"
)

func writeAttachment(w http.ResponseWriter, format types.ExportFormat, filename string, data []byte) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	filename, data, err := s.session.Export(format)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeAttachment(w, format, filename, data)
}

func (s *Server) handleArchiveExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	rec, err := s.session.ExportRecord(format)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := s.storage.SaveExport(ctx, rec); err != nil {
		writeErr(w, r, fmt.Errorf("failed to archive export: %w", err))
		return
	}
	log.Ctx(ctx).InfoContext(
		ctx,
		"archived export",
		slog.String("id", rec.ID),
		slog.String("filename", rec.Filename),
		slog.Int("bytes", len(rec.Data)),
	)
	w.Header().Set("Location", "/api/exports/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	var limit int
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSONError(w, "invalid limit: "+v, http.StatusBadRequest)
			return
		}
		limit = n
	}
	recs, err := s.storage.ListExports(r.Context(), limit)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if recs == nil {
		recs = []types.ExportRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.storage.GetExport(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeAttachment(w, rec.Format, rec.Filename, rec.Data)
}

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/solarsim/solarsim/pkg/log"
	"github.com/solarsim/solarsim/pkg/types"
)

// maxSettingsBody bounds the POST /api/settings body.
const maxSettingsBody = 1 << 12

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var update types.SettingsUpdate
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&update); err != nil {
		writeJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	settings, err := s.session.Update(ctx, update)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	log.Ctx(ctx).InfoContext(
		ctx,
		"settings updated",
		slog.String("location", settings.LocationID),
		slog.String("model", settings.ModelID),
		slog.Int("rangeDays", settings.RangeDays),
		slog.Float64("speed", settings.Speed),
		slog.Bool("alerts", settings.AlertsEnabled),
	)
	writeJSON(w, http.StatusOK, settings)
}

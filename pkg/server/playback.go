package server

import (
	"net/http"
)

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Series())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Chart())
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Summary())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.session.Start()
	writeJSON(w, http.StatusOK, s.session.Snapshot().State)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.session.Pause()
	writeJSON(w, http.StatusOK, s.session.Snapshot().State)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session.Reset()
	writeJSON(w, http.StatusOK, s.session.Snapshot().State)
}

func (s *Server) handleToggleAlerts(w http.ResponseWriter, r *http.Request) {
	s.session.ToggleAlerts()
	writeJSON(w, http.StatusOK, s.session.Snapshot().State)
}

package server

import (
	"net/http"
	"strconv"
)

// defaultPanels is the panel count the calculator starts with.
const defaultPanels = 20

func (s *Server) handleCalculator(w http.ResponseWriter, r *http.Request) {
	panels := defaultPanels
	if v := r.URL.Query().Get("panels"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSONError(w, "invalid panels: "+v, http.StatusBadRequest)
			return
		}
		panels = n
	}

	loc, err := s.catalog.Location(s.session.Settings().LocationID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	est, err := s.calculator.Estimate(panels, loc)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

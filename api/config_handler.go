// Package api — configuration and capability endpoints.
package api

import (
	"net/http"
	"sort"

	"github.com/seenimoa/filinglens/internal/config"
	"github.com/seenimoa/filinglens/internal/forecast"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config *config.Config `json:"config"`
	Source string         `json:"source"` // active retrieval source name
}

// handleGetConfig returns the running configuration. The config carries no
// credentials; the EDGAR user agent contact line is its only identifying
// field.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config: s.cfg,
			Source: s.source,
		},
	})
}

// handleStrategies lists the forecast strategies that can be requested by
// name, and which one runs when none is named.
func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	seen := make(map[string]bool)
	var names []string
	for _, st := range forecast.All() {
		if seen[st.Name()] {
			continue
		}
		seen[st.Name()] = true
		names = append(names, st.Name())
	}
	sort.Strings(names)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"strategies": names,
			"default":    s.analyzer.Strategy().Name(),
		},
	})
}

package api

import "net/http"

type providersResponse struct {
	Providers []string `json:"providers"`
}

// handleProviders answers the Open Question the spec leaves to the
// implementer: it reports the current sink's advertised providers, or 503
// when no sink is registered.
func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	session := s.registry.Current()
	if session == nil {
		jsonError(w, http.StatusServiceUnavailable, "No sink connected")
		return
	}
	conn := session.SinkConnection()
	if conn == nil {
		jsonError(w, http.StatusServiceUnavailable, "No sink connected")
		return
	}
	writeJSON(w, http.StatusOK, providersResponse{Providers: conn.Providers})
}

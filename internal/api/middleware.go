package api

import (
	"net/http"
	"os"
)

// recoverMiddleware turns a panic anywhere downstream into a 500 response
// instead of taking down the daemon.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered", "path", r.URL.Path, "error", err)
				jsonError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware sets the baseline headers appropriate for a
// daemon with no served HTML: no sniffing, no framing, and a CSP locked down
// to self plus the websocket scheme the sink endpoint needs.
func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		csp := os.Getenv("PROMPTIVD_CSP")
		if csp == "" {
			csp = "default-src 'none'; connect-src 'self' ws: wss:;"
		}
		w.Header().Set("Content-Security-Policy", csp)

		next.ServeHTTP(w, r)
	})
}

// corsMiddleware allows cross-origin submission from any origin: the
// daemon binds to loopback by default and has no cookie-based session to
// protect, so the usual same-origin concerns don't apply.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

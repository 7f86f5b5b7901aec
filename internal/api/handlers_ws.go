package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/midsbie/promptivd/internal/sink"
)

// upgrader accepts connections from any origin: the sink is typically a
// browser extension's native-messaging host or a local companion process,
// not a same-origin web page, so origin checking would reject legitimate
// clients without protecting anything.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleSinkWS upgrades the connection and hands it off to a new Session,
// blocking for the session's lifetime.
func (s *Server) handleSinkWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err.Error())
		return
	}

	cfg := sink.Config{
		SupersedeOnRegister:   s.cfg.Server.SupersedeOnRegister,
		MaxJobBytes:           s.cfg.Server.MaxJobBytes,
		PingInterval:          s.cfg.Server.WebsocketPingInterval.Duration(),
		PongTimeout:           s.cfg.Server.WebsocketPongTimeout.Duration(),
		MaxMissedPings:        s.cfg.Server.MaxMissedPings,
		OutboundQueueCapacity: s.cfg.Server.OutboundQueueCapacity,
	}

	session := sink.NewSession(conn, s.registry, cfg, s.logger)
	session.Run(r.Context())
}

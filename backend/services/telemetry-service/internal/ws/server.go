package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
)

// ScopeResolver lists the vehicles a viewer may follow.
type ScopeResolver interface {
	VisibleVehicles(ctx context.Context, viewer identity.Identity) (map[string]bool, error)
}

// Server upgrades console connections for live alerts.
type Server struct {
	hub          *Hub
	scopes       ScopeResolver
	secret       []byte
	logger       *zap.Logger
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

// NewServer builds ws server.
func NewServer(hub *Hub, scopes ScopeResolver, secret []byte, writeTimeout time.Duration, logger *zap.Logger) *Server {
	return &Server{
		hub:          hub,
		scopes:       scopes,
		secret:       secret,
		logger:       logger,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is HTTP handler for /ws/alerts. Browsers cannot set headers on a
// websocket handshake, so the token may come in the query string.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = identity.BearerToken(r.Header.Get("Authorization"))
	}
	claims, err := identity.ParseToken(s.secret, token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	viewer := claims.Identity()

	vehicles, err := s.scopes.VisibleVehicles(r.Context(), viewer)
	if err != nil {
		s.logger.Error("failed to resolve live scope", zap.String("user_id", viewer.UserID), zap.Error(err))
		http.Error(w, "failed to resolve vehicles", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(uuid.NewString(), viewer, vehicles, conn, s.writeTimeout, s.logger, s.hub.Remove)
	s.hub.Add(client)

	go client.Start()
	s.logger.Info("live client connected",
		zap.String("client_id", client.ID()),
		zap.String("user_id", viewer.UserID),
		zap.Int("vehicles", len(vehicles)),
	)
}

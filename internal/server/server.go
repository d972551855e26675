// Package server exposes the match sessions over websocket. Each game mode
// gets its own endpoint; a connection is upgraded, wrapped in a session for
// that mode, and messages are pumped between the socket and the session until
// either side hangs up.
package server

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/pong-arena/internal/config"
	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/session"
)

// Server is the websocket front of the arena.
type Server struct {
	cfg      config.Config
	deps     session.Deps
	logger   *log.Logger
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// New builds a server routing one endpoint per game mode.
func New(cfg config.Config, deps session.Deps) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With("component", "server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/local", s.serveMode(match.ModeLocal))
	mux.HandleFunc("/ws/ai", s.serveMode(match.ModeAI))
	mux.HandleFunc("/ws/remote", s.serveMode(match.ModeRemote))
	mux.HandleFunc("/ws/friend", s.serveMode(match.ModeFriend))
	mux.HandleFunc("/ws/tournament", s.serveMode(match.ModeTournament))
	mux.HandleFunc("/ws/remote-tournament", s.serveMode(match.ModeRemoteTournament))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.httpSrv = &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe blocks serving websocket traffic until Shutdown is called or
// the listener fails.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and tears down every live match and
// tournament.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpSrv.Shutdown(ctx)
	s.deps.Registry.Shutdown()
	s.logger.Info("server stopped")
	return err
}

// serveMode handles one connection for the given mode: upgrade, identify the
// player from query parameters, then feed inbound frames to the session until
// the socket closes.
func (s *Server) serveMode(mode match.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn("upgrade failed", "mode", mode, "err", err)
			return
		}

		player := playerFromQuery(r)
		inviteID := r.URL.Query().Get("invite")

		client := newWSClient(conn, s.cfg.Server.SendBuffer)
		go client.writePump()

		sess := session.New(mode, client, player, inviteID, s.deps)
		s.logger.Info("client connected", "mode", mode, "user", player.ID)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				break
			}
			sess.Handle(r.Context(), data)
		}

		sess.Close()
		client.Close()
		s.logger.Info("client disconnected", "mode", mode, "user", player.ID)
	}
}

// playerFromQuery extracts the player's identity. Anonymous connections get a
// generated id so the registry can still track them.
func playerFromQuery(r *http.Request) match.PlayerInfo {
	q := r.URL.Query()
	p := match.PlayerInfo{
		ID:     q.Get("user"),
		Name:   q.Get("name"),
		Avatar: q.Get("avatar"),
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	return p
}

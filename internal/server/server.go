// Package server exposes the games over HTTP and WebSocket.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/kuelshammer/LogicCastle-sub007/internal/game"
	"github.com/kuelshammer/LogicCastle-sub007/internal/session"
)

// Server is the HTTP server.
type Server struct {
	mux      *http.ServeMux
	registry *game.Registry
	manager  *session.Manager
}

// New creates a server with all routes.
func New(registry *game.Registry, manager *session.Manager) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		registry: registry,
		manager:  manager,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{code}", s.handleGetSession)
	s.mux.HandleFunc("GET /api/sessions/{code}/moves", s.handleListMoves)
	s.mux.HandleFunc("GET /api/sessions/{code}/ws", s.handleWebSocket)
	s.mux.HandleFunc("POST /api/sessions/{code}/start", s.handleStartSession)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// gameEntry is one lobby listing with the board's exact memory
// footprint alongside a readable form.
type gameEntry struct {
	game.GameInfo
	Memory string `json:"memory"`
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	infos := s.registry.List()
	entries := make([]gameEntry, len(infos))
	for i, info := range infos {
		entries[i] = gameEntry{
			GameInfo: info,
			Memory:   humanize.Bytes(uint64(info.BoardBytes)),
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.List())
}

type createSessionRequest struct {
	GameType   string `json:"gameType"`
	PlayerID   string `json:"playerId"`
	VsComputer bool   `json:"vsComputer"`
	Level      string `json:"level"`
}

type createSessionResponse struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.GameType = strings.TrimSpace(req.GameType)
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.GameType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "gameType required"})
		return
	}
	if req.PlayerID == "" {
		req.PlayerID = uuid.NewString()
	}

	sess, err := s.manager.Create(req.GameType, req.VsComputer, req.Level)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := sess.AddPlayer(req.PlayerID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{Code: sess.Code, PlayerID: req.PlayerID})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

type moveEntry struct {
	Seq      int             `json:"seq"`
	PlayerID string          `json:"playerId"`
	Action   json.RawMessage `json:"action"`
}

func (s *Server) handleListMoves(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if _, ok := s.manager.Get(code); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	rows, err := s.manager.Moves(code)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	entries := make([]moveEntry, len(rows))
	for i, row := range rows {
		entries[i] = moveEntry{
			Seq:      row.Seq,
			PlayerID: row.PlayerID,
			Action:   json.RawMessage(row.ActionJSON),
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err := sess.Start(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.manager.SaveMatchState(sess); err != nil {
		log.Printf("save match state: %v", err)
	}
	// Broadcast new state to all players
	s.broadcastState(sess)
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// newPlayerID mints an identity for anonymous joins.
func newPlayerID() string { return uuid.NewString() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package control

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"lautenbacher.net/lightoy/session"
)

const writeWait = time.Second

// Server exposes the dispatcher over HTTP.
type Server struct {
	dispatcher *Dispatcher
	session    *session.Session
	upgrader   websocket.Upgrader
	mux        *http.ServeMux
}

// NewServer builds the routes. extra handlers, e.g. the config editor,
// are mounted under their path.
func NewServer(s *session.Session, extra map[string]http.Handler) *Server {
	inst := &Server{
		dispatcher: NewDispatcher(s),
		session:    s,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	inst.mux.HandleFunc("/api/state", inst.handleState)
	inst.mux.HandleFunc("/api/effect", inst.handleEffect)
	inst.mux.HandleFunc("/api/event", inst.handleEvent)
	inst.mux.HandleFunc("/ws", inst.handleWS)
	for path, h := range extra {
		inst.mux.Handle(path, h)
	}
	return inst
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) Dispatcher() *Dispatcher { return s.dispatcher }

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleEffect(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]string{"name": s.session.ActiveName()})
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.session.SetActiveEffect(req.Name); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, session.ErrUnknownEffect) {
				status = http.StatusNotFound
			}
			writeJSON(w, status, result(err))
			return
		}
		writeJSON(w, http.StatusOK, result(nil))
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleEvent accepts a single event for clients without websocket
// support.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	resp, ok := s.dispatcher.Handle(msg)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()
	slog.Info("Control client connected", "remote", r.RemoteAddr)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Info("Control client disconnected", "remote", r.RemoteAddr)
			return
		}
		resp, err := s.dispatcher.HandleMessage(data)
		if err != nil {
			slog.Warn("Dropping malformed event", "remote", r.RemoteAddr, "error", err)
			continue
		}
		if resp == nil {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, resp); err != nil {
			slog.Warn("Failed to answer control client", "remote", r.RemoteAddr, "error", err)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

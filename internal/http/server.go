package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brianmcglynncode/FlyCabs/internal/chat"
	"github.com/brianmcglynncode/FlyCabs/internal/dispatch"
	"github.com/brianmcglynncode/FlyCabs/internal/roster"
	"github.com/brianmcglynncode/FlyCabs/internal/trips"
)

// Server is the polling JSON API. All coordinator state is owned by the
// injected collaborators; the server itself is stateless, so tests build
// one per case with isolated stores.
type Server struct {
	roster  roster.Roster
	trips   *trips.Store
	chat    *chat.Log
	push    *dispatch.PushDispatcher
	ws      *dispatch.WSRegistry
	logger  *slog.Logger
	maxBody int64
	mux     *mux.Router
}

type Options struct {
	Logger       *slog.Logger
	Roster       roster.Roster
	Trips        *trips.Store
	Chat         *chat.Log
	Push         *dispatch.PushDispatcher
	WS           *dispatch.WSRegistry
	MaxBodyBytes int64
}

func NewServer(opts Options) *Server {
	s := &Server{
		roster:  opts.Roster,
		trips:   opts.Trips,
		chat:    opts.Chat,
		push:    opts.Push,
		ws:      opts.WS,
		logger:  opts.Logger,
		maxBody: opts.MaxBodyBytes,
		mux:     mux.NewRouter(),
	}
	if s.maxBody <= 0 {
		s.maxBody = 50 << 20 // embedded profile pictures arrive as base64
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/drivers", s.handleListDrivers).Methods("GET")
	s.mux.HandleFunc("/api/driver/status", s.handleDriverStatus).Methods("POST")

	s.mux.HandleFunc("/api/requests", s.handleListRequests).Methods("GET")
	s.mux.HandleFunc("/api/request", s.handleCreateRequest).Methods("POST")
	s.mux.HandleFunc("/api/request/{id}/status", s.handleRequestStatus).Methods("GET")
	s.mux.HandleFunc("/api/request/accept", s.handleAcceptRequest).Methods("POST")
	s.mux.HandleFunc("/api/request/complete", s.handleCompleteRequest).Methods("POST")
	s.mux.HandleFunc("/api/request/cancel", s.handleCancelRequest).Methods("POST")

	s.mux.HandleFunc("/api/chat/{requestId}", s.handleListChat).Methods("GET")
	s.mux.HandleFunc("/api/chat/send", s.handleSendChat).Methods("POST")

	s.mux.HandleFunc("/api/subscribe", s.handleSubscribe).Methods("POST")
	s.mux.HandleFunc("/ws/driver/{driver_id}", s.handleWS)

	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }

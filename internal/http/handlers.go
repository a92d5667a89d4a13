package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/brianmcglynncode/FlyCabs/internal/models"
	"github.com/brianmcglynncode/FlyCabs/internal/observability"
	"github.com/brianmcglynncode/FlyCabs/internal/trips"
)

func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.roster.ListActive())
}

func (s *Server) handleDriverStatus(w http.ResponseWriter, r *http.Request) {
	var d models.Driver
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.roster.UpsertStatus(d); err != nil {
		s.storeError(w, err)
		return
	}
	count := len(s.roster.ListActive())
	observability.DriversOnline.Set(float64(count))
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": count})
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.trips.ListPending())
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var req models.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, err)
		return
	}
	id, err := s.trips.Create(req)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "requestId": id})
}

func (s *Server) handleRequestStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.writeJSON(w, http.StatusOK, s.trips.GetStatus(id))
}

func (s *Server) handleAcceptRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID            string `json:"id"`
		DriverName    string `json:"driverName"`
		DriverPicture string `json:"driverPicture"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.trips.Accept(body.ID, body.DriverName, body.DriverPicture); err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleCompleteRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.trips.Complete(body.ID); err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.trips.Cancel(body.ID); err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListChat(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestId"]
	s.writeJSON(w, http.StatusOK, s.chat.List(requestID))
}

func (s *Server) handleSendChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RequestID string        `json:"requestId"`
		Sender    models.Sender `json:"sender"`
		Text      string        `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.chat.Append(body.RequestID, body.Sender, body.Text); err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("ownerId")
	if ownerID == "" {
		ownerID = "anonymous"
	}
	var sub models.PushSubscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		s.badRequest(w, err)
		return
	}
	if err := s.push.Subscribe(ownerID, sub); err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"success": true})
}

var upgrader = websocket.Upgrader{}

// handleWS attaches a driver to the live feed. The read loop exists only
// to observe the close; all traffic is server-to-client.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	driverID := mux.Vars(r)["driver_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.ws.Add(driverID, conn)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.ws.Remove(driverID)
				conn.Close()
				return
			}
		}
	}()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": err.Error()})
}

// storeError maps coordinator errors onto the wire contract: validation
// failures are 400s, lifecycle failures are 200s with success:false so
// polling clients re-fetch status instead of treating them as transport
// errors.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		s.badRequest(w, err)
	case errors.Is(err, trips.ErrConflict), errors.Is(err, trips.ErrNotFound), errors.Is(err, trips.ErrInvalidState):
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": err.Error()})
	default:
		s.logger.Error("store operation failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "internal error"})
	}
}

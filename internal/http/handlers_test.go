package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brianmcglynncode/FlyCabs/internal/chat"
	"github.com/brianmcglynncode/FlyCabs/internal/dispatch"
	"github.com/brianmcglynncode/FlyCabs/internal/models"
	"github.com/brianmcglynncode/FlyCabs/internal/roster"
	"github.com/brianmcglynncode/FlyCabs/internal/trips"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(Options{
		Logger: logger,
		Roster: roster.NewMemory(),
		Trips:  trips.New(10 * time.Minute),
		Chat:   chat.New(50),
		Push:   dispatch.NewPushDispatcher(logger),
		WS:     dispatch.NewWSRegistry(logger),
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && json.Valid(rec.Body.Bytes()) {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func TestDriverStatusRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec, resp := doJSON(t, s, "POST", "/api/driver/status", models.Driver{ID: "d1", Name: "Peadar", Car: "Tesla Model 3", Active: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status upsert: %d %s", rec.Code, rec.Body)
	}
	if resp["success"] != true || resp["count"] != float64(1) {
		t.Fatalf("unexpected response %v", resp)
	}

	rec, _ = doJSON(t, s, "GET", "/api/drivers", nil)
	var drivers []models.Driver
	if err := json.Unmarshal(rec.Body.Bytes(), &drivers); err != nil {
		t.Fatalf("decode drivers: %v", err)
	}
	if len(drivers) != 1 || drivers[0].Name != "Peadar" {
		t.Fatalf("unexpected roster %+v", drivers)
	}

	// going offline drops the driver from the listing and the count
	rec, resp = doJSON(t, s, "POST", "/api/driver/status", models.Driver{ID: "d1", Name: "Peadar", Car: "Tesla Model 3", Active: false})
	if rec.Code != http.StatusOK || resp["count"] != float64(0) {
		t.Fatalf("offline upsert: %d %v", rec.Code, resp)
	}
}

func TestDriverStatusValidation(t *testing.T) {
	s := newTestServer(t)
	rec, _ := doJSON(t, s, "POST", "/api/driver/status", models.Driver{Car: "Tesla Model 3", Active: true})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// TestTripLifecycle walks the whole happy path: request, race between two
// drivers, passenger polling, completion.
func TestTripLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec, resp := doJSON(t, s, "POST", "/api/request", map[string]string{
		"from": "Dublin", "to": "Airport", "price": "25.00",
		"passengerId": "p1", "passengerName": "Brian",
	})
	if rec.Code != http.StatusOK || resp["success"] != true {
		t.Fatalf("create: %d %v", rec.Code, resp)
	}
	requestID, _ := resp["requestId"].(string)
	if requestID == "" {
		t.Fatalf("no requestId in %v", resp)
	}

	rec, _ = doJSON(t, s, "GET", "/api/requests", nil)
	var pending []models.Request
	if err := json.Unmarshal(rec.Body.Bytes(), &pending); err != nil {
		t.Fatalf("decode requests: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != requestID || pending[0].Status != models.StatusPending {
		t.Fatalf("unexpected pending list %+v", pending)
	}

	// driver A wins the accept
	rec, resp = doJSON(t, s, "POST", "/api/request/accept", map[string]string{"id": requestID, "driverName": "Aoife"})
	if rec.Code != http.StatusOK || resp["success"] != true {
		t.Fatalf("accept A: %d %v", rec.Code, resp)
	}

	// driver B loses: 200 with success:false so the client re-polls
	rec, resp = doJSON(t, s, "POST", "/api/request/accept", map[string]string{"id": requestID, "driverName": "Brendan"})
	msg, _ := resp["message"].(string)
	if rec.Code != http.StatusOK || resp["success"] != false || msg == "" {
		t.Fatalf("accept B: %d %v", rec.Code, resp)
	}

	// the taken request no longer shows up for other drivers
	rec, _ = doJSON(t, s, "GET", "/api/requests", nil)
	pending = nil
	_ = json.Unmarshal(rec.Body.Bytes(), &pending)
	if len(pending) != 0 {
		t.Fatalf("accepted request still listed: %+v", pending)
	}

	// passenger polls and sees the winner
	rec, resp = doJSON(t, s, "GET", "/api/request/"+requestID+"/status", nil)
	if resp["status"] != "accepted" || resp["driverName"] != "Aoife" {
		t.Fatalf("status after accept: %v", resp)
	}

	rec, resp = doJSON(t, s, "POST", "/api/request/complete", map[string]string{"id": requestID})
	if rec.Code != http.StatusOK || resp["success"] != true {
		t.Fatalf("complete: %d %v", rec.Code, resp)
	}

	rec, resp = doJSON(t, s, "GET", "/api/request/"+requestID+"/status", nil)
	if resp["status"] != "completed" {
		t.Fatalf("status after complete: %v", resp)
	}
}

func TestCancelBeforeAccept(t *testing.T) {
	s := newTestServer(t)

	_, resp := doJSON(t, s, "POST", "/api/request", map[string]string{
		"from": "Dublin", "to": "Airport", "price": "25.00", "passengerId": "p1", "passengerName": "Brian",
	})
	requestID := resp["requestId"].(string)

	rec, resp := doJSON(t, s, "POST", "/api/request/cancel", map[string]string{"id": requestID})
	if rec.Code != http.StatusOK || resp["success"] != true {
		t.Fatalf("cancel: %d %v", rec.Code, resp)
	}

	_, resp = doJSON(t, s, "GET", "/api/request/"+requestID+"/status", nil)
	if resp["status"] != "not_found" {
		t.Fatalf("status after cancel: %v", resp)
	}

	rec, _ = doJSON(t, s, "GET", "/api/requests", nil)
	var pending []models.Request
	_ = json.Unmarshal(rec.Body.Bytes(), &pending)
	if len(pending) != 0 {
		t.Fatalf("cancelled request still listed: %+v", pending)
	}

	// accepting after cancel is a lifecycle failure, not a transport error
	rec, resp = doJSON(t, s, "POST", "/api/request/accept", map[string]string{"id": requestID, "driverName": "Aoife"})
	if rec.Code != http.StatusOK || resp["success"] != false {
		t.Fatalf("accept after cancel: %d %v", rec.Code, resp)
	}
}

func TestCreateRequestValidation(t *testing.T) {
	s := newTestServer(t)
	rec, _ := doJSON(t, s, "POST", "/api/request", map[string]string{"from": "Dublin", "to": "Airport"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing price, got %d", rec.Code)
	}
}

func TestUnknownStatusIsTypedNotFound(t *testing.T) {
	s := newTestServer(t)
	rec, resp := doJSON(t, s, "GET", "/api/request/never-existed/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp["status"] != "not_found" {
		t.Fatalf("expected not_found sentinel, got %v", resp)
	}
}

func TestChatEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, resp := doJSON(t, s, "POST", "/api/chat/send", map[string]string{"requestId": "r1", "sender": "passenger", "text": "where are you?"})
	if rec.Code != http.StatusOK || resp["success"] != true {
		t.Fatalf("send: %d %v", rec.Code, resp)
	}
	rec, _ = doJSON(t, s, "POST", "/api/chat/send", map[string]string{"requestId": "r1", "sender": "driver", "text": "two minutes out"})
	if rec.Code != http.StatusOK {
		t.Fatalf("send: %d", rec.Code)
	}

	rec, _ = doJSON(t, s, "GET", "/api/chat/r1", nil)
	var msgs []models.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Sender != models.SenderPassenger || msgs[1].Text != "two minutes out" {
		t.Fatalf("unexpected history %+v", msgs)
	}

	// unknown conversation polls as empty, not as an error
	rec, _ = doJSON(t, s, "GET", "/api/chat/unknown", nil)
	msgs = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil || len(msgs) != 0 {
		t.Fatalf("unknown chat: err=%v msgs=%v", err, msgs)
	}

	rec, _ = doJSON(t, s, "POST", "/api/chat/send", map[string]string{"requestId": "r1", "sender": "passenger", "text": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty text, got %d", rec.Code)
	}
}

func TestSubscribeReturns201(t *testing.T) {
	s := newTestServer(t)
	rec, resp := doJSON(t, s, "POST", "/api/subscribe?ownerId=d1", models.PushSubscription{
		Endpoint: "https://push.example/ep",
		Keys:     models.SubscriptionKeys{P256dh: "key", Auth: "auth"},
	})
	if rec.Code != http.StatusCreated || resp["success"] != true {
		t.Fatalf("subscribe: %d %v", rec.Code, resp)
	}

	rec, _ = doJSON(t, s, "POST", "/api/subscribe", models.PushSubscription{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing endpoint, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
}

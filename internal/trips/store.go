package trips

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brianmcglynncode/FlyCabs/internal/models"
	"github.com/brianmcglynncode/FlyCabs/internal/observability"
)

var (
	// ErrNotFound means the request id is unknown, evicted, or cancelled.
	ErrNotFound = errors.New("request not found")
	// ErrConflict means an accept lost the race: the request is no longer pending.
	ErrConflict = errors.New("request already taken")
	// ErrInvalidState means the transition is not legal from the current status.
	ErrInvalidState = errors.New("invalid state for transition")
)

// Notifier fans a human-readable summary out to subscribed drivers.
// Delivery is best-effort and must never block request creation.
type Notifier interface {
	NotifyAll(title, body string)
}

// Journal receives lifecycle events for out-of-band archival.
type Journal interface {
	Publish(ev models.RideEvent) error
}

// StatusView is what polling passengers see for a single request id.
type StatusView struct {
	Status        models.Status `json:"status"`
	DriverName    string        `json:"driverName,omitempty"`
	DriverPicture string        `json:"driverPicture,omitempty"`
}

// Store owns ride-request records and their status transitions. All state
// lives in process memory; a single mutex sequences every mutation so the
// accept guard is a true atomic check-and-set. Stores are plain values
// handed to the HTTP layer, never package-level singletons, so each test
// can run against its own instance.
type Store struct {
	// Notifier and Journal are optional collaborators wired at startup.
	Notifier Notifier
	Journal  Journal

	mu        sync.Mutex
	requests  map[string]*models.Request
	retention time.Duration

	now   func() time.Time
	newID func() string
}

// New builds an empty store with the given retention window.
func New(retention time.Duration) *Store {
	return &Store{
		requests:  make(map[string]*models.Request),
		retention: retention,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Create registers a new pending request and returns its id. The caller
// supplies the passenger fields; id, status, and createdAt are assigned
// here. Every create also sweeps records older than the retention window,
// which amortizes eviction without a background timer.
func (s *Store) Create(req models.Request) (string, error) {
	switch {
	case req.From == "":
		return "", &models.ValidationError{Field: "from"}
	case req.To == "":
		return "", &models.ValidationError{Field: "to"}
	case req.Price == "":
		return "", &models.ValidationError{Field: "price"}
	}

	now := s.now()
	rec := &models.Request{
		ID:               s.newID(),
		From:             req.From,
		To:               req.To,
		Price:            req.Price,
		PassengerID:      req.PassengerID,
		PassengerName:    req.PassengerName,
		PassengerPicture: req.PassengerPicture,
		Status:           models.StatusPending,
		CreatedAt:        now,
	}

	s.mu.Lock()
	evicted := s.sweepLocked(now)
	s.requests[rec.ID] = rec
	s.mu.Unlock()

	observability.RequestsCreated.Inc()
	for _, id := range evicted {
		s.journal(models.RideEvent{RequestID: id, Type: models.EventEvicted, OccurredAt: now})
	}
	summary := fmt.Sprintf("€%s from %s", rec.Price, rec.PassengerName)
	s.journal(models.RideEvent{RequestID: rec.ID, Type: models.EventCreated, Summary: summary, OccurredAt: now})
	if s.Notifier != nil {
		// fire-and-forget; creation never waits on delivery
		go s.Notifier.NotifyAll("New lift request", summary)
	}
	return rec.ID, nil
}

// ListPending returns pending requests in creation order. Accepted and
// completed requests are visible only via GetStatus, so a driver never
// re-offers a trip already taken.
func (s *Store) ListPending() []models.Request {
	s.mu.Lock()
	out := make([]models.Request, 0, len(s.requests))
	for _, r := range s.requests {
		if r.Status == models.StatusPending {
			out = append(out, *r)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// GetStatus reports the current status of one request. Unknown, evicted,
// and cancelled ids all read as not_found; polling passengers treat that
// as "trip abandoned" and return to the home screen.
func (s *Store) GetStatus(id string) StatusView {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return StatusView{Status: models.StatusNotFound}
	}
	return StatusView{Status: r.Status, DriverName: r.DriverName, DriverPicture: r.DriverPicture}
}

// Accept claims a pending request for one driver. The check and the write
// happen under the store mutex, so of any number of concurrent accepts on
// the same id exactly one succeeds; the rest get ErrConflict (or
// ErrNotFound if the request vanished) with no mutation.
func (s *Store) Accept(id, driverName, driverPicture string) error {
	if id == "" {
		return &models.ValidationError{Field: "id"}
	}
	if driverName == "" {
		return &models.ValidationError{Field: "driverName"}
	}

	s.mu.Lock()
	r, ok := s.requests[id]
	if !ok {
		s.mu.Unlock()
		observability.AcceptConflicts.Inc()
		return ErrNotFound
	}
	if r.Status != models.StatusPending {
		s.mu.Unlock()
		observability.AcceptConflicts.Inc()
		return ErrConflict
	}
	r.Status = models.StatusAccepted
	r.DriverName = driverName
	r.DriverPicture = driverPicture
	s.mu.Unlock()

	observability.RequestsAccepted.Inc()
	s.journal(models.RideEvent{RequestID: id, Type: models.EventAccepted, Summary: driverName, OccurredAt: s.now()})
	return nil
}

// Complete marks an accepted trip as finished. Only accepted requests may
// complete; pending or already-completed ones fail without mutation.
func (s *Store) Complete(id string) error {
	s.mu.Lock()
	r, ok := s.requests[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if r.Status != models.StatusAccepted {
		s.mu.Unlock()
		return ErrInvalidState
	}
	r.Status = models.StatusCompleted
	s.mu.Unlock()

	observability.RequestsCompleted.Inc()
	s.journal(models.RideEvent{RequestID: id, Type: models.EventCompleted, OccurredAt: s.now()})
	return nil
}

// Cancel removes a pending request outright. The record is deleted, not
// flagged, so the id never resurfaces in listings or status checks.
func (s *Store) Cancel(id string) error {
	s.mu.Lock()
	r, ok := s.requests[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if r.Status != models.StatusPending {
		s.mu.Unlock()
		return ErrInvalidState
	}
	delete(s.requests, id)
	s.mu.Unlock()

	observability.RequestsCancelled.Inc()
	s.journal(models.RideEvent{RequestID: id, Type: models.EventCancelled, OccurredAt: s.now()})
	return nil
}

// sweepLocked deletes every record older than the retention window,
// regardless of status, and returns the evicted ids. Caller holds s.mu.
func (s *Store) sweepLocked(now time.Time) []string {
	cutoff := now.Add(-s.retention)
	var evicted []string
	for id, r := range s.requests {
		if r.CreatedAt.Before(cutoff) {
			delete(s.requests, id)
			evicted = append(evicted, id)
		}
	}
	if n := len(evicted); n > 0 {
		observability.RequestsEvicted.Add(float64(n))
	}
	return evicted
}

func (s *Store) journal(ev models.RideEvent) {
	if s.Journal == nil {
		return
	}
	_ = s.Journal.Publish(ev) // best-effort
}

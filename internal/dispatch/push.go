package dispatch

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/brianmcglynncode/FlyCabs/internal/models"
	"github.com/brianmcglynncode/FlyCabs/internal/observability"
)

// PushDispatcher holds browser push subscriptions and fans new-request
// summaries out to their endpoints. Delivery is best-effort and at-most-once:
// a "gone" response prunes the subscription, any other failure is logged and
// forgotten. There is no retry; polling is the real synchronization channel.
type PushDispatcher struct {
	mu   sync.Mutex
	subs map[string]models.PushSubscription // keyed by endpoint

	client *http.Client
	logger *slog.Logger
}

func NewPushDispatcher(logger *slog.Logger) *PushDispatcher {
	return &PushDispatcher{
		subs:   make(map[string]models.PushSubscription),
		client: &http.Client{Timeout: 3 * time.Second},
		logger: logger,
	}
}

// Subscribe registers a subscription keyed by its endpoint. A browser may
// reissue a new endpoint for the same owner, so re-subscription from the
// same endpoint replaces the prior entry rather than keying by owner.
func (p *PushDispatcher) Subscribe(ownerID string, sub models.PushSubscription) error {
	if sub.Endpoint == "" {
		return &models.ValidationError{Field: "endpoint"}
	}
	sub.OwnerID = ownerID
	p.mu.Lock()
	p.subs[sub.Endpoint] = sub
	p.mu.Unlock()
	return nil
}

// Count reports the number of live subscriptions.
func (p *PushDispatcher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// NotifyAll posts the notification payload to every subscribed endpoint.
func (p *PushDispatcher) NotifyAll(title, body string) {
	p.mu.Lock()
	endpoints := make([]string, 0, len(p.subs))
	for ep := range p.subs {
		endpoints = append(endpoints, ep)
	}
	p.mu.Unlock()

	payload, _ := json.Marshal(map[string]string{"title": title, "body": body})
	for _, ep := range endpoints {
		resp, err := p.client.Post(ep, "application/json", bytes.NewReader(payload))
		if err != nil {
			p.logger.Warn("push delivery failed", "endpoint", ep, "error", err)
			continue
		}
		resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			p.mu.Lock()
			delete(p.subs, ep)
			p.mu.Unlock()
			observability.PushPruned.Inc()
			p.logger.Info("pruned gone subscription", "endpoint", ep)
		case resp.StatusCode >= 300:
			p.logger.Warn("push delivery rejected", "endpoint", ep, "status", resp.StatusCode)
		default:
			observability.PushDeliveries.Inc()
		}
	}
}

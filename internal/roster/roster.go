package roster

import (
	"sync"
	"time"

	"github.com/brianmcglynncode/FlyCabs/internal/models"
)

// Roster is the minimal interface required by the HTTP handlers: drivers
// upsert their whole record on every status change, passengers list who is
// visible right now.
type Roster interface {
	UpsertStatus(d models.Driver) error
	ListActive() []models.Driver
}

// Memory is the default in-process roster. Going offline deletes the
// record, matching how the reference server drops inactive drivers.
type Memory struct {
	mu      sync.RWMutex
	drivers map[string]models.Driver
}

func NewMemory() *Memory {
	return &Memory{drivers: make(map[string]models.Driver)}
}

func (m *Memory) UpsertStatus(d models.Driver) error {
	if err := validate(d); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !d.Active {
		delete(m.drivers, d.ID)
		return nil
	}
	d.Updated = time.Now()
	m.drivers[d.ID] = d
	return nil
}

func (m *Memory) ListActive() []models.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		out = append(out, d)
	}
	return out
}

func validate(d models.Driver) error {
	if d.ID == "" {
		return &models.ValidationError{Field: "id"}
	}
	if d.Name == "" {
		return &models.ValidationError{Field: "name"}
	}
	return nil
}

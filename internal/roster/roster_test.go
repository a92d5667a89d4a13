package roster

import (
	"errors"
	"testing"

	"github.com/brianmcglynncode/FlyCabs/internal/models"
)

func TestUpsertValidation(t *testing.T) {
	m := NewMemory()
	for _, d := range []models.Driver{
		{Name: "Peadar", Car: "Tesla Model 3", Active: true},
		{ID: "d1", Car: "Tesla Model 3", Active: true},
	} {
		err := m.UpsertStatus(d)
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError for %+v, got %v", d, err)
		}
	}
	if got := len(m.ListActive()); got != 0 {
		t.Fatalf("rejected upserts must not mutate, got %d drivers", got)
	}
}

func TestUpsertReplacesWholesale(t *testing.T) {
	m := NewMemory()
	if err := m.UpsertStatus(models.Driver{ID: "d1", Name: "Peadar", Car: "Tesla Model 3", Active: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := m.UpsertStatus(models.Driver{ID: "d1", Name: "Peadar", Car: "VW ID.4", Active: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	active := m.ListActive()
	if len(active) != 1 {
		t.Fatalf("expected one live entry per id, got %d", len(active))
	}
	if active[0].Car != "VW ID.4" {
		t.Fatalf("expected wholesale replacement, got %+v", active[0])
	}
}

func TestInactiveExcludedFromListing(t *testing.T) {
	m := NewMemory()
	_ = m.UpsertStatus(models.Driver{ID: "d1", Name: "Peadar", Car: "Tesla Model 3", Active: true})
	_ = m.UpsertStatus(models.Driver{ID: "d2", Name: "Niamh", Car: "VW ID.4", Active: true})
	_ = m.UpsertStatus(models.Driver{ID: "d1", Name: "Peadar", Car: "Tesla Model 3", Active: false})

	active := m.ListActive()
	if len(active) != 1 || active[0].ID != "d2" {
		t.Fatalf("expected only d2 visible, got %+v", active)
	}

	// going offline with an unknown id is a no-op, not an error
	if err := m.UpsertStatus(models.Driver{ID: "ghost", Name: "Ghost", Active: false}); err != nil {
		t.Fatalf("offline unknown id: %v", err)
	}
}

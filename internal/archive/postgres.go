package archive

import (
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/brianmcglynncode/FlyCabs/internal/models"
)

// EventStore appends journal events to Postgres. Only cmd/journal writes
// here; the API itself keeps all live state in memory.
type EventStore struct {
	db *sql.DB
}

func Open(dsn string) (*EventStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &EventStore{db: db}, nil
}

func (s *EventStore) SaveEvent(ev models.RideEvent) error {
	_, err := s.db.Exec(`INSERT INTO ride_events(request_id, event_type, summary, occurred_at) VALUES($1,$2,$3,$4)`,
		ev.RequestID, string(ev.Type), ev.Summary, ev.OccurredAt)
	return err
}

// Migrate applies the given DDL. cmd/journal calls this with the bundled
// migration file when MIGRATE=true.
func (s *EventStore) Migrate(ddl string) error {
	_, err := s.db.Exec(ddl)
	return err
}

func (s *EventStore) Close() error { return s.db.Close() }

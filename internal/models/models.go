package models

import "time"

// Driver is a roster entry. Drivers re-post their full record on every
// status change, so there is no partial-update path.
type Driver struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Car     string    `json:"car"`
	Picture string    `json:"picture,omitempty"` // base64 data URL
	Active  bool      `json:"active"`
	Updated time.Time `json:"updated,omitempty"`
}

// Status is the lifecycle state of a ride request. Cancelled requests are
// deleted outright, so only the states below are ever stored.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusCompleted Status = "completed"

	// StatusNotFound is the sentinel returned to polling clients whose
	// request was cancelled or evicted. It is never stored.
	StatusNotFound Status = "not_found"
)

// Request is a passenger's lift solicitation.
type Request struct {
	ID               string    `json:"id"`
	From             string    `json:"from"`
	To               string    `json:"to"`
	Price            string    `json:"price"`
	PassengerID      string    `json:"passengerId"`
	PassengerName    string    `json:"passengerName"`
	PassengerPicture string    `json:"passengerPicture,omitempty"`
	Status           Status    `json:"status"`
	DriverName       string    `json:"driverName,omitempty"`
	DriverPicture    string    `json:"driverPicture,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Sender identifies which side of a trip wrote a chat message.
type Sender string

const (
	SenderPassenger Sender = "passenger"
	SenderDriver    Sender = "driver"
)

type Message struct {
	RequestID string    `json:"requestId"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// PushSubscription mirrors the browser PushSubscription JSON shape.
type PushSubscription struct {
	OwnerID  string           `json:"ownerId,omitempty"`
	Endpoint string           `json:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
}

type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// EventType tags entries in the ride-event journal.
type EventType string

const (
	EventCreated   EventType = "created"
	EventAccepted  EventType = "accepted"
	EventCompleted EventType = "completed"
	EventCancelled EventType = "cancelled"
	EventEvicted   EventType = "evicted"
)

// RideEvent is the journal record published to Kafka for each lifecycle
// transition and archived by cmd/journal.
type RideEvent struct {
	RequestID  string    `json:"request_id"`
	Type       EventType `json:"type"`
	Summary    string    `json:"summary,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ValidationError reports a missing or malformed input field. Handlers map
// it to a 400 response with no state change.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string { return "missing or invalid field: " + e.Field }

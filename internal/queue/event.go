// Package queue defines the portal event envelope exchanged over the
// message broker and the background consumer that records events.
package queue

// Event types published on the portal events queue.
const (
	TypeLoginCompleted  = "login.completed"
	TypeContactReceived = "contact.received"
)

// EventQueue is the durable queue all portal events travel through.
const EventQueue = "portal.events"

// Event is the envelope for portal domain events. Events are
// best-effort operational signals (audit trail, notifications,
// analytics) and carry enough information for downstream consumers to
// act without querying the primary database. Fields irrelevant to a
// given type are omitted from the JSON.
type Event struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	OccurredAt string `json:"occurred_at"`
	Email      string `json:"email,omitempty"`
	UserID     uint64 `json:"user_id,omitempty"`
	Name       string `json:"name,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
}

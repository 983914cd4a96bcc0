package domain

import "time"

// SubmittedEvent is published once a fulfillment order has been accepted.
type SubmittedEvent struct {
	EventID     string    `json:"event_id"`
	RunID       string    `json:"run_id"`
	OrderID     string    `json:"order_id"`
	Marketplace string    `json:"marketplace"`
	RequestID   string    `json:"request_id,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

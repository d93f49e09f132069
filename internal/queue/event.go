// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer of the
// booking.notifications queue.
package queue

import "context"

// Notification kinds.
const (
    KindBookingCreated       = "booking_created"
    KindBookingStatusUpdated = "booking_status_updated"
)

// Notification is published after a booking commits.  It contains
// everything the consumer needs to render an email without querying the
// primary database.
type Notification struct {
    Kind          string   `json:"kind"`
    To            string   `json:"to"`
    RecipientName string   `json:"recipient_name"`
    BookingID     uint64   `json:"booking_id"`
    EventID       uint64   `json:"event_id"`
    EventTitle    string   `json:"event_title"`
    Venue         string   `json:"venue"`
    StartsAt      string   `json:"starts_at"`
    TicketType    string   `json:"ticket_type"`
    Quantity      int      `json:"quantity"`
    TotalPrice    string   `json:"total_price"`
    BookingStatus string   `json:"booking_status"`
    PaymentStatus string   `json:"payment_status"`
    Updates       []string `json:"updates,omitempty"`
    UpdatedBy     string   `json:"updated_by,omitempty"`
    OccurredAt    string   `json:"occurred_at"`
}

// Sender delivers a notification, e.g. by email or onto the broker.
type Sender interface {
    Send(ctx context.Context, n Notification) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, n Notification) error

// Send calls f(ctx, n).
func (f SenderFunc) Send(ctx context.Context, n Notification) error { return f(ctx, n) }

package model

import (
    "strings"
    "time"

    "github.com/shopspring/decimal"
)

// EventStatus is the publication state of an event.  Only PUBLISHED
// events accept bookings.
type EventStatus string

const (
    EventDraft     EventStatus = "DRAFT"
    EventPublished EventStatus = "PUBLISHED"
    EventCancelled EventStatus = "CANCELLED"
    EventCompleted EventStatus = "COMPLETED"
)

// Valid reports whether s is one of the known event states.
func (s EventStatus) Valid() bool {
    switch s {
    case EventDraft, EventPublished, EventCancelled, EventCompleted:
        return true
    }
    return false
}

// Event represents a ticketed event created by an organizer.  The
// ticket types embedded in the event form the inventory ledger: each
// type carries its own allotment and the running sold counter.
//
// Fields:
//  ID          – primary key identifier.
//  OrganizerID – user ID of the organizer who owns the event.
//  Title       – display title.
//  Venue       – free-form venue description.
//  StartsAt    – when the event begins.
//  Status      – publication state (DRAFT, PUBLISHED, CANCELLED, COMPLETED).
//  TicketTypes – inventory ledger rows, ordered by position.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
    ID          uint64       // events.id
    OrganizerID uint64       // events.organizer_id
    Title       string       // events.title
    Venue       string       // events.venue
    StartsAt    time.Time    // events.starts_at
    Status      EventStatus  // events.status
    TicketTypes []TicketType // ticket_types rows for this event
    CreatedAt   time.Time    // events.created_at
    UpdatedAt   time.Time    // events.updated_at
}

// TicketType is one row of the inventory ledger.  Name is the lookup
// key within an event; it is matched case-insensitively after trimming.
// Sold must always satisfy 0 <= Sold <= Quantity.
type TicketType struct {
    ID       uint64          // ticket_types.id
    EventID  uint64          // ticket_types.event_id
    Name     string          // ticket_types.name
    Price    decimal.Decimal // ticket_types.price
    Quantity int             // ticket_types.quantity
    Sold     int             // ticket_types.sold
}

// Remaining returns the number of tickets still available.
func (t TicketType) Remaining() int {
    return t.Quantity - t.Sold
}

// NormalizeTicketTypeName trims and lower-cases a ticket type name so
// that lookups ignore surrounding whitespace and case.
func NormalizeTicketTypeName(name string) string {
    return strings.ToLower(strings.TrimSpace(name))
}

// FindTicketType returns the ticket type whose name matches the given
// name (case-insensitive, trimmed).  The returned pointer refers to the
// element inside e.TicketTypes.
func (e *Event) FindTicketType(name string) (*TicketType, bool) {
    want := NormalizeTicketTypeName(name)
    if want == "" {
        return nil, false
    }
    for i := range e.TicketTypes {
        if NormalizeTicketTypeName(e.TicketTypes[i].Name) == want {
            return &e.TicketTypes[i], true
        }
    }
    return nil, false
}

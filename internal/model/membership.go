package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// OwnerKind identifies whose membership list an entry belongs to.
type OwnerKind string

const (
    OwnerUser      OwnerKind = "USER"
    OwnerOrganizer OwnerKind = "ORGANIZER"
)

// MembershipEntry is a denormalized booking summary kept on the
// purchaser's list (OwnerUser) and on the event organizer's list
// (OwnerOrganizer).  It is keyed by BookingID and mirrors the booking
// status of the authoritative Booking.
type MembershipEntry struct {
    OwnerKind  OwnerKind       `json:"-"`          // booked_events.owner_kind
    OwnerID    uint64          `json:"-"`          // booked_events.owner_id
    BookingID  uint64          `json:"bookingId"`  // booked_events.booking_id
    EventID    uint64          `json:"eventId"`    // booked_events.event_id
    TicketType string          `json:"ticketType"` // booked_events.ticket_type
    Quantity   int             `json:"quantity"`   // booked_events.quantity
    TotalPrice decimal.Decimal `json:"totalPrice"` // booked_events.total_price
    Status     BookingStatus   `json:"status"`     // booked_events.status
    BookedAt   time.Time       `json:"bookedAt"`   // booked_events.booked_at
}

// MembershipFromBooking builds the list entry for the given owner.
func MembershipFromBooking(kind OwnerKind, ownerID uint64, b *Booking) MembershipEntry {
    return MembershipEntry{
        OwnerKind:  kind,
        OwnerID:    ownerID,
        BookingID:  b.ID,
        EventID:    b.EventID,
        TicketType: b.TicketType,
        Quantity:   b.Quantity,
        TotalPrice: b.TotalPrice,
        Status:     b.BookingStatus,
        BookedAt:   b.CreatedAt,
    }
}

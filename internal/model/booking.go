package model

import (
    "strings"
    "time"

    "github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
    BookingPending   BookingStatus = "PENDING"
    BookingConfirmed BookingStatus = "CONFIRMED"
    BookingCancelled BookingStatus = "CANCELLED"
    BookingRefunded  BookingStatus = "REFUNDED"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
    switch s {
    case BookingPending, BookingConfirmed, BookingCancelled, BookingRefunded:
        return true
    }
    return false
}

// PaymentStatus is the payment state of a booking.  It moves
// independently of BookingStatus.
type PaymentStatus string

const (
    PaymentPending  PaymentStatus = "PENDING"
    PaymentPaid     PaymentStatus = "PAID"
    PaymentFailed   PaymentStatus = "FAILED"
    PaymentRefunded PaymentStatus = "REFUNDED"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
    switch s {
    case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
        return true
    }
    return false
}

// ParseBookingStatus normalizes user input (trim, upper-case) and
// reports whether the result is a valid booking status.
func ParseBookingStatus(raw string) (BookingStatus, bool) {
    s := BookingStatus(strings.ToUpper(strings.TrimSpace(raw)))
    return s, s.Valid()
}

// ParsePaymentStatus normalizes user input and reports whether the
// result is a valid payment status.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
    s := PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
    return s, s.Valid()
}

// bookingTransitions lists the allowed outgoing edges of the booking
// state machine.  REFUNDED is terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
    BookingPending:   {BookingConfirmed, BookingCancelled},
    BookingConfirmed: {BookingCancelled, BookingRefunded},
    BookingCancelled: {BookingRefunded},
}

// CanTransition reports whether a booking may move from one status to
// another.  Staying in the same status is always allowed so that
// payment-only updates pass through.
func CanTransition(from, to BookingStatus) bool {
    if from == to {
        return true
    }
    for _, next := range bookingTransitions[from] {
        if next == to {
            return true
        }
    }
    return false
}

// StatusChange is a from/to pair recorded in the audit log.
type StatusChange[T ~string] struct {
    From T `json:"from"`
    To   T `json:"to"`
}

// StatusLogEntry is one append-only audit record.  Both dimensions are
// always captured; an unchanged dimension has equal From and To.
type StatusLogEntry struct {
    ID            uint64                      `json:"id"`
    BookingID     uint64                      `json:"booking_id"`
    BookingStatus StatusChange[BookingStatus] `json:"booking_status"`
    PaymentStatus StatusChange[PaymentStatus] `json:"payment_status"`
    Reason        string                      `json:"reason,omitempty"`
    Notes         string                      `json:"notes,omitempty"`
    ChangedBy     uint64                      `json:"changed_by"`
    ChangedAt     time.Time                   `json:"changed_at"`
}

// BookingMeta holds payment simulation fields.  It is stored as JSON
// and treated as opaque by the ledger logic.
type BookingMeta struct {
    Gateway       string     `json:"gateway,omitempty"`
    TransactionID string     `json:"transaction_id,omitempty"`
    Outcome       string     `json:"outcome,omitempty"`
    ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

// Booking is the authoritative record of one purchase intent.
//
// Fields:
//  ID                – primary key identifier.
//  EventID           – event being booked.
//  UserID            – purchaser.
//  TicketType        – ticket type name as it was matched at booking time.
//  Quantity          – number of tickets (> 0).
//  TotalPrice        – price * quantity, frozen at creation.
//  BookingStatus     – PENDING, CONFIRMED, CANCELLED or REFUNDED.
//  PaymentStatus     – PENDING, PAID, FAILED or REFUNDED.
//  InventoryReserved – whether this booking currently holds an increment
//                      of the ledger's sold counter.
//  Meta              – payment simulation fields.
//  StatusLog         – audit trail, oldest first.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Booking struct {
    ID                uint64           // bookings.id
    EventID           uint64           // bookings.event_id
    UserID            uint64           // bookings.user_id
    TicketType        string           // bookings.ticket_type
    Quantity          int              // bookings.quantity
    TotalPrice        decimal.Decimal  // bookings.total_price
    BookingStatus     BookingStatus    // bookings.booking_status
    PaymentStatus     PaymentStatus    // bookings.payment_status
    InventoryReserved bool             // bookings.inventory_reserved
    Meta              BookingMeta      // bookings.meta (JSON)
    StatusLog         []StatusLogEntry // booking_status_log rows
    CreatedAt         time.Time        // bookings.created_at
    UpdatedAt         time.Time        // bookings.updated_at
}

// Clone returns a deep copy of b.
func (b *Booking) Clone() *Booking {
    if b == nil {
        return nil
    }
    cp := *b
    cp.StatusLog = append([]StatusLogEntry(nil), b.StatusLog...)
    if b.Meta.ProcessedAt != nil {
        t := *b.Meta.ProcessedAt
        cp.Meta.ProcessedAt = &t
    }
    return &cp
}

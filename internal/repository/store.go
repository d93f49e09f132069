package repository

import (
    "context"

    "github.com/iliyamo/eventify/internal/model"
)

// Store is the persistence contract of the booking service.  Reads
// outside a transaction go through the embedded Reader; every write to
// the inventory ledger, bookings or membership lists goes through
// WithTx so that they commit or roll back together.
type Store interface {
    Reader

    // WithTx runs fn inside one transaction.  The transaction is
    // committed when fn returns nil and rolled back otherwise; it is
    // always released before WithTx returns.  Implementations may run
    // fn more than once when the datastore reports a retryable
    // conflict, so fn must not have side effects outside tx.
    WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

    // CreateEvent inserts an event together with its ticket types and
    // fills in the generated IDs.
    CreateEvent(ctx context.Context, e *model.Event) error

    // SetEventStatus changes the publication state of an event.
    SetEventStatus(ctx context.Context, eventID uint64, status model.EventStatus) error
}

// Reader groups the non-transactional lookups.
type Reader interface {
    GetEvent(ctx context.Context, id uint64) (*model.Event, error)
    GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
    GetUser(ctx context.Context, id uint64) (*model.User, error)
    // ListMemberships returns an owner's membership list, newest first.
    ListMemberships(ctx context.Context, kind model.OwnerKind, ownerID uint64) ([]model.MembershipEntry, error)
    // ListEventMemberships returns the organizer-side entries of one
    // event, newest first.
    ListEventMemberships(ctx context.Context, eventID uint64) ([]model.MembershipEntry, error)
}

// Tx is the set of operations available inside a transaction.
type Tx interface {
    GetEvent(ctx context.Context, id uint64) (*model.Event, error)
    // GetBookingForUpdate reads a booking and locks it for the rest of
    // the transaction.
    GetBookingForUpdate(ctx context.Context, id uint64) (*model.Booking, error)
    // InsertBooking stores a new booking and sets its ID and timestamps.
    InsertBooking(ctx context.Context, b *model.Booking) error
    // UpdateBooking persists statuses, the inventory flag and meta.
    UpdateBooking(ctx context.Context, b *model.Booking) error
    // AppendStatusLog appends one audit entry and sets its ID.
    AppendStatusLog(ctx context.Context, e *model.StatusLogEntry) error
    // IncrementSold adds qty to the ticket type's sold counter only if
    // sold + qty <= quantity, otherwise it returns
    // ErrInsufficientInventory and changes nothing.
    IncrementSold(ctx context.Context, ticketTypeID uint64, qty int) error
    // DecrementSold subtracts qty only if sold >= qty.
    DecrementSold(ctx context.Context, ticketTypeID uint64, qty int) error
    // AppendMembership adds an entry to an owner's membership list.
    AppendMembership(ctx context.Context, e model.MembershipEntry) error
    // PropagateStatus copies a booking status into every membership
    // entry keyed by bookingID and returns the number of entries touched.
    PropagateStatus(ctx context.Context, bookingID uint64, status model.BookingStatus) (int64, error)
}

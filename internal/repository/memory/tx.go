package memory

import (
    "context"

    "github.com/iliyamo/eventify/internal/model"
    "github.com/iliyamo/eventify/internal/repository"
)

// memTx operates on the private state copy of one transaction.
type memTx struct {
    s  *Store
    st *state
}

func (t *memTx) GetEvent(_ context.Context, id uint64) (*model.Event, error) {
    if err := t.s.fault(OpGetEvent); err != nil {
        return nil, err
    }
    e, ok := t.st.events[id]
    if !ok {
        return nil, repository.ErrEventNotFound
    }
    return cloneEvent(e), nil
}

func (t *memTx) GetBookingForUpdate(_ context.Context, id uint64) (*model.Booking, error) {
    if err := t.s.fault(OpGetBooking); err != nil {
        return nil, err
    }
    b, ok := t.st.bookings[id]
    if !ok {
        return nil, repository.ErrBookingNotFound
    }
    return b.Clone(), nil
}

func (t *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
    if err := t.s.fault(OpInsertBooking); err != nil {
        return err
    }
    t.st.nextBooking++
    b.ID = t.st.nextBooking
    b.CreatedAt = t.s.now()
    b.UpdatedAt = b.CreatedAt
    t.st.bookings[b.ID] = b.Clone()
    return nil
}

func (t *memTx) UpdateBooking(_ context.Context, b *model.Booking) error {
    if err := t.s.fault(OpUpdateBooking); err != nil {
        return err
    }
    cur, ok := t.st.bookings[b.ID]
    if !ok {
        return repository.ErrBookingNotFound
    }
    cur.BookingStatus = b.BookingStatus
    cur.PaymentStatus = b.PaymentStatus
    cur.InventoryReserved = b.InventoryReserved
    cur.Meta = b.Clone().Meta
    cur.UpdatedAt = t.s.now()
    b.UpdatedAt = cur.UpdatedAt
    return nil
}

func (t *memTx) AppendStatusLog(_ context.Context, e *model.StatusLogEntry) error {
    if err := t.s.fault(OpAppendStatusLog); err != nil {
        return err
    }
    cur, ok := t.st.bookings[e.BookingID]
    if !ok {
        return repository.ErrBookingNotFound
    }
    t.st.nextLog++
    e.ID = t.st.nextLog
    cur.StatusLog = append(cur.StatusLog, *e)
    return nil
}

func (t *memTx) IncrementSold(_ context.Context, ticketTypeID uint64, qty int) error {
    if err := t.s.fault(OpIncrementSold); err != nil {
        return err
    }
    tt := t.st.ticketType(ticketTypeID)
    if tt == nil {
        return repository.ErrTicketTypeNotFound
    }
    if tt.Sold+qty > tt.Quantity {
        return repository.ErrInsufficientInventory
    }
    tt.Sold += qty
    return nil
}

func (t *memTx) DecrementSold(_ context.Context, ticketTypeID uint64, qty int) error {
    if err := t.s.fault(OpDecrementSold); err != nil {
        return err
    }
    tt := t.st.ticketType(ticketTypeID)
    if tt == nil {
        return repository.ErrTicketTypeNotFound
    }
    if tt.Sold < qty {
        return repository.ErrConflict
    }
    tt.Sold -= qty
    return nil
}

func (t *memTx) AppendMembership(_ context.Context, e model.MembershipEntry) error {
    if err := t.s.fault(OpAppendMember); err != nil {
        return err
    }
    for _, cur := range t.st.memberships {
        if cur.OwnerKind == e.OwnerKind && cur.OwnerID == e.OwnerID && cur.BookingID == e.BookingID {
            return repository.ErrConflict
        }
    }
    t.st.memberships = append(t.st.memberships, e)
    return nil
}

func (t *memTx) PropagateStatus(_ context.Context, bookingID uint64, status model.BookingStatus) (int64, error) {
    if err := t.s.fault(OpPropagateStatus); err != nil {
        return 0, err
    }
    var n int64
    for i := range t.st.memberships {
        if t.st.memberships[i].BookingID == bookingID {
            t.st.memberships[i].Status = status
            n++
        }
    }
    return n, nil
}

func (st *state) ticketType(id uint64) *model.TicketType {
    for _, e := range st.events {
        for i := range e.TicketTypes {
            if e.TicketTypes[i].ID == id {
                return &e.TicketTypes[i]
            }
        }
    }
    return nil
}

// Package memory is an in-process implementation of repository.Store.
// Transactions are serialized by a single mutex and run against a
// private copy of the state that replaces the live state only on
// success, so a failed transaction leaves nothing behind.  It backs the
// service and handler tests and the STORE_DRIVER=memory mode.
package memory

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/iliyamo/eventify/internal/model"
    "github.com/iliyamo/eventify/internal/repository"
)

// Operation names accepted by FailOn.
const (
    OpGetEvent        = "GetEvent"
    OpGetBooking      = "GetBookingForUpdate"
    OpInsertBooking   = "InsertBooking"
    OpUpdateBooking   = "UpdateBooking"
    OpAppendStatusLog = "AppendStatusLog"
    OpIncrementSold   = "IncrementSold"
    OpDecrementSold   = "DecrementSold"
    OpAppendMember    = "AppendMembership"
    OpPropagateStatus = "PropagateStatus"
)

// Store is a repository.Store kept in memory.
type Store struct {
    mu     sync.Mutex
    st     *state
    faults map[string][]error
    txs    int
    now    func() time.Time
}

type state struct {
    users       map[uint64]*model.User
    events      map[uint64]*model.Event
    bookings    map[uint64]*model.Booking
    memberships []model.MembershipEntry

    nextUser, nextEvent, nextTicketType, nextBooking, nextLog uint64
}

// New returns an empty store.
func New() *Store {
    return &Store{
        st: &state{
            users:    map[uint64]*model.User{},
            events:   map[uint64]*model.Event{},
            bookings: map[uint64]*model.Booking{},
        },
        faults: map[string][]error{},
        now:    func() time.Time { return time.Now().UTC() },
    }
}

// FailOn makes the next call of op inside a transaction return err.
// Calling it several times queues several failures.
func (s *Store) FailOn(op string, err error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.faults[op] = append(s.faults[op], err)
}

// Transactions returns how many transactions have been started.
func (s *Store) Transactions() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.txs
}

// AddUser stores a user and assigns an ID when u.ID is zero.
func (s *Store) AddUser(u model.User) *model.User {
    s.mu.Lock()
    defer s.mu.Unlock()
    if u.ID == 0 {
        s.st.nextUser++
        u.ID = s.st.nextUser
    } else if u.ID > s.st.nextUser {
        s.st.nextUser = u.ID
    }
    if u.CreatedAt.IsZero() {
        u.CreatedAt = s.now()
        u.UpdatedAt = u.CreatedAt
    }
    s.st.users[u.ID] = &u
    cp := u
    return &cp
}

// WithTx runs fn against a copy of the state and publishes the copy if
// fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    s.txs++
    work := s.st.clone()
    if err := fn(ctx, &memTx{s: s, st: work}); err != nil {
        return err
    }
    s.st = work
    return nil
}

func (s *Store) GetEvent(_ context.Context, id uint64) (*model.Event, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.st.events[id]
    if !ok {
        return nil, repository.ErrEventNotFound
    }
    return cloneEvent(e), nil
}

func (s *Store) GetBooking(_ context.Context, id uint64) (*model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.st.bookings[id]
    if !ok {
        return nil, repository.ErrBookingNotFound
    }
    return b.Clone(), nil
}

func (s *Store) GetUser(_ context.Context, id uint64) (*model.User, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    u, ok := s.st.users[id]
    if !ok {
        return nil, repository.ErrUserNotFound
    }
    cp := *u
    return &cp, nil
}

func (s *Store) ListMemberships(_ context.Context, kind model.OwnerKind, ownerID uint64) ([]model.MembershipEntry, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.st.filterMemberships(func(e model.MembershipEntry) bool {
        return e.OwnerKind == kind && e.OwnerID == ownerID
    }), nil
}

func (s *Store) ListEventMemberships(_ context.Context, eventID uint64) ([]model.MembershipEntry, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.st.filterMemberships(func(e model.MembershipEntry) bool {
        return e.OwnerKind == model.OwnerOrganizer && e.EventID == eventID
    }), nil
}

// CreateEvent stores the event and assigns IDs to it and its ticket types.
func (s *Store) CreateEvent(_ context.Context, e *model.Event) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.st.nextEvent++
    e.ID = s.st.nextEvent
    e.CreatedAt = s.now()
    e.UpdatedAt = e.CreatedAt
    for i := range e.TicketTypes {
        s.st.nextTicketType++
        e.TicketTypes[i].ID = s.st.nextTicketType
        e.TicketTypes[i].EventID = e.ID
        e.TicketTypes[i].Sold = 0
    }
    s.st.events[e.ID] = cloneEvent(e)
    return nil
}

func (s *Store) SetEventStatus(_ context.Context, eventID uint64, status model.EventStatus) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.st.events[eventID]
    if !ok {
        return repository.ErrEventNotFound
    }
    e.Status = status
    e.UpdatedAt = s.now()
    return nil
}

// fault pops the next queued failure for op.  Callers hold s.mu.
func (s *Store) fault(op string) error {
    q := s.faults[op]
    if len(q) == 0 {
        return nil
    }
    err := q[0]
    s.faults[op] = q[1:]
    return err
}

func (st *state) filterMemberships(keep func(model.MembershipEntry) bool) []model.MembershipEntry {
    out := make([]model.MembershipEntry, 0)
    for _, e := range st.memberships {
        if keep(e) {
            out = append(out, e)
        }
    }
    sort.SliceStable(out, func(i, j int) bool {
        if !out[i].BookedAt.Equal(out[j].BookedAt) {
            return out[i].BookedAt.After(out[j].BookedAt)
        }
        return out[i].BookingID > out[j].BookingID
    })
    return out
}

func (st *state) clone() *state {
    cp := &state{
        users:          make(map[uint64]*model.User, len(st.users)),
        events:         make(map[uint64]*model.Event, len(st.events)),
        bookings:       make(map[uint64]*model.Booking, len(st.bookings)),
        memberships:    append([]model.MembershipEntry(nil), st.memberships...),
        nextUser:       st.nextUser,
        nextEvent:      st.nextEvent,
        nextTicketType: st.nextTicketType,
        nextBooking:    st.nextBooking,
        nextLog:        st.nextLog,
    }
    for id, u := range st.users {
        uc := *u
        cp.users[id] = &uc
    }
    for id, e := range st.events {
        cp.events[id] = cloneEvent(e)
    }
    for id, b := range st.bookings {
        cp.bookings[id] = b.Clone()
    }
    return cp
}

func cloneEvent(e *model.Event) *model.Event {
    cp := *e
    cp.TicketTypes = append([]model.TicketType(nil), e.TicketTypes...)
    return &cp
}

var _ repository.Store = (*Store)(nil)

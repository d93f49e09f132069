package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/iliyamo/eventify/internal/database"
    "github.com/iliyamo/eventify/internal/metrics"
    "github.com/iliyamo/eventify/internal/model"
)

// MySQLStore implements Store on top of the concrete repositories.  It
// relies on InnoDB row locks and the guarded ledger updates for
// correctness; no in-process locks are taken.
type MySQLStore struct {
    db          *sql.DB
    runner      *database.TxRunner
    Events      *EventRepo
    Bookings    *BookingRepo
    Memberships *MembershipRepo
    Users       *UserRepo
}

// NewMySQLStore wires the repositories around db.  maxRetries bounds how
// often a transaction is re-run after a deadlock or lock wait timeout.
func NewMySQLStore(db *sql.DB, maxRetries int) *MySQLStore {
    return &MySQLStore{
        db: db,
        runner: &database.TxRunner{
            DB:         db,
            MaxRetries: maxRetries,
            Backoff:    15 * time.Millisecond,
            OnRetry:    func(int, error) { metrics.ObserveTxRetry() },
        },
        Events:      NewEventRepo(db),
        Bookings:    NewBookingRepo(db),
        Memberships: NewMembershipRepo(db),
        Users:       NewUserRepo(db),
    }
}

// WithTx runs fn in a transaction.  Exhausted conflict retries are
// reported as ErrConflict.
func (s *MySQLStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
    err := s.runner.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
        return fn(ctx, &sqlTx{tx: tx, s: s})
    })
    if errors.Is(err, database.ErrTxConflict) {
        return fmt.Errorf("%w: %w", ErrConflict, err)
    }
    return err
}

func (s *MySQLStore) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
    return s.Events.GetByID(ctx, id)
}

func (s *MySQLStore) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
    return s.Bookings.GetByID(ctx, id)
}

func (s *MySQLStore) GetUser(ctx context.Context, id uint64) (*model.User, error) {
    return s.Users.GetByID(ctx, id)
}

func (s *MySQLStore) ListMemberships(ctx context.Context, kind model.OwnerKind, ownerID uint64) ([]model.MembershipEntry, error) {
    return s.Memberships.ListByOwner(ctx, kind, ownerID)
}

func (s *MySQLStore) ListEventMemberships(ctx context.Context, eventID uint64) ([]model.MembershipEntry, error) {
    return s.Memberships.ListByEvent(ctx, eventID)
}

// CreateEvent inserts the event and its ticket types atomically.
func (s *MySQLStore) CreateEvent(ctx context.Context, e *model.Event) error {
    return s.runner.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
        return s.Events.CreateTx(ctx, tx, e)
    })
}

func (s *MySQLStore) SetEventStatus(ctx context.Context, eventID uint64, status model.EventStatus) error {
    return s.Events.SetStatus(ctx, eventID, status)
}

// sqlTx adapts a *sql.Tx to the Tx interface.
type sqlTx struct {
    tx *sql.Tx
    s  *MySQLStore
}

func (t *sqlTx) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
    return t.s.Events.GetTx(ctx, t.tx, id)
}

func (t *sqlTx) GetBookingForUpdate(ctx context.Context, id uint64) (*model.Booking, error) {
    return t.s.Bookings.GetForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) InsertBooking(ctx context.Context, b *model.Booking) error {
    return t.s.Bookings.InsertTx(ctx, t.tx, b)
}

func (t *sqlTx) UpdateBooking(ctx context.Context, b *model.Booking) error {
    return t.s.Bookings.UpdateTx(ctx, t.tx, b)
}

func (t *sqlTx) AppendStatusLog(ctx context.Context, e *model.StatusLogEntry) error {
    return t.s.Bookings.AppendStatusLogTx(ctx, t.tx, e)
}

func (t *sqlTx) IncrementSold(ctx context.Context, ticketTypeID uint64, qty int) error {
    return t.s.Events.IncrementSoldTx(ctx, t.tx, ticketTypeID, qty)
}

func (t *sqlTx) DecrementSold(ctx context.Context, ticketTypeID uint64, qty int) error {
    return t.s.Events.DecrementSoldTx(ctx, t.tx, ticketTypeID, qty)
}

func (t *sqlTx) AppendMembership(ctx context.Context, e model.MembershipEntry) error {
    return t.s.Memberships.AppendTx(ctx, t.tx, e)
}

func (t *sqlTx) PropagateStatus(ctx context.Context, bookingID uint64, status model.BookingStatus) (int64, error) {
    return t.s.Memberships.PropagateStatusTx(ctx, t.tx, bookingID, status)
}

var _ Store = (*MySQLStore)(nil)

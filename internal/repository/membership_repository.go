package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/eventify/internal/model"
)

// MembershipRepo manages the booked_events table, which holds the
// denormalized membership lists of purchasers and organizers.  Every row
// is keyed by booking_id and mirrors the status of that booking.
type MembershipRepo struct {
    db *sql.DB
}

// NewMembershipRepo returns a new MembershipRepo bound to the given database.
func NewMembershipRepo(db *sql.DB) *MembershipRepo { return &MembershipRepo{db: db} }

// AppendTx adds an entry to an owner's list within tx.
func (r *MembershipRepo) AppendTx(ctx context.Context, tx *sql.Tx, e model.MembershipEntry) error {
    const q = `INSERT INTO booked_events (owner_kind, owner_id, booking_id, event_id, ticket_type,
                   quantity, total_price, status, booked_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := tx.ExecContext(ctx, q, string(e.OwnerKind), e.OwnerID, e.BookingID, e.EventID,
        e.TicketType, e.Quantity, e.TotalPrice, string(e.Status), e.BookedAt.UTC())
    return err
}

// PropagateStatusTx sets the status of every entry keyed by bookingID
// and returns the number of rows matched.
func (r *MembershipRepo) PropagateStatusTx(ctx context.Context, tx *sql.Tx, bookingID uint64, status model.BookingStatus) (int64, error) {
    res, err := tx.ExecContext(ctx, `UPDATE booked_events SET status = ? WHERE booking_id = ?`, string(status), bookingID)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// ListByOwner returns an owner's list, newest first.
func (r *MembershipRepo) ListByOwner(ctx context.Context, kind model.OwnerKind, ownerID uint64) ([]model.MembershipEntry, error) {
    const q = `SELECT owner_kind, owner_id, booking_id, event_id, ticket_type, quantity, total_price, status, booked_at
               FROM booked_events WHERE owner_kind = ? AND owner_id = ?
               ORDER BY booked_at DESC, booking_id DESC`
    return r.list(ctx, q, string(kind), ownerID)
}

// ListByEvent returns the organizer-side entries of one event, newest first.
func (r *MembershipRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.MembershipEntry, error) {
    const q = `SELECT owner_kind, owner_id, booking_id, event_id, ticket_type, quantity, total_price, status, booked_at
               FROM booked_events WHERE owner_kind = 'ORGANIZER' AND event_id = ?
               ORDER BY booked_at DESC, booking_id DESC`
    return r.list(ctx, q, eventID)
}

func (r *MembershipRepo) list(ctx context.Context, q string, args ...any) ([]model.MembershipEntry, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.MembershipEntry, 0)
    for rows.Next() {
        var e model.MembershipEntry
        var kind, status string
        if err := rows.Scan(&kind, &e.OwnerID, &e.BookingID, &e.EventID, &e.TicketType,
            &e.Quantity, &e.TotalPrice, &status, &e.BookedAt); err != nil {
            return nil, err
        }
        e.OwnerKind = model.OwnerKind(kind)
        e.Status = model.BookingStatus(status)
        out = append(out, e)
    }
    return out, rows.Err()
}

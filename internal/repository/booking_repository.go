package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"

    "github.com/iliyamo/eventify/internal/model"
)

// BookingRepo provides operations on bookings and their status log.
// Writes happen inside a caller-supplied transaction; the caller must
// commit or roll back.  All timestamps are stored in UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, event_id, user_id, ticket_type, quantity, total_price,
    booking_status, payment_status, inventory_reserved, meta, created_at, updated_at`

// InsertTx inserts a new booking and populates its ID and timestamps.
func (r *BookingRepo) InsertTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    meta, err := encodeMeta(b.Meta)
    if err != nil {
        return err
    }
    const q = `INSERT INTO bookings (event_id, user_id, ticket_type, quantity, total_price,
                   booking_status, payment_status, inventory_reserved, meta)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        b.EventID, b.UserID, b.TicketType, b.Quantity, b.TotalPrice,
        string(b.BookingStatus), string(b.PaymentStatus), b.InventoryReserved, meta,
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    // Query back timestamps set by column defaults
    const ts = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
    return tx.QueryRowContext(ctx, ts, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// GetForUpdateTx reads a booking and takes a row lock on it for the rest
// of the transaction, so concurrent transitions of the same booking are
// serialized.  The status log is loaded as well.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
    q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? FOR UPDATE`
    b, err := scanBooking(tx.QueryRowContext(ctx, q, id))
    if err != nil {
        return nil, err
    }
    if b.StatusLog, err = r.statusLog(ctx, tx, id); err != nil {
        return nil, err
    }
    return b, nil
}

// GetByID reads a booking with its status log outside a transaction.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
    b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
    if err != nil {
        return nil, err
    }
    if b.StatusLog, err = r.statusLog(ctx, r.db, id); err != nil {
        return nil, err
    }
    return b, nil
}

// UpdateTx persists the mutable columns of a booking: both statuses,
// the inventory flag and meta.
func (r *BookingRepo) UpdateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    meta, err := encodeMeta(b.Meta)
    if err != nil {
        return err
    }
    const q = `UPDATE bookings SET booking_status = ?, payment_status = ?, inventory_reserved = ?, meta = ?
               WHERE id = ?`
    res, err := tx.ExecContext(ctx, q,
        string(b.BookingStatus), string(b.PaymentStatus), b.InventoryReserved, meta, b.ID)
    if err != nil {
        return err
    }
    // The row was locked by GetForUpdateTx, so zero rows only means the
    // values were unchanged.
    if _, err := res.RowsAffected(); err != nil {
        return err
    }
    return tx.QueryRowContext(ctx, `SELECT updated_at FROM bookings WHERE id = ?`, b.ID).Scan(&b.UpdatedAt)
}

// AppendStatusLogTx inserts one audit entry and sets its ID.
func (r *BookingRepo) AppendStatusLogTx(ctx context.Context, tx *sql.Tx, e *model.StatusLogEntry) error {
    const q = `INSERT INTO booking_status_log (booking_id, booking_status_from, booking_status_to,
                   payment_status_from, payment_status_to, reason, notes, changed_by, changed_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, e.BookingID,
        string(e.BookingStatus.From), string(e.BookingStatus.To),
        string(e.PaymentStatus.From), string(e.PaymentStatus.To),
        e.Reason, nullString(e.Notes), e.ChangedBy, e.ChangedAt.UTC(),
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    return nil
}

func (r *BookingRepo) statusLog(ctx context.Context, q querier, bookingID uint64) ([]model.StatusLogEntry, error) {
    const sel = `SELECT id, booking_id, booking_status_from, booking_status_to, payment_status_from,
                        payment_status_to, reason, notes, changed_by, changed_at
                 FROM booking_status_log WHERE booking_id = ? ORDER BY id`
    rows, err := q.QueryContext(ctx, sel, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.StatusLogEntry
    for rows.Next() {
        var e model.StatusLogEntry
        var bFrom, bTo, pFrom, pTo string
        var notes sql.NullString
        if err := rows.Scan(&e.ID, &e.BookingID, &bFrom, &bTo, &pFrom, &pTo,
            &e.Reason, &notes, &e.ChangedBy, &e.ChangedAt); err != nil {
            return nil, err
        }
        e.BookingStatus = model.StatusChange[model.BookingStatus]{From: model.BookingStatus(bFrom), To: model.BookingStatus(bTo)}
        e.PaymentStatus = model.StatusChange[model.PaymentStatus]{From: model.PaymentStatus(pFrom), To: model.PaymentStatus(pTo)}
        e.Notes = notes.String
        out = append(out, e)
    }
    return out, rows.Err()
}

func scanBooking(row *sql.Row) (*model.Booking, error) {
    var b model.Booking
    var bStatus, pStatus string
    var meta []byte
    err := row.Scan(&b.ID, &b.EventID, &b.UserID, &b.TicketType, &b.Quantity, &b.TotalPrice,
        &bStatus, &pStatus, &b.InventoryReserved, &meta, &b.CreatedAt, &b.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrBookingNotFound
    }
    if err != nil {
        return nil, err
    }
    b.BookingStatus = model.BookingStatus(bStatus)
    b.PaymentStatus = model.PaymentStatus(pStatus)
    if len(meta) > 0 {
        if err := json.Unmarshal(meta, &b.Meta); err != nil {
            return nil, fmt.Errorf("decode booking meta: %w", err)
        }
    }
    return &b, nil
}

func encodeMeta(m model.BookingMeta) (any, error) {
    if m == (model.BookingMeta{}) {
        return nil, nil
    }
    raw, err := json.Marshal(m)
    if err != nil {
        return nil, fmt.Errorf("encode booking meta: %w", err)
    }
    return string(raw), nil
}

func nullString(s string) sql.NullString {
    return sql.NullString{String: s, Valid: s != ""}
}

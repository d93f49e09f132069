package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/eventify/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx so that read helpers
// can run inside or outside a transaction.
type querier interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// EventRepo provides access to events and their ticket types.  The
// ticket_types rows are the inventory ledger: the sold column is only
// ever changed through IncrementSoldTx and DecrementSoldTx, whose WHERE
// clauses keep 0 <= sold <= quantity without a prior read.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// GetByID loads an event with its ticket types.  ErrEventNotFound is
// returned when the row does not exist.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
    return r.get(ctx, r.db, id)
}

// GetTx is GetByID within the provided transaction.
func (r *EventRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Event, error) {
    return r.get(ctx, tx, id)
}

func (r *EventRepo) get(ctx context.Context, q querier, id uint64) (*model.Event, error) {
    const sel = `SELECT id, organizer_id, title, venue, starts_at, status, created_at, updated_at
                 FROM events WHERE id = ?`
    var e model.Event
    var status string
    err := q.QueryRowContext(ctx, sel, id).Scan(
        &e.ID, &e.OrganizerID, &e.Title, &e.Venue, &e.StartsAt, &status, &e.CreatedAt, &e.UpdatedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrEventNotFound
    }
    if err != nil {
        return nil, err
    }
    e.Status = model.EventStatus(status)

    const tts = `SELECT id, event_id, name, price, quantity, sold
                 FROM ticket_types WHERE event_id = ? ORDER BY position, id`
    rows, err := q.QueryContext(ctx, tts, id)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var tt model.TicketType
        if err := rows.Scan(&tt.ID, &tt.EventID, &tt.Name, &tt.Price, &tt.Quantity, &tt.Sold); err != nil {
            return nil, err
        }
        e.TicketTypes = append(e.TicketTypes, tt)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return &e, nil
}

// CreateTx inserts the event and all of its ticket types within tx and
// fills in the generated IDs.  Sold counters always start at zero.
func (r *EventRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.Event) error {
    const ins = `INSERT INTO events (organizer_id, title, venue, starts_at, status) VALUES (?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, ins, e.OrganizerID, e.Title, e.Venue, e.StartsAt.UTC(), string(e.Status))
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)

    const insTT = `INSERT INTO ticket_types (event_id, name, price, quantity, sold, position) VALUES (?, ?, ?, ?, 0, ?)`
    for i := range e.TicketTypes {
        tt := &e.TicketTypes[i]
        res, err := tx.ExecContext(ctx, insTT, e.ID, tt.Name, tt.Price, tt.Quantity, i)
        if err != nil {
            return err
        }
        ttID, err := res.LastInsertId()
        if err != nil {
            return err
        }
        tt.ID = uint64(ttID)
        tt.EventID = e.ID
        tt.Sold = 0
    }

    const ts = `SELECT created_at, updated_at FROM events WHERE id = ?`
    return tx.QueryRowContext(ctx, ts, e.ID).Scan(&e.CreatedAt, &e.UpdatedAt)
}

// SetStatus updates the publication state of an event.
func (r *EventRepo) SetStatus(ctx context.Context, id uint64, status model.EventStatus) error {
    res, err := r.db.ExecContext(ctx, `UPDATE events SET status = ? WHERE id = ?`, string(status), id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // RowsAffected is 0 for an unchanged row as well; tell the two apart.
        var exists int
        err := r.db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, id).Scan(&exists)
        if errors.Is(err, sql.ErrNoRows) {
            return ErrEventNotFound
        }
        return err
    }
    return nil
}

// IncrementSoldTx adds qty to the sold counter of a ticket type in a
// single guarded statement.  When the guard fails no row is changed and
// ErrInsufficientInventory is returned; a missing row yields
// ErrTicketTypeNotFound.
func (r *EventRepo) IncrementSoldTx(ctx context.Context, tx *sql.Tx, ticketTypeID uint64, qty int) error {
    const q = `UPDATE ticket_types SET sold = sold + ? WHERE id = ? AND sold + ? <= quantity`
    res, err := tx.ExecContext(ctx, q, qty, ticketTypeID, qty)
    if err != nil {
        return err
    }
    return r.guardResult(ctx, tx, res, ticketTypeID, ErrInsufficientInventory)
}

// DecrementSoldTx subtracts qty from the sold counter only if sold >= qty.
func (r *EventRepo) DecrementSoldTx(ctx context.Context, tx *sql.Tx, ticketTypeID uint64, qty int) error {
    const q = `UPDATE ticket_types SET sold = sold - ? WHERE id = ? AND sold >= ?`
    res, err := tx.ExecContext(ctx, q, qty, ticketTypeID, qty)
    if err != nil {
        return err
    }
    return r.guardResult(ctx, tx, res, ticketTypeID, ErrConflict)
}

func (r *EventRepo) guardResult(ctx context.Context, tx *sql.Tx, res sql.Result, ticketTypeID uint64, guardErr error) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 1 {
        return nil
    }
    var exists int
    err = tx.QueryRowContext(ctx, `SELECT 1 FROM ticket_types WHERE id = ?`, ticketTypeID).Scan(&exists)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrTicketTypeNotFound
    }
    if err != nil {
        return err
    }
    return guardErr
}

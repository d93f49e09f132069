package repository

import (
    "context"
    "database/sql"
    "fmt"
    "os"
    "sync"
    "testing"
    "time"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/eventify/internal/database"
    "github.com/iliyamo/eventify/internal/model"
)

// These tests need a disposable MySQL database, e.g.
// EVENTIFY_TEST_MYSQL_DSN="root:secret@tcp(127.0.0.1:3306)/eventify_test?parseTime=true&loc=UTC"
func openTestStore(t *testing.T) *MySQLStore {
    t.Helper()
    dsn := os.Getenv("EVENTIFY_TEST_MYSQL_DSN")
    if dsn == "" {
        t.Skip("EVENTIFY_TEST_MYSQL_DSN not set")
    }
    db, err := sql.Open("mysql", dsn)
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    require.NoError(t, database.Migrate(context.Background(), db))
    return NewMySQLStore(db, 3)
}

func createTestEvent(t *testing.T, s *MySQLStore, qty int) *model.Event {
    t.Helper()
    ctx := context.Background()
    orgID, err := s.Users.Create(ctx, fmt.Sprintf("org-%d@example.com", time.Now().UnixNano()), "Org", model.RoleOrganizer)
    require.NoError(t, err)
    e := &model.Event{
        OrganizerID: orgID,
        Title:       "Integration",
        StartsAt:    time.Now().Add(24 * time.Hour),
        Status:      model.EventPublished,
        TicketTypes: []model.TicketType{{Name: "General", Price: decimal.RequireFromString("12.50"), Quantity: qty}},
    }
    require.NoError(t, s.CreateEvent(ctx, e))
    return e
}

func TestMySQLGuardedIncrementUnderConcurrency(t *testing.T) {
    s := openTestStore(t)
    ctx := context.Background()
    e := createTestEvent(t, s, 5)
    ttID := e.TicketTypes[0].ID

    var wg sync.WaitGroup
    var mu sync.Mutex
    ok := 0
    for i := 0; i < 12; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            err := s.WithTx(ctx, func(ctx context.Context, tx Tx) error {
                return tx.IncrementSold(ctx, ttID, 1)
            })
            if err == nil {
                mu.Lock()
                ok++
                mu.Unlock()
            }
        }()
    }
    wg.Wait()

    got, err := s.GetEvent(ctx, e.ID)
    require.NoError(t, err)
    assert.Equal(t, 5, ok)
    assert.Equal(t, 5, got.TicketTypes[0].Sold)
    assert.NoError(t, model.CheckLedger(got))
}

func TestMySQLBookingRoundTrip(t *testing.T) {
    s := openTestStore(t)
    ctx := context.Background()
    e := createTestEvent(t, s, 10)
    userID, err := s.Users.Create(ctx, fmt.Sprintf("user-%d@example.com", time.Now().UnixNano()), "Buyer", model.RoleUser)
    require.NoError(t, err)

    b := &model.Booking{
        EventID: e.ID, UserID: userID, TicketType: "General", Quantity: 2,
        TotalPrice:    decimal.RequireFromString("25.00"),
        BookingStatus: model.BookingPending, PaymentStatus: model.PaymentPending,
    }
    require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx Tx) error {
        if err := tx.InsertBooking(ctx, b); err != nil {
            return err
        }
        return tx.AppendMembership(ctx, model.MembershipFromBooking(model.OwnerUser, userID, b))
    }))

    require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx Tx) error {
        cur, err := tx.GetBookingForUpdate(ctx, b.ID)
        if err != nil {
            return err
        }
        cur.BookingStatus = model.BookingConfirmed
        cur.Meta = model.BookingMeta{Gateway: "mock", TransactionID: "tx-1"}
        if err := tx.UpdateBooking(ctx, cur); err != nil {
            return err
        }
        if err := tx.AppendStatusLog(ctx, &model.StatusLogEntry{
            BookingID:     cur.ID,
            BookingStatus: model.StatusChange[model.BookingStatus]{From: model.BookingPending, To: model.BookingConfirmed},
            PaymentStatus: model.StatusChange[model.PaymentStatus]{From: model.PaymentPending, To: model.PaymentPending},
            ChangedBy:     userID,
            ChangedAt:     time.Now(),
        }); err != nil {
            return err
        }
        _, err = tx.PropagateStatus(ctx, cur.ID, cur.BookingStatus)
        return err
    }))

    got, err := s.GetBooking(ctx, b.ID)
    require.NoError(t, err)
    assert.Equal(t, model.BookingConfirmed, got.BookingStatus)
    assert.Equal(t, "tx-1", got.Meta.TransactionID)
    assert.True(t, got.TotalPrice.Equal(decimal.RequireFromString("25")))
    require.Len(t, got.StatusLog, 1)

    list, err := s.ListMemberships(ctx, model.OwnerUser, userID)
    require.NoError(t, err)
    require.Len(t, list, 1)
    assert.Equal(t, model.BookingConfirmed, list[0].Status)

    _, err = s.GetBooking(ctx, 1<<40)
    assert.ErrorIs(t, err, ErrBookingNotFound)
}

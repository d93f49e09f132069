package memory

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/eventify/internal/model"
    "github.com/iliyamo/eventify/internal/repository"
)

func seedEvent(t *testing.T, s *Store, qty int) *model.Event {
    t.Helper()
    e := &model.Event{
        OrganizerID: 7,
        Title:       "Jazz Night",
        StartsAt:    time.Now().Add(48 * time.Hour),
        Status:      model.EventPublished,
        TicketTypes: []model.TicketType{{Name: "VIP", Price: decimal.NewFromInt(50), Quantity: qty}},
    }
    require.NoError(t, s.CreateEvent(context.Background(), e))
    return e
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
    ctx := context.Background()
    s := New()
    e := seedEvent(t, s, 5)
    ttID := e.TicketTypes[0].ID

    var bookingID uint64
    err := s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
        b := &model.Booking{EventID: e.ID, UserID: 1, TicketType: "VIP", Quantity: 2,
            BookingStatus: model.BookingPending, PaymentStatus: model.PaymentPending}
        if err := tx.InsertBooking(ctx, b); err != nil {
            return err
        }
        bookingID = b.ID
        if err := tx.IncrementSold(ctx, ttID, 2); err != nil {
            return err
        }
        return tx.AppendMembership(ctx, model.MembershipFromBooking(model.OwnerUser, 1, b))
    })
    require.NoError(t, err)

    got, err := s.GetEvent(ctx, e.ID)
    require.NoError(t, err)
    assert.Equal(t, 2, got.TicketTypes[0].Sold)

    b, err := s.GetBooking(ctx, bookingID)
    require.NoError(t, err)
    assert.Equal(t, 2, b.Quantity)

    list, err := s.ListMemberships(ctx, model.OwnerUser, 1)
    require.NoError(t, err)
    require.Len(t, list, 1)
    assert.Equal(t, bookingID, list[0].BookingID)
}

func TestWithTxRollsBackOnError(t *testing.T) {
    ctx := context.Background()
    s := New()
    e := seedEvent(t, s, 5)
    boom := errors.New("boom")
    s.FailOn(OpAppendMember, boom)

    err := s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
        b := &model.Booking{EventID: e.ID, UserID: 1, TicketType: "VIP", Quantity: 3}
        if err := tx.InsertBooking(ctx, b); err != nil {
            return err
        }
        if err := tx.IncrementSold(ctx, e.TicketTypes[0].ID, 3); err != nil {
            return err
        }
        return tx.AppendMembership(ctx, model.MembershipFromBooking(model.OwnerUser, 1, b))
    })
    require.ErrorIs(t, err, boom)

    got, err := s.GetEvent(ctx, e.ID)
    require.NoError(t, err)
    assert.Equal(t, 0, got.TicketTypes[0].Sold)
    _, err = s.GetBooking(ctx, 1)
    assert.ErrorIs(t, err, repository.ErrBookingNotFound)
    list, err := s.ListMemberships(ctx, model.OwnerUser, 1)
    require.NoError(t, err)
    assert.Empty(t, list)
}

func TestIncrementSoldGuard(t *testing.T) {
    ctx := context.Background()
    s := New()
    e := seedEvent(t, s, 3)
    ttID := e.TicketTypes[0].ID

    err := s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
        return tx.IncrementSold(ctx, ttID, 4)
    })
    assert.ErrorIs(t, err, repository.ErrInsufficientInventory)

    err = s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
        return tx.IncrementSold(ctx, ttID, 3)
    })
    require.NoError(t, err)

    err = s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
        return tx.DecrementSold(ctx, ttID, 4)
    })
    assert.ErrorIs(t, err, repository.ErrConflict)

    err = s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
        return tx.IncrementSold(ctx, 999, 1)
    })
    assert.ErrorIs(t, err, repository.ErrTicketTypeNotFound)

    got, _ := s.GetEvent(ctx, e.ID)
    assert.NoError(t, model.CheckLedger(got))
    assert.Equal(t, 3, got.TicketTypes[0].Sold)
}

func TestPropagateStatusTouchesEveryList(t *testing.T) {
    ctx := context.Background()
    s := New()
    e := seedEvent(t, s, 5)

    var b model.Booking
    require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
        b = model.Booking{EventID: e.ID, UserID: 1, TicketType: "VIP", Quantity: 1, BookingStatus: model.BookingPending}
        if err := tx.InsertBooking(ctx, &b); err != nil {
            return err
        }
        if err := tx.AppendMembership(ctx, model.MembershipFromBooking(model.OwnerUser, 1, &b)); err != nil {
            return err
        }
        return tx.AppendMembership(ctx, model.MembershipFromBooking(model.OwnerOrganizer, e.OrganizerID, &b))
    }))

    var n int64
    require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
        var err error
        n, err = tx.PropagateStatus(ctx, b.ID, model.BookingConfirmed)
        return err
    }))
    assert.EqualValues(t, 2, n)

    mine, _ := s.ListMemberships(ctx, model.OwnerUser, 1)
    org, _ := s.ListEventMemberships(ctx, e.ID)
    require.Len(t, mine, 1)
    require.Len(t, org, 1)
    assert.Equal(t, model.BookingConfirmed, mine[0].Status)
    assert.Equal(t, model.BookingConfirmed, org[0].Status)
}

func TestAppendMembershipRejectsDuplicate(t *testing.T) {
    ctx := context.Background()
    s := New()
    entry := model.MembershipEntry{OwnerKind: model.OwnerUser, OwnerID: 1, BookingID: 9}
    err := s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
        if err := tx.AppendMembership(ctx, entry); err != nil {
            return err
        }
        return tx.AppendMembership(ctx, entry)
    })
    assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestReadsReturnCopies(t *testing.T) {
    ctx := context.Background()
    s := New()
    e := seedEvent(t, s, 5)

    got, err := s.GetEvent(ctx, e.ID)
    require.NoError(t, err)
    got.TicketTypes[0].Sold = 5

    again, err := s.GetEvent(ctx, e.ID)
    require.NoError(t, err)
    assert.Equal(t, 0, again.TicketTypes[0].Sold)
}

func TestFailOnIsOneShot(t *testing.T) {
    ctx := context.Background()
    s := New()
    e := seedEvent(t, s, 5)
    s.FailOn(OpGetEvent, repository.ErrConflict)

    read := func() error {
        return s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
            _, err := tx.GetEvent(ctx, e.ID)
            return err
        })
    }
    assert.ErrorIs(t, read(), repository.ErrConflict)
    assert.NoError(t, read())
    assert.Equal(t, 2, s.Transactions())
}

func TestSeedLookups(t *testing.T) {
    ctx := context.Background()
    s := New()
    u := s.AddUser(model.User{Email: "a@example.com", Name: "Ana", Role: model.RoleUser})
    got, err := s.GetUser(ctx, u.ID)
    require.NoError(t, err)
    assert.Equal(t, "Ana", got.Name)

    _, err = s.GetUser(ctx, 42)
    assert.ErrorIs(t, err, repository.ErrUserNotFound)
    _, err = s.GetEvent(ctx, 42)
    assert.True(t, repository.IsNotFound(err))
    assert.ErrorIs(t, s.SetEventStatus(ctx, 42, model.EventPublished), repository.ErrEventNotFound)
}

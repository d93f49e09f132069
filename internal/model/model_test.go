package model

import (
    "testing"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
    tests := []struct {
        from, to BookingStatus
        want     bool
    }{
        {BookingPending, BookingConfirmed, true},
        {BookingPending, BookingCancelled, true},
        {BookingPending, BookingRefunded, false},
        {BookingConfirmed, BookingCancelled, true},
        {BookingConfirmed, BookingRefunded, true},
        {BookingConfirmed, BookingPending, false},
        {BookingCancelled, BookingRefunded, true},
        {BookingCancelled, BookingConfirmed, false},
        {BookingCancelled, BookingPending, false},
        {BookingRefunded, BookingConfirmed, false},
        {BookingRefunded, BookingCancelled, false},
        {BookingConfirmed, BookingConfirmed, true},
    }
    for _, tt := range tests {
        t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
            assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
        })
    }
}

func TestParseStatuses(t *testing.T) {
    s, ok := ParseBookingStatus(" confirmed ")
    assert.True(t, ok)
    assert.Equal(t, BookingConfirmed, s)

    _, ok = ParseBookingStatus("SHIPPED")
    assert.False(t, ok)

    p, ok := ParsePaymentStatus("paid")
    assert.True(t, ok)
    assert.Equal(t, PaymentPaid, p)

    _, ok = ParsePaymentStatus("")
    assert.False(t, ok)
}

func TestFindTicketType(t *testing.T) {
    ev := &Event{ID: 1, TicketTypes: []TicketType{
        {Name: "General", Price: decimal.NewFromInt(20), Quantity: 100},
        {Name: "VIP", Price: decimal.NewFromInt(150), Quantity: 10, Sold: 8},
    }}

    tt, ok := ev.FindTicketType("  vip ")
    require.True(t, ok)
    assert.Equal(t, "VIP", tt.Name)
    assert.Equal(t, 2, tt.Remaining())

    tt.Sold = 9
    assert.Equal(t, 9, ev.TicketTypes[1].Sold, "lookup returns a pointer into the event")

    _, ok = ev.FindTicketType("backstage")
    assert.False(t, ok)
    _, ok = ev.FindTicketType("   ")
    assert.False(t, ok)
}

func TestCheckLedger(t *testing.T) {
    ev := &Event{ID: 7, TicketTypes: []TicketType{{Name: "A", Quantity: 5, Sold: 5}}}
    assert.NoError(t, CheckLedger(ev))

    ev.TicketTypes = append(ev.TicketTypes, TicketType{Name: "B", Quantity: 3, Sold: 4})
    err := CheckLedger(ev)
    require.Error(t, err)
    var v LedgerViolation
    require.ErrorAs(t, err, &v)
    assert.Equal(t, "B", v.TicketType)

    ev.TicketTypes[1].Sold = -1
    assert.Error(t, CheckLedger(ev))
    assert.NoError(t, CheckLedger(nil))
}

func TestMembershipFromBooking(t *testing.T) {
    b := &Booking{ID: 3, EventID: 9, TicketType: "VIP", Quantity: 2,
        TotalPrice: decimal.NewFromInt(300), BookingStatus: BookingPending}
    e := MembershipFromBooking(OwnerOrganizer, 42, b)
    assert.Equal(t, OwnerOrganizer, e.OwnerKind)
    assert.Equal(t, uint64(42), e.OwnerID)
    assert.Equal(t, uint64(3), e.BookingID)
    assert.Equal(t, BookingPending, e.Status)
    assert.True(t, e.TotalPrice.Equal(decimal.NewFromInt(300)))
}

func TestBookingClone(t *testing.T) {
    b := &Booking{ID: 1, StatusLog: []StatusLogEntry{{ID: 1}}}
    cp := b.Clone()
    cp.StatusLog[0].ID = 99
    cp.StatusLog = append(cp.StatusLog, StatusLogEntry{ID: 2})
    assert.Equal(t, uint64(1), b.StatusLog[0].ID)
    assert.Len(t, b.StatusLog, 1)
}

package model

import "fmt"

// LedgerViolation describes a ticket type whose counters break the
// 0 <= sold <= quantity invariant.
type LedgerViolation struct {
    EventID    uint64
    TicketType string
    Quantity   int
    Sold       int
}

func (v LedgerViolation) Error() string {
    return fmt.Sprintf("ledger violation: event=%d ticket_type=%q sold=%d quantity=%d",
        v.EventID, v.TicketType, v.Sold, v.Quantity)
}

// CheckLedger verifies the inventory invariant for every ticket type of
// the event and returns the first violation found, or nil.
func CheckLedger(e *Event) error {
    if e == nil {
        return nil
    }
    for _, tt := range e.TicketTypes {
        if tt.Quantity < 0 || tt.Sold < 0 || tt.Sold > tt.Quantity {
            return LedgerViolation{EventID: e.ID, TicketType: tt.Name, Quantity: tt.Quantity, Sold: tt.Sold}
        }
    }
    return nil
}

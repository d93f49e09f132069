package config

import (
    "fmt"
    "strings"
    "time"
)

// Reservation points accepted in BOOKING_RESERVATION_POINT.
const (
    ReserveOnCreation     = "creation"
    ReserveOnConfirmation = "confirmation"
)

// BookingPolicy holds the platform-wide booking rules.
//
// Fields:
//  ReservationPoint   – when stock is taken from the ledger: at booking
//                       creation or on the first move into CONFIRMED.
//  RestockOnCancel    – return reserved stock when a booking is cancelled
//                       or refunded.
//  EnforceTransitions – reject booking status changes outside the state
//                       machine.
//  TxMaxRetries       – extra attempts after a deadlock or lock timeout.
//  NotifyTimeout      – deadline of one best-effort notification.
type BookingPolicy struct {
    ReservationPoint   string
    RestockOnCancel    bool
    EnforceTransitions bool
    TxMaxRetries       int
    NotifyTimeout      time.Duration
}

// LoadBookingPolicy reads BOOKING_* and NOTIFY_TIMEOUT.  An unknown
// reservation point is an error rather than a silent default, since it
// decides when inventory is consumed.
func LoadBookingPolicy() (BookingPolicy, error) {
    p := BookingPolicy{
        ReservationPoint:   strings.ToLower(envStr("BOOKING_RESERVATION_POINT", ReserveOnCreation)),
        RestockOnCancel:    envBool("BOOKING_RESTOCK_ON_CANCEL", false),
        EnforceTransitions: envBool("BOOKING_ENFORCE_TRANSITIONS", true),
        TxMaxRetries:       envInt("BOOKING_TX_MAX_RETRIES", 3),
        NotifyTimeout:      envDur("NOTIFY_TIMEOUT", 5*time.Second),
    }
    switch p.ReservationPoint {
    case ReserveOnCreation, ReserveOnConfirmation:
    default:
        return p, fmt.Errorf("invalid BOOKING_RESERVATION_POINT %q (want %s or %s)",
            p.ReservationPoint, ReserveOnCreation, ReserveOnConfirmation)
    }
    if p.TxMaxRetries < 0 {
        p.TxMaxRetries = 0
    }
    if p.NotifyTimeout <= 0 {
        p.NotifyTimeout = 5 * time.Second
    }
    return p, nil
}

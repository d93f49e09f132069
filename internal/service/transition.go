package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/eventify/internal/metrics"
	"github.com/iliyamo/eventify/internal/model"
	"github.com/iliyamo/eventify/internal/notify"
	"github.com/iliyamo/eventify/internal/repository"
)

// Payment simulation outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// StatusUpdate is the input of UpdateStatus.  Empty status fields are
// left unchanged.
type StatusUpdate struct {
	BookingStatus string
	PaymentStatus string
	Reason        string
	Notes         string
}

// TransitionResult describes a committed status transition.
type TransitionResult struct {
	Booking *model.Booking
	Event   *model.Event
	Entry   model.StatusLogEntry
}

// change is the target of one transition.  Nil statuses stay as they are.
type change struct {
	booking *model.BookingStatus
	payment *model.PaymentStatus
	reason  string
	notes   string
}

// prepareFunc checks the locked booking and returns the change to apply.
type prepareFunc func(b *model.Booking, e *model.Event) (change, error)

// UpdateStatus applies an administrative status change.  Super admins
// may update any booking, organizers only bookings of their own events.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID uint64, upd StatusUpdate, actor Actor) (*TransitionResult, error) {
	if !actor.isAdmin() && actor.Role != model.RoleOrganizer {
		return nil, repository.ErrForbidden
	}
	var ch change
	if strings.TrimSpace(upd.BookingStatus) != "" {
		bs, ok := model.ParseBookingStatus(upd.BookingStatus)
		if !ok {
			return nil, fmt.Errorf("%w: bookingStatus %q", ErrInvalidStatusValue, upd.BookingStatus)
		}
		ch.booking = &bs
	}
	if strings.TrimSpace(upd.PaymentStatus) != "" {
		ps, ok := model.ParsePaymentStatus(upd.PaymentStatus)
		if !ok {
			return nil, fmt.Errorf("%w: paymentStatus %q", ErrInvalidStatusValue, upd.PaymentStatus)
		}
		ch.payment = &ps
	}
	if ch.booking == nil && ch.payment == nil {
		return nil, ErrNothingToUpdate
	}
	ch.reason = strings.TrimSpace(upd.Reason)
	ch.notes = strings.TrimSpace(upd.Notes)

	return s.transition(ctx, bookingID, actor, func(_ *model.Booking, e *model.Event) (change, error) {
		if !actor.isAdmin() && e.OrganizerID != actor.ID {
			return change{}, repository.ErrForbidden
		}
		return ch, nil
	})
}

// Cancel moves a booking to CANCELLED.  A PAID booking is marked
// REFUNDED; any other payment status is left unchanged.
func (s *BookingService) Cancel(ctx context.Context, bookingID uint64, actor Actor) (*TransitionResult, error) {
	return s.transition(ctx, bookingID, actor, func(b *model.Booking, _ *model.Event) (change, error) {
		if !actor.isAdmin() && b.UserID != actor.ID {
			return change{}, repository.ErrForbidden
		}
		if b.BookingStatus == model.BookingCancelled || b.BookingStatus == model.BookingRefunded {
			return change{}, ErrAlreadyCancelled
		}
		cancelled := model.BookingCancelled
		ch := change{booking: &cancelled, reason: "Cancelled by user"}
		if actor.isAdmin() && b.UserID != actor.ID {
			ch.reason = "Cancelled by administrator"
		}
		if b.PaymentStatus == model.PaymentPaid {
			refunded := model.PaymentRefunded
			ch.payment = &refunded
		}
		return ch, nil
	})
}

// SimulatePayment runs the mocked payment gateway for a PENDING booking.
// A successful payment confirms the booking; a failed one only marks the
// payment FAILED so the purchaser can try again.
func (s *BookingService) SimulatePayment(ctx context.Context, bookingID uint64, actor Actor, outcome string) (*TransitionResult, error) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	if outcome != OutcomeSuccess && outcome != OutcomeFailure {
		return nil, ErrInvalidOutcome
	}
	return s.transition(ctx, bookingID, actor, func(b *model.Booking, _ *model.Event) (change, error) {
		if !actor.isAdmin() && b.UserID != actor.ID {
			return change{}, repository.ErrForbidden
		}
		if b.BookingStatus != model.BookingPending || b.PaymentStatus == model.PaymentPaid {
			return change{}, ErrNotAwaitingPay
		}
		now := s.now()
		b.Meta = model.BookingMeta{
			Gateway:       "simulated",
			TransactionID: "sim_" + uuid.NewString(),
			Outcome:       outcome,
			ProcessedAt:   &now,
		}
		if outcome == OutcomeFailure {
			failed := model.PaymentFailed
			return change{payment: &failed, reason: "Simulated payment failed"}, nil
		}
		confirmed, paid := model.BookingConfirmed, model.PaymentPaid
		return change{booking: &confirmed, payment: &paid, reason: "Simulated payment succeeded"}, nil
	})
}

// transition locks the booking, lets prepare validate it and applies
// the resulting change in one transaction.  The notification is sent
// after the commit.
func (s *BookingService) transition(ctx context.Context, bookingID uint64, actor Actor, prepare prepareFunc) (*TransitionResult, error) {
	var (
		res    *TransitionResult
		ledger []string
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b, err := tx.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		e, err := tx.GetEvent(ctx, b.EventID)
		if err != nil {
			return fmt.Errorf("load event: %w", err)
		}
		ch, err := prepare(b, e)
		if err != nil {
			return err
		}
		entry, ops, err := s.apply(ctx, tx, b, e, ch, actor.ID)
		if err != nil {
			return err
		}
		res, ledger = &TransitionResult{Booking: b, Event: e, Entry: entry}, ops
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := res.Entry
	for _, op := range ledger {
		metrics.ObserveLedger(op)
	}
	metrics.ObserveTransition(string(entry.BookingStatus.From), string(entry.BookingStatus.To))
	s.log.Info("booking status updated",
		zap.Uint64("booking_id", res.Booking.ID),
		zap.String("booking_status_from", string(entry.BookingStatus.From)),
		zap.String("booking_status_to", string(entry.BookingStatus.To)),
		zap.String("payment_status_from", string(entry.PaymentStatus.From)),
		zap.String("payment_status_to", string(entry.PaymentStatus.To)),
		zap.Uint64("changed_by", actor.ID))

	b, ev := res.Booking.Clone(), res.Event
	s.notifyAsync(func(ctx context.Context) {
		u, err := s.store.GetUser(ctx, b.UserID)
		if err != nil {
			s.log.Warn("status notification skipped", zap.Uint64("booking_id", b.ID), zap.Error(err))
			return
		}
		by := actor.Role
		if actor.ID == u.ID {
			by = u.Name
		} else if who, err := s.store.GetUser(ctx, actor.ID); err == nil {
			by = who.Name
		}
		s.notifier.SendBookingStatusUpdateEmail(ctx, u.Email, b, ev, u, notify.DescribeChanges(entry), by)
	})

	return res, nil
}

// apply mutates b, writes the ledger when the policy requires it,
// appends exactly one audit entry and propagates the booking status to
// the membership lists.  It returns the entry and the ledger operations
// performed.
func (s *BookingService) apply(ctx context.Context, tx repository.Tx, b *model.Booking, e *model.Event, ch change, actorID uint64) (model.StatusLogEntry, []string, error) {
	prevB, prevP := b.BookingStatus, b.PaymentStatus
	nextB, nextP := prevB, prevP
	if ch.booking != nil {
		nextB = *ch.booking
	}
	if ch.payment != nil {
		nextP = *ch.payment
	}
	if s.policy.EnforceTransitions && !model.CanTransition(prevB, nextB) {
		return model.StatusLogEntry{}, nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prevB, nextB)
	}

	var ops []string
	if nextB != prevB {
		switch {
		case nextB == model.BookingConfirmed && b.InventoryReserved:
			ops = append(ops, metrics.LedgerIncrementNop)
		case nextB == model.BookingConfirmed:
			tt, ok := e.FindTicketType(b.TicketType)
			if !ok {
				return model.StatusLogEntry{}, nil, repository.ErrTicketTypeNotFound
			}
			if err := tx.IncrementSold(ctx, tt.ID, b.Quantity); err != nil {
				return model.StatusLogEntry{}, nil, err
			}
			tt.Sold += b.Quantity
			b.InventoryReserved = true
			ops = append(ops, metrics.LedgerIncrement)
		case s.policy.RestockOnCancel && b.InventoryReserved &&
			(nextB == model.BookingCancelled || nextB == model.BookingRefunded):
			tt, ok := e.FindTicketType(b.TicketType)
			if !ok {
				return model.StatusLogEntry{}, nil, repository.ErrTicketTypeNotFound
			}
			if err := tx.DecrementSold(ctx, tt.ID, b.Quantity); err != nil {
				return model.StatusLogEntry{}, nil, err
			}
			tt.Sold -= b.Quantity
			b.InventoryReserved = false
			ops = append(ops, metrics.LedgerDecrement)
		}
	}

	b.BookingStatus, b.PaymentStatus = nextB, nextP
	if err := tx.UpdateBooking(ctx, b); err != nil {
		return model.StatusLogEntry{}, nil, fmt.Errorf("update booking: %w", err)
	}
	entry := model.StatusLogEntry{
		BookingID:     b.ID,
		BookingStatus: model.StatusChange[model.BookingStatus]{From: prevB, To: nextB},
		PaymentStatus: model.StatusChange[model.PaymentStatus]{From: prevP, To: nextP},
		Reason:        ch.reason,
		Notes:         ch.notes,
		ChangedBy:     actorID,
		ChangedAt:     s.now(),
	}
	if err := tx.AppendStatusLog(ctx, &entry); err != nil {
		return model.StatusLogEntry{}, nil, fmt.Errorf("append status log: %w", err)
	}
	b.StatusLog = append(b.StatusLog, entry)
	if _, err := tx.PropagateStatus(ctx, b.ID, nextB); err != nil {
		return model.StatusLogEntry{}, nil, fmt.Errorf("propagate status: %w", err)
	}
	return entry, ops, nil
}

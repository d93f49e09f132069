// Package service holds the booking coordinators.  Every write to the
// inventory ledger, the booking record and the membership lists happens
// inside one repository transaction; notifications are sent after the
// commit and never change the outcome of an operation.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/eventify/internal/metrics"
	"github.com/iliyamo/eventify/internal/model"
	"github.com/iliyamo/eventify/internal/notify"
	"github.com/iliyamo/eventify/internal/repository"
)

// Policy selects the platform-wide ledger behaviour.
type Policy struct {
	// ReserveOnConfirmation moves the ledger increment from booking
	// creation to the first move into CONFIRMED.
	ReserveOnConfirmation bool
	// RestockOnCancel returns a reserved booking's tickets to the ledger
	// when it becomes CANCELLED or REFUNDED.
	RestockOnCancel bool
	// EnforceTransitions rejects booking status changes outside the
	// state machine.
	EnforceTransitions bool
	// NotifyTimeout bounds one post-commit notification.
	NotifyTimeout time.Duration
}

// DefaultPolicy reserves at creation, never restocks and enforces the
// state machine.
func DefaultPolicy() Policy {
	return Policy{EnforceTransitions: true, NotifyTimeout: 5 * time.Second}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uint64
	Role string
}

func (a Actor) isAdmin() bool { return a.Role == model.RoleSuperAdmin }

// BookRequest is the input of Book.
type BookRequest struct {
	EventID    uint64
	UserID     uint64
	TicketType string
	Quantity   int
}

// BookResult is returned by Book.
type BookResult struct {
	Booking    *model.Booking
	Event      *model.Event
	TicketType model.TicketType
}

// BookingService coordinates bookings, status transitions and the
// organizer event operations.
type BookingService struct {
	store    repository.Store
	notifier notify.Dispatcher
	policy   Policy
	log      *zap.Logger
	now      func() time.Time

	inflight sync.WaitGroup
}

// NewBookingService creates a new booking service.  A nil notifier
// disables notifications and a nil logger discards log output.
func NewBookingService(store repository.Store, notifier notify.Dispatcher, policy Policy, log *zap.Logger) *BookingService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if policy.NotifyTimeout <= 0 {
		policy.NotifyTimeout = DefaultPolicy().NotifyTimeout
	}
	return &BookingService{
		store:    store,
		notifier: notifier,
		policy:   policy,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Book creates a PENDING booking for a published event.  The booking,
// the ledger increment (when reserving at creation) and both membership
// entries are committed together or not at all.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (res *BookResult, err error) {
	started := time.Now()
	defer func() { metrics.ObserveBooking(bookingResult(err), started) }()

	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if model.NormalizeTicketTypeName(req.TicketType) == "" {
		return nil, ErrTicketTypeRequired
	}

	event, err := s.store.GetEvent(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return nil, ErrEventNotBookable
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event.Status != model.EventPublished {
		return nil, ErrEventNotBookable
	}
	tt, ok := event.FindTicketType(req.TicketType)
	if !ok {
		return nil, ErrInvalidTicketType
	}
	if tt.Remaining() < req.Quantity {
		return nil, ErrInsufficientTickets
	}
	total := tt.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))
	reserve := !s.policy.ReserveOnConfirmation

	var booking *model.Booking
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		b := &model.Booking{
			EventID:           event.ID,
			UserID:            req.UserID,
			TicketType:        tt.Name,
			Quantity:          req.Quantity,
			TotalPrice:        total,
			BookingStatus:     model.BookingPending,
			PaymentStatus:     model.PaymentPending,
			InventoryReserved: reserve,
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		if reserve {
			if err := tx.IncrementSold(ctx, tt.ID, req.Quantity); err != nil {
				return err
			}
		}
		if err := tx.AppendMembership(ctx, model.MembershipFromBooking(model.OwnerUser, req.UserID, b)); err != nil {
			return fmt.Errorf("append user membership: %w", err)
		}
		if err := tx.AppendMembership(ctx, model.MembershipFromBooking(model.OwnerOrganizer, event.OrganizerID, b)); err != nil {
			return fmt.Errorf("append organizer membership: %w", err)
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if reserve {
		tt.Sold += req.Quantity
		metrics.ObserveLedger(metrics.LedgerIncrement)
	}

	s.log.Info("booking created",
		zap.Uint64("booking_id", booking.ID),
		zap.Uint64("event_id", event.ID),
		zap.Uint64("user_id", req.UserID),
		zap.String("ticket_type", booking.TicketType),
		zap.Int("quantity", booking.Quantity))

	b, ev := booking.Clone(), event
	s.notifyAsync(func(ctx context.Context) {
		u, err := s.store.GetUser(ctx, b.UserID)
		if err != nil {
			s.log.Warn("booking notification skipped", zap.Uint64("booking_id", b.ID), zap.Error(err))
			return
		}
		s.notifier.SendTicketBookingEmail(ctx, u.Email, b, ev, u)
	})

	return &BookResult{Booking: booking, Event: event, TicketType: *tt}, nil
}

// GetBooking returns a booking with its status log.  Purchasers see
// their own bookings, organizers the bookings of their events and super
// admins every booking.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uint64, actor Actor) (*model.Booking, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.isAdmin() || b.UserID == actor.ID {
		return b, nil
	}
	if actor.Role == model.RoleOrganizer {
		e, err := s.store.GetEvent(ctx, b.EventID)
		if err != nil {
			return nil, err
		}
		if e.OrganizerID == actor.ID {
			return b, nil
		}
	}
	return nil, repository.ErrForbidden
}

// MyBookings returns the purchaser's membership list, newest first.
func (s *BookingService) MyBookings(ctx context.Context, userID uint64) ([]model.MembershipEntry, error) {
	return s.store.ListMemberships(ctx, model.OwnerUser, userID)
}

// EventBookings returns the organizer-side membership entries of one
// event.  Only the event's organizer or a super admin may list them.
func (s *BookingService) EventBookings(ctx context.Context, eventID uint64, actor Actor) ([]model.MembershipEntry, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.isAdmin() && e.OrganizerID != actor.ID {
		return nil, repository.ErrForbidden
	}
	return s.store.ListEventMemberships(ctx, eventID)
}

// Drain blocks until every in-flight notification has finished.
func (s *BookingService) Drain() {
	s.inflight.Wait()
}

// notifyAsync runs fn after the caller has returned, with a context
// detached from the request and bounded by the policy timeout.
func (s *BookingService) notifyAsync(fn func(ctx context.Context)) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("notification panicked", zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), s.policy.NotifyTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func bookingResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultCreated
	case errors.Is(err, ErrInsufficientTickets):
		return metrics.ResultSoldOut
	case IsValidationError(err):
		return metrics.ResultInvalid
	case IsNotFoundError(err):
		return metrics.ResultNotFound
	case IsConflictError(err):
		return metrics.ResultConflict
	default:
		return metrics.ResultError
	}
}

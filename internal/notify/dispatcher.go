// Package notify sends best-effort booking notifications.  A failed
// notification is logged and counted but never reported as an error to
// the booking flow: every Dispatcher method returns a plain bool.
package notify

import (
    "context"
    "fmt"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/eventify/internal/metrics"
    "github.com/iliyamo/eventify/internal/model"
    "github.com/iliyamo/eventify/internal/queue"
)

// Dispatcher is the notification surface used by the booking service.
type Dispatcher interface {
    SendTicketBookingEmail(ctx context.Context, to string, b *model.Booking, e *model.Event, u *model.User) bool
    SendBookingStatusUpdateEmail(ctx context.Context, to string, b *model.Booking, e *model.Event, u *model.User, updates []string, updatedByName string) bool
}

// Emailer builds notification messages and hands them to a Sender,
// which is either the queue publisher or a direct email sender.
type Emailer struct {
    sender queue.Sender
    log    *zap.Logger
}

// NewEmailer returns a Dispatcher delivering through s.
func NewEmailer(s queue.Sender, log *zap.Logger) *Emailer {
    return &Emailer{sender: s, log: log}
}

// NewQueueDispatcher returns a Dispatcher that publishes to RabbitMQ.
func NewQueueDispatcher(p *queue.Publisher, log *zap.Logger) *Emailer {
    return NewEmailer(queue.SenderFunc(p.Publish), log)
}

func (d *Emailer) SendTicketBookingEmail(ctx context.Context, to string, b *model.Booking, e *model.Event, u *model.User) bool {
    n := BookingCreatedMessage(to, b, e, u)
    return d.deliver(ctx, n)
}

func (d *Emailer) SendBookingStatusUpdateEmail(ctx context.Context, to string, b *model.Booking, e *model.Event, u *model.User, updates []string, updatedByName string) bool {
    n := StatusUpdatedMessage(to, b, e, u, updates, updatedByName)
    return d.deliver(ctx, n)
}

func (d *Emailer) deliver(ctx context.Context, n queue.Notification) (ok bool) {
    defer func() {
        if r := recover(); r != nil {
            d.log.Error("notification panicked", zap.String("kind", n.Kind),
                zap.Uint64("booking_id", n.BookingID), zap.Any("panic", r))
            ok = false
        }
        metrics.ObserveNotification(n.Kind, ok)
    }()
    if n.To == "" {
        d.log.Warn("notification skipped: no recipient", zap.String("kind", n.Kind), zap.Uint64("booking_id", n.BookingID))
        return false
    }
    if err := d.sender.Send(ctx, n); err != nil {
        d.log.Warn("notification failed", zap.String("kind", n.Kind),
            zap.Uint64("booking_id", n.BookingID), zap.Error(err))
        return false
    }
    return true
}

// BookingCreatedMessage builds the confirmation message for a new booking.
func BookingCreatedMessage(to string, b *model.Booking, e *model.Event, u *model.User) queue.Notification {
    n := baseMessage(queue.KindBookingCreated, to, b, e, u)
    n.OccurredAt = b.CreatedAt.UTC().Format(time.RFC3339)
    return n
}

// StatusUpdatedMessage builds the message for a status change.
func StatusUpdatedMessage(to string, b *model.Booking, e *model.Event, u *model.User, updates []string, updatedByName string) queue.Notification {
    n := baseMessage(queue.KindBookingStatusUpdated, to, b, e, u)
    n.Updates = updates
    n.UpdatedBy = updatedByName
    n.OccurredAt = b.UpdatedAt.UTC().Format(time.RFC3339)
    return n
}

func baseMessage(kind, to string, b *model.Booking, e *model.Event, u *model.User) queue.Notification {
    n := queue.Notification{
        Kind:          kind,
        To:            to,
        BookingID:     b.ID,
        EventID:       b.EventID,
        TicketType:    b.TicketType,
        Quantity:      b.Quantity,
        TotalPrice:    b.TotalPrice.StringFixed(2),
        BookingStatus: string(b.BookingStatus),
        PaymentStatus: string(b.PaymentStatus),
    }
    if e != nil {
        n.EventTitle = e.Title
        n.Venue = e.Venue
        n.StartsAt = e.StartsAt.UTC().Format(time.RFC3339)
    }
    if u != nil {
        n.RecipientName = u.Name
    }
    return n
}

// DescribeChanges renders the before/after pairs of one audit entry.
// Unchanged dimensions are left out.
func DescribeChanges(entry model.StatusLogEntry) []string {
    var out []string
    if entry.BookingStatus.From != entry.BookingStatus.To {
        out = append(out, fmt.Sprintf("Booking status: %s -> %s", entry.BookingStatus.From, entry.BookingStatus.To))
    }
    if entry.PaymentStatus.From != entry.PaymentStatus.To {
        out = append(out, fmt.Sprintf("Payment status: %s -> %s", entry.PaymentStatus.From, entry.PaymentStatus.To))
    }
    if entry.Reason != "" {
        out = append(out, "Reason: "+entry.Reason)
    }
    return out
}

// Nop drops every notification.  It is used when notifications are
// disabled.
type Nop struct{}

func (Nop) SendTicketBookingEmail(context.Context, string, *model.Booking, *model.Event, *model.User) bool {
    return true
}

func (Nop) SendBookingStatusUpdateEmail(context.Context, string, *model.Booking, *model.Event, *model.User, []string, string) bool {
    return true
}

var (
    _ Dispatcher = (*Emailer)(nil)
    _ Dispatcher = Nop{}
)

package notify

import (
    "context"
    "fmt"
    "html"
    "strings"

    "github.com/mailersend/mailersend-go"
    "go.uber.org/zap"

    "github.com/iliyamo/eventify/internal/queue"
)

// MailerSend delivers notifications as plain emails through the
// MailerSend API.  It implements queue.Sender and is used by the queue
// consumer, or directly by an Emailer when no broker is configured.
type MailerSend struct {
    Client    *mailersend.Mailersend
    FromEmail string
    FromName  string
    Log       *zap.Logger
}

// NewMailerSend returns a sender authenticated with apiKey.
func NewMailerSend(apiKey, fromName, fromEmail string, log *zap.Logger) *MailerSend {
    return &MailerSend{
        Client:    mailersend.NewMailersend(apiKey),
        FromEmail: fromEmail,
        FromName:  fromName,
        Log:       log,
    }
}

// Send renders n and sends it.
func (m *MailerSend) Send(ctx context.Context, n queue.Notification) error {
    subject, text := Render(n)

    message := m.Client.Email.NewMessage()
    message.SetFrom(mailersend.From{Name: m.FromName, Email: m.FromEmail})
    message.SetRecipients([]mailersend.Recipient{{Name: n.RecipientName, Email: n.To}})
    message.SetSubject(subject)
    message.SetText(text)
    message.SetHTML("<pre>" + html.EscapeString(text) + "</pre>")

    res, err := m.Client.Email.Send(ctx, message)
    if err != nil {
        return fmt.Errorf("failed to send email: %w", err)
    }
    m.Log.Debug("email sent", zap.String("message_id", res.Header.Get("X-Message-Id")),
        zap.Uint64("booking_id", n.BookingID))
    return nil
}

// Render returns the subject and plain-text body of a notification.
func Render(n queue.Notification) (subject, body string) {
    var b strings.Builder
    name := n.RecipientName
    if name == "" {
        name = "there"
    }
    fmt.Fprintf(&b, "Hi %s,\n\n", name)

    switch n.Kind {
    case queue.KindBookingStatusUpdated:
        subject = fmt.Sprintf("Booking #%d updated: %s", n.BookingID, n.EventTitle)
        fmt.Fprintf(&b, "Your booking for %s has been updated", n.EventTitle)
        if n.UpdatedBy != "" {
            fmt.Fprintf(&b, " by %s", n.UpdatedBy)
        }
        b.WriteString(".\n\n")
        for _, u := range n.Updates {
            fmt.Fprintf(&b, "  - %s\n", u)
        }
        b.WriteString("\n")
    default:
        subject = fmt.Sprintf("Booking #%d received: %s", n.BookingID, n.EventTitle)
        fmt.Fprintf(&b, "Thanks for booking %s.\n\n", n.EventTitle)
    }

    fmt.Fprintf(&b, "Event:    %s\n", n.EventTitle)
    if n.Venue != "" {
        fmt.Fprintf(&b, "Venue:    %s\n", n.Venue)
    }
    if n.StartsAt != "" {
        fmt.Fprintf(&b, "Starts:   %s\n", n.StartsAt)
    }
    fmt.Fprintf(&b, "Tickets:  %d x %s\n", n.Quantity, n.TicketType)
    fmt.Fprintf(&b, "Total:    %s\n", n.TotalPrice)
    fmt.Fprintf(&b, "Booking:  %s\n", n.BookingStatus)
    fmt.Fprintf(&b, "Payment:  %s\n", n.PaymentStatus)
    return subject, b.String()
}

// LogSender writes notifications to the log instead of sending them.
// It stands in for MailerSend when no API key is configured.
type LogSender struct {
    Log *zap.Logger
}

func (s LogSender) Send(_ context.Context, n queue.Notification) error {
    subject, _ := Render(n)
    s.Log.Info("notification", zap.String("kind", n.Kind), zap.String("to", n.To),
        zap.Uint64("booking_id", n.BookingID), zap.String("subject", subject),
        zap.Strings("updates", n.Updates))
    return nil
}

var (
    _ queue.Sender = (*MailerSend)(nil)
    _ queue.Sender = LogSender{}
)

package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/eventify/internal/model"
    "github.com/iliyamo/eventify/internal/service"
)

// BookingHandler exposes the ticket booking endpoints.  All methods
// assume that JWT authentication and role validation have already been
// performed by middleware.  Every write goes through the booking service,
// which runs it inside one transaction.
type BookingHandler struct {
    Service *service.BookingService
    Log     *zap.Logger
}

// NewBookingHandler constructs a BookingHandler.  The service must be
// non-nil.
func NewBookingHandler(svc *service.BookingService, log *zap.Logger) *BookingHandler {
    if svc == nil {
        panic("nil service passed to NewBookingHandler")
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &BookingHandler{Service: svc, Log: log}
}

type bookTicketRequest struct {
    EventID    uint64 `json:"eventId"`
    TicketType string `json:"ticketType"`
    Quantity   int    `json:"quantity"`
}

// BookTicket handles POST /ticket/book-ticket.  The body carries
// eventId, ticketType and quantity.  It returns 201 with the new
// booking's statuses and a summary of what was booked.
func (h *BookingHandler) BookTicket(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    var body bookTicketRequest
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    if body.EventID == 0 {
        return fail(c, http.StatusBadRequest, "eventId is required")
    }

    res, err := h.Service.Book(c.Request().Context(), service.BookRequest{
        EventID:    body.EventID,
        UserID:     userID,
        TicketType: body.TicketType,
        Quantity:   body.Quantity,
    })
    if err != nil {
        return respondError(c, h.Log, err)
    }
    b := res.Booking
    return c.JSON(http.StatusCreated, echo.Map{
        "success":       true,
        "message":       "Ticket booked successfully",
        "bookingId":     b.ID,
        "bookingStatus": b.BookingStatus,
        "paymentStatus": b.PaymentStatus,
        "data": echo.Map{
            "event": echo.Map{
                "id":       res.Event.ID,
                "title":    res.Event.Title,
                "venue":    res.Event.Venue,
                "startsAt": res.Event.StartsAt.Format(time.RFC3339),
            },
            "ticketType":  b.TicketType,
            "quantity":    b.Quantity,
            "totalPrice":  b.TotalPrice.StringFixed(2),
            "bookingDate": b.CreatedAt.Format(time.RFC3339),
        },
    })
}

// CancelBooking handles POST /ticket/cancel-booking/:bookingId for the
// purchaser and POST /super-admin/ticket/cancel-booking/:bookingId for
// super admins.  Ownership is checked by the service.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return unauthorized(c)
    }
    bookingID, ok := parseID(c, "bookingId")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid booking id")
    }
    res, err := h.Service.Cancel(c.Request().Context(), bookingID, actor)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":       true,
        "message":       "Booking cancelled successfully",
        "bookingId":     res.Booking.ID,
        "bookingStatus": res.Booking.BookingStatus,
        "paymentStatus": res.Booking.PaymentStatus,
    })
}

// MyBookings handles GET /ticket/my-bookings and returns the caller's
// membership list, newest first.
func (h *BookingHandler) MyBookings(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return unauthorized(c)
    }
    list, err := h.Service.MyBookings(c.Request().Context(), userID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(list), "data": membershipViews(list)})
}

// GetBooking handles GET /ticket/bookings/:bookingId and returns the
// booking together with its status log.
func (h *BookingHandler) GetBooking(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return unauthorized(c)
    }
    bookingID, ok := parseID(c, "bookingId")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid booking id")
    }
    b, err := h.Service.GetBooking(c.Request().Context(), bookingID, actor)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": bookingView(b)})
}

// SimulatePayment handles POST /ticket/simulate-payment/:bookingId with
// body {"outcome": "success"|"failure"}.
func (h *BookingHandler) SimulatePayment(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return unauthorized(c)
    }
    bookingID, ok := parseID(c, "bookingId")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid booking id")
    }
    var body struct {
        Outcome string `json:"outcome"`
    }
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    res, err := h.Service.SimulatePayment(c.Request().Context(), bookingID, actor, body.Outcome)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":       true,
        "message":       "Payment processed",
        "bookingId":     res.Booking.ID,
        "bookingStatus": res.Booking.BookingStatus,
        "paymentStatus": res.Booking.PaymentStatus,
        "transactionId": res.Booking.Meta.TransactionID,
    })
}

type updateStatusRequest struct {
    BookingStatus string `json:"bookingStatus"`
    PaymentStatus string `json:"paymentStatus"`
    Reason        string `json:"reason"`
    Notes         string `json:"notes"`
}

// UpdateBookingStatus handles
// PATCH /super-admin/ticket/update-booking-status/:bookingId.  Either
// status may be omitted; the response summarises what changed.
func (h *BookingHandler) UpdateBookingStatus(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return unauthorized(c)
    }
    bookingID, ok := parseID(c, "bookingId")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid booking id")
    }
    var body updateStatusRequest
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    res, err := h.Service.UpdateStatus(c.Request().Context(), bookingID, service.StatusUpdate{
        BookingStatus: body.BookingStatus,
        PaymentStatus: body.PaymentStatus,
        Reason:        body.Reason,
        Notes:         body.Notes,
    }, actor)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "message": "Booking status updated successfully",
        "data": echo.Map{
            "bookingId":     res.Booking.ID,
            "bookingStatus": res.Booking.BookingStatus,
            "paymentStatus": res.Booking.PaymentStatus,
            "change":        res.Entry,
            "updatedAt":     res.Booking.UpdatedAt.Format(time.RFC3339),
        },
    })
}

func bookingView(b *model.Booking) echo.Map {
    log := b.StatusLog
    if log == nil {
        log = []model.StatusLogEntry{}
    }
    return echo.Map{
        "id":            b.ID,
        "eventId":       b.EventID,
        "userId":        b.UserID,
        "ticketType":    b.TicketType,
        "quantity":      b.Quantity,
        "totalPrice":    b.TotalPrice.StringFixed(2),
        "bookingStatus": b.BookingStatus,
        "paymentStatus": b.PaymentStatus,
        "meta":          b.Meta,
        "statusLog":     log,
        "createdAt":     b.CreatedAt.Format(time.RFC3339),
        "updatedAt":     b.UpdatedAt.Format(time.RFC3339),
    }
}

func membershipViews(list []model.MembershipEntry) []echo.Map {
    out := make([]echo.Map, 0, len(list))
    for _, m := range list {
        out = append(out, echo.Map{
            "bookingId":  m.BookingID,
            "eventId":    m.EventID,
            "ticketType": m.TicketType,
            "quantity":   m.Quantity,
            "totalPrice": m.TotalPrice.StringFixed(2),
            "status":     m.Status,
            "bookedAt":   m.BookedAt.Format(time.RFC3339),
        })
    }
    return out
}

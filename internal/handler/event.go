package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"
    "go.uber.org/zap"

    "github.com/iliyamo/eventify/internal/model"
    "github.com/iliyamo/eventify/internal/service"
)

// EventHandler exposes the organizer event endpoints and the public
// event detail.
type EventHandler struct {
    Service *service.BookingService
    Log     *zap.Logger
}

// NewEventHandler constructs an EventHandler and panics if svc is nil.
func NewEventHandler(svc *service.BookingService, log *zap.Logger) *EventHandler {
    if svc == nil {
        panic("nil service passed to NewEventHandler")
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &EventHandler{Service: svc, Log: log}
}

type createEventRequest struct {
    Title       string `json:"title"`
    Venue       string `json:"venue"`
    StartsAt    string `json:"startsAt"`
    TicketTypes []struct {
        Name     string          `json:"name"`
        Price    decimal.Decimal `json:"price"`
        Quantity int             `json:"quantity"`
    } `json:"ticketTypes"`
}

// CreateEvent handles POST /organizer/events.  startsAt must be an
// RFC3339 timestamp; the event is created as a DRAFT.
func (h *EventHandler) CreateEvent(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return unauthorized(c)
    }
    var body createEventRequest
    if err := c.Bind(&body); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    startsAt, err := time.Parse(time.RFC3339, body.StartsAt)
    if err != nil {
        return fail(c, http.StatusBadRequest, "startsAt must be an RFC3339 timestamp")
    }
    in := service.NewEvent{Title: body.Title, Venue: body.Venue, StartsAt: startsAt}
    for _, tt := range body.TicketTypes {
        in.TicketTypes = append(in.TicketTypes, service.NewTicketType{Name: tt.Name, Price: tt.Price, Quantity: tt.Quantity})
    }
    e, err := h.Service.CreateEvent(c.Request().Context(), in, actor)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Event created", "data": eventView(e)})
}

// PublishEvent handles PATCH /organizer/events/:id/publish.
func (h *EventHandler) PublishEvent(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return unauthorized(c)
    }
    eventID, ok := parseID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    e, err := h.Service.PublishEvent(c.Request().Context(), eventID, actor)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Event published", "data": eventView(e)})
}

// EventBookings handles GET /organizer/events/:id/bookings.
func (h *EventHandler) EventBookings(c echo.Context) error {
    actor, err := actorFrom(c)
    if err != nil {
        return unauthorized(c)
    }
    eventID, ok := parseID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    list, err := h.Service.EventBookings(c.Request().Context(), eventID, actor)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(list), "data": membershipViews(list)})
}

// GetEvent handles GET /events/:id.  It is public and reports the
// remaining stock of every ticket type.
func (h *EventHandler) GetEvent(c echo.Context) error {
    eventID, ok := parseID(c, "id")
    if !ok {
        return fail(c, http.StatusBadRequest, "invalid event id")
    }
    e, err := h.Service.GetEvent(c.Request().Context(), eventID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": eventView(e)})
}

func eventView(e *model.Event) echo.Map {
    types := make([]echo.Map, 0, len(e.TicketTypes))
    for _, tt := range e.TicketTypes {
        types = append(types, echo.Map{
            "name":      tt.Name,
            "price":     tt.Price.StringFixed(2),
            "quantity":  tt.Quantity,
            "sold":      tt.Sold,
            "remaining": tt.Remaining(),
        })
    }
    return echo.Map{
        "id":          e.ID,
        "organizerId": e.OrganizerID,
        "title":       e.Title,
        "venue":       e.Venue,
        "startsAt":    e.StartsAt.Format(time.RFC3339),
        "status":      e.Status,
        "ticketTypes": types,
    }
}

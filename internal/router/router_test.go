package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/eventify/internal/handler"
	"github.com/iliyamo/eventify/internal/model"
	"github.com/iliyamo/eventify/internal/repository/memory"
	"github.com/iliyamo/eventify/internal/service"
	"github.com/iliyamo/eventify/internal/utils"
)

const secret = "router-test-secret"

type api struct {
	e     *echo.Echo
	store *memory.Store
	svc   *service.BookingService
	event *model.Event

	buyer, other, organizer, admin string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	st := memory.New()
	svc := service.NewBookingService(st, nil, service.DefaultPolicy(), nil)
	t.Cleanup(svc.Drain)

	e := echo.New()
	RegisterRoutes(e, nil)
	RegisterPublic(e, handler.NewEventHandler(svc, nil), nil)
	RegisterTicket(e, handler.NewBookingHandler(svc, nil), secret, nil)
	RegisterSuperAdmin(e, handler.NewBookingHandler(svc, nil), secret)
	RegisterOrganizer(e, handler.NewEventHandler(svc, nil), secret)

	a := &api{e: e, store: st, svc: svc}
	a.buyer = a.token(t, st.AddUser(model.User{Email: "buyer@example.com", Name: "Bea", Role: model.RoleUser}))
	a.other = a.token(t, st.AddUser(model.User{Email: "other@example.com", Name: "Otto", Role: model.RoleUser}))
	org := st.AddUser(model.User{Email: "org@example.com", Name: "Olga", Role: model.RoleOrganizer})
	a.organizer = a.token(t, org)
	a.admin = a.token(t, st.AddUser(model.User{Email: "admin@example.com", Name: "Ada", Role: model.RoleSuperAdmin}))

	ev := &model.Event{
		OrganizerID: org.ID,
		Title:       "Jazz Night",
		Venue:       "Main Hall",
		StartsAt:    time.Date(2030, 5, 1, 20, 0, 0, 0, time.UTC),
		Status:      model.EventPublished,
		TicketTypes: []model.TicketType{{Name: "VIP", Price: decimal.RequireFromString("25.5"), Quantity: 10}},
	}
	require.NoError(t, st.CreateEvent(context.Background(), ev))
	a.event = ev
	return a
}

func (a *api) token(t *testing.T, u *model.User) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, u.ID, u.Role, 5)
	require.NoError(t, err)
	return tok.Token
}

func (a *api) do(t *testing.T, method, path, bearer, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	out := map[string]interface{}{}
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func (a *api) book(t *testing.T, qty int) uint64 {
	t.Helper()
	code, body := a.do(t, http.MethodPost, "/ticket/book-ticket", a.buyer,
		`{"eventId":1,"ticketType":"vip","quantity":`+itoa(qty)+`}`)
	require.Equal(t, http.StatusCreated, code, body)
	return uint64(body["bookingId"].(float64))
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)
	code, _ := a.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, code)
	code, body := a.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])
	code, _ = a.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestBookTicket(t *testing.T) {
	a := newAPI(t)

	code, body := a.do(t, http.MethodPost, "/ticket/book-ticket", a.buyer, `{"eventId":1,"ticketType":" VIP ","quantity":2}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "PENDING", body["bookingStatus"])
	assert.Equal(t, "PENDING", body["paymentStatus"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "51.00", data["totalPrice"])
	assert.Equal(t, "VIP", data["ticketType"])
	assert.Equal(t, "Jazz Night", data["event"].(map[string]interface{})["title"])

	code, body = a.do(t, http.MethodGet, "/events/1", "", "")
	require.Equal(t, http.StatusOK, code)
	tt := body["data"].(map[string]interface{})["ticketTypes"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(8), tt["remaining"])
}

func TestBookTicketErrors(t *testing.T) {
	a := newAPI(t)
	tests := []struct {
		name   string
		bearer string
		body   string
		status int
	}{
		{"no token", "", `{"eventId":1,"ticketType":"VIP","quantity":1}`, http.StatusUnauthorized},
		{"wrong role", a.organizer, `{"eventId":1,"ticketType":"VIP","quantity":1}`, http.StatusForbidden},
		{"bad json", a.buyer, `{"eventId":`, http.StatusBadRequest},
		{"missing event", a.buyer, `{"ticketType":"VIP","quantity":1}`, http.StatusBadRequest},
		{"zero quantity", a.buyer, `{"eventId":1,"ticketType":"VIP","quantity":0}`, http.StatusBadRequest},
		{"unknown event", a.buyer, `{"eventId":42,"ticketType":"VIP","quantity":1}`, http.StatusNotFound},
		{"unknown ticket type", a.buyer, `{"eventId":1,"ticketType":"Balcony","quantity":1}`, http.StatusNotFound},
		{"too many", a.buyer, `{"eventId":1,"ticketType":"VIP","quantity":11}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := a.do(t, http.MethodPost, "/ticket/book-ticket", tc.bearer, tc.body)
			assert.Equal(t, tc.status, code)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["message"])
			assert.NotContains(t, body, "error")
		})
	}
}

func TestCancelBooking(t *testing.T) {
	a := newAPI(t)
	id := a.book(t, 1)
	path := "/ticket/cancel-booking/" + itoa(int(id))

	code, _ := a.do(t, http.MethodPost, path, a.other, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, body := a.do(t, http.MethodPost, path, a.buyer, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "CANCELLED", body["bookingStatus"])
	assert.Equal(t, "PENDING", body["paymentStatus"])

	code, _ = a.do(t, http.MethodPost, path, a.buyer, "")
	assert.Equal(t, http.StatusConflict, code)

	code, body = a.do(t, http.MethodGet, "/ticket/my-bookings", a.buyer, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])
	entry := body["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "CANCELLED", entry["status"])

	code, _ = a.do(t, http.MethodPost, "/ticket/cancel-booking/abc", a.buyer, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAdminUpdateStatus(t *testing.T) {
	a := newAPI(t)
	id := a.book(t, 2)
	path := "/super-admin/ticket/update-booking-status/" + itoa(int(id))

	code, _ := a.do(t, http.MethodPatch, path, a.buyer, `{"bookingStatus":"CONFIRMED"}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(t, http.MethodPatch, path, a.admin, `{"bookingStatus":"LOST"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := a.do(t, http.MethodPatch, path, a.admin, `{"bookingStatus":"confirmed","paymentStatus":"paid","reason":"manual"}`)
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "CONFIRMED", data["bookingStatus"])
	assert.Equal(t, "PAID", data["paymentStatus"])
	change := data["change"].(map[string]interface{})
	assert.Equal(t, "PENDING", change["booking_status"].(map[string]interface{})["from"])

	code, _ = a.do(t, http.MethodPatch, path, a.admin, `{"bookingStatus":"PENDING"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, body = a.do(t, http.MethodGet, "/ticket/bookings/"+itoa(int(id)), a.buyer, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"].(map[string]interface{})["statusLog"], 1)

	code, body = a.do(t, http.MethodPost, "/super-admin/ticket/cancel-booking/"+itoa(int(id)), a.admin, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "REFUNDED", body["paymentStatus"])
}

func TestSimulatePaymentEndpoint(t *testing.T) {
	a := newAPI(t)
	id := a.book(t, 1)
	path := "/ticket/simulate-payment/" + itoa(int(id))

	code, _ := a.do(t, http.MethodPost, path, a.buyer, `{"outcome":"later"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := a.do(t, http.MethodPost, path, a.buyer, `{"outcome":"success"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "CONFIRMED", body["bookingStatus"])
	assert.Equal(t, "PAID", body["paymentStatus"])
	assert.True(t, strings.HasPrefix(body["transactionId"].(string), "sim_"))
}

func TestOrganizerEventLifecycle(t *testing.T) {
	a := newAPI(t)

	code, _ := a.do(t, http.MethodPost, "/organizer/events", a.buyer, `{}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(t, http.MethodPost, "/organizer/events", a.organizer, `{"title":"Gala","startsAt":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := a.do(t, http.MethodPost, "/organizer/events", a.organizer,
		`{"title":"Gala","venue":"Opera","startsAt":"2031-01-01T19:00:00Z","ticketTypes":[{"name":"Stalls","price":"40.00","quantity":3},{"name":"Box","price":120,"quantity":1}]}`)
	require.Equal(t, http.StatusCreated, code, body)
	ev := body["data"].(map[string]interface{})
	assert.Equal(t, "DRAFT", ev["status"])
	id := itoa(int(ev["id"].(float64)))

	code, _ = a.do(t, http.MethodGet, "/events/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = a.do(t, http.MethodPost, "/ticket/book-ticket", a.buyer, `{"eventId":`+id+`,"ticketType":"Box","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = a.do(t, http.MethodPatch, "/organizer/events/"+id+"/publish", a.organizer, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PUBLISHED", body["data"].(map[string]interface{})["status"])
	code, _ = a.do(t, http.MethodPatch, "/organizer/events/"+id+"/publish", a.organizer, "")
	assert.Equal(t, http.StatusConflict, code)

	code, _ = a.do(t, http.MethodPost, "/ticket/book-ticket", a.buyer, `{"eventId":`+id+`,"ticketType":"box","quantity":1}`)
	require.Equal(t, http.StatusCreated, code)

	code, body = a.do(t, http.MethodGet, "/organizer/events/"+id+"/bookings", a.organizer, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])
	entry := body["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "120.00", entry["totalPrice"])
}

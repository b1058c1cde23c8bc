package ginserver_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"

	"venuebook/internal/app/handlers"
	"venuebook/internal/app/principal"
	"venuebook/internal/infra/config"
	ginserver "venuebook/internal/infra/http/gin"
	"venuebook/internal/infra/obs"
	"venuebook/internal/infra/security"
	"venuebook/internal/infra/storage/memory"
)

var (
	clock    = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	owner    = principal.Principal{UserID: "owner-1", Role: principal.RoleOwner}
	admin    = principal.Principal{UserID: "admin-1", Role: principal.RoleAdmin}
	customer = principal.Principal{UserID: "customer-1", Role: principal.RoleCustomer}
	other    = principal.Principal{UserID: "customer-2", Role: principal.RoleCustomer}
)

type api struct {
	t        *testing.T
	router   *gin.Engine
	verifier security.JWTVerifier
}

func newAPI(t *testing.T, limiter gin.HandlerFunc) *api {
	t.Helper()
	store := memory.NewStore()
	buses := handlers.Build(handlers.Dependencies{
		UoWFactory:  store,
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Logger:      obs.Discard(),
	})
	ep := ginserver.Endpoint{
		Commands: buses.Commands,
		Queries:  buses.Queries,
		Logger:   obs.Discard(),
		Clock:    func() time.Time { return clock },
	}
	verifier := security.NewJWTVerifier("test-secret", "")
	router := ginserver.NewRouter(config.Config{Env: "test"}, obs.Middleware{}, obs.HealthHandlers{}, ginserver.Handlers{
		Venue:          ginserver.VenueHandler{Endpoint: ep},
		Availability:   ginserver.AvailabilityHandler{Endpoint: ep},
		Booking:        ginserver.BookingHandler{Endpoint: ep},
		Payment:        ginserver.PaymentHandler{Endpoint: ep},
		Review:         ginserver.ReviewHandler{Endpoint: ep},
		Notification:   ginserver.NotificationHandler{Endpoint: ep},
		Owner:          ginserver.OwnerHandler{Endpoint: ep},
		Admin:          ginserver.AdminHandler{Endpoint: ep},
		AuthMiddleware: ginserver.AuthMiddleware{Verifier: verifier}.Handle,
		RateLimit:      limiter,
	})
	return &api{t: t, router: router, verifier: verifier}
}

func (a *api) do(p *principal.Principal, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if p != nil {
		token, err := a.verifier.Issue(*p, time.Hour, time.Now())
		if err != nil {
			a.t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

type errorResponse struct {
	Error struct {
		Kind    string `json:"kind"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type venueResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Facilities []struct {
		ID string `json:"id"`
	} `json:"facilities"`
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d: %s", rec.Code, want, rec.Body.String())
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	if got := decode[errorResponse](t, rec).Error.Code; got != code {
		t.Fatalf("error code = %q, want %q", got, code)
	}
}

func (a *api) activeVenue() venueResponse {
	a.t.Helper()
	rec := a.do(&owner, http.MethodPost, "/api/v1/venues", map[string]any{
		"name":       "Grand Marquee",
		"city":       "Lahore",
		"address":    "1 Mall Road",
		"capacity":   300,
		"base_price": 100000,
		"facilities": []map[string]any{{"name": "Catering", "extra_price": 25000}},
	})
	expectStatus(a.t, rec, http.StatusCreated)
	v := decode[venueResponse](a.t, rec)

	rec = a.do(&admin, http.MethodPut, "/api/v1/admin/venues/"+v.ID+"/status", map[string]string{"status": "active"})
	expectStatus(a.t, rec, http.StatusOK)
	return decode[venueResponse](a.t, rec)
}

func bookingBody(venueID, slot string) map[string]any {
	return map[string]any{
		"venue_id":   venueID,
		"event_date": "2025-06-01",
		"slot":       slot,
		"event_type": "Wedding",
		"customer_details": map[string]string{
			"full_name":     "Ayesha Khan",
			"email":         "ayesha@example.com",
			"phone_primary": "+92-300-1234567",
		},
		"amount":         50000,
		"payment_method": "bank-transfer",
		"trx_id":         "TRX-1",
	}
}

type createBookingResponse struct {
	BookingID  string `json:"booking_id"`
	Status     string `json:"status"`
	PaymentID  string `json:"payment_id"`
	TotalPrice struct {
		Amount int64 `json:"amount"`
	} `json:"total_price"`
}

func TestAuthenticationIsRequired(t *testing.T) {
	a := newAPI(t, nil)

	tests := []struct {
		name   string
		caller *principal.Principal
		method string
		path   string
		status int
		code   string
	}{
		{name: "anonymous create venue", method: http.MethodPost, path: "/api/v1/venues", status: http.StatusUnauthorized, code: "unauthenticated"},
		{name: "customer create venue", caller: &customer, method: http.MethodPost, path: "/api/v1/venues", status: http.StatusForbidden, code: "forbidden"},
		{name: "owner books", caller: &owner, method: http.MethodPost, path: "/api/v1/bookings", status: http.StatusForbidden, code: "forbidden"},
		{name: "customer moderates", caller: &customer, method: http.MethodPut, path: "/api/v1/admin/venues/v/status", status: http.StatusForbidden, code: "forbidden"},
		{name: "anonymous inbox", method: http.MethodGet, path: "/api/v1/me/notifications", status: http.StatusUnauthorized, code: "unauthenticated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(tt.caller, tt.method, tt.path, map[string]any{})
			expectError(t, rec, tt.status, tt.code)
		})
	}
}

func TestInvalidTokenIsTreatedAsAnonymous(t *testing.T) {
	a := newAPI(t, nil)
	rec := a.do(nil, http.MethodGet, "/api/v1/me/bookings", nil, "Authorization", "Bearer forged")
	expectError(t, rec, http.StatusUnauthorized, "unauthenticated")
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t, nil)
	v := a.activeVenue()

	body := bookingBody(v.ID, "evening")
	body["facility_ids"] = []string{v.Facilities[0].ID}
	rec := a.do(&customer, http.MethodPost, "/api/v1/bookings", body, "Idempotency-Key", "k-1")
	expectStatus(t, rec, http.StatusCreated)
	created := decode[createBookingResponse](t, rec)
	if created.Status != "pending" || created.TotalPrice.Amount != 125000 || created.PaymentID == "" {
		t.Fatalf("unexpected booking %+v", created)
	}

	rec = a.do(&customer, http.MethodPost, "/api/v1/bookings", body, "Idempotency-Key", "k-1")
	expectStatus(t, rec, http.StatusCreated)
	if replay := decode[createBookingResponse](t, rec); replay.BookingID != created.BookingID {
		t.Fatalf("replay returned %s, want %s", replay.BookingID, created.BookingID)
	}

	rec = a.do(&other, http.MethodPost, "/api/v1/bookings", bookingBody(v.ID, "evening"))
	expectError(t, rec, http.StatusBadRequest, "slot_unavailable")

	rec = a.do(nil, http.MethodGet, "/api/v1/venues/"+v.ID+"/availability?from=2025-06-01&to=2025-06-01", nil)
	expectStatus(t, rec, http.StatusOK)
	cal := decode[struct {
		Entries []struct {
			Slot        string `json:"slot"`
			IsAvailable bool   `json:"is_available"`
		} `json:"entries"`
	}](t, rec)
	if len(cal.Entries) != 1 || cal.Entries[0].IsAvailable {
		t.Fatalf("expected one held slot, got %+v", cal.Entries)
	}

	rec = a.do(&other, http.MethodGet, "/api/v1/bookings/"+created.BookingID, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = a.do(&owner, http.MethodPut, "/api/v1/bookings/"+created.BookingID, map[string]string{"status": "confirmed"})
	expectStatus(t, rec, http.StatusOK)
	rec = a.do(&owner, http.MethodPut, "/api/v1/bookings/"+created.BookingID, map[string]string{"status": "pending"})
	expectError(t, rec, http.StatusBadRequest, "invalid_transition")

	rec = a.do(&customer, http.MethodPost, "/api/v1/bookings/"+created.BookingID+"/review", map[string]any{"rating": 5})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = a.do(&owner, http.MethodPut, "/api/v1/bookings/"+created.BookingID, map[string]string{"status": "completed"})
	expectStatus(t, rec, http.StatusOK)

	rec = a.do(&customer, http.MethodGet, "/api/v1/bookings/"+created.BookingID+"/review-check", nil)
	expectStatus(t, rec, http.StatusOK)
	if check := decode[map[string]bool](t, rec); !check["can_review"] || check["has_review"] {
		t.Fatalf("unexpected review check %v", check)
	}

	rec = a.do(&customer, http.MethodPost, "/api/v1/bookings/"+created.BookingID+"/review", map[string]any{"rating": 4, "review_text": "Lovely"})
	expectStatus(t, rec, http.StatusCreated)
	if decode[map[string]any](t, rec)["review_id"] == "" {
		t.Fatal("missing review id")
	}
	rec = a.do(&customer, http.MethodPost, "/api/v1/bookings/"+created.BookingID+"/review", map[string]any{"rating": 2})
	expectError(t, rec, http.StatusBadRequest, "duplicate_review")

	rec = a.do(nil, http.MethodGet, "/api/v1/venues/"+v.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if rating := decode[map[string]any](t, rec)["rating"]; rating != 4.0 {
		t.Fatalf("venue rating = %v, want 4", rating)
	}
}

func TestVenueUpdateKeepsQuotedPrices(t *testing.T) {
	a := newAPI(t, nil)
	v := a.activeVenue()

	rec := a.do(&customer, http.MethodPost, "/api/v1/bookings", bookingBody(v.ID, "evening"))
	expectStatus(t, rec, http.StatusCreated)
	created := decode[createBookingResponse](t, rec)

	update := map[string]any{
		"name":       "Grand Marquee Hall",
		"city":       "Lahore",
		"address":    "3 Mall Road",
		"capacity":   250,
		"base_price": 150000,
	}
	rival := principal.Principal{UserID: "owner-2", Role: principal.RoleOwner}
	rec = a.do(&rival, http.MethodPut, "/api/v1/venues/"+v.ID, update)
	expectError(t, rec, http.StatusForbidden, "venue_not_owned")

	rec = a.do(&owner, http.MethodPut, "/api/v1/venues/"+v.ID, update)
	expectStatus(t, rec, http.StatusOK)
	updated := decode[map[string]any](t, rec)
	if price, _ := updated["base_price"].(map[string]any); price["amount"] != 150000.0 || updated["name"] != "Grand Marquee Hall" {
		t.Fatalf("updated venue = %v", updated)
	}
	rec = a.do(&owner, http.MethodPut, "/api/v1/venues/"+v.ID, map[string]any{"name": "Hall", "capacity": 0, "base_price": 1})
	expectError(t, rec, http.StatusBadRequest, "venue_capacity")

	rec = a.do(&customer, http.MethodGet, "/api/v1/bookings/"+created.BookingID, nil)
	expectStatus(t, rec, http.StatusOK)
	if booking := decode[createBookingResponse](t, rec); booking.TotalPrice.Amount != 100000 {
		t.Fatalf("booking total = %d after base price change, want 100000", booking.TotalPrice.Amount)
	}
}

func TestOwnerReviewsOverHTTP(t *testing.T) {
	a := newAPI(t, nil)
	v := a.activeVenue()

	rec := a.do(&customer, http.MethodPost, "/api/v1/bookings", bookingBody(v.ID, "morning"))
	expectStatus(t, rec, http.StatusCreated)
	created := decode[createBookingResponse](t, rec)
	for _, status := range []string{"confirmed", "completed"} {
		rec = a.do(&owner, http.MethodPut, "/api/v1/bookings/"+created.BookingID, map[string]string{"status": status})
		expectStatus(t, rec, http.StatusOK)
	}
	rec = a.do(&customer, http.MethodPost, "/api/v1/bookings/"+created.BookingID+"/review", map[string]any{"rating": 4, "review_text": "Lovely"})
	expectStatus(t, rec, http.StatusCreated)

	type ownerReviews struct {
		Items []struct {
			Rating    int    `json:"rating"`
			VenueName string `json:"venue_name"`
		} `json:"items"`
		Count int `json:"count"`
	}
	rec = a.do(&owner, http.MethodGet, "/api/v1/owner/reviews?rating_min=3", nil)
	expectStatus(t, rec, http.StatusOK)
	got := decode[ownerReviews](t, rec)
	if got.Count != 1 || len(got.Items) != 1 || got.Items[0].VenueName != "Grand Marquee" {
		t.Fatalf("owner reviews = %+v", got)
	}
	rec = a.do(&owner, http.MethodGet, "/api/v1/owner/reviews?rating_min=5", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[ownerReviews](t, rec); got.Count != 0 {
		t.Fatalf("filtered reviews = %+v", got)
	}
	rec = a.do(&owner, http.MethodGet, "/api/v1/owner/reviews?sort_by=price", nil)
	expectError(t, rec, http.StatusBadRequest, "invalid_sort")
	rec = a.do(&customer, http.MethodGet, "/api/v1/owner/reviews", nil)
	expectStatus(t, rec, http.StatusForbidden)
}

func TestPaymentRevenueOverHTTP(t *testing.T) {
	a := newAPI(t, nil)
	v := a.activeVenue()

	rec := a.do(&customer, http.MethodPost, "/api/v1/bookings", bookingBody(v.ID, "morning"))
	expectStatus(t, rec, http.StatusCreated)
	created := decode[createBookingResponse](t, rec)

	rec = a.do(&owner, http.MethodPut, "/api/v1/payments/"+created.PaymentID, map[string]string{"payment_status": "settled"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = a.do(&owner, http.MethodGet, "/api/v1/owner/payments", nil)
	expectStatus(t, rec, http.StatusOK)
	before := decode[map[string]any](t, rec)

	rec = a.do(&owner, http.MethodPut, "/api/v1/payments/"+created.PaymentID, map[string]string{"payment_status": "completed"})
	expectStatus(t, rec, http.StatusOK)

	rec = a.do(&owner, http.MethodGet, "/api/v1/owner/dashboard", nil)
	expectStatus(t, rec, http.StatusOK)
	dashboard := decode[map[string]any](t, rec)
	revenue, _ := dashboard["revenue"].(map[string]any)
	if revenue["amount"] != 50000.0 {
		t.Fatalf("dashboard revenue = %v, want 50000 (before: %v)", dashboard["revenue"], before)
	}

	rec = a.do(&owner, http.MethodGet, "/api/v1/owner/analytics?year=2025", nil)
	expectStatus(t, rec, http.StatusOK)
	rec = a.do(&owner, http.MethodGet, "/api/v1/owner/analytics?year=soon", nil)
	expectError(t, rec, http.StatusBadRequest, "invalid_query")
}

func TestNotificationInboxOverHTTP(t *testing.T) {
	a := newAPI(t, nil)
	v := a.activeVenue()
	rec := a.do(&customer, http.MethodPost, "/api/v1/bookings", bookingBody(v.ID, "full-day"))
	expectStatus(t, rec, http.StatusCreated)

	rec = a.do(&owner, http.MethodGet, "/api/v1/me/notifications?is_read=false", nil)
	expectStatus(t, rec, http.StatusOK)
	inbox := decode[struct {
		Items []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"items"`
		UnreadCount int `json:"unread_count"`
	}](t, rec)
	if inbox.UnreadCount == 0 || len(inbox.Items) == 0 {
		t.Fatalf("expected unread notifications, got %+v", inbox)
	}

	rec = a.do(&customer, http.MethodPut, "/api/v1/me/notifications/"+inbox.Items[0].ID+"/read", nil)
	expectStatus(t, rec, http.StatusForbidden)
	rec = a.do(&owner, http.MethodPut, "/api/v1/me/notifications/"+inbox.Items[0].ID+"/read", nil)
	expectStatus(t, rec, http.StatusOK)
	rec = a.do(&owner, http.MethodPut, "/api/v1/me/notifications/read-all", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = a.do(&owner, http.MethodGet, "/api/v1/me/notifications?is_read=maybe", nil)
	expectError(t, rec, http.StatusBadRequest, "invalid_query")
}

func TestMalformedInput(t *testing.T) {
	a := newAPI(t, nil)
	tests := []struct {
		name   string
		caller *principal.Principal
		method string
		path   string
		body   any
		code   string
	}{
		{name: "negative limit", method: http.MethodGet, path: "/api/v1/venues?limit=-1", code: "invalid_query"},
		{name: "bad date", method: http.MethodGet, path: "/api/v1/venues/v/availability?from=June", code: "invalid_query"},
		{name: "bad event date", caller: &customer, method: http.MethodPost, path: "/api/v1/bookings", body: map[string]any{"event_date": "01/06/2025"}, code: "invalid_date"},
		{name: "toggle without flag", caller: &owner, method: http.MethodPut, path: "/api/v1/venues/v/availability", body: map[string]any{"date": "2025-06-01", "slot": "morning"}, code: "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(tt.caller, tt.method, tt.path, tt.body)
			expectError(t, rec, http.StatusBadRequest, tt.code)
		})
	}
}

func TestRateLimiterRejectsBursts(t *testing.T) {
	limiter := ginserver.NewRateLimiter(1, 2, nil)
	a := newAPI(t, limiter.Middleware())

	for i := 0; i < 2; i++ {
		rec := a.do(nil, http.MethodGet, "/api/v1/venues", nil)
		expectStatus(t, rec, http.StatusOK)
	}
	rec := a.do(nil, http.MethodGet, "/api/v1/venues", nil)
	expectError(t, rec, http.StatusTooManyRequests, "too_many_requests")

	rec = a.do(nil, http.MethodGet, "/livez", nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestUnknownBookingIsNotFound(t *testing.T) {
	a := newAPI(t, nil)
	rec := a.do(&admin, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%s", "missing"), nil)
	expectError(t, rec, http.StatusNotFound, "booking_not_found")
}

package mongo

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"venuebook/internal/app/middleware"
	appoutbox "venuebook/internal/app/outbox"
	"venuebook/internal/app/uow"
	domainavailability "venuebook/internal/domain/availability"
	domainbooking "venuebook/internal/domain/booking"
	domainnotification "venuebook/internal/domain/notification"
	domainpayment "venuebook/internal/domain/payment"
	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/shared/money"
	domainvenue "venuebook/internal/domain/venue"
)

var now = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func TestBookingQuery(t *testing.T) {
	filter := domainbooking.Filter{
		VenueIDs:   []domainvenue.ID{"v-1", "v-2"},
		Statuses:   domainbooking.ActiveStatuses,
		EventDates: daterange.Range{From: daterange.MustDay("2025-06-01")},
		Slot:       domainavailability.SlotMorning,
	}
	want := bson.M{
		"venue_id":   bson.M{"$in": []string{"v-1", "v-2"}},
		"status":     bson.M{"$in": []string{"pending", "confirmed"}},
		"event_date": bson.M{"$gte": "2025-06-01"},
		"slot":       "morning",
	}
	if got := bookingQuery(filter); !reflect.DeepEqual(got, want) {
		t.Errorf("bookingQuery() = %v, want %v", got, want)
	}
	if got := bookingQuery(domainbooking.Filter{}); len(got) != 0 {
		t.Errorf("empty filter produced %v", got)
	}
}

func TestPaymentQueryCoversWholeLastDay(t *testing.T) {
	filter := domainpayment.Filter{
		OwnerID: "owner-1",
		Paid:    daterange.Range{From: daterange.MustDay("2025-01-01"), To: daterange.MustDay("2025-12-31")},
	}
	got := paymentQuery(filter)
	paid, ok := got["payment_date"].(bson.M)
	if !ok {
		t.Fatalf("payment_date bound missing: %v", got)
	}
	if want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(); paid["$lt"] != want {
		t.Errorf("upper bound = %v, want %v", paid["$lt"], want)
	}
}

func TestBookingDocumentTracksActiveFlag(t *testing.T) {
	b := &domainbooking.Booking{
		ID:         "b-1",
		EventDate:  daterange.MustDay("2025-06-01"),
		Slot:       domainavailability.SlotEvening,
		TotalPrice: money.Must(1000, "PKR"),
		Status:     domainbooking.StatusPending,
		CreatedAt:  now,
		Version:    3,
	}
	doc := newBookingDocument(b)
	if !doc.Active || doc.EventDate != "2025-06-01" {
		t.Fatalf("document = %+v", doc)
	}
	b.Status = domainbooking.StatusRejected
	if newBookingDocument(b).Active {
		t.Error("rejected booking must not hold the slot index")
	}
	back := doc.toAggregate()
	if !back.EventDate.Equal(b.EventDate) || !back.CreatedAt.Equal(now) || back.Version != 3 {
		t.Errorf("round trip = %+v", back)
	}
}

// Integration tests below need a replica set at VENUEBOOK_TEST_MONGO_URI.

func openTestClient(t *testing.T) *Client {
	t.Helper()
	uri := os.Getenv("VENUEBOOK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("VENUEBOOK_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	client, err := New(ctx, uri, "venuebook_test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := client.DB.Drop(ctx); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	if err := client.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close(context.Background()) })
	return client
}

func begin(t *testing.T, f Factory) (uow.UnitOfWork, context.Context) {
	t.Helper()
	unit, err := f.Begin(context.Background(), uow.TxOptions{})
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	ctx := uow.Bind(context.Background(), unit)
	t.Cleanup(func() { _ = unit.Rollback(ctx) })
	return unit, ctx
}

func testVenue(t *testing.T) *domainvenue.Venue {
	t.Helper()
	v, err := domainvenue.New(domainvenue.CreateParams{
		ID:        "venue-1",
		Owner:     "owner-1",
		Name:      "Grand Marquee",
		City:      "Lahore",
		Capacity:  300,
		BasePrice: money.Must(100000, "PKR"),
		Now:       now,
	})
	if err != nil {
		t.Fatalf("venue.New() error = %v", err)
	}
	if err := v.Moderate(domainvenue.StatusActive, now); err != nil {
		t.Fatalf("Moderate() error = %v", err)
	}
	return v
}

func testBooking(t *testing.T, id string, v *domainvenue.Venue) *domainbooking.Booking {
	t.Helper()
	b, err := domainbooking.New(domainbooking.CreateParams{
		ID:         domainbooking.ID(id),
		CustomerID: "customer-1",
		Venue:      v,
		EventDate:  daterange.MustDay("2025-06-01"),
		Slot:       domainavailability.SlotEvening,
		EventType:  "Wedding",
		Customer: domainbooking.CustomerDetails{
			FullName:     "Ayesha Khan",
			Email:        "ayesha@example.com",
			PhonePrimary: "+92-300-1234567",
		},
		Today: daterange.DayOf(now),
		Now:   now,
	})
	if err != nil {
		t.Fatalf("booking.New() error = %v", err)
	}
	return b
}

func TestActiveSlotIndexRejectsSecondBooking(t *testing.T) {
	client := openTestClient(t)
	f := Factory{DB: client.DB}
	v := testVenue(t)

	unit, ctx := begin(t, f)
	if err := unit.Venues().Save(ctx, v); err != nil {
		t.Fatalf("Save(venue) error = %v", err)
	}
	if err := unit.Bookings().Save(ctx, testBooking(t, "b-1", v)); err != nil {
		t.Fatalf("Save(b-1) error = %v", err)
	}
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	unit, ctx = begin(t, f)
	if err := unit.Bookings().Save(ctx, testBooking(t, "b-2", v)); !errors.Is(err, domainbooking.ErrSlotUnavailable) {
		t.Errorf("Save(b-2) error = %v, want %v", err, domainbooking.ErrSlotUnavailable)
	}
}

func TestNotificationDedupDoesNotAbortUnit(t *testing.T) {
	client := openTestClient(t)
	f := Factory{DB: client.DB}
	intent := domainnotification.Intent{UserID: "u-1", Title: "Hello", Type: domainnotification.TypeSystem, DedupKey: "k-1"}

	unit, ctx := begin(t, f)
	first, _ := domainnotification.New("n-1", intent, now)
	second, _ := domainnotification.New("n-2", intent, now)
	if err := unit.Notifications().Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := unit.Notifications().Save(ctx, second); !errors.Is(err, domainnotification.ErrDuplicate) {
		t.Fatalf("Save() error = %v, want %v", err, domainnotification.ErrDuplicate)
	}
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
}

func TestOutboxClaimLifecycle(t *testing.T) {
	client := openTestClient(t)
	f := Factory{DB: client.DB}
	store := NewOutboxStore(client.DB)

	unit, ctx := begin(t, f)
	if err := unit.Outbox().Add(ctx, appoutbox.EventRecord{ID: "evt-1", Name: "booking.requested", Payload: []byte(`{}`), OccurredAt: now}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	bg := context.Background()
	msg, err := store.Claim(bg, "w-1")
	if err != nil || msg == nil {
		t.Fatalf("Claim() = %v, %v", msg, err)
	}
	if again, _ := store.Claim(bg, "w-2"); again != nil {
		t.Fatal("claimed record handed out twice")
	}
	if err := store.MarkFailed(bg, msg.ID, time.Now().Add(-time.Second), "boom"); err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}
	retry, _ := store.Claim(bg, "w-1")
	if retry == nil || retry.Attempts != 1 {
		t.Fatalf("retry = %+v, want attempts 1", retry)
	}
	if err := store.MarkSent(bg, retry.ID); err != nil {
		t.Fatalf("MarkSent() error = %v", err)
	}
}

func TestIdempotencyStoreRoundTrip(t *testing.T) {
	client := openTestClient(t)
	ctx := context.Background()
	store, err := NewIdempotencyStore(ctx, client.DB, time.Hour)
	if err != nil {
		t.Fatalf("NewIdempotencyStore() error = %v", err)
	}
	rec := middleware.IdempotencyRecord{Key: "k-1", Error: "slot taken", ErrorKind: "validation", ErrorCode: "slot_unavailable", OccurredAt: now}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, ok, err := store.Get(ctx, "k-1")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if got.ErrorCode != "slot_unavailable" || got.ErrorKind != "validation" {
		t.Errorf("record = %+v", got)
	}
	if _, ok, _ := store.Get(ctx, "missing"); ok {
		t.Error("unknown key reported present")
	}
}

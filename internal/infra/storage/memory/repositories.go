package memory

import (
	"context"
	"sort"
	"time"

	domainavailability "venuebook/internal/domain/availability"
	domainbooking "venuebook/internal/domain/booking"
	domainnotification "venuebook/internal/domain/notification"
	domainpayment "venuebook/internal/domain/payment"
	domainreview "venuebook/internal/domain/review"
	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/shared/money"
	domainvenue "venuebook/internal/domain/venue"
)

type venueRepository struct{ u *Unit }

func (r venueRepository) ByID(ctx context.Context, id domainvenue.ID) (*domainvenue.Venue, error) {
	v, ok := r.u.data.venues[id]
	if !ok {
		return nil, domainvenue.ErrNotFound
	}
	return cloneVenue(v), nil
}

func (r venueRepository) ByIDForUpdate(ctx context.Context, id domainvenue.ID) (*domainvenue.Venue, error) {
	if err := r.u.writable(); err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

func (r venueRepository) Save(ctx context.Context, v *domainvenue.Venue) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	stored, exists := r.u.data.venues[v.ID]
	if exists != (v.Version > 0) || (exists && stored.Version != v.Version) {
		return domainvenue.ErrConcurrentUpdate
	}
	v.Version++
	r.u.data.venues[v.ID] = cloneVenue(v)
	return nil
}

func (r venueRepository) List(ctx context.Context, filter domainvenue.Filter) ([]*domainvenue.Venue, error) {
	out := make([]*domainvenue.Venue, 0)
	for _, v := range r.u.data.venues {
		if filter.Matches(v) {
			out = append(out, cloneVenue(v))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, filter.Limit, filter.Offset), nil
}

type availabilityRepository struct{ u *Unit }

func (r availabilityRepository) IsAvailable(ctx context.Context, key domainavailability.Key) (bool, error) {
	e, ok := r.u.data.availability[key.String()]
	if !ok {
		return true, nil
	}
	return e.Available, nil
}

func (r availabilityRepository) Set(ctx context.Context, entry domainavailability.Entry) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.data.availability[entry.Key.String()] = entry
	return nil
}

func (r availabilityRepository) ReplaceFuture(ctx context.Context, venueID domainvenue.ID, since daterange.Day, entries []domainavailability.Entry) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	for k, e := range r.u.data.availability {
		if e.VenueID == venueID && !e.Date.Before(since) {
			delete(r.u.data.availability, k)
		}
	}
	for _, e := range entries {
		r.u.data.availability[e.Key.String()] = e
	}
	return nil
}

func (r availabilityRepository) List(ctx context.Context, venueID domainvenue.ID, rng daterange.Range) ([]domainavailability.Entry, error) {
	out := make([]domainavailability.Entry, 0)
	for _, e := range r.u.data.availability {
		if e.VenueID == venueID && rng.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out, nil
}

type bookingRepository struct{ u *Unit }

func (r bookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	b, ok := r.u.data.bookings[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(b), nil
}

// ByIDForUpdate needs no lock of its own: write units already hold the store's writer lock.
func (r bookingRepository) ByIDForUpdate(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	if err := r.u.writable(); err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

func (r bookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	stored, exists := r.u.data.bookings[b.ID]
	if exists != (b.Version > 0) || (exists && stored.Version != b.Version) {
		return domainbooking.ErrConcurrentUpdate
	}
	if b.Status.Active() {
		for _, other := range r.u.data.bookings {
			if other.ID != b.ID && other.Status.Active() && other.SlotKey().String() == b.SlotKey().String() {
				return domainbooking.ErrSlotUnavailable
			}
		}
	}
	b.Version++
	r.u.data.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (r bookingRepository) List(ctx context.Context, filter domainbooking.Filter) ([]*domainbooking.Booking, error) {
	filter = filter.Normalized()
	out := r.matching(filter)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if filter.Order == domainbooking.OrderEventDateAsc && !a.EventDate.Equal(b.EventDate) {
			return a.EventDate.Before(b.EventDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if filter.Order == domainbooking.OrderEventDateAsc {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r bookingRepository) Count(ctx context.Context, filter domainbooking.Filter) (int, error) {
	return len(r.matching(filter)), nil
}

func (r bookingRepository) matching(filter domainbooking.Filter) []*domainbooking.Booking {
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.u.data.bookings {
		if filter.Matches(b) {
			out = append(out, cloneBooking(b))
		}
	}
	return out
}

type paymentRepository struct{ u *Unit }

func (r paymentRepository) ByID(ctx context.Context, id domainpayment.ID) (*domainpayment.Record, error) {
	p, ok := r.u.data.payments[id]
	if !ok {
		return nil, domainpayment.ErrNotFound
	}
	return clonePayment(p), nil
}

func (r paymentRepository) ByIDForUpdate(ctx context.Context, id domainpayment.ID) (*domainpayment.Record, error) {
	if err := r.u.writable(); err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

func (r paymentRepository) ByBooking(ctx context.Context, bookingID domainbooking.ID) (*domainpayment.Record, error) {
	for _, p := range r.u.data.payments {
		if p.BookingID == bookingID {
			return clonePayment(p), nil
		}
	}
	return nil, domainpayment.ErrNotFound
}

func (r paymentRepository) Save(ctx context.Context, p *domainpayment.Record) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	stored, exists := r.u.data.payments[p.ID]
	if exists != (p.Version > 0) || (exists && stored.Version != p.Version) {
		return domainpayment.ErrConcurrentUpdate
	}
	p.Version++
	r.u.data.payments[p.ID] = clonePayment(p)
	return nil
}

func (r paymentRepository) List(ctx context.Context, filter domainpayment.Filter) ([]*domainpayment.Record, error) {
	out := make([]*domainpayment.Record, 0)
	for _, p := range r.u.data.payments {
		if filter.Matches(p) {
			out = append(out, clonePayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].PaymentDate.After(out[j].PaymentDate)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r paymentRepository) SumCompleted(ctx context.Context, filter domainpayment.Filter) (money.Money, error) {
	filter.Status = domainpayment.StatusCompleted
	total := money.Zero(money.DefaultCurrency)
	for _, p := range r.u.data.payments {
		if !filter.Matches(p) {
			continue
		}
		next, err := total.Add(p.Amount)
		if err != nil {
			return money.Money{}, err
		}
		total = next
	}
	return total, nil
}

type reviewRepository struct{ u *Unit }

func (r reviewRepository) ByBooking(ctx context.Context, bookingID domainbooking.ID) (*domainreview.Review, error) {
	for _, rv := range r.u.data.reviews {
		if rv.BookingID == bookingID {
			return cloneReview(rv), nil
		}
	}
	return nil, domainreview.ErrNotFound
}

func (r reviewRepository) Save(ctx context.Context, rv *domainreview.Review) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	for _, existing := range r.u.data.reviews {
		if existing.BookingID == rv.BookingID {
			return domainreview.ErrDuplicate
		}
	}
	r.u.data.reviews[rv.ID] = cloneReview(rv)
	return nil
}

func (r reviewRepository) ListByVenue(ctx context.Context, venueID domainvenue.ID, limit, offset int) ([]*domainreview.Review, error) {
	out := make([]*domainreview.Review, 0)
	for _, rv := range r.u.data.reviews {
		if rv.VenueID == venueID {
			out = append(out, cloneReview(rv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReviewDate.Equal(out[j].ReviewDate) {
			return out[i].ReviewDate.After(out[j].ReviewDate)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, limit, offset), nil
}

type notificationRepository struct{ u *Unit }

func (r notificationRepository) Save(ctx context.Context, n *domainnotification.Notification) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	for _, existing := range r.u.data.notifications {
		if existing.DedupKey == n.DedupKey {
			return domainnotification.ErrDuplicate
		}
	}
	r.u.data.notifications[n.ID] = cloneNotification(n)
	return nil
}

func (r notificationRepository) ByID(ctx context.Context, id domainnotification.ID) (*domainnotification.Notification, error) {
	n, ok := r.u.data.notifications[id]
	if !ok {
		return nil, domainnotification.ErrNotFound
	}
	return cloneNotification(n), nil
}

func (r notificationRepository) List(ctx context.Context, filter domainnotification.Filter) ([]*domainnotification.Notification, error) {
	out := make([]*domainnotification.Notification, 0)
	for _, n := range r.u.data.notifications {
		if filter.Matches(n) {
			out = append(out, cloneNotification(n))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, n := range r.u.data.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r notificationRepository) MarkRead(ctx context.Context, id domainnotification.ID, at time.Time) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	n, ok := r.u.data.notifications[id]
	if !ok {
		return domainnotification.ErrNotFound
	}
	updated := cloneNotification(n)
	updated.IsRead = true
	updated.ReadAt = at.UTC()
	r.u.data.notifications[id] = updated
	return nil
}

func (r notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	if err := r.u.writable(); err != nil {
		return 0, err
	}
	updated := 0
	for id, n := range r.u.data.notifications {
		if n.UserID != userID || n.IsRead {
			continue
		}
		next := cloneNotification(n)
		next.IsRead = true
		next.ReadAt = at.UTC()
		r.u.data.notifications[id] = next
		updated++
	}
	return updated, nil
}

var (
	_ domainvenue.Repository        = venueRepository{}
	_ domainavailability.Repository = availabilityRepository{}
	_ domainbooking.Repository      = bookingRepository{}
	_ domainpayment.Repository      = paymentRepository{}
	_ domainreview.Repository       = reviewRepository{}
	_ domainnotification.Repository = notificationRepository{}
)

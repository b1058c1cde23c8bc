package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	domainavailability "venuebook/internal/domain/availability"
	domainbooking "venuebook/internal/domain/booking"
	domainnotification "venuebook/internal/domain/notification"
	domainpayment "venuebook/internal/domain/payment"
	domainreview "venuebook/internal/domain/review"
	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/shared/money"
	domainvenue "venuebook/internal/domain/venue"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func getOne(ctx context.Context, tx *sqlx.Tx, dest any, query sq.SelectBuilder) error {
	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	return tx.GetContext(ctx, dest, stmt, args...)
}

func selectAll(ctx context.Context, tx *sqlx.Tx, dest any, query sq.SelectBuilder) error {
	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	return tx.SelectContext(ctx, dest, stmt, args...)
}

// affected runs a write and returns the number of rows it touched.
func affected(ctx context.Context, tx *sqlx.Tx, query sq.Sqlizer) (int64, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build statement: %w", err)
	}
	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func paged(query sq.SelectBuilder, limit, offset int) sq.SelectBuilder {
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	if offset > 0 {
		query = query.Offset(uint64(offset))
	}
	return query
}

type venueRepository struct{ tx *sqlx.Tx }

func (r venueRepository) ByID(ctx context.Context, id domainvenue.ID) (*domainvenue.Venue, error) {
	return r.byID(ctx, id, false)
}

// ByIDForUpdate holds the venue row lock until the transaction ends. Booking creation and
// calendar writes take it first, so they queue per venue.
func (r venueRepository) ByIDForUpdate(ctx context.Context, id domainvenue.ID) (*domainvenue.Venue, error) {
	return r.byID(ctx, id, true)
}

func (r venueRepository) byID(ctx context.Context, id domainvenue.ID, lock bool) (*domainvenue.Venue, error) {
	query := psql.Select(venueColumns...).From("venues").Where(sq.Eq{"id": string(id)})
	if lock {
		query = query.Suffix("FOR UPDATE")
	}
	var row venueRow
	err := getOne(ctx, r.tx, &row, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainvenue.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get venue: %w", err)
	}
	return row.toDomain()
}

func (r venueRepository) Save(ctx context.Context, v *domainvenue.Venue) error {
	facilities, err := venueFacilities(v)
	if err != nil {
		return err
	}
	var write sq.Sqlizer
	if v.Version == 0 {
		write = psql.Insert("venues").Columns(venueColumns...).Values(
			string(v.ID), string(v.Owner), v.Name, v.City, v.Address, v.Capacity, v.BasePrice.Amount,
			v.BasePrice.Currency, facilities, string(v.Status), v.Rating, v.ReviewCount,
			v.CreatedAt.UTC(), v.UpdatedAt.UTC(), 1,
		).Suffix("ON CONFLICT (id) DO NOTHING")
	} else {
		write = psql.Update("venues").SetMap(map[string]any{
			"name":         v.Name,
			"city":         v.City,
			"address":      v.Address,
			"capacity":     v.Capacity,
			"base_price":   v.BasePrice.Amount,
			"currency":     v.BasePrice.Currency,
			"facilities":   facilities,
			"status":       string(v.Status),
			"rating":       v.Rating,
			"review_count": v.ReviewCount,
			"updated_at":   v.UpdatedAt.UTC(),
			"version":      sq.Expr("version + 1"),
		}).Where(sq.Eq{"id": string(v.ID), "version": v.Version})
	}
	n, err := affected(ctx, r.tx, write)
	if err != nil {
		return fmt.Errorf("failed to save venue: %w", err)
	}
	if n == 0 {
		return domainvenue.ErrConcurrentUpdate
	}
	v.Version++
	return nil
}

func (r venueRepository) List(ctx context.Context, filter domainvenue.Filter) ([]*domainvenue.Venue, error) {
	query := psql.Select(venueColumns...).From("venues").OrderBy("created_at DESC", "id ASC")
	if filter.OwnerID != "" {
		query = query.Where(sq.Eq{"owner_id": string(filter.OwnerID)})
	}
	if filter.Status != "" {
		query = query.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.City != "" {
		query = query.Where("LOWER(city) = LOWER(?)", filter.City)
	}
	var rows []venueRow
	if err := selectAll(ctx, r.tx, &rows, paged(query, filter.Limit, filter.Offset)); err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	out := make([]*domainvenue.Venue, 0, len(rows))
	for _, row := range rows {
		v, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type availabilityRepository struct{ tx *sqlx.Tx }

func (r availabilityRepository) IsAvailable(ctx context.Context, key domainavailability.Key) (bool, error) {
	var available bool
	err := getOne(ctx, r.tx, &available, psql.Select("is_available").From("availability").Where(sq.Eq{
		"venue_id": string(key.VenueID),
		"date":     key.Date.String(),
		"slot":     string(key.Slot),
	}))
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read availability: %w", err)
	}
	return available, nil
}

func (r availabilityRepository) Set(ctx context.Context, entry domainavailability.Entry) error {
	_, err := affected(ctx, r.tx, psql.Insert("availability").
		Columns("venue_id", "date", "slot", "is_available", "updated_at").
		Values(string(entry.VenueID), entry.Date.String(), string(entry.Slot), entry.Available, entry.UpdatedAt.UTC()).
		Suffix("ON CONFLICT (venue_id, date, slot) DO UPDATE SET is_available = EXCLUDED.is_available, updated_at = EXCLUDED.updated_at"))
	if err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}
	return nil
}

func (r availabilityRepository) ReplaceFuture(ctx context.Context, venueID domainvenue.ID, since daterange.Day, entries []domainavailability.Entry) error {
	_, err := affected(ctx, r.tx, psql.Delete("availability").Where(sq.And{
		sq.Eq{"venue_id": string(venueID)},
		sq.GtOrEq{"date": since.String()},
	}))
	if err != nil {
		return fmt.Errorf("failed to clear availability: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	insert := psql.Insert("availability").Columns("venue_id", "date", "slot", "is_available", "updated_at")
	for _, e := range entries {
		insert = insert.Values(string(e.VenueID), e.Date.String(), string(e.Slot), e.Available, e.UpdatedAt.UTC())
	}
	if _, err := affected(ctx, r.tx, insert); err != nil {
		return fmt.Errorf("failed to insert availability: %w", err)
	}
	return nil
}

func (r availabilityRepository) List(ctx context.Context, venueID domainvenue.ID, rng daterange.Range) ([]domainavailability.Entry, error) {
	query := psql.Select("venue_id", "date", "slot", "is_available", "updated_at").From("availability").
		Where(sq.Eq{"venue_id": string(venueID)}).
		OrderBy("date ASC", "slot ASC")
	if !rng.From.IsZero() {
		query = query.Where(sq.GtOrEq{"date": rng.From.String()})
	}
	if !rng.To.IsZero() {
		query = query.Where(sq.LtOrEq{"date": rng.To.String()})
	}
	var rows []availabilityRow
	if err := selectAll(ctx, r.tx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	out := make([]domainavailability.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

type bookingRepository struct{ tx *sqlx.Tx }

func (r bookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	return r.byID(ctx, id, false)
}

// ByIDForUpdate holds a row lock until the transaction ends.
func (r bookingRepository) ByIDForUpdate(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	return r.byID(ctx, id, true)
}

func (r bookingRepository) byID(ctx context.Context, id domainbooking.ID, lock bool) (*domainbooking.Booking, error) {
	query := psql.Select(bookingColumns...).From("bookings").Where(sq.Eq{"id": string(id)})
	if lock {
		query = query.Suffix("FOR UPDATE")
	}
	var row bookingRow
	err := getOne(ctx, r.tx, &row, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainbooking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return row.toDomain()
}

func (r bookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	var write sq.Sqlizer
	if b.Version == 0 {
		customer, facilities, err := bookingDocuments(b)
		if err != nil {
			return err
		}
		write = psql.Insert("bookings").Columns(bookingColumns...).Values(
			string(b.ID), string(b.CustomerID), string(b.VenueID), string(b.OwnerID), b.VenueName,
			b.EventDate.String(), string(b.Slot), b.EventType, b.SpecialRequirements, customer, facilities,
			b.TotalPrice.Amount, b.TotalPrice.Currency, string(b.Status), b.CreatedAt.UTC(), b.UpdatedAt.UTC(), 1,
		).Suffix("ON CONFLICT (id) DO NOTHING")
	} else {
		write = psql.Update("bookings").SetMap(map[string]any{
			"status":     string(b.Status),
			"updated_at": b.UpdatedAt.UTC(),
			"version":    sq.Expr("version + 1"),
		}).Where(sq.Eq{"id": string(b.ID), "version": b.Version})
	}
	n, err := affected(ctx, r.tx, write)
	if constraint, ok := uniqueViolation(err); ok && constraint == constraintActiveSlot {
		return domainbooking.ErrSlotUnavailable
	}
	if err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	if n == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version++
	return nil
}

func (r bookingRepository) List(ctx context.Context, filter domainbooking.Filter) ([]*domainbooking.Booking, error) {
	filter = filter.Normalized()
	query := bookingWhere(psql.Select(bookingColumns...).From("bookings"), filter)
	if filter.Order == domainbooking.OrderEventDateAsc {
		query = query.OrderBy("event_date ASC", "created_at ASC", "id ASC")
	} else {
		query = query.OrderBy("created_at DESC", "id ASC")
	}
	var rows []bookingRow
	if err := selectAll(ctx, r.tx, &rows, paged(query, filter.Limit, filter.Offset)); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	out := make([]*domainbooking.Booking, 0, len(rows))
	for _, row := range rows {
		b, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r bookingRepository) Count(ctx context.Context, filter domainbooking.Filter) (int, error) {
	var count int
	if err := getOne(ctx, r.tx, &count, bookingWhere(psql.Select("COUNT(*)").From("bookings"), filter)); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// bookingWhere translates filter predicates; limit, offset and order are left to callers.
func bookingWhere(query sq.SelectBuilder, filter domainbooking.Filter) sq.SelectBuilder {
	if len(filter.VenueIDs) > 0 {
		ids := make([]string, 0, len(filter.VenueIDs))
		for _, id := range filter.VenueIDs {
			ids = append(ids, string(id))
		}
		query = query.Where(sq.Eq{"venue_id": ids})
	}
	if filter.OwnerID != "" {
		query = query.Where(sq.Eq{"owner_id": string(filter.OwnerID)})
	}
	if filter.CustomerID != "" {
		query = query.Where(sq.Eq{"customer_id": string(filter.CustomerID)})
	}
	if len(filter.Statuses) > 0 {
		query = query.Where(sq.Eq{"status": domainbooking.StatusStrings(filter.Statuses)})
	}
	if !filter.EventDates.From.IsZero() {
		query = query.Where(sq.GtOrEq{"event_date": filter.EventDates.From.String()})
	}
	if !filter.EventDates.To.IsZero() {
		query = query.Where(sq.LtOrEq{"event_date": filter.EventDates.To.String()})
	}
	if filter.Slot != "" {
		query = query.Where(sq.Eq{"slot": string(filter.Slot)})
	}
	return query
}

type paymentRepository struct{ tx *sqlx.Tx }

func (r paymentRepository) ByID(ctx context.Context, id domainpayment.ID) (*domainpayment.Record, error) {
	return r.one(ctx, psql.Select(paymentColumns...).From("payments").Where(sq.Eq{"id": string(id)}))
}

func (r paymentRepository) ByIDForUpdate(ctx context.Context, id domainpayment.ID) (*domainpayment.Record, error) {
	return r.one(ctx, psql.Select(paymentColumns...).From("payments").Where(sq.Eq{"id": string(id)}).Suffix("FOR UPDATE"))
}

func (r paymentRepository) ByBooking(ctx context.Context, bookingID domainbooking.ID) (*domainpayment.Record, error) {
	return r.one(ctx, psql.Select(paymentColumns...).From("payments").Where(sq.Eq{"booking_id": string(bookingID)}))
}

func (r paymentRepository) one(ctx context.Context, query sq.SelectBuilder) (*domainpayment.Record, error) {
	var row paymentRow
	err := getOne(ctx, r.tx, &row, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainpayment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return row.toDomain(), nil
}

func (r paymentRepository) Save(ctx context.Context, p *domainpayment.Record) error {
	var write sq.Sqlizer
	if p.Version == 0 {
		write = psql.Insert("payments").Columns(paymentColumns...).Values(
			string(p.ID), string(p.BookingID), string(p.VenueID), string(p.OwnerID), p.Amount.Amount,
			p.Amount.Currency, string(p.Method), p.TrxID, string(p.Status), p.PaymentDate.UTC(),
			p.UpdatedAt.UTC(), 1,
		).Suffix("ON CONFLICT (id) DO NOTHING")
	} else {
		write = psql.Update("payments").SetMap(map[string]any{
			"status":     string(p.Status),
			"updated_at": p.UpdatedAt.UTC(),
			"version":    sq.Expr("version + 1"),
		}).Where(sq.Eq{"id": string(p.ID), "version": p.Version})
	}
	n, err := affected(ctx, r.tx, write)
	if constraint, ok := uniqueViolation(err); ok && constraint == constraintPaymentOnce {
		return domainpayment.ErrConcurrentUpdate
	}
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	if n == 0 {
		return domainpayment.ErrConcurrentUpdate
	}
	p.Version++
	return nil
}

func (r paymentRepository) List(ctx context.Context, filter domainpayment.Filter) ([]*domainpayment.Record, error) {
	query := paymentWhere(psql.Select(paymentColumns...).From("payments"), filter).
		OrderBy("payment_date DESC", "id ASC")
	var rows []paymentRow
	if err := selectAll(ctx, r.tx, &rows, paged(query, filter.Limit, filter.Offset)); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	out := make([]*domainpayment.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r paymentRepository) SumCompleted(ctx context.Context, filter domainpayment.Filter) (money.Money, error) {
	filter.Status = domainpayment.StatusCompleted
	var total int64
	query := paymentWhere(psql.Select("COALESCE(SUM(amount), 0)").From("payments"), filter)
	if err := getOne(ctx, r.tx, &total, query); err != nil {
		return money.Money{}, fmt.Errorf("failed to sum payments: %w", err)
	}
	return money.Money{Amount: total, Currency: money.DefaultCurrency}, nil
}

// paymentWhere matches Paid by calendar day: the upper bound is the start of the next day.
func paymentWhere(query sq.SelectBuilder, filter domainpayment.Filter) sq.SelectBuilder {
	if filter.OwnerID != "" {
		query = query.Where(sq.Eq{"owner_id": string(filter.OwnerID)})
	}
	if len(filter.VenueIDs) > 0 {
		ids := make([]string, 0, len(filter.VenueIDs))
		for _, id := range filter.VenueIDs {
			ids = append(ids, string(id))
		}
		query = query.Where(sq.Eq{"venue_id": ids})
	}
	if filter.Status != "" {
		query = query.Where(sq.Eq{"status": string(filter.Status)})
	}
	if !filter.Paid.From.IsZero() {
		query = query.Where(sq.GtOrEq{"payment_date": filter.Paid.From.Time()})
	}
	if !filter.Paid.To.IsZero() {
		query = query.Where(sq.Lt{"payment_date": filter.Paid.To.AddDays(1).Time()})
	}
	return query
}

type reviewRepository struct{ tx *sqlx.Tx }

func (r reviewRepository) ByBooking(ctx context.Context, bookingID domainbooking.ID) (*domainreview.Review, error) {
	var row reviewRow
	err := getOne(ctx, r.tx, &row, psql.Select(reviewColumns...).From("reviews").Where(sq.Eq{"booking_id": string(bookingID)}))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainreview.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return row.toDomain(), nil
}

func (r reviewRepository) Save(ctx context.Context, rv *domainreview.Review) error {
	_, err := affected(ctx, r.tx, psql.Insert("reviews").Columns(reviewColumns...).Values(
		string(rv.ID), string(rv.BookingID), string(rv.VenueID), string(rv.AuthorID), rv.Rating, rv.Text,
		rv.ReviewDate.UTC(),
	))
	if constraint, ok := uniqueViolation(err); ok && constraint == constraintReviewOnce {
		return domainreview.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

func (r reviewRepository) ListByVenue(ctx context.Context, venueID domainvenue.ID, limit, offset int) ([]*domainreview.Review, error) {
	query := psql.Select(reviewColumns...).From("reviews").
		Where(sq.Eq{"venue_id": string(venueID)}).
		OrderBy("review_date DESC", "id ASC")
	var rows []reviewRow
	if err := selectAll(ctx, r.tx, &rows, paged(query, limit, offset)); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	out := make([]*domainreview.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

type notificationRepository struct{ tx *sqlx.Tx }

// Save relies on ON CONFLICT so that a duplicate does not abort the surrounding transaction.
func (r notificationRepository) Save(ctx context.Context, n *domainnotification.Notification) error {
	inserted, err := affected(ctx, r.tx, psql.Insert("notifications").Columns(notificationColumns...).Values(
		string(n.ID), n.UserID, n.Title, n.Message, string(n.Type), n.BookingID, n.VenueID, n.IsRead,
		n.DedupKey, n.CreatedAt.UTC(), nullTime(n.ReadAt),
	).Suffix("ON CONFLICT (dedup_key) DO NOTHING"))
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	if inserted == 0 {
		return domainnotification.ErrDuplicate
	}
	return nil
}

func (r notificationRepository) ByID(ctx context.Context, id domainnotification.ID) (*domainnotification.Notification, error) {
	var row notificationRow
	err := getOne(ctx, r.tx, &row, psql.Select(notificationColumns...).From("notifications").Where(sq.Eq{"id": string(id)}))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainnotification.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return row.toDomain(), nil
}

func (r notificationRepository) List(ctx context.Context, filter domainnotification.Filter) ([]*domainnotification.Notification, error) {
	query := psql.Select(notificationColumns...).From("notifications").OrderBy("created_at DESC", "id ASC")
	if filter.UserID != "" {
		query = query.Where(sq.Eq{"user_id": filter.UserID})
	}
	if filter.IsRead != nil {
		query = query.Where(sq.Eq{"is_read": *filter.IsRead})
	}
	if filter.Type != "" {
		query = query.Where(sq.Eq{"type": string(filter.Type)})
	}
	var rows []notificationRow
	if err := selectAll(ctx, r.tx, &rows, paged(query, filter.Limit, filter.Offset)); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	out := make([]*domainnotification.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	query := psql.Select("COUNT(*)").From("notifications").Where(sq.Eq{"user_id": userID, "is_read": false})
	if err := getOne(ctx, r.tx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func (r notificationRepository) MarkRead(ctx context.Context, id domainnotification.ID, at time.Time) error {
	n, err := affected(ctx, r.tx, psql.Update("notifications").
		Set("is_read", true).
		Set("read_at", at.UTC()).
		Where(sq.Eq{"id": string(id)}))
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n == 0 {
		return domainnotification.ErrNotFound
	}
	return nil
}

func (r notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	n, err := affected(ctx, r.tx, psql.Update("notifications").
		Set("is_read", true).
		Set("read_at", at.UTC()).
		Where(sq.Eq{"user_id": userID, "is_read": false}))
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return int(n), nil
}

var (
	_ domainvenue.Repository        = venueRepository{}
	_ domainavailability.Repository = availabilityRepository{}
	_ domainbooking.Repository      = bookingRepository{}
	_ domainpayment.Repository      = paymentRepository{}
	_ domainreview.Repository       = reviewRepository{}
	_ domainnotification.Repository = notificationRepository{}
)

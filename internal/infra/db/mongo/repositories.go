package mongo

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "venuebook/internal/domain/availability"
	domainbooking "venuebook/internal/domain/booking"
	domainnotification "venuebook/internal/domain/notification"
	domainpayment "venuebook/internal/domain/payment"
	domainreview "venuebook/internal/domain/review"
	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/shared/money"
	domainvenue "venuebook/internal/domain/venue"
)

// isWriteConflict reports a transaction that lost a race on the same document.
func isWriteConflict(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError") || cmdErr.Code == 112
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		return writeErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}

func duplicateOn(err error, index string) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), index)
}

func findOptions(sort bson.D, limit, offset int) *options.FindOptions {
	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	return opts
}

// saveVersioned inserts a new document or replaces the stored one when versions match.
func saveVersioned(ctx context.Context, col *mongo.Collection, id string, version int64, doc any) error {
	if version == 0 {
		_, err := col.InsertOne(ctx, doc)
		return err
	}
	res, err := col.ReplaceOne(ctx, bson.M{"_id": id, "version": version}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errStaleVersion
	}
	return nil
}

var errStaleVersion = errors.New("mongo: stale version")

func conflictOr(err error, conflict error) error {
	if errors.Is(err, errStaleVersion) || isWriteConflict(err) || mongo.IsDuplicateKeyError(err) {
		return conflict
	}
	return err
}

func stringIDs[T ~string](ids []T) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

type venueRepository struct {
	col *mongo.Collection
}

func (r venueRepository) ByID(ctx context.Context, id domainvenue.ID) (*domainvenue.Venue, error) {
	var doc venueDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainvenue.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// ByIDForUpdate touches the venue so concurrent booking and calendar writers conflict.
func (r venueRepository) ByIDForUpdate(ctx context.Context, id domainvenue.ID) (*domainvenue.Venue, error) {
	var doc venueDocument
	update := bson.M{"$set": bson.M{"locked_at": time.Now().UTC().UnixMilli()}}
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": string(id)}, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainvenue.ErrNotFound
		}
		return nil, conflictOr(err, domainvenue.ErrConcurrentUpdate)
	}
	return doc.toAggregate(), nil
}

func (r venueRepository) Save(ctx context.Context, v *domainvenue.Venue) error {
	doc := newVenueDocument(v)
	doc.Version = v.Version + 1
	if err := saveVersioned(ctx, r.col, doc.ID, v.Version, doc); err != nil {
		return conflictOr(err, domainvenue.ErrConcurrentUpdate)
	}
	v.Version = doc.Version
	return nil
}

func (r venueRepository) List(ctx context.Context, filter domainvenue.Filter) ([]*domainvenue.Venue, error) {
	query := bson.M{}
	if filter.OwnerID != "" {
		query["owner_id"] = string(filter.OwnerID)
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.City != "" {
		query["city"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(filter.City) + "$", Options: "i"}
	}
	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	cur, err := r.col.Find(ctx, query, findOptions(sort, filter.Limit, filter.Offset))
	if err != nil {
		return nil, err
	}
	var docs []venueDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainvenue.Venue, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type availabilityRepository struct {
	col *mongo.Collection
}

func (r availabilityRepository) IsAvailable(ctx context.Context, key domainavailability.Key) (bool, error) {
	var doc availabilityDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": key.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return true, nil
		}
		return false, err
	}
	return doc.Available, nil
}

func (r availabilityRepository) Set(ctx context.Context, entry domainavailability.Entry) error {
	doc := newAvailabilityDocument(entry)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r availabilityRepository) ReplaceFuture(ctx context.Context, venueID domainvenue.ID, since daterange.Day, entries []domainavailability.Entry) error {
	if _, err := r.col.DeleteMany(ctx, bson.M{"venue_id": string(venueID), "date": bson.M{"$gte": since.String()}}); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	docs := make([]any, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, newAvailabilityDocument(e))
	}
	_, err := r.col.InsertMany(ctx, docs)
	return err
}

func (r availabilityRepository) List(ctx context.Context, venueID domainvenue.ID, rng daterange.Range) ([]domainavailability.Entry, error) {
	query := bson.M{"venue_id": string(venueID)}
	if dates := dayBounds(rng); len(dates) > 0 {
		query["date"] = dates
	}
	cur, err := r.col.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "slot", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []availabilityDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domainavailability.Entry, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toEntry())
	}
	return out, nil
}

func dayBounds(rng daterange.Range) bson.M {
	bounds := bson.M{}
	if !rng.From.IsZero() {
		bounds["$gte"] = rng.From.String()
	}
	if !rng.To.IsZero() {
		bounds["$lte"] = rng.To.String()
	}
	return bounds
}

type bookingRepository struct {
	col *mongo.Collection
}

func (r bookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// ByIDForUpdate touches the document so that a concurrent transaction writing it fails
// with a write conflict instead of interleaving.
func (r bookingRepository) ByIDForUpdate(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	update := bson.M{"$set": bson.M{"locked_at": time.Now().UTC().UnixMilli()}}
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": string(id)}, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, conflictOr(err, domainbooking.ErrConcurrentUpdate)
	}
	return doc.toAggregate(), nil
}

func (r bookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = b.Version + 1
	if err := saveVersioned(ctx, r.col, doc.ID, b.Version, doc); err != nil {
		if duplicateOn(err, indexActiveSlot) {
			return domainbooking.ErrSlotUnavailable
		}
		return conflictOr(err, domainbooking.ErrConcurrentUpdate)
	}
	b.Version = doc.Version
	return nil
}

func (r bookingRepository) List(ctx context.Context, filter domainbooking.Filter) ([]*domainbooking.Booking, error) {
	filter = filter.Normalized()
	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	if filter.Order == domainbooking.OrderEventDateAsc {
		sort = bson.D{{Key: "event_date", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	}
	cur, err := r.col.Find(ctx, bookingQuery(filter), findOptions(sort, filter.Limit, filter.Offset))
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

func (r bookingRepository) Count(ctx context.Context, filter domainbooking.Filter) (int, error) {
	n, err := r.col.CountDocuments(ctx, bookingQuery(filter))
	return int(n), err
}

func bookingQuery(filter domainbooking.Filter) bson.M {
	query := bson.M{}
	if len(filter.VenueIDs) > 0 {
		query["venue_id"] = bson.M{"$in": stringIDs(filter.VenueIDs)}
	}
	if filter.OwnerID != "" {
		query["owner_id"] = string(filter.OwnerID)
	}
	if filter.CustomerID != "" {
		query["customer_id"] = string(filter.CustomerID)
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": domainbooking.StatusStrings(filter.Statuses)}
	}
	if dates := dayBounds(filter.EventDates); len(dates) > 0 {
		query["event_date"] = dates
	}
	if filter.Slot != "" {
		query["slot"] = string(filter.Slot)
	}
	return query
}

type paymentRepository struct {
	col *mongo.Collection
}

func (r paymentRepository) ByID(ctx context.Context, id domainpayment.ID) (*domainpayment.Record, error) {
	return r.one(ctx, bson.M{"_id": string(id)})
}

func (r paymentRepository) ByIDForUpdate(ctx context.Context, id domainpayment.ID) (*domainpayment.Record, error) {
	var doc paymentDocument
	update := bson.M{"$set": bson.M{"locked_at": time.Now().UTC().UnixMilli()}}
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": string(id)}, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrNotFound
		}
		return nil, conflictOr(err, domainpayment.ErrConcurrentUpdate)
	}
	return doc.toAggregate(), nil
}

func (r paymentRepository) ByBooking(ctx context.Context, bookingID domainbooking.ID) (*domainpayment.Record, error) {
	return r.one(ctx, bson.M{"booking_id": string(bookingID)})
}

func (r paymentRepository) one(ctx context.Context, query bson.M) (*domainpayment.Record, error) {
	var doc paymentDocument
	if err := r.col.FindOne(ctx, query).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r paymentRepository) Save(ctx context.Context, p *domainpayment.Record) error {
	doc := newPaymentDocument(p)
	doc.Version = p.Version + 1
	if err := saveVersioned(ctx, r.col, doc.ID, p.Version, doc); err != nil {
		return conflictOr(err, domainpayment.ErrConcurrentUpdate)
	}
	p.Version = doc.Version
	return nil
}

func (r paymentRepository) List(ctx context.Context, filter domainpayment.Filter) ([]*domainpayment.Record, error) {
	sort := bson.D{{Key: "payment_date", Value: -1}, {Key: "_id", Value: 1}}
	cur, err := r.col.Find(ctx, paymentQuery(filter), findOptions(sort, filter.Limit, filter.Offset))
	if err != nil {
		return nil, err
	}
	var docs []paymentDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainpayment.Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

func (r paymentRepository) SumCompleted(ctx context.Context, filter domainpayment.Filter) (money.Money, error) {
	filter.Status = domainpayment.StatusCompleted
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: paymentQuery(filter)}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return money.Money{}, err
	}
	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return money.Money{}, err
	}
	total := money.Zero(money.DefaultCurrency)
	if len(rows) > 0 {
		total.Amount = rows[0].Total
	}
	return total, nil
}

// paymentQuery matches Paid by calendar day: the upper bound is the start of the next day.
func paymentQuery(filter domainpayment.Filter) bson.M {
	query := bson.M{}
	if filter.OwnerID != "" {
		query["owner_id"] = string(filter.OwnerID)
	}
	if len(filter.VenueIDs) > 0 {
		query["venue_id"] = bson.M{"$in": stringIDs(filter.VenueIDs)}
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	paid := bson.M{}
	if !filter.Paid.From.IsZero() {
		paid["$gte"] = filter.Paid.From.Time().UnixMilli()
	}
	if !filter.Paid.To.IsZero() {
		paid["$lt"] = filter.Paid.To.AddDays(1).Time().UnixMilli()
	}
	if len(paid) > 0 {
		query["payment_date"] = paid
	}
	return query
}

type reviewRepository struct {
	col *mongo.Collection
}

func (r reviewRepository) ByBooking(ctx context.Context, bookingID domainbooking.ID) (*domainreview.Review, error) {
	var doc reviewDocument
	if err := r.col.FindOne(ctx, bson.M{"booking_id": string(bookingID)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreview.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r reviewRepository) Save(ctx context.Context, rv *domainreview.Review) error {
	_, err := r.col.InsertOne(ctx, newReviewDocument(rv))
	if mongo.IsDuplicateKeyError(err) {
		return domainreview.ErrDuplicate
	}
	return err
}

func (r reviewRepository) ListByVenue(ctx context.Context, venueID domainvenue.ID, limit, offset int) ([]*domainreview.Review, error) {
	sort := bson.D{{Key: "review_date", Value: -1}, {Key: "_id", Value: 1}}
	cur, err := r.col.Find(ctx, bson.M{"venue_id": string(venueID)}, findOptions(sort, limit, offset))
	if err != nil {
		return nil, err
	}
	var docs []reviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainreview.Review, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type notificationRepository struct {
	col *mongo.Collection
}

// Save looks the dedup key up first: a duplicate key error would abort the transaction.
func (r notificationRepository) Save(ctx context.Context, n *domainnotification.Notification) error {
	count, err := r.col.CountDocuments(ctx, bson.M{"dedup_key": n.DedupKey}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if count > 0 {
		return domainnotification.ErrDuplicate
	}
	_, err = r.col.InsertOne(ctx, newNotificationDocument(n))
	if mongo.IsDuplicateKeyError(err) {
		return domainnotification.ErrDuplicate
	}
	return err
}

func (r notificationRepository) ByID(ctx context.Context, id domainnotification.ID) (*domainnotification.Notification, error) {
	var doc notificationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainnotification.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r notificationRepository) List(ctx context.Context, filter domainnotification.Filter) ([]*domainnotification.Notification, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.IsRead != nil {
		query["is_read"] = *filter.IsRead
	}
	if filter.Type != "" {
		query["type"] = string(filter.Type)
	}
	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	cur, err := r.col.Find(ctx, query, findOptions(sort, filter.Limit, filter.Offset))
	if err != nil {
		return nil, err
	}
	var docs []notificationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainnotification.Notification, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

func (r notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"user_id": userID, "is_read": false})
	return int(n), err
}

func (r notificationRepository) MarkRead(ctx context.Context, id domainnotification.ID, at time.Time) error {
	res, err := r.col.UpdateByID(ctx, string(id), bson.M{"$set": bson.M{"is_read": true, "read_at": timeToTimestamp(at)}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainnotification.ErrNotFound
	}
	return nil
}

func (r notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	res, err := r.col.UpdateMany(ctx, bson.M{"user_id": userID, "is_read": false}, bson.M{"$set": bson.M{"is_read": true, "read_at": timeToTimestamp(at)}})
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

var (
	_ domainvenue.Repository        = venueRepository{}
	_ domainavailability.Repository = availabilityRepository{}
	_ domainbooking.Repository      = bookingRepository{}
	_ domainpayment.Repository      = paymentRepository{}
	_ domainreview.Repository       = reviewRepository{}
	_ domainnotification.Repository = notificationRepository{}
)

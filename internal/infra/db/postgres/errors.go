package postgres

import (
	"errors"

	"github.com/lib/pq"
)

const (
	constraintActiveSlot  = "bookings_active_slot_uidx"
	constraintReviewOnce  = "reviews_booking_key"
	constraintPaymentOnce = "payments_booking_key"
)

// uniqueViolation reports the constraint behind a unique_violation, or "" for other errors.
func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code.Name() != "unique_violation" {
		return "", false
	}
	return pqErr.Constraint, true
}

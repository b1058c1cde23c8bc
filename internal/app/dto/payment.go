package dto

import (
	"time"

	domainpayment "venuebook/internal/domain/payment"
)

type Payment struct {
	ID          string    `json:"id"`
	BookingID   string    `json:"booking_id"`
	VenueID     string    `json:"venue_id"`
	Amount      MoneyDTO  `json:"amount"`
	Method      string    `json:"method"`
	TrxID       string    `json:"trx_id,omitempty"`
	Status      string    `json:"status"`
	PaymentDate time.Time `json:"payment_date"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PaymentCollection struct {
	Items          []Payment `json:"items"`
	CompletedTotal MoneyDTO  `json:"completed_total"`
}

func MapPayment(p *domainpayment.Record) Payment {
	return Payment{
		ID:          string(p.ID),
		BookingID:   string(p.BookingID),
		VenueID:     string(p.VenueID),
		Amount:      MapMoney(p.Amount),
		Method:      string(p.Method),
		TrxID:       p.TrxID,
		Status:      string(p.Status),
		PaymentDate: p.PaymentDate,
		UpdatedAt:   p.UpdatedAt,
	}
}

package dto

type VenueRevenue struct {
	VenueID   string   `json:"venue_id"`
	VenueName string   `json:"venue_name"`
	Revenue   MoneyDTO `json:"revenue"`
	Bookings  int      `json:"bookings"`
}

// OwnerDashboard summarises an owner's venues. Revenue counts completed payments only.
type OwnerDashboard struct {
	TotalVenues      int            `json:"total_venues"`
	TotalBookings    int            `json:"total_bookings"`
	BookingsByStatus map[string]int `json:"bookings_by_status"`
	Revenue          MoneyDTO       `json:"revenue"`
	AverageRating    float64        `json:"avg_rating"`
	TopVenues        []VenueRevenue `json:"top_venues"`
	RecentBookings   []Booking      `json:"recent_bookings"`
	CompletedBySweep int            `json:"completed_by_sweep"`
}

type MonthlyRevenue struct {
	Month    int      `json:"month"`
	Revenue  MoneyDTO `json:"revenue"`
	Bookings int      `json:"bookings"`
}

type OwnerAnalytics struct {
	Year   int              `json:"year"`
	Months []MonthlyRevenue `json:"months"`
	Total  MoneyDTO         `json:"total"`
}

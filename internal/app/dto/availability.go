package dto

import domainavailability "venuebook/internal/domain/availability"

type AvailabilityEntry struct {
	Date        string `json:"date"`
	Slot        string `json:"slot"`
	IsAvailable bool   `json:"is_available"`
}

// Calendar lists the stored availability rows of a venue. Keys without a row are available.
type Calendar struct {
	VenueID string              `json:"venue_id"`
	From    string              `json:"from,omitempty"`
	To      string              `json:"to,omitempty"`
	Entries []AvailabilityEntry `json:"entries"`
}

func MapAvailabilityEntry(e domainavailability.Entry) AvailabilityEntry {
	return AvailabilityEntry{
		Date:        e.Date.String(),
		Slot:        string(e.Slot),
		IsAvailable: e.Available,
	}
}

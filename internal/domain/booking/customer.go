package booking

import (
	"net/mail"
	"regexp"
	"strings"

	"venuebook/internal/domain/shared/fault"
)

var (
	ErrFullNameRequired = fault.Validation("full_name_required", "booking: customer full name is required")
	ErrInvalidEmail     = fault.Validation("invalid_email", "booking: customer email is invalid")
	ErrInvalidPhone     = fault.Validation("invalid_phone", "booking: phone number must be in format +92-3XX-XXXXXXX")
)

var phonePattern = regexp.MustCompile(`^\+92-3\d{2}-\d{7}$`)

// CustomerDetails is the contact snapshot taken when the booking is made. It is
// not linked to the live user profile.
type CustomerDetails struct {
	FullName       string
	Email          string
	PhonePrimary   string
	PhoneSecondary string
}

// Normalize trims and validates the snapshot.
func (c CustomerDetails) Normalize() (CustomerDetails, error) {
	out := CustomerDetails{
		FullName:       strings.TrimSpace(c.FullName),
		Email:          strings.ToLower(strings.TrimSpace(c.Email)),
		PhonePrimary:   strings.TrimSpace(c.PhonePrimary),
		PhoneSecondary: strings.TrimSpace(c.PhoneSecondary),
	}
	if out.FullName == "" {
		return CustomerDetails{}, ErrFullNameRequired
	}
	if addr, err := mail.ParseAddress(out.Email); err != nil || addr.Address != out.Email {
		return CustomerDetails{}, ErrInvalidEmail
	}
	if !phonePattern.MatchString(out.PhonePrimary) {
		return CustomerDetails{}, ErrInvalidPhone.Withf("booking: primary phone must be in format +92-3XX-XXXXXXX")
	}
	if out.PhoneSecondary != "" && !phonePattern.MatchString(out.PhoneSecondary) {
		return CustomerDetails{}, ErrInvalidPhone.Withf("booking: secondary phone must be in format +92-3XX-XXXXXXX")
	}
	return out, nil
}

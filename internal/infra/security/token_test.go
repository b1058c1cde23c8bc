package security

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	"venuebook/internal/app/principal"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewJWTVerifier("s3cret", "venuebook")
	owner := principal.Principal{UserID: "owner-1", Role: principal.RoleOwner}

	token, err := v.Issue(owner, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != owner {
		t.Fatalf("expected %+v, got %+v", owner, got)
	}
}

func TestVerifyRejects(t *testing.T) {
	v := NewJWTVerifier("s3cret", "venuebook")
	customer := principal.Principal{UserID: "c-1", Role: principal.RoleCustomer}

	expired, _ := v.Issue(customer, time.Minute, time.Now().Add(-time.Hour))
	foreign, _ := NewJWTVerifier("other", "venuebook").Issue(customer, time.Hour, time.Now())
	wrongIssuer, _ := NewJWTVerifier("s3cret", "elsewhere").Issue(customer, time.Hour, time.Now())
	system, _ := v.Issue(principal.System, time.Hour, time.Now())
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "c-1", "role": "customer"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "expired", token: expired},
		{name: "foreign key", token: foreign},
		{name: "wrong issuer", token: wrongIssuer},
		{name: "system role", token: system},
		{name: "none algorithm", token: noneAlg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestVerifyRequiresSecret(t *testing.T) {
	if _, err := (JWTVerifier{}).Verify("x"); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
}

package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"

	"venuebook/internal/app/principal"
)

var (
	ErrInvalidToken = errors.New("token: invalid")
	ErrMissingKey   = errors.New("token: signing key is empty")
)

// JWTVerifier validates HS256 bearer tokens issued by the identity service and
// resolves them into a principal.
type JWTVerifier struct {
	Secret []byte
	Issuer string
}

func NewJWTVerifier(secret, issuer string) JWTVerifier {
	return JWTVerifier{Secret: []byte(secret), Issuer: issuer}
}

func (v JWTVerifier) Verify(raw string) (principal.Principal, error) {
	if len(v.Secret) == 0 {
		return principal.Principal{}, ErrMissingKey
	}
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.Secret, nil
	})
	if err != nil {
		return principal.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return principal.Principal{}, ErrInvalidToken
	}
	if v.Issuer != "" && !claims.VerifyIssuer(v.Issuer, true) {
		return principal.Principal{}, fmt.Errorf("%w: issuer", ErrInvalidToken)
	}
	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return principal.Principal{}, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	rawRole, _ := claims["role"].(string)
	role, err := principal.ParseRole(rawRole)
	if err != nil {
		return principal.Principal{}, fmt.Errorf("%w: role %q", ErrInvalidToken, rawRole)
	}
	return principal.Principal{UserID: sub, Role: role}, nil
}

// Issue signs a token for p. The API never issues tokens itself; this serves local
// tooling and tests.
func (v JWTVerifier) Issue(p principal.Principal, ttl time.Duration, now time.Time) (string, error) {
	if len(v.Secret) == 0 {
		return "", ErrMissingKey
	}
	claims := jwt.MapClaims{
		"sub":  p.UserID,
		"role": string(p.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	if v.Issuer != "" {
		claims["iss"] = v.Issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.Secret)
}

// Package principal carries the authenticated caller through the application layer.
package principal

import (
	"context"
	"errors"
	"strings"

	"venuebook/internal/domain/shared/fault"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	// RoleSystem is used by scheduled jobs; it is never issued to HTTP callers.
	RoleSystem Role = "system"
)

var (
	ErrUnauthenticated = fault.Authorization("unauthenticated", "auth required")
	ErrForbidden       = fault.Authorization("forbidden", "insufficient permissions")
	errInvalidRole     = errors.New("principal: invalid role")
)

func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleCustomer, RoleOwner, RoleAdmin:
		return r, nil
	}
	return "", errInvalidRole
}

type Principal struct {
	UserID string
	Role   Role
}

// System is the actor of the completion sweep.
var System = Principal{UserID: "system", Role: RoleSystem}

func (p Principal) Is(role Role) bool {
	return p.Role == role
}

func (p Principal) IsZero() bool {
	return p.UserID == ""
}

type ctxKey struct{}

func WithContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	if !ok || p.IsZero() {
		return Principal{}, false
	}
	return p, true
}

// Require returns the caller when it holds one of roles. No roles means any authenticated caller.
func Require(ctx context.Context, roles ...Role) (Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}
	if len(roles) == 0 {
		return p, nil
	}
	for _, r := range roles {
		if p.Role == r {
			return p, nil
		}
	}
	return Principal{}, ErrForbidden
}

// Caller returns the authenticated caller and refuses a request made on behalf of another
// user. An empty claim resolves to the caller.
func Caller(ctx context.Context, claimed string) (Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}
	if claimed != "" && claimed != p.UserID {
		return Principal{}, ErrForbidden
	}
	return p, nil
}

// Acting checks that claimed is exactly the caller in ctx, role included.
func Acting(ctx context.Context, claimed Principal) (Principal, error) {
	p, err := Caller(ctx, claimed.UserID)
	if err != nil {
		return Principal{}, err
	}
	if claimed.Role != "" && claimed.Role != p.Role {
		return Principal{}, ErrForbidden
	}
	return p, nil
}

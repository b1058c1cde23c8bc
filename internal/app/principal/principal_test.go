package principal

import (
	"context"
	"errors"
	"testing"
)

func TestRequire(t *testing.T) {
	owner := Principal{UserID: "owner-1", Role: RoleOwner}
	tests := []struct {
		name  string
		ctx   context.Context
		roles []Role
		want  error
	}{
		{name: "anonymous", ctx: context.Background(), want: ErrUnauthenticated},
		{name: "any role", ctx: WithContext(context.Background(), owner)},
		{name: "matching role", ctx: WithContext(context.Background(), owner), roles: []Role{RoleCustomer, RoleOwner}},
		{name: "wrong role", ctx: WithContext(context.Background(), owner), roles: []Role{RoleAdmin}, want: ErrForbidden},
		{name: "empty user", ctx: WithContext(context.Background(), Principal{Role: RoleAdmin}), want: ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Require(tt.ctx, tt.roles...)
			if !errors.Is(err, tt.want) {
				t.Errorf("Require() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseRoleRejectsSystem(t *testing.T) {
	if _, err := ParseRole("system"); err == nil {
		t.Error("system role must not be parsed from external input")
	}
	if r, err := ParseRole(" Owner "); err != nil || r != RoleOwner {
		t.Errorf("ParseRole() = %v, %v", r, err)
	}
}

func TestCallerRefusesForeignClaims(t *testing.T) {
	owner := Principal{UserID: "owner-1", Role: RoleOwner}
	ctx := WithContext(context.Background(), owner)
	tests := []struct {
		name    string
		ctx     context.Context
		claimed Principal
		want    error
	}{
		{name: "self", ctx: ctx, claimed: owner},
		{name: "empty claim", ctx: ctx},
		{name: "user id only", ctx: ctx, claimed: Principal{UserID: "owner-1"}},
		{name: "other owner", ctx: ctx, claimed: Principal{UserID: "owner-2", Role: RoleOwner}, want: ErrForbidden},
		{name: "system", ctx: ctx, claimed: System, want: ErrForbidden},
		{name: "elevated role", ctx: ctx, claimed: Principal{UserID: "owner-1", Role: RoleSystem}, want: ErrForbidden},
		{name: "anonymous", ctx: context.Background(), claimed: owner, want: ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Acting(tt.ctx, tt.claimed)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Acting() error = %v, want %v", err, tt.want)
			}
			if err == nil && got != owner {
				t.Errorf("Acting() = %+v, want %+v", got, owner)
			}
		})
	}
}

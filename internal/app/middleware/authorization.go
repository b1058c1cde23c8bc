package middleware

import (
	"context"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/queries"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// RoleRestricted is implemented by messages limited to some caller roles.
type RoleRestricted interface {
	AllowedRoles() []principal.Role
}

// RoleAuthorizer checks the caller in ctx against the message's allowed roles. Messages
// that do not declare roles pass through; ownership checks stay in the handlers.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(ctx context.Context, message any) error {
	restricted, ok := message.(RoleRestricted)
	if !ok {
		return nil
	}
	_, err := principal.Require(ctx, restricted.AllowedRoles()...)
	return err
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}

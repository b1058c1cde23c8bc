// Package middleware holds the stages every command and query passes through before its
// handler runs: logging, validation, role checks, idempotent replay, post-commit
// notification dispatch and the unit of work.
package middleware

import (
	"context"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/queries"
)

// CommandMiddleware decorates the command bus. A stage may short-circuit by returning
// without calling next.
type CommandMiddleware func(next commands.Bus) commands.Bus

// QueryMiddleware decorates the query bus.
type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands stacks mws over base. mws[0] sees a command first, so the Transaction
// stage belongs last to keep the unit of work innermost.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	return stack(base, mws)
}

// ChainQueries stacks mws over base, mws[0] outermost.
func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	return stack(base, mws)
}

func stack[B any, M ~func(B) B](base B, mws []M) B {
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

// commandFunc lets a stage be written as a closure.
type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

func wrapCommand(next commands.Bus) commandFunc {
	return next.Dispatch
}

type queryFunc func(ctx context.Context, q queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}

func wrapQuery(next queries.Bus) queryFunc {
	return next.Ask
}

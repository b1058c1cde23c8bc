package middleware

import (
	"context"
	"log/slog"
	"time"

	"venuebook/internal/app/commands"
	"venuebook/internal/domain/shared/fault"
)

// Logging records every command with its outcome. Business faults log at info level.
func Logging(logger *slog.Logger) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		if logger == nil {
			return nextFn
		}
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			attrs := []any{"command", cmd.Key(), "duration", time.Since(start)}
			switch {
			case err == nil:
				logger.Debug("command handled", attrs...)
			case fault.KindOf(err) == fault.KindUpstream:
				logger.Error("command failed", append(attrs, "error", err)...)
			default:
				logger.Info("command rejected", append(attrs, "kind", fault.KindOf(err), "error", err)...)
			}
			return res, err
		})
	}
}

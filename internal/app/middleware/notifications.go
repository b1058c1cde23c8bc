package middleware

import (
	"context"
	"log/slog"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/notify"
	"venuebook/internal/app/policies"
)

// Notifications dispatches the intents raised by a command after it has committed.
// It must wrap Transaction. Delivery failures are logged and never fail the command.
func Notifications(notifier policies.Notifier, logger *slog.Logger) CommandMiddleware {
	if notifier == nil {
		panic("middleware: notifier required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			execCtx, collector, owner := notify.WithCollector(ctx)
			res, err := nextFn(execCtx, cmd)
			if !owner {
				return res, err
			}
			intents := collector.Drain()
			if err != nil {
				return nil, err
			}
			for _, intent := range intents {
				if notifyErr := notifier.Notify(ctx, intent); notifyErr != nil && logger != nil {
					logger.Warn("notification dispatch failed", "command", cmd.Key(), "user_id", intent.UserID, "dedup_key", intent.DedupKey, "error", notifyErr)
				}
			}
			return res, nil
		})
	}
}

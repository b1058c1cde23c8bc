package policies

import (
	"context"

	domainnotification "venuebook/internal/domain/notification"
)

// Notifier hands a notification intent to the delivery channel. Delivery is at least once;
// the receiving side deduplicates on Intent.DedupKey.
type Notifier interface {
	Notify(ctx context.Context, intent domainnotification.Intent) error
}

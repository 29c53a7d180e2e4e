package ledger

import (
	"context"

	"github.com/iliyamo/soulspace-ledger/internal/logging"
	"github.com/iliyamo/soulspace-ledger/internal/queue"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, queue.Event) error { return nil }

func orNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// emit publishes ev and logs a failure. The write it describes has already
// committed, so the error goes no further.
func emit(ctx context.Context, p EventPublisher, log logging.Logger, ev queue.Event) {
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn(ctx, "publish event failed", "type", ev.Type, "user_id", ev.UserID, "err", err)
	}
}

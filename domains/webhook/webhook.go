package webhook

import (
	"context"

	"github.com/sharebite/sharebite-bot/domains/messaging"
)

// IWebhookUsecase handles one inbound platform event end to end: rate limit,
// state routing, flow step, state writeback.
type IWebhookUsecase interface {
	HandleUpdate(ctx context.Context, update *messaging.Update) error
}

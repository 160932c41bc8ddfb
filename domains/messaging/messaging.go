package messaging

import "context"

// SendOptions carries the optional parameters shared by outbound sends.
type SendOptions struct {
	ParseMode           string
	ReplyToMessageID    int64
	DisableNotification bool
}

// ITransport is the raw platform surface. Implementations own per-call
// timeouts and error classification; they know nothing about circuit state.
type ITransport interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) error
	SendPhoto(ctx context.Context, chatID int64, photo, caption string, opts *SendOptions) error
	SendLocation(ctx context.Context, chatID int64, latitude, longitude float64) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error
	SetWebhook(ctx context.Context, url, secretToken string) error
}

// IMessagingUsecase is the only component permitted to reach the messaging
// platform. Every call is timeout-bounded and circuit-protected; results are
// plain booleans and never panic. False means "not delivered, do not assume
// the user saw it".
type IMessagingUsecase interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) bool
	SendPhoto(ctx context.Context, chatID int64, photo, caption string, opts *SendOptions) bool
	SendLocation(ctx context.Context, chatID int64, latitude, longitude float64) bool
	AnswerCallback(ctx context.Context, callbackQueryID, text string) bool
	SetWebhook(ctx context.Context, url, secretToken string) bool
}

package usecase

import (
	"context"

	"github.com/sirupsen/logrus"

	domainMessaging "github.com/sharebite/sharebite-bot/domains/messaging"
	"github.com/sharebite/sharebite-bot/pkg/circuitbreaker"
	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

// messagingResource keys the breaker record shared by every outbound call.
const messagingResource = "messaging-api"

type messagingService struct {
	transport domainMessaging.ITransport
	breaker   *circuitbreaker.Breaker
	cfg       circuitbreaker.Config
}

func NewMessagingService(transport domainMessaging.ITransport, breaker *circuitbreaker.Breaker) domainMessaging.IMessagingUsecase {
	return &messagingService{
		transport: transport,
		breaker:   breaker,
		cfg:       circuitbreaker.DefaultConfig,
	}
}

// guard routes one outbound call through the breaker and flattens the result
// to a delivery flag. A false return means the user may not have seen the
// message; callers must not crash or retry in a tight loop.
func (s *messagingService) guard(operation string, op func() error) bool {
	err := s.breaker.Execute(messagingResource, s.cfg, op)
	if err == nil {
		return true
	}

	if pkgError.IsCircuitOpen(err) {
		logrus.WithFields(logrus.Fields{
			"operation": operation,
		}).Warn("[MESSAGING] circuit open, dropping outbound call")
		return false
	}

	logrus.WithFields(logrus.Fields{
		"operation": operation,
		"error":     err,
	}).Warn("[MESSAGING] outbound call failed")
	return false
}

func (s *messagingService) SendMessage(ctx context.Context, chatID int64, text string, opts *domainMessaging.SendOptions) bool {
	return s.guard("sendMessage", func() error {
		return s.transport.SendMessage(ctx, chatID, text, opts)
	})
}

func (s *messagingService) SendPhoto(ctx context.Context, chatID int64, photo, caption string, opts *domainMessaging.SendOptions) bool {
	return s.guard("sendPhoto", func() error {
		return s.transport.SendPhoto(ctx, chatID, photo, caption, opts)
	})
}

func (s *messagingService) SendLocation(ctx context.Context, chatID int64, latitude, longitude float64) bool {
	return s.guard("sendLocation", func() error {
		return s.transport.SendLocation(ctx, chatID, latitude, longitude)
	})
}

func (s *messagingService) AnswerCallback(ctx context.Context, callbackQueryID, text string) bool {
	return s.guard("answerCallbackQuery", func() error {
		return s.transport.AnswerCallbackQuery(ctx, callbackQueryID, text)
	})
}

func (s *messagingService) SetWebhook(ctx context.Context, url, secretToken string) bool {
	return s.guard("setWebhook", func() error {
		return s.transport.SetWebhook(ctx, url, secretToken)
	})
}

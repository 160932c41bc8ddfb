package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	domainState "github.com/sharebite/sharebite-bot/domains/convstate"
	domainMedia "github.com/sharebite/sharebite-bot/domains/media"
	domainMessaging "github.com/sharebite/sharebite-bot/domains/messaging"
	domainRateLimit "github.com/sharebite/sharebite-bot/domains/ratelimit"
	domainWebhook "github.com/sharebite/sharebite-bot/domains/webhook"
	"github.com/sharebite/sharebite-bot/validations"
)

type webhookService struct {
	states    domainState.IStateUsecase
	limiter   domainRateLimit.IRateLimitUsecase
	messenger domainMessaging.IMessagingUsecase
	media     domainMedia.ITransferUsecase

	genCode func() string
}

func NewWebhookService(
	states domainState.IStateUsecase,
	limiter domainRateLimit.IRateLimitUsecase,
	messenger domainMessaging.IMessagingUsecase,
	media domainMedia.ITransferUsecase,
) domainWebhook.IWebhookUsecase {
	return &webhookService{
		states:    states,
		limiter:   limiter,
		messenger: messenger,
		media:     media,
		genCode:   generateVerificationCode,
	}
}

// HandleUpdate processes one inbound event: rate limit first, then route by
// command or by the user's live conversation state. Only state-write failures
// propagate; the platform redelivers and handling is idempotent enough to
// tolerate that.
func (s *webhookService) HandleUpdate(ctx context.Context, update *domainMessaging.Update) error {
	if update == nil {
		return nil
	}

	if update.CallbackQuery != nil {
		cb := update.CallbackQuery
		// The ack path cannot await a durable round trip, so the cheap
		// counter tier gates it before any outbound call.
		if cb.From != nil {
			userID := strconv.FormatInt(cb.From.ID, 10)
			if decision := s.limiter.FastCheck(ctx, userID); !decision.Allowed {
				logrus.WithFields(logrus.Fields{
					"user_id":     userID,
					"retry_after": decision.RetryAfterSeconds,
				}).Debug("[WEBHOOK] rate limited, dropping callback")
				return nil
			}
		}
		// Ack so the client stops its spinner; routing of callback data is
		// handled by the command layer above this one.
		s.messenger.AnswerCallback(ctx, cb.ID, "")
		return nil
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID

	decision, err := s.limiter.Check(ctx, userID)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		// No user-visible reply for rate-limited events.
		logrus.WithFields(logrus.Fields{
			"user_id":     userID,
			"retry_after": decision.RetryAfterSeconds,
		}).Debug("[WEBHOOK] rate limited, dropping event")
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		return s.handleCommand(ctx, userID, chatID, text)
	}

	state, err := s.states.GetState(ctx, userID)
	if err != nil {
		return err
	}
	if state == nil {
		if text != "" {
			s.messenger.SendMessage(ctx, chatID, "Hi! Use /start to register or /share to offer food to a neighbor.", nil)
		}
		return nil
	}

	switch state.ActionKind {
	case domainState.ActionAwaitingEmail:
		return s.stepEmail(ctx, userID, chatID, text)
	case domainState.ActionAwaitingVerification:
		return s.stepVerification(ctx, chatID, userID, text, state)
	case domainState.ActionSharingFood:
		return s.stepShare(ctx, userID, chatID, msg, state)
	case domainState.ActionSettingRadius:
		return s.stepRadius(ctx, userID, chatID, text)
	case domainState.ActionUpdatingProfileLocation:
		return s.stepProfileLocation(ctx, userID, chatID, msg)
	default:
		logrus.Warnf("[WEBHOOK] unknown action kind %q for user %s, clearing state", state.ActionKind, userID)
		return s.states.SetState(ctx, userID, nil)
	}
}

func (s *webhookService) handleCommand(ctx context.Context, userID string, chatID int64, text string) error {
	command := strings.ToLower(strings.Fields(text)[0])

	switch command {
	case "/start":
		err := s.states.SetState(ctx, userID, &domainState.ConversationState{
			ActionKind: domainState.ActionAwaitingEmail,
			Payload:    domainState.Payload{Registration: &domainState.RegistrationData{}},
		})
		if err != nil {
			return err
		}
		s.messenger.SendMessage(ctx, chatID, "Welcome to ShareBite! Please send your email address to register.", nil)
		return nil

	case "/share":
		err := s.states.SetState(ctx, userID, &domainState.ConversationState{
			ActionKind: domainState.ActionSharingFood,
			Payload:    domainState.Payload{Share: &domainState.ShareDraft{Stage: domainState.ShareStagePhoto}},
		})
		if err != nil {
			return err
		}
		s.messenger.SendMessage(ctx, chatID, "Let's share some food! Send a photo of what you're offering.", nil)
		return nil

	case "/radius":
		err := s.states.SetState(ctx, userID, &domainState.ConversationState{
			ActionKind: domainState.ActionSettingRadius,
		})
		if err != nil {
			return err
		}
		s.messenger.SendMessage(ctx, chatID, "How far should we look for listings? Send a radius in km (0.1 - 50).", nil)
		return nil

	case "/setlocation":
		err := s.states.SetState(ctx, userID, &domainState.ConversationState{
			ActionKind: domainState.ActionUpdatingProfileLocation,
		})
		if err != nil {
			return err
		}
		s.messenger.SendMessage(ctx, chatID, "Share your location and we'll use it as your home base.", nil)
		return nil

	case "/cancel":
		if err := s.states.SetState(ctx, userID, nil); err != nil {
			return err
		}
		s.messenger.SendMessage(ctx, chatID, "Cancelled. Nothing was saved.", nil)
		return nil

	default:
		s.messenger.SendMessage(ctx, chatID, "Unknown command. Try /start, /share, /radius, /setlocation or /cancel.", nil)
		return nil
	}
}

func (s *webhookService) stepEmail(ctx context.Context, userID string, chatID int64, text string) error {
	if err := validations.ValidateEmail(ctx, text); err != nil {
		// Invalid input leaves the state untouched; the prompt just repeats.
		s.messenger.SendMessage(ctx, chatID, "That doesn't look like a valid email address. Please try again.", nil)
		return nil
	}

	code := s.genCode()
	err := s.states.SetState(ctx, userID, &domainState.ConversationState{
		ActionKind: domainState.ActionAwaitingVerification,
		Payload: domainState.Payload{
			Registration: &domainState.RegistrationData{
				Email:            text,
				VerificationCode: code,
			},
		},
	})
	if err != nil {
		return err
	}

	s.messenger.SendMessage(ctx, chatID,
		fmt.Sprintf("We sent a 6-digit code to %s. Reply with the code to verify your account.", text), nil)
	return nil
}

func (s *webhookService) stepVerification(ctx context.Context, chatID int64, userID, text string, state *domainState.ConversationState) error {
	reg := state.Payload.Registration
	if reg == nil || reg.VerificationCode == "" {
		// Unusable state; restart registration instead of trapping the user.
		if err := s.states.SetState(ctx, userID, nil); err != nil {
			return err
		}
		s.messenger.SendMessage(ctx, chatID, "Something went wrong, please /start again.", nil)
		return nil
	}

	if text != reg.VerificationCode {
		s.messenger.SendMessage(ctx, chatID, "That code doesn't match. Check your inbox and try again.", nil)
		return nil
	}

	if err := s.states.SetState(ctx, userID, nil); err != nil {
		return err
	}
	s.messenger.SendMessage(ctx, chatID, "You're verified! Use /share to offer food to your neighbors.", nil)
	return nil
}

func (s *webhookService) stepShare(ctx context.Context, userID string, chatID int64, msg *domainMessaging.Message, state *domainState.ConversationState) error {
	draft := state.Payload.Share
	if draft == nil {
		draft = &domainState.ShareDraft{Stage: domainState.ShareStagePhoto}
		state.Payload.Share = draft
	}

	switch draft.Stage {
	case domainState.ShareStagePhoto:
		photo := msg.LargestPhoto()
		if photo == nil {
			s.messenger.SendMessage(ctx, chatID, "Please send a photo of the food, or /cancel to stop.", nil)
			return nil
		}

		url, err := s.media.TransferPhoto(ctx, photo.FileID, userID)
		if err != nil {
			// Losing the photo is recoverable; losing the submission is not.
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"error":   err,
			}).Warn("[WEBHOOK] photo transfer failed, continuing without image")
			s.messenger.SendMessage(ctx, chatID, "We couldn't attach your photo, but let's keep going.", nil)
		}
		draft.PhotoURL = url
		draft.Stage = domainState.ShareStageDescription

		if err := s.states.SetState(ctx, userID, state); err != nil {
			return err
		}
		s.messenger.SendMessage(ctx, chatID, "Great! Now describe what you're sharing.", nil)
		return nil

	case domainState.ShareStageDescription:
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			s.messenger.SendMessage(ctx, chatID, "A short description helps neighbors decide. What are you sharing?", nil)
			return nil
		}
		draft.Description = text
		draft.Stage = domainState.ShareStageLocation

		if err := s.states.SetState(ctx, userID, state); err != nil {
			return err
		}
		s.messenger.SendMessage(ctx, chatID, "Almost done. Share the pickup location.", nil)
		return nil

	case domainState.ShareStageLocation:
		if msg.Location == nil {
			s.messenger.SendMessage(ctx, chatID, "Please use the location attachment to share the pickup spot.", nil)
			return nil
		}
		draft.Location = &domainState.Location{
			Latitude:  msg.Location.Latitude,
			Longitude: msg.Location.Longitude,
		}

		caption := fmt.Sprintf("New listing: %s", draft.Description)
		if draft.PhotoURL != "" {
			s.messenger.SendPhoto(ctx, chatID, draft.PhotoURL, caption, nil)
		} else {
			s.messenger.SendMessage(ctx, chatID, caption, nil)
		}
		s.messenger.SendLocation(ctx, chatID, draft.Location.Latitude, draft.Location.Longitude)

		if err := s.states.SetState(ctx, userID, nil); err != nil {
			return err
		}
		s.messenger.SendMessage(ctx, chatID, "Your listing is live. Thanks for sharing!", nil)
		return nil

	default:
		logrus.Warnf("[WEBHOOK] unknown share stage %q for user %s, restarting flow", draft.Stage, userID)
		draft.Stage = domainState.ShareStagePhoto
		return s.states.SetState(ctx, userID, state)
	}
}

func (s *webhookService) stepRadius(ctx context.Context, userID string, chatID int64, text string) error {
	radius, err := validations.ValidateRadiusKm(ctx, text)
	if err != nil {
		s.messenger.SendMessage(ctx, chatID, "Send a radius between 0.1 and 50 km, e.g. 2.5.", nil)
		return nil
	}

	if err := s.states.SetState(ctx, userID, nil); err != nil {
		return err
	}
	s.messenger.SendMessage(ctx, chatID, fmt.Sprintf("Search radius set to %.1f km.", radius), nil)
	return nil
}

func (s *webhookService) stepProfileLocation(ctx context.Context, userID string, chatID int64, msg *domainMessaging.Message) error {
	if msg.Location == nil {
		s.messenger.SendMessage(ctx, chatID, "Please use the location attachment to set your home base.", nil)
		return nil
	}

	if err := s.states.SetState(ctx, userID, nil); err != nil {
		return err
	}
	s.messenger.SendMessage(ctx, chatID, "Home base updated.", nil)
	return nil
}

func generateVerificationCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand failing means the process is in serious trouble;
		// a constant would be worse than crashing the single event.
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

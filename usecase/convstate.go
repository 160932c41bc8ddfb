package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	domainState "github.com/sharebite/sharebite-bot/domains/convstate"
	"github.com/sharebite/sharebite-bot/pkg/cache"
	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

// warmTTL bounds how long a state read may be served from the in-process
// cache. Short on purpose: the durable row stays the source of truth and a
// user's next event may arrive on another instance.
const warmTTL = 30 * time.Second

type stateService struct {
	repo  domainState.IStateRepository
	cache *cache.Cache[*domainState.ConversationState]

	now func() time.Time
}

func NewStateService(repo domainState.IStateRepository, warm *cache.Cache[*domainState.ConversationState]) domainState.IStateUsecase {
	return &stateService{
		repo:  repo,
		cache: warm,
		now:   time.Now,
	}
}

// statePayload is the serialized column shape: kind and payload travel in one
// JSON document so the row stays a single slot.
type statePayload struct {
	ActionKind domainState.ActionKind `json:"action_kind"`
	Payload    domainState.Payload    `json:"payload"`
}

func (s *stateService) GetState(ctx context.Context, userID string) (*domainState.ConversationState, error) {
	now := s.now()

	if s.cache != nil {
		if cached, ok := s.cache.Get(userID); ok {
			if now.Before(cached.ExpiresAt) {
				return cached, nil
			}
			s.cache.Delete(userID)
		}
	}

	record, err := s.repo.Get(ctx, userID)
	if err != nil {
		// Lookup path fails open: a missing state keeps the bot responsive,
		// the flow just starts over.
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("[STATE] read failed, treating as no state")
		return nil, nil
	}
	if record == nil {
		return nil, nil
	}

	// Expired state is identical to no state. Deleting here is the
	// anti-stuck-state guarantee; no reaper process is required.
	if record.ExpiresAt.Before(now) {
		if err := s.repo.Delete(ctx, userID); err != nil {
			logrus.Warnf("[STATE] failed to delete expired state for %s: %v", userID, err)
		}
		return nil, nil
	}

	var payload statePayload
	if err := json.Unmarshal([]byte(record.State), &payload); err != nil {
		logrus.Warnf("[STATE] corrupt state payload for %s, discarding: %v", userID, err)
		_ = s.repo.Delete(ctx, userID)
		return nil, nil
	}

	state := &domainState.ConversationState{
		UserID:     userID,
		ActionKind: payload.ActionKind,
		Payload:    payload.Payload,
		ExpiresAt:  record.ExpiresAt,
		UpdatedAt:  record.UpdatedAt,
	}

	if s.cache != nil {
		s.cache.Set(userID, state, warmTTL)
	}
	return state, nil
}

func (s *stateService) SetState(ctx context.Context, userID string, state *domainState.ConversationState) error {
	if s.cache != nil {
		s.cache.Delete(userID)
	}

	if state == nil {
		return s.repo.Delete(ctx, userID)
	}

	now := s.now()
	state.UserID = userID
	state.ExpiresAt = now.Add(domainState.TTLFor(state.ActionKind))
	state.UpdatedAt = now

	raw, err := json.Marshal(statePayload{
		ActionKind: state.ActionKind,
		Payload:    state.Payload,
	})
	if err != nil {
		return pkgError.InternalServerError(fmt.Sprintf("failed to serialize state for %s: %v", userID, err))
	}

	record := &domainState.StateRecord{
		UserID:    userID,
		State:     string(raw),
		ExpiresAt: state.ExpiresAt,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		// Write side propagates: losing a state write silently would corrupt
		// the user's flow.
		return err
	}

	if s.cache != nil {
		s.cache.Set(userID, state, warmTTL)
	}
	return nil
}

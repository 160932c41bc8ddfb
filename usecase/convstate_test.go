package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domainState "github.com/sharebite/sharebite-bot/domains/convstate"
	"github.com/sharebite/sharebite-bot/pkg/cache"
	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

func newTestStateService(repo domainState.IStateRepository, at time.Time) *stateService {
	return &stateService{
		repo:  repo,
		cache: cache.New[*domainState.ConversationState](),
		now:   func() time.Time { return at },
	}
}

func TestStateRoundTrip(t *testing.T) {
	repo := newFakeStateRepo()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestStateService(repo, now)

	err := svc.SetState(context.Background(), "user-1", &domainState.ConversationState{
		ActionKind: domainState.ActionAwaitingVerification,
		Payload: domainState.Payload{
			Registration: &domainState.RegistrationData{Email: "a@b.dev", VerificationCode: "123456"},
		},
	})
	assert.NoError(t, err)

	state, err := svc.GetState(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.NotNil(t, state)
	assert.Equal(t, domainState.ActionAwaitingVerification, state.ActionKind)
	assert.Equal(t, "a@b.dev", state.Payload.Registration.Email)
	assert.Equal(t, "123456", state.Payload.Registration.VerificationCode)
}

func TestSetState_AppliesTTLTierPerKind(t *testing.T) {
	repo := newFakeStateRepo()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestStateService(repo, now)

	cases := []struct {
		kind domainState.ActionKind
		ttl  time.Duration
	}{
		{domainState.ActionAwaitingEmail, 15 * time.Minute},
		{domainState.ActionSharingFood, 60 * time.Minute},
		{domainState.ActionSettingRadius, 10 * time.Minute},
		{domainState.ActionKind("unmapped_kind"), domainState.DefaultTTL},
	}

	for _, tc := range cases {
		err := svc.SetState(context.Background(), "user-1", &domainState.ConversationState{ActionKind: tc.kind})
		assert.NoError(t, err)
		assert.Equal(t, now.Add(tc.ttl), repo.records["user-1"].ExpiresAt, "kind %s", tc.kind)
	}
}

func TestGetState_ExpiredSlotIsDeletedAndAbsent(t *testing.T) {
	repo := newFakeStateRepo()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestStateService(repo, now)

	err := svc.SetState(context.Background(), "user-1", &domainState.ConversationState{
		ActionKind: domainState.ActionSettingRadius,
	})
	assert.NoError(t, err)

	svc.now = func() time.Time { return now.Add(11 * time.Minute) }
	state, err := svc.GetState(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Nil(t, state)
	assert.Empty(t, repo.records)
}

func TestSetState_NewStateOverwritesPrevious(t *testing.T) {
	repo := newFakeStateRepo()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestStateService(repo, now)

	assert.NoError(t, svc.SetState(context.Background(), "user-1", &domainState.ConversationState{
		ActionKind: domainState.ActionAwaitingEmail,
	}))
	assert.NoError(t, svc.SetState(context.Background(), "user-1", &domainState.ConversationState{
		ActionKind: domainState.ActionSharingFood,
		Payload:    domainState.Payload{Share: &domainState.ShareDraft{Stage: domainState.ShareStagePhoto}},
	}))

	state, err := svc.GetState(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.NotNil(t, state)
	assert.Equal(t, domainState.ActionSharingFood, state.ActionKind)
	assert.Nil(t, state.Payload.Registration)
}

func TestSetState_NilClearsSlot(t *testing.T) {
	repo := newFakeStateRepo()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestStateService(repo, now)

	assert.NoError(t, svc.SetState(context.Background(), "user-1", &domainState.ConversationState{
		ActionKind: domainState.ActionAwaitingEmail,
	}))
	assert.NoError(t, svc.SetState(context.Background(), "user-1", nil))

	state, err := svc.GetState(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Nil(t, state)
}

func TestGetState_ReadFailureDegradesToAbsent(t *testing.T) {
	repo := newFakeStateRepo()
	repo.getErr = pkgError.StorageError("connection refused")
	svc := newTestStateService(repo, time.Now())

	state, err := svc.GetState(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Nil(t, state)
}

func TestSetState_WriteFailurePropagates(t *testing.T) {
	repo := newFakeStateRepo()
	repo.upsertErr = pkgError.StorageError("disk full")
	svc := newTestStateService(repo, time.Now())

	err := svc.SetState(context.Background(), "user-1", &domainState.ConversationState{
		ActionKind: domainState.ActionAwaitingEmail,
	})
	assert.Error(t, err)
	assert.True(t, pkgError.IsStorage(err))
}

func TestGetState_CorruptPayloadIsDiscarded(t *testing.T) {
	repo := newFakeStateRepo()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo.records["user-1"] = &domainState.StateRecord{
		UserID:    "user-1",
		State:     "{not json",
		ExpiresAt: now.Add(time.Hour),
	}
	svc := newTestStateService(repo, now)

	state, err := svc.GetState(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Nil(t, state)
	assert.Empty(t, repo.records)
}

func TestGetState_SecondReadServedFromWarmCache(t *testing.T) {
	repo := newFakeStateRepo()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestStateService(repo, now)

	assert.NoError(t, svc.SetState(context.Background(), "user-1", &domainState.ConversationState{
		ActionKind: domainState.ActionAwaitingEmail,
	}))
	repo.getCalls = 0

	for i := 0; i < 3; i++ {
		state, err := svc.GetState(context.Background(), "user-1")
		assert.NoError(t, err)
		assert.NotNil(t, state)
	}
	assert.Equal(t, 0, repo.getCalls)
}

package convstate

import (
	"context"
	"time"
)

// ActionKind discriminates which multi-step flow a user is currently in.
type ActionKind string

const (
	ActionAwaitingEmail            ActionKind = "awaiting_email"
	ActionAwaitingVerification     ActionKind = "awaiting_verification"
	ActionAwaitingVerificationLink ActionKind = "awaiting_verification_link"
	ActionSharingFood              ActionKind = "sharing_food"
	ActionSettingRadius            ActionKind = "setting_radius"
	ActionUpdatingProfileLocation  ActionKind = "updating_profile_location"
)

// DefaultTTL applies to any kind without a dedicated tier.
const DefaultTTL = 30 * time.Minute

// ttlTiers: prompts expecting a single short answer should not hold a stale
// session open for long; flows that legitimately span several turns (a
// listing with a photo) get more slack.
var ttlTiers = map[ActionKind]time.Duration{
	ActionAwaitingEmail:            15 * time.Minute,
	ActionAwaitingVerification:     15 * time.Minute,
	ActionAwaitingVerificationLink: 15 * time.Minute,
	ActionSharingFood:              60 * time.Minute,
	ActionSettingRadius:            10 * time.Minute,
	ActionUpdatingProfileLocation:  10 * time.Minute,
}

// TTLFor returns the retention tier for a flow kind.
func TTLFor(kind ActionKind) time.Duration {
	if ttl, ok := ttlTiers[kind]; ok {
		return ttl
	}
	return DefaultTTL
}

// Location is a point shared by the user.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RegistrationData accumulates across the registration flow.
type RegistrationData struct {
	Email            string `json:"email,omitempty"`
	VerificationCode string `json:"verification_code,omitempty"`
}

// Share flow stages.
const (
	ShareStagePhoto       = "photo"
	ShareStageDescription = "description"
	ShareStageLocation    = "location"
)

// ShareDraft accumulates across the sharing_food flow.
type ShareDraft struct {
	Stage       string    `json:"stage"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    *Location `json:"location,omitempty"`
}

// Payload carries only the section relevant to the active flow. Each kind
// owns one section; the others stay nil and are omitted from serialization.
type Payload struct {
	Registration *RegistrationData `json:"registration,omitempty"`
	Share        *ShareDraft       `json:"share,omitempty"`
	RadiusKm     *float64          `json:"radius_km,omitempty"`
	Location     *Location         `json:"location,omitempty"`
}

// ConversationState is the single live slot per user. A new state always
// overwrites whatever was there; flows do not stack.
type ConversationState struct {
	UserID     string     `json:"user_id"`
	ActionKind ActionKind `json:"action_kind"`
	Payload    Payload    `json:"payload"`
	ExpiresAt  time.Time  `json:"expires_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// StateRecord is the durable row shape: the kind and payload travel together
// in one serialized column.
type StateRecord struct {
	UserID    string    `gorm:"primaryKey;column:user_id;type:TEXT NOT NULL"`
	State     string    `gorm:"column:state;type:TEXT NOT NULL"`
	ExpiresAt time.Time `gorm:"column:expires_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName implements the GORM tabler interface.
func (StateRecord) TableName() string { return "conversation_states" }

type IStateRepository interface {
	Get(ctx context.Context, userID string) (*StateRecord, error)
	Upsert(ctx context.Context, record *StateRecord) error
	Delete(ctx context.Context, userID string) error
}

type IStateUsecase interface {
	// GetState returns the live state or nil. Expired states are deleted on
	// read and treated as absent; read errors degrade to "no state".
	GetState(ctx context.Context, userID string) (*ConversationState, error)
	// SetState upserts the user's slot, or deletes it when state is nil.
	// Write failures propagate: losing a write silently would corrupt the flow.
	SetState(ctx context.Context, userID string, state *ConversationState) error
}

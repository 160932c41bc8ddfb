package ratelimit

import (
	"context"
	"time"
)

// RateLimitRecord is one user's fixed window in the durable store. It must be
// correct across instances: a user's next event may land on another replica.
type RateLimitRecord struct {
	UserID       string    `gorm:"primaryKey;column:user_id;type:TEXT NOT NULL"`
	RequestCount int       `gorm:"column:request_count;not null"`
	WindowStart  time.Time `gorm:"column:window_start;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;index"`
}

// TableName implements the GORM tabler interface.
func (RateLimitRecord) TableName() string { return "rate_limits" }

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed           bool      `json:"allowed"`
	Remaining         int       `json:"remaining"`
	ResetAt           time.Time `json:"reset_at"`
	RetryAfterSeconds int       `json:"retry_after_seconds,omitempty"`
}

// Config tunes the limiter.
type Config struct {
	MaxRequests  int
	Window       time.Duration
	CleanupAfter time.Duration
}

// DefaultConfig allows 30 requests per minute and drops durable rows that
// have been idle for 5 minutes.
var DefaultConfig = Config{
	MaxRequests:  30,
	Window:       60 * time.Second,
	CleanupAfter: 5 * time.Minute,
}

// IRateLimitRepository is the durable persistence port.
type IRateLimitRepository interface {
	Get(ctx context.Context, userID string) (*RateLimitRecord, error)
	Save(ctx context.Context, record *RateLimitRecord) error
	DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ICounterStore is the best-effort fast path. Incr bumps the user's counter
// for the current window and reports the post-increment count together with
// the moment the window resets. Implementations may be approximate.
type ICounterStore interface {
	Incr(ctx context.Context, userID string) (count int, resetAt time.Time, err error)
}

type IRateLimitUsecase interface {
	// Check consults the durable store. It fails open on storage errors.
	Check(ctx context.Context, userID string) (Decision, error)
	// FastCheck consults the fast path only. Never authoritative.
	FastCheck(ctx context.Context, userID string) Decision
	// StartCleanup prunes stale durable rows until ctx is done.
	StartCleanup(ctx context.Context)
}

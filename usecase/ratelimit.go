package usecase

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	domainRateLimit "github.com/sharebite/sharebite-bot/domains/ratelimit"
)

type rateLimitService struct {
	repo domainRateLimit.IRateLimitRepository
	fast domainRateLimit.ICounterStore
	cfg  domainRateLimit.Config

	now func() time.Time
}

func NewRateLimitService(repo domainRateLimit.IRateLimitRepository, fast domainRateLimit.ICounterStore, cfg domainRateLimit.Config) domainRateLimit.IRateLimitUsecase {
	if cfg.MaxRequests <= 0 {
		cfg = domainRateLimit.DefaultConfig
	}
	return &rateLimitService{
		repo: repo,
		fast: fast,
		cfg:  cfg,
		now:  time.Now,
	}
}

// Check runs the durable fixed-window algorithm. If the row store is
// unreachable the request is allowed and nothing is written: availability of
// the bot outweighs strict enforcement during a storage outage.
func (s *rateLimitService) Check(ctx context.Context, userID string) (domainRateLimit.Decision, error) {
	now := s.now()

	record, err := s.repo.Get(ctx, userID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("[RATELIMIT] store unreachable, failing open")
		return s.failOpen(now), nil
	}

	// Absent record or elapsed window: start fresh with count 1.
	if record == nil || now.Sub(record.WindowStart) >= s.cfg.Window {
		fresh := &domainRateLimit.RateLimitRecord{
			UserID:       userID,
			RequestCount: 1,
			WindowStart:  now,
		}
		if err := s.repo.Save(ctx, fresh); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"error":   err,
			}).Warn("[RATELIMIT] failed to persist fresh window, failing open")
			return s.failOpen(now), nil
		}
		return domainRateLimit.Decision{
			Allowed:   true,
			Remaining: s.cfg.MaxRequests - 1,
			ResetAt:   now.Add(s.cfg.Window),
		}, nil
	}

	resetAt := record.WindowStart.Add(s.cfg.Window)

	if record.RequestCount >= s.cfg.MaxRequests {
		retryAfter := int(math.Ceil(resetAt.Sub(now).Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		return domainRateLimit.Decision{
			Allowed:           false,
			Remaining:         0,
			ResetAt:           resetAt,
			RetryAfterSeconds: retryAfter,
		}, nil
	}

	record.RequestCount++
	if err := s.repo.Save(ctx, record); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("[RATELIMIT] failed to persist increment, failing open")
		return s.failOpen(now), nil
	}

	return domainRateLimit.Decision{
		Allowed:   true,
		Remaining: s.cfg.MaxRequests - record.RequestCount,
		ResetAt:   resetAt,
	}, nil
}

// FastCheck consults the cheap counter tier only. Call sites that cannot
// await a durable round trip use this; it is approximate, never authoritative
// for multi-instance deployments.
func (s *rateLimitService) FastCheck(ctx context.Context, userID string) domainRateLimit.Decision {
	count, resetAt, err := s.fast.Incr(ctx, userID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("[RATELIMIT] fast path unavailable, failing open")
		return s.failOpen(s.now())
	}

	if count > s.cfg.MaxRequests {
		retryAfter := int(math.Ceil(time.Until(resetAt).Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		return domainRateLimit.Decision{
			Allowed:           false,
			Remaining:         0,
			ResetAt:           resetAt,
			RetryAfterSeconds: retryAfter,
		}
	}

	return domainRateLimit.Decision{
		Allowed:   true,
		Remaining: s.cfg.MaxRequests - count,
		ResetAt:   resetAt,
	}
}

// StartCleanup prunes durable rows idle longer than CleanupAfter to bound
// table growth. Expiry on read already keeps the limiter correct.
func (s *rateLimitService) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.CleanupAfter)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := s.now().Add(-s.cfg.CleanupAfter)
				removed, err := s.repo.DeleteUpdatedBefore(ctx, cutoff)
				if err != nil {
					logrus.Warnf("[RATELIMIT] cleanup failed: %v", err)
					continue
				}
				if removed > 0 {
					logrus.Infof("[RATELIMIT] cleanup removed %d stale record(s)", removed)
				}
			}
		}
	}()
}

func (s *rateLimitService) failOpen(now time.Time) domainRateLimit.Decision {
	return domainRateLimit.Decision{
		Allowed:   true,
		Remaining: s.cfg.MaxRequests - 1,
		ResetAt:   now.Add(s.cfg.Window),
	}
}

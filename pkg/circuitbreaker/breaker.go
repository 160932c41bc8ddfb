package circuitbreaker

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

// State of a protected resource.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "CLOSED"
	}
}

// Config tunes one protected resource.
type Config struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

// DefaultConfig matches the messaging platform policy.
var DefaultConfig = Config{
	FailureThreshold: 5,
	ResetTimeout:     60 * time.Second,
}

type record struct {
	state               State
	consecutiveFailures int
	lastFailureAt       time.Time
	openedAt            time.Time
}

// RecordSnapshot is a read-only view of one resource for monitoring.
type RecordSnapshot struct {
	Resource            string    `json:"resource"`
	State               string    `json:"state"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastFailureAt       time.Time `json:"last_failure_at"`
	OpenedAt            time.Time `json:"opened_at"`
}

// Breaker tracks failures per named resource and stops issuing calls to a
// resource that is currently failing. State is per-instance and lost on
// restart; that is accepted, the breaker exists for latency protection, not
// cross-instance guarantees.
type Breaker struct {
	mu      sync.Mutex
	records map[string]*record

	now func() time.Time
}

func New() *Breaker {
	return &Breaker{
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Execute runs op guarded by the circuit for resource.
//
// While OPEN, calls are rejected with a CircuitOpenError without invoking op.
// After ResetTimeout elapses, exactly one call is let through as a probe;
// its outcome decides between CLOSED and a fresh OPEN period. Errors that
// are the caller's fault (4xx-class, validation) never count as failures:
// they would recur regardless of upstream health.
func (b *Breaker) Execute(resource string, cfg Config, op func() error) error {
	b.mu.Lock()
	rec, ok := b.records[resource]
	if !ok {
		rec = &record{state: StateClosed}
		b.records[resource] = rec
	}

	probe := false
	switch rec.state {
	case StateOpen:
		if b.now().Sub(rec.openedAt) < cfg.ResetTimeout {
			b.mu.Unlock()
			return pkgError.CircuitOpenError(fmt.Sprintf("circuit open for resource %s", resource))
		}
		rec.state = StateHalfOpen
		probe = true
		logrus.Infof("[CIRCUIT] %s entering HALF_OPEN, allowing probe call", resource)
	case StateHalfOpen:
		// A probe is already in flight; only one trial call is permitted.
		b.mu.Unlock()
		return pkgError.CircuitOpenError(fmt.Sprintf("circuit half-open for resource %s, probe in flight", resource))
	}
	b.mu.Unlock()

	err := op()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if rec.state != StateClosed {
			logrus.Infof("[CIRCUIT] %s recovered, back to CLOSED", resource)
		}
		rec.state = StateClosed
		rec.consecutiveFailures = 0
		return nil
	}

	if pkgError.IsClientFault(err) {
		// The upstream answered; only the request was bad. The streak is
		// left untouched: a 4xx between 5xx responses says nothing about
		// upstream health. A probe that drew a 4xx still proved the
		// upstream reachable, so it closes the circuit.
		if probe {
			logrus.Infof("[CIRCUIT] %s probe drew a client fault, back to CLOSED", resource)
			rec.state = StateClosed
			rec.consecutiveFailures = 0
		}
		return err
	}

	rec.consecutiveFailures++
	rec.lastFailureAt = b.now()

	if probe {
		rec.state = StateOpen
		rec.openedAt = b.now()
		logrus.WithFields(logrus.Fields{
			"resource": resource,
			"failures": rec.consecutiveFailures,
		}).Warn("[CIRCUIT] probe failed, reopening circuit")
		return err
	}

	if rec.state == StateClosed && rec.consecutiveFailures >= cfg.FailureThreshold {
		rec.state = StateOpen
		rec.openedAt = b.now()
		logrus.WithFields(logrus.Fields{
			"resource": resource,
			"failures": rec.consecutiveFailures,
		}).Warn("[CIRCUIT] failure threshold reached, opening circuit")
	}

	return err
}

// Snapshot returns the current state of every tracked resource.
func (b *Breaker) Snapshot() []RecordSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]RecordSnapshot, 0, len(b.records))
	for name, rec := range b.records {
		out = append(out, RecordSnapshot{
			Resource:            name,
			State:               rec.state.String(),
			ConsecutiveFailures: rec.consecutiveFailures,
			LastFailureAt:       rec.lastFailureAt,
			OpenedAt:            rec.openedAt,
		})
	}
	return out
}

package usecase

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/gamewiki/issuestore"
	"github.com/gamewiki/issuestore/internal/domain"
)

const (
	fieldCount       = "count"
	fieldWindowStart = "windowStart"
)

// HashIdentifier normalizes an identifier such as an email address and
// returns a hex digest usable as a registry key.
func HashIdentifier(identifier string) string {
	sum := blake2b.Sum256([]byte(strings.ToLower(strings.TrimSpace(identifier))))
	return hex.EncodeToString(sum[:])
}

// RateLimitUsecase is a fixed-window counter persisted in the registry. It
// admits bursts at window boundaries.
type RateLimitUsecase struct {
	registry RegistryRepository
	locker   Locker
	now      func() time.Time
}

// NewRateLimitUsecase builds the limiter. locker may be nil.
func NewRateLimitUsecase(registry RegistryRepository, locker Locker) *RateLimitUsecase {
	return &RateLimitUsecase{registry: registry, locker: locker, now: time.Now}
}

func (uc *RateLimitUsecase) CheckAndIncrement(ctx context.Context, identifierHash string, maxCount int, window time.Duration) (domain.RateLimitDecision, error) {
	if !issuestore.IsValidKey(identifierHash) {
		return domain.RateLimitDecision{}, domain.ValidationError{Field: "identifier", Reason: "must be a hashed identifier"}
	}
	if maxCount <= 0 || window <= 0 {
		return domain.RateLimitDecision{}, domain.ValidationError{Field: "limit", Reason: "max and window must be positive"}
	}

	if uc.locker != nil {
		unlock, err := uc.locker.Lock(ctx, issuestore.RecordTypeRateLimits+":"+identifierHash)
		if err != nil {
			return domain.RateLimitDecision{}, err
		}
		defer unlock()
	}

	// another instance may have written since our cache filled
	ctx = domain.WithFreshReads(ctx)

	now := uc.now().UTC()
	current, err := uc.registry.GetOne(ctx, issuestore.RecordTypeRateLimits, identifierHash)
	if err != nil {
		return domain.RateLimitDecision{}, err
	}

	state, ok := windowFromRecord(current)
	switch {
	case !ok || now.Sub(state.WindowStart) >= window:
		state = domain.RateLimitWindow{Count: 1, WindowStart: now}
	case state.Count < maxCount:
		state.Count++
	default:
		return domain.RateLimitDecision{
			Allowed:   false,
			Count:     state.Count,
			Remaining: 0,
			ResetAt:   state.WindowStart.Add(window),
		}, nil
	}

	if err := uc.registry.Save(ctx, issuestore.RecordTypeRateLimits, identifierHash, windowToRecord(state)); err != nil {
		return domain.RateLimitDecision{}, err
	}

	return domain.RateLimitDecision{
		Allowed:   true,
		Count:     state.Count,
		Remaining: maxCount - state.Count,
		ResetAt:   state.WindowStart.Add(window),
	}, nil
}

func windowFromRecord(record domain.Record) (domain.RateLimitWindow, bool) {
	if record == nil {
		return domain.RateLimitWindow{}, false
	}
	start := record.Time(fieldWindowStart)
	if start.IsZero() {
		return domain.RateLimitWindow{}, false
	}
	return domain.RateLimitWindow{Count: record.Int(fieldCount), WindowStart: start}, true
}

func windowToRecord(w domain.RateLimitWindow) domain.Record {
	return domain.Record{
		fieldCount:       w.Count,
		fieldWindowStart: issuestore.FormatTimestamp(w.WindowStart),
	}
}

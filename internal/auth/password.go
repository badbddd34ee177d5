package auth

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultBcryptCost matches the cost the Auth service hashes with.
const DefaultBcryptCost = 10

// PasswordHasher hashes and verifies passwords with bcrypt. The number of
// concurrent bcrypt operations is capped so a burst of hashing cannot take
// every CPU away from other requests.
type PasswordHasher struct {
	cost  int
	slots *semaphore.Weighted
}

// NewPasswordHasher creates a hasher. A maxConcurrent of zero or less uses GOMAXPROCS.
func NewPasswordHasher(cost int, maxConcurrent int64) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = int64(runtime.GOMAXPROCS(0))
	}
	return &PasswordHasher{
		cost:  cost,
		slots: semaphore.NewWeighted(maxConcurrent),
	}
}

// Hash returns a salted bcrypt hash of secret. Two calls with the same secret
// return different hashes.
func (h *PasswordHasher) Hash(ctx context.Context, secret string) (string, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hash slot: %w", err)
	}
	defer h.slots.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether secret matches hash. The comparison is constant time.
// An error means no comparison took place, e.g. the context ended while
// waiting for a slot.
func (h *PasswordHasher) Verify(ctx context.Context, secret, hash string) (bool, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("acquire hash slot: %w", err)
	}
	defer h.slots.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil, nil
}

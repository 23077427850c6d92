// file: services/flag_service.go
package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/lqSky7/pwncore/utils"
)

const maxFlagAttempts = 32

// FlagHistory records every flag ever issued. Claim atomically reserves a
// candidate, returning false when it was seen before; a once-issued flag is
// never handed out again, even if its instance failed to start.
type FlagHistory interface {
	Claim(ctx context.Context, flag string) (bool, error)
}

// MemoryFlagHistory keeps the issued set in process memory.
type MemoryFlagHistory struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryFlagHistory() *MemoryFlagHistory {
	return &MemoryFlagHistory{seen: make(map[string]struct{})}
}

func (h *MemoryFlagHistory) Claim(ctx context.Context, flag string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.seen[flag]; ok {
		return false, nil
	}
	h.seen[flag] = struct{}{}
	return true, nil
}

// RedisFlagHistory backs the issued set with a Redis SET, so uniqueness
// holds across restarts and replicas. SADD doubles as the atomic claim.
type RedisFlagHistory struct {
	rdb *redis.Client
	key string
}

func NewRedisFlagHistory(rdb *redis.Client) *RedisFlagHistory {
	return &RedisFlagHistory{rdb: rdb, key: "pwncore:issued_flags"}
}

func (h *RedisFlagHistory) Claim(ctx context.Context, flag string) (bool, error) {
	added, err := h.rdb.SAdd(ctx, h.key, flag).Result()
	if err != nil {
		return false, err
	}
	return added == 1, nil
}

// FlagGenerator mints per-instance flags: the platform prefix wrapped around
// three random token segments, e.g. C0D{a1b2c3d4e5f6-...-...}.
type FlagGenerator struct {
	prefix  string
	history FlagHistory
}

func NewFlagGenerator(prefix string, history FlagHistory) *FlagGenerator {
	return &FlagGenerator{prefix: prefix, history: history}
}

// Generate returns a flag never issued before. Entropy failure or exhausting
// the collision retries aborts the whole provisioning attempt.
func (g *FlagGenerator) Generate(ctx context.Context, teamID, problemID uint32) (string, error) {
	for attempt := 0; attempt < maxFlagAttempts; attempt++ {
		var parts [3]string
		for i := range parts {
			token, err := utils.RandomToken(12)
			if err != nil {
				return "", fmt.Errorf("flag for team %d problem %d: %w", teamID, problemID, err)
			}
			parts[i] = token
		}
		flag := fmt.Sprintf("%s{%s-%s-%s}", g.prefix, parts[0], parts[1], parts[2])

		fresh, err := g.history.Claim(ctx, flag)
		if err != nil {
			return "", fmt.Errorf("flag history for team %d problem %d: %w", teamID, problemID, err)
		}
		if fresh {
			return flag, nil
		}
	}
	return "", fmt.Errorf("flag for team %d problem %d: exhausted %d attempts without a unique value", teamID, problemID, maxFlagAttempts)
}

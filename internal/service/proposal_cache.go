package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/engine"
)

// scheduleProposal is a cached, not-yet-persisted scheduling run: the
// engine result plus enough of its inputs (the TA roster) to support
// ValidateSwap without re-deriving it from the request.
type scheduleProposal struct {
	ProposalID  string
	TermID      string
	ClassID     string
	Result      engine.Result
	TAs         []engine.TA
	RequestedAt time.Time
}

// proposalCache holds proposals between Generate and Save/ValidateSwap.
// It prefers the shared Redis-backed CacheService when one is enabled,
// falling back to an in-process TTL map otherwise — the same
// degrade-gracefully shape as CacheService.Enabled() itself.
type proposalCache struct {
	backend *CacheService
	ttl     time.Duration
	logger  *zap.Logger

	mu    sync.RWMutex
	local map[string]scheduleProposal
}

func newProposalCache(backend *CacheService, ttl time.Duration, logger *zap.Logger) *proposalCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &proposalCache{
		backend: backend,
		ttl:     ttl,
		logger:  logger,
		local:   make(map[string]scheduleProposal),
	}
}

func proposalCacheKey(id string) string {
	return fmt.Sprintf("schedule:proposal:%s", id)
}

func (c *proposalCache) Save(ctx context.Context, proposal scheduleProposal) error {
	if c.backend.Enabled() {
		if err := c.backend.Set(ctx, proposalCacheKey(proposal.ProposalID), proposal, c.ttl); err != nil {
			if c.logger != nil {
				c.logger.Warn("failed to write schedule proposal to cache backend, keeping it in-process only", zap.Error(err))
			}
		} else {
			return nil
		}
	}
	c.mu.Lock()
	c.local[proposal.ProposalID] = proposal
	c.mu.Unlock()
	return nil
}

func (c *proposalCache) Get(ctx context.Context, id string) (scheduleProposal, bool) {
	if c.backend.Enabled() {
		var proposal scheduleProposal
		if hit, err := c.backend.Get(ctx, proposalCacheKey(id), &proposal); err == nil && hit {
			return proposal, true
		}
	}
	c.mu.RLock()
	proposal, ok := c.local[id]
	c.mu.RUnlock()
	if !ok {
		return scheduleProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > c.ttl {
		c.Delete(ctx, id)
		return scheduleProposal{}, false
	}
	return proposal, true
}

func (c *proposalCache) Delete(ctx context.Context, id string) {
	if c.backend.Enabled() {
		_ = c.backend.repo.DeleteByPattern(ctx, proposalCacheKey(id))
	}
	c.mu.Lock()
	delete(c.local, id)
	c.mu.Unlock()
}

package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

// Cache keeps successful outcomes keyed by model and prompt. Safe for concurrent use.
type Cache struct {
	lru *expirable.LRU[string, domain.AnalysisOutcome]
}

func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{lru: expirable.NewLRU[string, domain.AnalysisOutcome](size, nil, ttl)}
}

func (c *Cache) Get(model, prompt string) (domain.AnalysisOutcome, bool) {
	return c.lru.Get(cacheKey(model, prompt))
}

func (c *Cache) Add(model, prompt string, outcome domain.AnalysisOutcome) {
	if !outcome.Succeeded() {
		return
	}
	c.lru.Add(cacheKey(model, prompt), outcome)
}

func (c *Cache) Len() int {
	return c.lru.Len()
}

func cacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return model + ":" + hex.EncodeToString(sum[:])
}

// Package lookup coordinates registry and enrichment checks for a single
// company and caches the merged outcome.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/cache"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/config"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/enrich"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/model"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/registry"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/websearch"
)

const cacheTTL = 24 * time.Hour

// Outcome is the merged result of a registry and metadata lookup.
type Outcome struct {
	Found     bool                              `json:"found"`
	Breakdown map[string]model.ConfidenceRecord `json:"breakdown"`
}

// Enricher is the dataset-presence check the engine folds into the
// breakdown alongside registry evidence.
type Enricher interface {
	CheckRegistrySignal(ctx context.Context, req model.VerificationRequest) model.ConfidenceRecord
}

// Engine runs the combined registry and enrichment lookup.
type Engine struct {
	searcher websearch.Searcher
	enricher Enricher
	cache    cache.Cache
	cfg      config.ScoringConfig
}

// NewEngine creates a lookup engine.
func NewEngine(searcher websearch.Searcher, enricher Enricher, c cache.Cache, cfg config.ScoringConfig) *Engine {
	return &Engine{searcher: searcher, enricher: enricher, cache: c, cfg: cfg}
}

// cacheKey builds the lookup cache key. The identifier slot is "noid" when
// absent so the two shapes never collide.
func cacheKey(req model.VerificationRequest) string {
	id := strings.ToLower(strings.TrimSpace(req.RegistryID))
	if id == "" {
		id = "noid"
	}
	return fmt.Sprintf("registry:signal:%s:%s:%s",
		strings.ToLower(strings.TrimSpace(req.Country)),
		id,
		strings.ToLower(strings.TrimSpace(req.Name)),
	)
}

// CheckRegistryAndMetadata runs the registry providers (when an identifier
// is present) and the enrichment check concurrently, merges the per-domain
// records, and caches the merged outcome for 24 hours. The overall Found
// flag folds registry evidence only; enrichment corroborates but never
// flips it.
func (e *Engine) CheckRegistryAndMetadata(ctx context.Context, req model.VerificationRequest) Outcome {
	key := cacheKey(req)
	if raw, ok := e.cache.Get(ctx, key); ok {
		var cached Outcome
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			zap.L().Debug("lookup: cache hit", zap.String("key", key))
			return cached
		}
		e.cache.Delete(ctx, key)
	}

	breakdown := make(map[string]model.ConfidenceRecord)
	var mu sync.Mutex
	var wg sync.WaitGroup

	if req.RegistryID != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			provider := registry.NewProvider(registry.ForCountry(req.Country), e.searcher, e.cfg)
			records := provider.CheckRegistrySignal(ctx, req.Name, req.RegistryID)
			mu.Lock()
			for domain, rec := range records {
				breakdown[domain] = rec
			}
			mu.Unlock()
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		rec := e.enricher.CheckRegistrySignal(ctx, req)
		mu.Lock()
		breakdown[rec.Domain] = rec
		mu.Unlock()
	}()

	wg.Wait()

	outcome := Outcome{Breakdown: breakdown}
	for domain, rec := range breakdown {
		if domain == enrich.SignalDomain {
			continue
		}
		if rec.Found {
			outcome.Found = true
			break
		}
	}

	if raw, err := json.Marshal(outcome); err == nil {
		e.cache.Set(ctx, key, string(raw), cacheTTL)
	}
	return outcome
}

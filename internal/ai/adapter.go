// Package ai adapts a ranked list of language models into a single
// generate-JSON operation with caching, key rotation, and graceful
// degradation when every model fails.
package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/cache"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/resilience"
	"github.com/Rithesh077/IMSLegitimacyEngine/pkg/anthropic"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultCacheTTL  = 24 * time.Hour
	defaultMaxTokens = 1024
	serverErrorPause = 2 * time.Second
	maxReasonLength  = 200
)

// ClientFactory builds a model client for an API key. Injected so tests
// can substitute fakes and so key rotation can rebuild the client.
type ClientFactory func(apiKey string) anthropic.Client

// FailureReport explains why every model attempt failed.
type FailureReport struct {
	Reasons []string
}

func (f *FailureReport) Error() string {
	return "ai: all models failed: " + strings.Join(f.Reasons, "; ")
}

// Result is the outcome of a Generate call. Exactly one of Data and Err
// is set.
type Result struct {
	Data map[string]any
	Err  *FailureReport
}

// Adapter fans a prompt across a ranked model list.
type Adapter struct {
	factory   ClientFactory
	ring      *KeyRing
	models    []string
	cache     cache.Cache
	timeout   time.Duration
	cacheTTL  time.Duration
	maxTokens int64

	// sleepFunc allows test injection of the server-error pause.
	sleepFunc func(ctx context.Context, d time.Duration)
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) { a.timeout = d }
}

// WithCacheTTL overrides the response cache TTL.
func WithCacheTTL(d time.Duration) AdapterOption {
	return func(a *Adapter) { a.cacheTTL = d }
}

// WithClientFactory overrides how model clients are built.
func WithClientFactory(f ClientFactory) AdapterOption {
	return func(a *Adapter) { a.factory = f }
}

// NewAdapter creates an adapter over the given key pool and ranked model
// list (cheapest and fastest first).
func NewAdapter(keys, models []string, c cache.Cache, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		factory:   anthropic.NewClient,
		ring:      NewKeyRing(keys),
		models:    models,
		cache:     c,
		timeout:   defaultTimeout,
		cacheTTL:  defaultCacheTTL,
		maxTokens: defaultMaxTokens,
		sleepFunc: sleepCtx,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Ready reports whether at least one API key is configured.
func (a *Adapter) Ready() bool {
	return !a.ring.Empty()
}

func promptCacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "ai:prompt:" + hex.EncodeToString(sum[:])
}

// Generate sends the prompt to each model in rank order until one returns
// a parseable JSON object. Identical prompts within the cache TTL are
// served from cache without touching any model. Quota errors rotate the
// key ring before the next model attempt; server errors pause briefly.
func (a *Adapter) Generate(ctx context.Context, prompt string) Result {
	if a.ring.Empty() {
		return Result{Err: &FailureReport{Reasons: []string{"no API key configured"}}}
	}

	key := promptCacheKey(prompt)
	if raw, ok := a.cache.Get(ctx, key); ok {
		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err == nil {
			zap.L().Debug("ai: prompt cache hit")
			return Result{Data: data}
		}
		a.cache.Delete(ctx, key)
	}

	var reasons []string
	for _, model := range a.models {
		if ctx.Err() != nil {
			reasons = append(reasons, fmt.Sprintf("%s: %s", model, truncate(ctx.Err().Error())))
			break
		}

		data, err := a.tryModel(ctx, model, prompt)
		if err == nil {
			if raw, merr := json.Marshal(data); merr == nil {
				a.cache.Set(ctx, key, string(raw), a.cacheTTL)
			}
			return Result{Data: data}
		}

		reasons = append(reasons, fmt.Sprintf("%s: %s", model, truncate(err.Error())))

		status := anthropic.StatusCode(err)
		switch {
		case status == 429 || status == 529 || resilience.IsQuota(err):
			a.ring.Rotate()
			zap.L().Warn("ai: quota exhausted, rotating key",
				zap.String("model", model),
				zap.Int("pool_size", a.ring.Len()),
			)
		case status >= 500 || resilience.IsTransient(err):
			a.sleepFunc(ctx, serverErrorPause)
		}
	}

	zap.L().Error("ai: all models failed", zap.Strings("reasons", reasons))
	return Result{Err: &FailureReport{Reasons: reasons}}
}

func (a *Adapter) tryModel(ctx context.Context, model, prompt string) (map[string]any, error) {
	client := a.factory(a.ring.Current())

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := client.CreateMessage(callCtx, anthropic.MessageRequest{
		Model:     model,
		MaxTokens: a.maxTokens,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}
	return ParseJSONObject(resp.Text())
}

func truncate(s string) string {
	if len(s) <= maxReasonLength {
		return s
	}
	return s[:maxReasonLength]
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

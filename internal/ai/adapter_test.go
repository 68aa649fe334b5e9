package ai

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/cache"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/resilience"
	"github.com/Rithesh077/IMSLegitimacyEngine/pkg/anthropic"
)

type scriptedCall struct {
	key   string
	model string
}

// scriptedClient returns canned responses per model, recording which key
// was used for each call.
type scriptedClient struct {
	mu        sync.Mutex
	calls     []scriptedCall
	responses map[string]string
	errors    map[string]error
}

func (s *scriptedClient) factory(apiKey string) anthropic.Client {
	return &scriptedClientBound{parent: s, key: apiKey}
}

type scriptedClientBound struct {
	parent *scriptedClient
	key    string
}

func (b *scriptedClientBound) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	s := b.parent
	s.mu.Lock()
	s.calls = append(s.calls, scriptedCall{key: b.key, model: req.Model})
	s.mu.Unlock()
	if err, ok := s.errors[req.Model]; ok {
		return nil, err
	}
	text := s.responses[req.Model]
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}, nil
}

func newTestAdapter(s *scriptedClient, keys, models []string) *Adapter {
	a := NewAdapter(keys, models, cache.NewMemory(),
		WithClientFactory(s.factory),
		WithTimeout(time.Second),
	)
	a.sleepFunc = func(context.Context, time.Duration) {}
	return a
}

func TestGenerateSuccessFirstModel(t *testing.T) {
	s := &scriptedClient{responses: map[string]string{
		"haiku": `{"trust_score": 80}`,
	}}
	a := newTestAdapter(s, []string{"k1"}, []string{"haiku", "sonnet"})

	res := a.Generate(context.Background(), "assess acme")
	require.Nil(t, res.Err)
	assert.Equal(t, float64(80), res.Data["trust_score"])
	require.Len(t, s.calls, 1)
	assert.Equal(t, "k1", s.calls[0].key)
}

func TestGenerateFallsThroughModels(t *testing.T) {
	s := &scriptedClient{
		errors:    map[string]error{"haiku": eris.New("boom")},
		responses: map[string]string{"sonnet": "```json\n{\"ok\": true}\n```"},
	}
	a := newTestAdapter(s, []string{"k1"}, []string{"haiku", "sonnet"})

	res := a.Generate(context.Background(), "assess acme")
	require.Nil(t, res.Err)
	assert.Equal(t, true, res.Data["ok"])
	assert.Len(t, s.calls, 2)
}

func TestGenerateRotatesKeyOnQuota(t *testing.T) {
	s := &scriptedClient{
		errors: map[string]error{
			"haiku":  resilience.NewTransientError(eris.New("rate limit exceeded"), 429),
			"sonnet": resilience.NewTransientError(eris.New("quota exhausted"), 429),
		},
		responses: map[string]string{"opus": `{"ok": true}`},
	}
	a := newTestAdapter(s, []string{"k1", "k2", "k3"}, []string{"haiku", "sonnet", "opus"})

	res := a.Generate(context.Background(), "assess acme")
	require.Nil(t, res.Err)
	require.Len(t, s.calls, 3)
	assert.Equal(t, "k1", s.calls[0].key)
	assert.Equal(t, "k2", s.calls[1].key)
	assert.Equal(t, "k3", s.calls[2].key)
}

func TestGenerateAllModelsFail(t *testing.T) {
	s := &scriptedClient{errors: map[string]error{
		"haiku":  eris.New("model error one"),
		"sonnet": eris.New("model error two"),
	}}
	a := newTestAdapter(s, []string{"k1"}, []string{"haiku", "sonnet"})

	res := a.Generate(context.Background(), "assess acme")
	require.NotNil(t, res.Err)
	require.Len(t, res.Err.Reasons, 2)
	assert.Contains(t, res.Err.Reasons[0], "haiku")
	assert.Contains(t, res.Err.Reasons[1], "sonnet")
}

func TestGenerateUnparseableResponseMovesOn(t *testing.T) {
	s := &scriptedClient{responses: map[string]string{
		"haiku":  "I cannot help with that.",
		"sonnet": `{"ok": true}`,
	}}
	a := newTestAdapter(s, []string{"k1"}, []string{"haiku", "sonnet"})

	res := a.Generate(context.Background(), "assess acme")
	require.Nil(t, res.Err)
	assert.Equal(t, true, res.Data["ok"])
}

func TestGenerateCachesResponse(t *testing.T) {
	s := &scriptedClient{responses: map[string]string{"haiku": `{"ok": true}`}}
	a := newTestAdapter(s, []string{"k1"}, []string{"haiku"})

	first := a.Generate(context.Background(), "assess acme")
	second := a.Generate(context.Background(), "assess acme")

	require.Nil(t, first.Err)
	require.Nil(t, second.Err)
	assert.Equal(t, first.Data, second.Data)
	assert.Len(t, s.calls, 1)

	// A different prompt misses the cache.
	a.Generate(context.Background(), "assess globex")
	assert.Len(t, s.calls, 2)
}

func TestGenerateWithoutKeys(t *testing.T) {
	s := &scriptedClient{responses: map[string]string{"haiku": `{"ok": true}`}}
	a := newTestAdapter(s, nil, []string{"haiku"})

	assert.False(t, a.Ready())
	res := a.Generate(context.Background(), "assess acme")
	require.NotNil(t, res.Err)
	assert.Contains(t, res.Err.Reasons[0], "no API key")
	assert.Empty(t, s.calls)
}

func TestKeyRingRotation(t *testing.T) {
	r := NewKeyRing([]string{"a", "", "b", "c"})
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, "a", r.Current())
	assert.Equal(t, "b", r.Rotate())
	assert.Equal(t, "c", r.Rotate())
	assert.Equal(t, "a", r.Rotate())
}

func TestKeyRingEmpty(t *testing.T) {
	r := NewKeyRing(nil)
	assert.True(t, r.Empty())
	assert.Empty(t, r.Current())
	assert.Empty(t, r.Rotate())
}

func TestKeyRingConcurrentRotation(t *testing.T) {
	r := NewKeyRing([]string{"a", "b", "c"})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k := r.Rotate()
			assert.NotEmpty(t, k)
		}()
	}
	wg.Wait()
	assert.NotEmpty(t, r.Current())
}

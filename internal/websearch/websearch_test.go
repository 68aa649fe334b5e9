package websearch

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/config"
	"github.com/Rithesh077/IMSLegitimacyEngine/pkg/duckduckgo"
)

type fakeSearchClient struct {
	results map[string][]duckduckgo.Result
	err     error
	queries []string
}

func (f *fakeSearchClient) Search(_ context.Context, query string, maxResults int) ([]duckduckgo.Result, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	rs := f.results[query]
	if len(rs) > maxResults {
		rs = rs[:maxResults]
	}
	return rs, nil
}

func scoringDefaults() config.ScoringConfig {
	return config.ScoringConfig{
		OwnershipThreshold:         70,
		AssociationEntityThreshold: 80,
		AssociationPairThreshold:   75,
	}
}

func TestSearchWebSwallowsErrors(t *testing.T) {
	fake := &fakeSearchClient{err: eris.New("search exhausted")}
	v := NewVerifier(fake, scoringDefaults(), 5)

	hits := v.SearchWeb(context.Background(), "acme", 5)
	assert.Empty(t, hits)
}

func TestVerifyOwnershipMatch(t *testing.T) {
	fake := &fakeSearchClient{results: map[string][]duckduckgo.Result{
		"https://acme.example": {
			{Title: "Acme Solutions | Official Site", Link: "https://acme.example"},
		},
	}}
	v := NewVerifier(fake, scoringDefaults(), 5)

	sig := v.VerifyOwnership(context.Background(), "Acme Solutions", "https://acme.example")
	assert.True(t, sig.Verified)
	assert.Equal(t, "https://acme.example", sig.Source)
	assert.Greater(t, sig.Score, 70)
}

func TestVerifyOwnershipMismatch(t *testing.T) {
	fake := &fakeSearchClient{results: map[string][]duckduckgo.Result{
		"https://parked.example": {
			{Title: "Buy this domain today", Link: "https://parked.example"},
		},
	}}
	v := NewVerifier(fake, scoringDefaults(), 5)

	sig := v.VerifyOwnership(context.Background(), "Acme Solutions", "https://parked.example")
	assert.False(t, sig.Verified)
}

func TestVerifyOwnershipEmptyInputs(t *testing.T) {
	v := NewVerifier(&fakeSearchClient{}, scoringDefaults(), 5)
	assert.False(t, v.VerifyOwnership(context.Background(), "", "https://x.example").Verified)
	assert.False(t, v.VerifyOwnership(context.Background(), "Acme", "").Verified)
}

func TestVerifyAssociationBothEntitiesPresent(t *testing.T) {
	fake := &fakeSearchClient{results: map[string][]duckduckgo.Result{
		`"Priya Sharma" "Acme Solutions"`: {
			{
				Title:   "Priya Sharma - HR Manager - Acme Solutions | LinkedIn",
				Link:    "https://linkedin.example/in/priya",
				Snippet: "Priya Sharma works at Acme Solutions in Bengaluru.",
			},
		},
	}}
	v := NewVerifier(fake, scoringDefaults(), 5)

	sig := v.VerifyAssociation(context.Background(), "Priya Sharma", "Acme Solutions")
	require.True(t, sig.Verified)
	assert.Equal(t, "https://linkedin.example/in/priya", sig.Source)
}

func TestVerifyAssociationOneEntityMissing(t *testing.T) {
	fake := &fakeSearchClient{results: map[string][]duckduckgo.Result{
		`"Priya Sharma" "Acme Solutions"`: {
			{
				Title:   "Priya Sharma - profile",
				Link:    "https://other.example",
				Snippet: "Priya Sharma is a person who exists somewhere.",
			},
		},
	}}
	v := NewVerifier(fake, scoringDefaults(), 5)

	sig := v.VerifyAssociation(context.Background(), "Priya Sharma", "Acme Solutions")
	assert.False(t, sig.Verified)
}

func TestVerifyAssociationNoHits(t *testing.T) {
	v := NewVerifier(&fakeSearchClient{}, scoringDefaults(), 5)
	sig := v.VerifyAssociation(context.Background(), "Priya Sharma", "Acme Solutions")
	assert.False(t, sig.Verified)
	assert.Zero(t, sig.Score)
}

func TestReputationSearchDeduplicates(t *testing.T) {
	fake := &fakeSearchClient{results: map[string][]duckduckgo.Result{
		`"Acme Solutions" reviews`: {
			{Title: "Acme reviews", Link: "https://reviews.example/acme"},
		},
		`"Acme Solutions" scam OR fraud OR complaint`: {
			{Title: "Acme complaints", Link: "https://reviews.example/acme"},
			{Title: "Is Acme a scam?", Link: "https://forum.example/acme"},
		},
		`"Acme Solutions" employee reviews`: {
			{Title: "Working at Acme", Link: "https://jobs.example/acme"},
		},
	}}
	v := NewVerifier(fake, scoringDefaults(), 5)

	hits := v.ReputationSearch(context.Background(), "Acme Solutions")
	require.Len(t, hits, 3)
	assert.Len(t, fake.queries, 3)
}

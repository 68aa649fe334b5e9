// Package websearch layers verification semantics on top of the raw search
// client: web footprint lookups, URL ownership checks, entity association
// checks, and reputation sweeps.
package websearch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/config"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/matcher"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/model"
	"github.com/Rithesh077/IMSLegitimacyEngine/pkg/duckduckgo"
)

// Searcher is the minimal surface the engine needs from a search backend.
type Searcher interface {
	// SearchWeb runs a query and returns up to maxResults hits. It never
	// returns an error: an exhausted or failed search yields an empty
	// slice, and the caller treats absence of evidence as a weak signal,
	// not a failure.
	SearchWeb(ctx context.Context, query string, maxResults int) []model.SearchHit

	// VerifyOwnership checks whether url appears to belong to the named
	// entity by reverse-searching the URL and fuzzy-matching the top hit.
	VerifyOwnership(ctx context.Context, entity, url string) model.Signal

	// VerifyAssociation checks whether two entities appear together in
	// public search results.
	VerifyAssociation(ctx context.Context, entityA, entityB string) model.Signal

	// ReputationSearch sweeps review and complaint queries for the named
	// company and returns deduplicated hits.
	ReputationSearch(ctx context.Context, company string) []model.SearchHit
}

// Verifier implements Searcher on top of a duckduckgo.Client.
type Verifier struct {
	client duckduckgo.Client
	cfg    config.ScoringConfig
	max    int
}

// NewVerifier creates a Verifier. maxResults bounds every underlying query.
func NewVerifier(client duckduckgo.Client, cfg config.ScoringConfig, maxResults int) *Verifier {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Verifier{client: client, cfg: cfg, max: maxResults}
}

func (v *Verifier) SearchWeb(ctx context.Context, query string, maxResults int) []model.SearchHit {
	if maxResults <= 0 {
		maxResults = v.max
	}
	results, err := v.client.Search(ctx, query, maxResults)
	if err != nil {
		zap.L().Warn("websearch: query failed, treating as empty",
			zap.String("query", query),
			zap.Error(err),
		)
		return nil
	}
	hits := make([]model.SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, model.SearchHit{Title: r.Title, Link: r.Link, Snippet: r.Snippet})
	}
	return hits
}

// VerifyOwnership reverse-searches the URL itself. If the top result's
// title scores above the ownership threshold against the entity name, the
// page is considered to belong to the entity.
func (v *Verifier) VerifyOwnership(ctx context.Context, entity, url string) model.Signal {
	if entity == "" || url == "" {
		return model.Signal{}
	}
	hits := v.SearchWeb(ctx, url, 3)
	if len(hits) == 0 {
		return model.Signal{}
	}
	top := hits[0]
	score := matcher.Score(entity, top.Title)
	return model.Signal{
		Verified: score > v.cfg.OwnershipThreshold,
		Score:    score,
		Source:   top.Link,
	}
}

// VerifyAssociation searches for both entities together and scores each
// against the combined title and snippet of every hit. A hit counts only
// when both entities clear the per-entity threshold; the association is
// verified when the best hit's average clears the pair threshold.
func (v *Verifier) VerifyAssociation(ctx context.Context, entityA, entityB string) model.Signal {
	if entityA == "" || entityB == "" {
		return model.Signal{}
	}
	query := fmt.Sprintf("%q %q", entityA, entityB)
	hits := v.SearchWeb(ctx, query, 5)

	best := model.Signal{}
	for _, h := range hits {
		text := h.Title + " " + h.Snippet
		scoreA := matcher.PartialScore(entityA, text)
		scoreB := matcher.PartialScore(entityB, text)
		if scoreA <= v.cfg.AssociationEntityThreshold || scoreB <= v.cfg.AssociationEntityThreshold {
			continue
		}
		avg := (scoreA + scoreB) / 2
		if avg > best.Score {
			best = model.Signal{Score: avg, Source: h.Link}
		}
	}
	best.Verified = float64(best.Score) > v.cfg.AssociationPairThreshold
	return best
}

// ReputationSearch runs the review, fraud-complaint, and employee-review
// sweeps and merges the hits, deduplicated by link.
func (v *Verifier) ReputationSearch(ctx context.Context, company string) []model.SearchHit {
	queries := []string{
		fmt.Sprintf("%q reviews", company),
		fmt.Sprintf("%q scam OR fraud OR complaint", company),
		fmt.Sprintf("%q employee reviews", company),
	}

	seen := make(map[string]bool)
	var merged []model.SearchHit
	for _, q := range queries {
		for _, h := range v.SearchWeb(ctx, q, 3) {
			if h.Link == "" || seen[h.Link] {
				continue
			}
			seen[h.Link] = true
			merged = append(merged, h)
		}
	}
	return merged
}

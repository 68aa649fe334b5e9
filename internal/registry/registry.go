// Package registry verifies company presence on official and quasi-official
// registry sites through scoped web searches.
package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/config"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/matcher"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/model"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/websearch"
)

// Jurisdiction selects which registry domains apply to a request.
type Jurisdiction string

const (
	JurisdictionIndia         Jurisdiction = "india"
	JurisdictionInternational Jurisdiction = "international"
)

// indiaDomains are trusted Indian registry and registry-adjacent sites.
var indiaDomains = []string{
	"zaubacorp.com",
	"tofler.in",
	"mca.gov.in",
	"thecompanycheck.com",
	"economictimes.indiatimes.com",
	"instafinancials.com",
}

// internationalDomains are trusted registries for everywhere else.
var internationalDomains = []string{
	"opencorporates.com",
	"dnb.com",
	"sec.gov",
}

// ForCountry maps a free-form country value to a jurisdiction.
func ForCountry(country string) Jurisdiction {
	switch strings.ToLower(strings.TrimSpace(country)) {
	case "india", "in", "ind":
		return JurisdictionIndia
	default:
		return JurisdictionInternational
	}
}

// Provider checks a set of registry domains for evidence of a company.
type Provider struct {
	jurisdiction Jurisdiction
	domains      []string
	searcher     websearch.Searcher
	cfg          config.ScoringConfig
}

// NewProvider creates a registry provider for the given jurisdiction.
func NewProvider(j Jurisdiction, searcher websearch.Searcher, cfg config.ScoringConfig) *Provider {
	domains := internationalDomains
	if j == JurisdictionIndia {
		domains = indiaDomains
	}
	return &Provider{
		jurisdiction: j,
		domains:      domains,
		searcher:     searcher,
		cfg:          cfg,
	}
}

// Domains returns the trusted domain list, in priority order.
func (p *Provider) Domains() []string {
	return p.domains
}

// CheckRegistrySignal queries every trusted domain concurrently and returns
// one ConfidenceRecord per domain.
func (p *Provider) CheckRegistrySignal(ctx context.Context, name, registryID string) map[string]model.ConfidenceRecord {
	records := make(map[string]model.ConfidenceRecord, len(p.domains))

	if len(p.domains) == 1 {
		d := p.domains[0]
		records[d] = p.checkDomain(ctx, d, name, registryID)
		return records
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, domain := range p.domains {
		g.Go(func() error {
			rec := p.checkDomain(gctx, domain, name, registryID)
			mu.Lock()
			records[domain] = rec
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // checkDomain never returns an error

	return records
}

// VerifyByID checks the trusted domains in priority order for a hit that
// carries the identifier verbatim alongside the company name. Returns the
// first confirming record.
func (p *Provider) VerifyByID(ctx context.Context, name, registryID string) (model.ConfidenceRecord, bool) {
	if registryID == "" {
		return model.ConfidenceRecord{}, false
	}
	for _, domain := range p.domains {
		if hit, ok := p.verifyIDOnDomain(ctx, domain, name, registryID); ok {
			return model.ConfidenceRecord{
				Domain: domain,
				Found:  true,
				Method: model.MethodStrictID,
				Hits:   []model.SearchHit{hit},
			}, true
		}
	}
	return model.ConfidenceRecord{}, false
}

// VerifyByName checks the trusted domains in priority order for a hit
// matching the company name alone.
func (p *Provider) VerifyByName(ctx context.Context, name string) (model.ConfidenceRecord, bool) {
	for _, domain := range p.domains {
		if hit, ok := p.verifyNameOnDomain(ctx, domain, name); ok {
			return model.ConfidenceRecord{
				Domain: domain,
				Found:  true,
				Method: model.MethodNameMatch,
				Hits:   []model.SearchHit{hit},
			}, true
		}
	}
	return model.ConfidenceRecord{}, false
}

// checkDomain runs the strict identifier query first, then falls back to
// the broad name query. Both are scoped to the domain with a site filter.
func (p *Provider) checkDomain(ctx context.Context, domain, name, registryID string) model.ConfidenceRecord {
	rec := model.ConfidenceRecord{Domain: domain}

	if registryID != "" {
		if hit, ok := p.verifyIDOnDomain(ctx, domain, name, registryID); ok {
			rec.Found = true
			rec.Method = model.MethodStrictID
			rec.Hits = []model.SearchHit{hit}
			return rec
		}
	}

	if hit, ok := p.verifyNameOnDomain(ctx, domain, name); ok {
		rec.Found = true
		rec.Method = model.MethodNameMatch
		rec.Hits = []model.SearchHit{hit}
		return rec
	}

	zap.L().Debug("registry: no evidence on domain",
		zap.String("domain", domain),
		zap.String("company", name),
	)
	return rec
}

// verifyIDOnDomain runs the strict identifier query against one domain.
func (p *Provider) verifyIDOnDomain(ctx context.Context, domain, name, registryID string) (model.SearchHit, bool) {
	query := fmt.Sprintf("site:%s %q %q", domain, name, registryID)
	hits := p.searcher.SearchWeb(ctx, query, 5)
	return p.matchStrictID(domain, hits, name, registryID)
}

// verifyNameOnDomain runs the broad name query against one domain.
func (p *Provider) verifyNameOnDomain(ctx context.Context, domain, name string) (model.SearchHit, bool) {
	query := fmt.Sprintf("site:%s %q", domain, name)
	hits := p.searcher.SearchWeb(ctx, query, 5)
	return p.matchName(domain, hits, name)
}

// matchStrictID requires the hit to come from the trusted domain, the
// identifier to appear verbatim in the hit text, and the name to clear the
// lenient strict-mode threshold.
func (p *Provider) matchStrictID(domain string, hits []model.SearchHit, name, registryID string) (model.SearchHit, bool) {
	id := strings.ToLower(registryID)
	for _, h := range hits {
		if !strings.Contains(strings.ToLower(h.Link), domain) {
			continue
		}
		text := strings.ToLower(h.Title + " " + h.Snippet)
		if !strings.Contains(text, id) {
			continue
		}
		if matcher.PartialScore(name, h.Title+" "+h.Snippet) > p.cfg.StrictIDNameThreshold {
			return h, true
		}
	}
	return model.SearchHit{}, false
}

// matchName requires the hit to come from the trusted domain and the name
// alone to clear the stricter name-only threshold.
func (p *Provider) matchName(domain string, hits []model.SearchHit, name string) (model.SearchHit, bool) {
	for _, h := range hits {
		if !strings.Contains(strings.ToLower(h.Link), domain) {
			continue
		}
		if matcher.PartialScore(name, h.Title+" "+h.Snippet) > p.cfg.NameMatchThreshold {
			return h, true
		}
	}
	return model.SearchHit{}, false
}

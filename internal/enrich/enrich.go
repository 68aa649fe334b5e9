// Package enrich verifies company existence through the People Data Labs
// dataset. Multiple lookup strategies race and the first one to return a
// record wins.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/matcher"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/model"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/resilience"
	"github.com/Rithesh077/IMSLegitimacyEngine/pkg/pdl"
)

// SignalDomain keys the enrichment record in a registry breakdown. It is
// excluded from the registry-found fold: dataset presence is corroboration,
// not registry evidence.
const SignalDomain = "peopledatalabs.com"

// Provider races PDL lookup strategies behind a circuit breaker.
type Provider struct {
	client  pdl.Client
	breaker *resilience.CircuitBreaker
}

// NewProvider creates an enrichment provider.
func NewProvider(client pdl.Client) *Provider {
	return &Provider{
		client: client,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			ShouldTrip: resilience.IsTransient,
		}),
	}
}

type strategy struct {
	method model.VerificationMethod
	query  string
}

// buildStrategies orders lookups from most to least specific. Only
// strategies whose inputs are present are included.
func buildStrategies(name, linkedinURL, website string) []strategy {
	var out []strategy
	if slug := linkedinSlug(linkedinURL); slug != "" {
		out = append(out, strategy{
			method: model.MethodLinkedIn,
			query:  fmt.Sprintf("SELECT * FROM company WHERE linkedin_url = 'linkedin.com/company/%s'", escape(slug)),
		})
	}
	if d := domainOf(website); d != "" {
		out = append(out, strategy{
			method: model.MethodWebsite,
			query:  fmt.Sprintf("SELECT * FROM company WHERE website = '%s'", escape(d)),
		})
	}
	if name != "" {
		lowered := strings.ToLower(strings.TrimSpace(name))
		out = append(out, strategy{
			method: model.MethodNameMatch,
			query:  fmt.Sprintf("SELECT * FROM company WHERE name = '%s'", escape(lowered)),
		})
		if clean := matcher.CleanName(name); clean != "" && clean != lowered {
			out = append(out, strategy{
				method: model.MethodCleanName,
				query:  fmt.Sprintf("SELECT * FROM company WHERE name = '%s'", escape(clean)),
			})
		}
	}
	return out
}

type raceResult struct {
	method  model.VerificationMethod
	records []pdl.Company
}

// Enrich runs every applicable strategy concurrently and returns the first
// non-empty result. Losing lookups are cancelled and abandoned; their
// results are never merged. Authorization failures are logged and treated
// as no-match so a bad key never fails a verification.
func (p *Provider) Enrich(ctx context.Context, name, linkedinURL, website string) ([]pdl.Company, model.VerificationMethod, error) {
	strategies := buildStrategies(name, linkedinURL, website)
	if len(strategies) == 0 {
		return nil, "", nil
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so losers can report after the winner is taken and exit
	// without a receiver.
	ch := make(chan raceResult, len(strategies))
	for _, s := range strategies {
		go func(s strategy) {
			records, err := resilience.ExecuteVal(raceCtx, p.breaker, func(ctx context.Context) ([]pdl.Company, error) {
				return p.client.SearchCompany(ctx, s.query, 1)
			})
			if err != nil {
				if eris.Is(err, pdl.ErrUnauthorized) {
					zap.L().Warn("enrich: credentials rejected, skipping dataset check",
						zap.String("method", string(s.method)))
				} else if raceCtx.Err() == nil {
					zap.L().Debug("enrich: strategy failed",
						zap.String("method", string(s.method)),
						zap.Error(err))
				}
				ch <- raceResult{method: s.method}
				return
			}
			ch <- raceResult{method: s.method, records: records}
		}(s)
	}

	for range strategies {
		select {
		case <-ctx.Done():
			return nil, "", eris.Wrap(ctx.Err(), "enrich: lookup cancelled")
		case r := <-ch:
			if len(r.records) > 0 {
				cancel()
				return r.records, r.method, nil
			}
		}
	}
	return nil, "", nil
}

// CheckRegistrySignal wraps Enrich into a ConfidenceRecord keyed by
// SignalDomain so it can sit alongside registry provider records.
func (p *Provider) CheckRegistrySignal(ctx context.Context, req model.VerificationRequest) model.ConfidenceRecord {
	rec := model.ConfidenceRecord{Domain: SignalDomain, Method: model.MethodEnrichment}
	records, method, err := p.Enrich(ctx, req.Name, req.LinkedInURL, req.PrimaryWebsite())
	if err != nil {
		zap.L().Warn("enrich: dataset check failed", zap.String("company", req.Name), zap.Error(err))
		return rec
	}
	if len(records) == 0 {
		return rec
	}
	rec.Found = true
	rec.Records = make([]map[string]any, 0, len(records))
	for _, r := range records {
		rec.Records = append(rec.Records, map[string]any(r))
	}
	zap.L().Debug("enrich: dataset match",
		zap.String("company", req.Name),
		zap.String("method", string(method)),
	)
	return rec
}

func escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// linkedinSlug extracts the company slug from a LinkedIn company URL.
func linkedinSlug(u string) string {
	if u == "" {
		return ""
	}
	lower := strings.ToLower(u)
	idx := strings.Index(lower, "linkedin.com/company/")
	if idx < 0 {
		return ""
	}
	slug := u[idx+len("linkedin.com/company/"):]
	slug = strings.Trim(slug, "/")
	if i := strings.IndexAny(slug, "/?#"); i >= 0 {
		slug = slug[:i]
	}
	return strings.ToLower(slug)
}

// domainOf reduces a website URL to its bare host.
func domainOf(website string) string {
	if website == "" {
		return ""
	}
	d := strings.ToLower(strings.TrimSpace(website))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return d
}

// Package pipeline orchestrates a verification run: a synchronous
// mandatory phase that yields a provisional result, and an asynchronous
// background phase that confirms the optional signals and persists the
// finalized outcome.
package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/ai"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/config"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/lookup"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/model"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/store"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/websearch"
)

// State names a phase of a verification run.
type State string

const (
	StateStarted                 State = "Started"
	StateMandatoryChecksRunning  State = "MandatoryChecksRunning"
	StateProvisionalResultReady  State = "ProvisionalResultReady"
	StateBackgroundChecksRunning State = "BackgroundChecksRunning"
	StateFinalized               State = "Finalized"
	StateMandatoryChecksFailed   State = "MandatoryChecksFailed"
)

const backgroundPendingNote = "Optional signal checks are still running; the score may increase once they complete."

// Lookup is the registry-and-metadata check the mandatory phase runs.
type Lookup interface {
	CheckRegistryAndMetadata(ctx context.Context, req model.VerificationRequest) lookup.Outcome
}

// Renderer writes the per-company report artifact.
type Renderer interface {
	Render(name string, result model.AnalysisResult) (string, error)
}

// AuditLog records one row per verification outcome.
type AuditLog interface {
	Append(req model.VerificationRequest, result model.AnalysisResult) error
}

// Orchestrator drives the two-phase verification flow.
type Orchestrator struct {
	lookup   Lookup
	searcher websearch.Searcher
	assessor ai.Assessor
	store    store.Store
	renderer Renderer
	audit    AuditLog
	runner   *BackgroundRunner
	cfg      config.ScoringConfig
}

// NewOrchestrator wires the orchestrator. store, renderer, and audit may
// be nil; the corresponding side effects are skipped.
func NewOrchestrator(
	lk Lookup,
	searcher websearch.Searcher,
	assessor ai.Assessor,
	st store.Store,
	renderer Renderer,
	audit AuditLog,
	runner *BackgroundRunner,
	cfg config.ScoringConfig,
) *Orchestrator {
	return &Orchestrator{
		lookup:   lk,
		searcher: searcher,
		assessor: assessor,
		store:    st,
		renderer: renderer,
		audit:    audit,
		runner:   runner,
		cfg:      cfg,
	}
}

// Verify runs the mandatory phase and returns the provisional result. The
// background phase is queued before returning; callers observe its outcome
// through the store. Signal gathering never fails the run; only an invalid
// request does.
func (o *Orchestrator) Verify(ctx context.Context, req model.VerificationRequest) (model.AnalysisResult, error) {
	logState(req.Name, StateStarted)
	if err := req.Validate(); err != nil {
		logState(req.Name, StateMandatoryChecksFailed)
		return model.AnalysisResult{}, err
	}

	logState(req.Name, StateMandatoryChecksRunning)
	signals, enrichment := o.mandatorySignals(ctx, req)

	reputation := o.searcher.ReputationSearch(ctx, req.Name)
	result := o.assembleProvisional(ctx, req, signals, enrichment, reputation)

	o.render(req, &result)
	logState(req.Name, StateProvisionalResultReady)

	o.submitBackground(req, result)
	return result, nil
}

// mandatorySignals gathers the registry lookup and HR association
// concurrently, then computes the email match.
func (o *Orchestrator) mandatorySignals(ctx context.Context, req model.VerificationRequest) (model.SignalSet, []map[string]any) {
	var signals model.SignalSet
	var enrichment []map[string]any

	g, gctx := errgroup.WithContext(ctx)

	if req.RegistryID != "" {
		g.Go(func() error {
			outcome := o.lookup.CheckRegistryAndMetadata(gctx, req)
			signals.RegistryFound = outcome.Found
			signals.RegistryBreakdown = outcome.Breakdown
			for _, rec := range outcome.Breakdown {
				if rec.Method == model.MethodEnrichment {
					enrichment = append(enrichment, rec.Records...)
				}
			}
			return nil
		})
	}

	if req.HRName != "" {
		g.Go(func() error {
			signals.HRVerified = o.searcher.VerifyAssociation(gctx, req.HRName, req.Name)
			return nil
		})
	}

	_ = g.Wait() // signal goroutines never return errors

	signals.EmailDomainMatch = EmailDomainMatch(req.HREmail, req.PrimaryWebsite())
	return signals, enrichment
}

// assembleProvisional scores the signals, letting a successful AI
// assessment override the rule baseline.
func (o *Orchestrator) assembleProvisional(
	ctx context.Context,
	req model.VerificationRequest,
	signals model.SignalSet,
	enrichment []map[string]any,
	reputation []model.SearchHit,
) model.AnalysisResult {
	result := model.AnalysisResult{
		Signals:     signals,
		Provisional: true,
		Note:        backgroundPendingNote,
	}

	score := ruleScore(o.cfg, signals)

	assessment, err := o.assessor.AssessRisk(ctx, ai.RiskContext{
		Request:    req,
		Signals:    signals,
		Enrichment: enrichment,
		Reputation: reputation,
	})
	switch {
	case err != nil:
		zap.L().Warn("pipeline: risk assessment unavailable, using rule score",
			zap.String("company", req.Name),
			zap.Error(err),
		)
		result.Summary = "Automated analysis was unavailable; the score reflects registry, email, and HR checks only."
	default:
		if assessment.TrustScore != nil {
			score = clampScore(*assessment.TrustScore)
		}
		result.Summary = assessment.Analysis
		result.RedFlags = assessment.Flags
		if tier, ok := classificationTier(assessment.Classification); ok {
			result.TrustTier = tier
		}
	}

	result.TrustScore = score
	if result.TrustTier == "" {
		result.TrustTier = tierFor(o.cfg, score)
	}
	result.Status = statusFor(o.cfg, score)
	return result
}

// render writes the report artifact once, during the mandatory phase.
// The background phase carries the same path forward rather than
// rendering a second copy. Failures are logged and never fail the run.
func (o *Orchestrator) render(req model.VerificationRequest, result *model.AnalysisResult) {
	if o.renderer == nil {
		return
	}
	path, err := o.renderer.Render(req.Name, *result)
	if err != nil {
		zap.L().Warn("pipeline: report render failed", zap.String("company", req.Name), zap.Error(err))
		return
	}
	result.ReportPath = path
}

// auditRow appends the single audit row for a completed verification.
func (o *Orchestrator) auditRow(req model.VerificationRequest, result model.AnalysisResult) {
	if o.audit == nil {
		return
	}
	if err := o.audit.Append(req, result); err != nil {
		zap.L().Warn("pipeline: audit log append failed", zap.String("company", req.Name), zap.Error(err))
	}
}

func (o *Orchestrator) submitBackground(req model.VerificationRequest, provisional model.AnalysisResult) {
	if o.runner == nil {
		return
	}
	accepted := o.runner.Submit(func(ctx context.Context) {
		o.Finalize(ctx, req, provisional)
	})
	if !accepted {
		zap.L().Warn("pipeline: background phase not scheduled", zap.String("company", req.Name))
	}
}

// Finalize runs the optional signal checks, recomputes the score, and
// persists the outcome. The finalized score never drops below the
// provisional one.
func (o *Orchestrator) Finalize(ctx context.Context, req model.VerificationRequest, provisional model.AnalysisResult) model.AnalysisResult {
	logState(req.Name, StateBackgroundChecksRunning)

	signals := provisional.Signals
	var g errgroup.Group

	if req.LinkedInURL != "" && !signals.LinkedInVerified.Verified {
		g.Go(func() error {
			signals.LinkedInVerified = o.searcher.VerifyOwnership(ctx, req.Name, req.LinkedInURL)
			return nil
		})
	}
	if site := req.PrimaryWebsite(); site != "" && !signals.WebsiteVerified.Verified {
		g.Go(func() error {
			signals.WebsiteVerified = o.searcher.VerifyOwnership(ctx, req.Name, site)
			return nil
		})
	}
	if req.RegisteredAddress != "" && !signals.AddressVerified.Verified {
		g.Go(func() error {
			signals.AddressVerified = o.searcher.VerifyAssociation(ctx, req.Name, req.RegisteredAddress)
			return nil
		})
	}
	_ = g.Wait()

	score := provisional.TrustScore
	for _, confirmed := range []bool{
		signals.LinkedInVerified.Verified && !provisional.Signals.LinkedInVerified.Verified,
		signals.WebsiteVerified.Verified && !provisional.Signals.WebsiteVerified.Verified,
		signals.AddressVerified.Verified && !provisional.Signals.AddressVerified.Verified,
	} {
		if confirmed {
			score += float64(o.cfg.OptionalWeight)
		}
	}
	score = clampScore(score)

	final := provisional
	final.Signals = signals
	final.TrustScore = score
	final.TrustTier = tierFor(o.cfg, score)
	final.Status = statusFor(o.cfg, score)
	final.Provisional = false
	final.Note = ""

	o.auditRow(req, final)
	o.persist(ctx, req, final)
	logState(req.Name, StateFinalized)
	return final
}

// persist upserts the finalized record. Skipped entirely for anonymous
// requests.
func (o *Orchestrator) persist(ctx context.Context, req model.VerificationRequest, result model.AnalysisResult) {
	if o.store == nil || req.UserID == "" {
		return
	}
	rec := model.CompanyRecord{
		Name:              req.Name,
		UserID:            req.UserID,
		Status:            result.Status,
		TrustScore:        result.TrustScore,
		TrustTier:         result.TrustTier,
		ReportPath:        result.ReportPath,
		Approved:          result.TrustScore >= o.cfg.ApprovalThreshold,
		HRName:            req.HRName,
		HREmail:           req.HREmail,
		WebsiteURL:        req.PrimaryWebsite(),
		LinkedInURL:       req.LinkedInURL,
		RegistryID:        req.RegistryID,
		RegisteredAddress: req.RegisteredAddress,
		Country:           req.Country,
	}
	if _, err := o.store.Upsert(ctx, rec); err != nil {
		zap.L().Error("pipeline: persist failed", zap.String("company", req.Name), zap.Error(err))
	}
}

func logState(company string, s State) {
	zap.L().Debug("pipeline: state transition",
		zap.String("company", company),
		zap.String("state", string(s)),
	)
}

package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/ai"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/config"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/lookup"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/model"
)

type fakeLookup struct {
	calls   atomic.Int32
	outcome lookup.Outcome
}

func (f *fakeLookup) CheckRegistryAndMetadata(context.Context, model.VerificationRequest) lookup.Outcome {
	f.calls.Add(1)
	return f.outcome
}

type fakeSearcher struct {
	mu           sync.Mutex
	associations map[string]model.Signal
	ownerships   map[string]model.Signal
	reputation   []model.SearchHit
	ownershipFor []string
}

func (f *fakeSearcher) SearchWeb(context.Context, string, int) []model.SearchHit { return nil }

func (f *fakeSearcher) VerifyOwnership(_ context.Context, _, url string) model.Signal {
	f.mu.Lock()
	f.ownershipFor = append(f.ownershipFor, url)
	f.mu.Unlock()
	return f.ownerships[url]
}

func (f *fakeSearcher) VerifyAssociation(_ context.Context, a, b string) model.Signal {
	return f.associations[a+"|"+b]
}

func (f *fakeSearcher) ReputationSearch(context.Context, string) []model.SearchHit {
	return f.reputation
}

type fakeAssessor struct {
	assessment ai.Assessment
	err        error
	lastCtx    ai.RiskContext
}

func (f *fakeAssessor) AssessRisk(_ context.Context, rc ai.RiskContext) (ai.Assessment, error) {
	f.lastCtx = rc
	return f.assessment, f.err
}

type fakeStore struct {
	mu       sync.Mutex
	upserted []model.CompanyRecord
}

func (f *fakeStore) FindByName(context.Context, string) (*model.CompanyRecord, error) {
	return nil, nil
}

func (f *fakeStore) Create(_ context.Context, rec model.CompanyRecord) (*model.CompanyRecord, error) {
	return &rec, nil
}

func (f *fakeStore) Update(context.Context, model.CompanyRecord) error { return nil }

func (f *fakeStore) Upsert(_ context.Context, rec model.CompanyRecord) (*model.CompanyRecord, error) {
	f.mu.Lock()
	f.upserted = append(f.upserted, rec)
	f.mu.Unlock()
	return &rec, nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }

type fakeRenderer struct {
	renders atomic.Int32
}

func (f *fakeRenderer) Render(string, model.AnalysisResult) (string, error) {
	f.renders.Add(1)
	return "/tmp/report.md", nil
}

type fakeAudit struct {
	rows atomic.Int32
}

func (f *fakeAudit) Append(model.VerificationRequest, model.AnalysisResult) error {
	f.rows.Add(1)
	return nil
}

func scoringDefaults() config.ScoringConfig {
	return config.ScoringConfig{
		RegistryWeight:    40,
		EmailWeight:       10,
		HRWeight:          15,
		OptionalWeight:    10,
		VerifiedThreshold: 60,
		ApprovalThreshold: 70,
		ReviewThreshold:   40,
	}
}

type fixture struct {
	lookup   *fakeLookup
	searcher *fakeSearcher
	assessor *fakeAssessor
	store    *fakeStore
	renderer *fakeRenderer
	audit    *fakeAudit
	orch     *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		lookup: &fakeLookup{outcome: lookup.Outcome{
			Found: true,
			Breakdown: map[string]model.ConfidenceRecord{
				"zaubacorp.com": {Domain: "zaubacorp.com", Found: true, Method: model.MethodStrictID},
			},
		}},
		searcher: &fakeSearcher{
			associations: map[string]model.Signal{},
			ownerships:   map[string]model.Signal{},
		},
		assessor: &fakeAssessor{err: eris.New("ai unavailable")},
		store:    &fakeStore{},
		renderer: &fakeRenderer{},
		audit:    &fakeAudit{},
	}
	f.orch = NewOrchestrator(f.lookup, f.searcher, f.assessor, f.store,
		f.renderer, f.audit, nil, scoringDefaults())
	return f
}

func acmeRequest() model.VerificationRequest {
	return model.VerificationRequest{
		Name:        "Acme Solutions",
		Country:     "india",
		RegistryID:  "U12345",
		HRName:      "Priya Sharma",
		HREmail:     "priya@acme.example",
		WebsiteURLs: []string{"https://www.acme.example"},
	}
}

func TestVerifyRejectsInvalidRequest(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Verify(context.Background(), model.VerificationRequest{Country: "india"})
	require.Error(t, err)
	assert.Zero(t, f.lookup.calls.Load())
}

func TestVerifyRuleScoreWithFailedAI(t *testing.T) {
	f := newFixture(t)
	f.searcher.associations["Priya Sharma|Acme Solutions"] = model.Signal{Verified: true, Score: 85}

	result, err := f.orch.Verify(context.Background(), acmeRequest())
	require.NoError(t, err)

	// Registry 40 + email 10 + HR 15.
	assert.Equal(t, 65.0, result.TrustScore)
	assert.Equal(t, model.TierHigh, result.TrustTier)
	assert.Equal(t, model.StatusVerified, result.Status)
	assert.True(t, result.Provisional)
	assert.NotEmpty(t, result.Note)
	assert.True(t, result.Signals.RegistryFound)
	assert.True(t, result.Signals.EmailDomainMatch)
	assert.Equal(t, "/tmp/report.md", result.ReportPath)
	// The audit row lands with the finalized result, not the provisional one.
	assert.Zero(t, f.audit.rows.Load())
}

func TestVerifyAIScoreOverridesRules(t *testing.T) {
	f := newFixture(t)
	score := 30.0
	f.assessor.assessment = ai.Assessment{
		TrustScore:     &score,
		Classification: "Low Trust",
		Analysis:       "Registry match appears coincidental.",
		Flags:          []string{"no web footprint"},
	}
	f.assessor.err = nil

	result, err := f.orch.Verify(context.Background(), acmeRequest())
	require.NoError(t, err)

	assert.Equal(t, 30.0, result.TrustScore)
	assert.Equal(t, model.TierLow, result.TrustTier)
	assert.Equal(t, model.StatusPending, result.Status)
	assert.Equal(t, []string{"no web footprint"}, result.RedFlags)
	assert.Equal(t, "Registry match appears coincidental.", result.Summary)
}

func TestVerifySkipsLookupWithoutRegistryID(t *testing.T) {
	f := newFixture(t)
	req := acmeRequest()
	req.RegistryID = ""

	result, err := f.orch.Verify(context.Background(), req)
	require.NoError(t, err)

	assert.Zero(t, f.lookup.calls.Load())
	assert.False(t, result.Signals.RegistryFound)
	// Email 10 + HR 0 (no association configured in this test).
	assert.Equal(t, 10.0, result.TrustScore)
}

func TestVerifyPassesEvidenceToAssessor(t *testing.T) {
	f := newFixture(t)
	f.lookup.outcome.Breakdown["peopledatalabs.com"] = model.ConfidenceRecord{
		Domain:  "peopledatalabs.com",
		Found:   true,
		Method:  model.MethodEnrichment,
		Records: []map[string]any{{"name": "acme solutions"}},
	}
	f.searcher.reputation = []model.SearchHit{{Title: "Acme reviews", Link: "https://r.example"}}
	f.assessor.err = nil

	_, err := f.orch.Verify(context.Background(), acmeRequest())
	require.NoError(t, err)

	assert.Len(t, f.assessor.lastCtx.Enrichment, 1)
	assert.Len(t, f.assessor.lastCtx.Reputation, 1)
	assert.True(t, f.assessor.lastCtx.Signals.RegistryFound)
}

func TestFinalizeAddsOptionalSignals(t *testing.T) {
	f := newFixture(t)
	req := acmeRequest()
	req.LinkedInURL = "https://linkedin.example/company/acme"
	req.RegisteredAddress = "12 MG Road, Bengaluru"

	f.searcher.associations["Priya Sharma|Acme Solutions"] = model.Signal{Verified: true, Score: 85}
	f.searcher.ownerships["https://linkedin.example/company/acme"] = model.Signal{Verified: true, Score: 90}
	f.searcher.ownerships["https://www.acme.example"] = model.Signal{Verified: true, Score: 88}
	f.searcher.associations["Acme Solutions|12 MG Road, Bengaluru"] = model.Signal{Verified: true, Score: 80}

	provisional, err := f.orch.Verify(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 65.0, provisional.TrustScore)

	final := f.orch.Finalize(context.Background(), req, provisional)

	// Three newly confirmed optional signals at +10 each, capped below 100.
	assert.Equal(t, 95.0, final.TrustScore)
	assert.False(t, final.Provisional)
	assert.Empty(t, final.Note)
	assert.True(t, final.Signals.LinkedInVerified.Verified)
	assert.True(t, final.Signals.WebsiteVerified.Verified)
	assert.True(t, final.Signals.AddressVerified.Verified)
}

func TestFinalizeNeverLowersScore(t *testing.T) {
	f := newFixture(t)
	req := acmeRequest()
	req.LinkedInURL = "https://linkedin.example/company/acme"

	provisional, err := f.orch.Verify(context.Background(), req)
	require.NoError(t, err)

	// No optional signal confirms.
	final := f.orch.Finalize(context.Background(), req, provisional)
	assert.GreaterOrEqual(t, final.TrustScore, provisional.TrustScore)
}

func TestFinalizePersistsForKnownUser(t *testing.T) {
	f := newFixture(t)
	req := acmeRequest()
	req.UserID = "user-1"

	provisional, err := f.orch.Verify(context.Background(), req)
	require.NoError(t, err)
	f.orch.Finalize(context.Background(), req, provisional)

	require.Len(t, f.store.upserted, 1)
	rec := f.store.upserted[0]
	assert.Equal(t, "Acme Solutions", rec.Name)
	assert.Equal(t, "user-1", rec.UserID)
	assert.False(t, rec.Approved) // 65 < approval threshold 70
}

func TestFinalizeSkipsPersistenceForAnonymous(t *testing.T) {
	f := newFixture(t)
	req := acmeRequest() // no UserID

	provisional, err := f.orch.Verify(context.Background(), req)
	require.NoError(t, err)
	f.orch.Finalize(context.Background(), req, provisional)

	assert.Empty(t, f.store.upserted)
}

func TestVerifyQueuesBackgroundPhase(t *testing.T) {
	f := newFixture(t)
	runner := NewBackgroundRunner(4)
	runner.Start(context.Background(), 1)
	f.orch.runner = runner

	req := acmeRequest()
	req.UserID = "user-1"
	_, err := f.orch.Verify(context.Background(), req)
	require.NoError(t, err)

	runner.Drain()
	assert.Len(t, f.store.upserted, 1)
}

func TestBackgroundRunnerJobsSurviveCancelledStartContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewBackgroundRunner(4)
	runner.Start(ctx, 1)

	// A shutdown signal cancels the start context before the queued job
	// runs; the job must still see a live context so late persistence
	// succeeds.
	cancel()
	errs := make(chan error, 1)
	require.True(t, runner.Submit(func(jctx context.Context) { errs <- jctx.Err() }))
	runner.Drain()

	assert.NoError(t, <-errs)
}

func TestFinalizeAfterShutdownSignalStillPersists(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewBackgroundRunner(4)
	runner.Start(ctx, 1)
	f.orch.runner = runner

	req := acmeRequest()
	req.UserID = "user-1"
	_, err := f.orch.Verify(context.Background(), req)
	require.NoError(t, err)

	cancel()
	runner.Drain()
	assert.Len(t, f.store.upserted, 1)
}

func TestVerificationEmitsOneArtifactAndOneAuditRow(t *testing.T) {
	f := newFixture(t)
	req := acmeRequest()
	req.UserID = "user-1"

	provisional, err := f.orch.Verify(context.Background(), req)
	require.NoError(t, err)
	final := f.orch.Finalize(context.Background(), req, provisional)

	assert.Equal(t, int32(1), f.renderer.renders.Load())
	assert.Equal(t, int32(1), f.audit.rows.Load())
	assert.Equal(t, provisional.ReportPath, final.ReportPath)
	require.Len(t, f.store.upserted, 1)
	assert.Equal(t, "/tmp/report.md", f.store.upserted[0].ReportPath)
}

func TestBackgroundRunnerDrainRejectsLateJobs(t *testing.T) {
	runner := NewBackgroundRunner(4)
	runner.Start(context.Background(), 2)

	var ran atomic.Int32
	require.True(t, runner.Submit(func(context.Context) { ran.Add(1) }))
	runner.Drain()

	assert.False(t, runner.Submit(func(context.Context) { ran.Add(1) }))
	assert.Equal(t, int32(1), ran.Load())
}

func TestEmailDomainMatch(t *testing.T) {
	tests := []struct {
		email   string
		website string
		want    bool
	}{
		{"hr@acme.com", "https://www.acme.com", true},
		{"hr@sub.acme.com", "https://acme.com", true},
		{"hr@acme.com", "https://careers.acme.com", true},
		{"hr@acme.org", "https://acme.com", false},
		{"hr@gmail.com", "https://acme.com", false},
		{"", "https://acme.com", false},
		{"hr@acme.com", "", false},
		{"not-an-email", "https://acme.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EmailDomainMatch(tt.email, tt.website), "%s vs %s", tt.email, tt.website)
	}
}

func TestScoreDerivations(t *testing.T) {
	cfg := scoringDefaults()

	assert.Equal(t, model.TierHigh, tierFor(cfg, 60))
	assert.Equal(t, model.TierReview, tierFor(cfg, 45))
	assert.Equal(t, model.TierLow, tierFor(cfg, 10))

	assert.Equal(t, model.StatusVerified, statusFor(cfg, 60))
	assert.Equal(t, model.StatusPending, statusFor(cfg, 59.9))

	tier, ok := classificationTier("High Trust")
	assert.True(t, ok)
	assert.Equal(t, model.TierHigh, tier)
	_, ok = classificationTier("somewhat trustworthy")
	assert.False(t, ok)
}

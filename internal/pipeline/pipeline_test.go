package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/factlock/internal/cache"
	"github.com/ppiankov/factlock/internal/llm"
	"github.com/ppiankov/factlock/internal/model"
	"github.com/ppiankov/factlock/internal/payload"
	"github.com/ppiankov/factlock/internal/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDrafter struct {
	drafts model.DraftPair
	err    error

	mu  sync.Mutex
	got []llm.DraftRequest
}

func (f *fakeDrafter) Name() string { return "fake" }

func (f *fakeDrafter) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeDrafter) Draft(ctx context.Context, req llm.DraftRequest) (*llm.DraftResponse, error) {
	f.mu.Lock()
	f.got = append(f.got, req)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &llm.DraftResponse{Drafts: f.drafts, Model: "fake-1", TokensUsed: 42}, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	statuses []model.Status
}

func (o *recordingObserver) ObserveVerdict(v model.Verdict, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, v.Status)
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	return cfg
}

func elmComps() []model.Comparable {
	return []model.Comparable{
		{Address: "124 Elm St", Price: 475000, Sqft: 2200, LotAcres: 0.5},
		{Address: "55 Pine Ct", Price: 510000, Sqft: 2600, LotAcres: 1.8},
	}
}

func TestPipeline_Check_Verified(t *testing.T) {
	obs := &recordingObserver{}
	p := NewPipeline(testConfig(), WithObserver(obs))

	report, err := p.Check(context.Background(), payload.Case{
		ID:          "willow",
		TargetPrice: 500000,
		Drafts: model.DraftPair{
			MMSDraft:   "Target Pricing Strategy: $500,000. A comp closed at $475,000.",
			EmailDraft: "Reply within 24 hours. That is $25,000 below target.",
		},
		Comps: elmComps(),
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusVerified, report.Verdict.Status)
	assert.Equal(t, model.VerifiedReason, report.Verdict.Reason)
	assert.Empty(t, report.Verdict.Hallucinations)
	assert.Nil(t, report.Verdict.Findings, "findings are omitted unless enabled")
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "willow", report.CaseID)
	assert.False(t, report.Cached)
	assert.Equal(t, []model.Status{model.StatusVerified}, obs.statuses)
}

func TestPipeline_Check_HaltOnHouseNumber(t *testing.T) {
	cfg := testConfig()
	cfg.Output.Findings = true
	p := NewPipeline(cfg)

	report, err := p.Check(context.Background(), payload.Case{
		TargetPrice: 500000,
		Drafts:      model.DraftPair{MMSDraft: "124 Elm St sold for $475,000."},
		Comps:       elmComps(),
	})
	require.NoError(t, err)

	assert.True(t, report.Verdict.Halted())
	assert.ElementsMatch(t, []float64{124}, report.Verdict.Hallucinations)
	assert.Equal(t, []string{"124 Elm St"}, report.Verdict.MatchedAddresses)
	require.Len(t, report.Verdict.Findings, 2)
	assert.Equal(t, model.MatchHallucinated, report.Verdict.Findings[0].Match)
	assert.Equal(t, model.MatchDirect, report.Verdict.Findings[1].Match)
}

func TestPipeline_Check_StripHTML(t *testing.T) {
	c := payload.Case{
		TargetPrice: 500000,
		Drafts: model.DraftPair{
			EmailDraft: `<table width="600"><tr><td>Priced at $500,000.</td></tr></table>`,
		},
		Comps: elmComps(),
	}

	raw := NewPipeline(testConfig())
	report, err := raw.Check(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, model.StatusHalt, report.Verdict.Status, "markup attributes are scanned as text by default")

	cfg := testConfig()
	cfg.Extract.StripHTML = true
	stripped := NewPipeline(cfg)
	report, err = stripped.Check(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, report.Verdict.Status)
	assert.Equal(t, c.Drafts, report.Drafts, "report keeps the drafts as supplied")
}

func TestPipeline_Check_Cache(t *testing.T) {
	vc := cache.NewVerdictCache(cache.NewMemoryCache(time.Minute, time.Minute), 0)
	p := NewPipeline(testConfig(), WithCache(vc))

	c := payload.Case{
		TargetPrice: 500000,
		Drafts:      model.DraftPair{MMSDraft: "Now $499,000."},
		Comps:       elmComps(),
	}

	first, err := p.Check(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// Remarks do not reach the verifier and must not split cache entries
	c.Comps[0].Remarks = "Beautiful home, new roof."
	second, err := p.Check(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Verdict, second.Verdict)
	assert.NotEqual(t, first.ID, second.ID)

	hits, misses := vc.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestPipeline_Check_IgnoresVerdictsFromOtherRevisions(t *testing.T) {
	vc := cache.NewVerdictCache(cache.NewMemoryCache(time.Minute, time.Minute), 0)
	p := NewPipeline(testConfig(), WithCache(vc))

	drafts := model.DraftPair{MMSDraft: "Now $999,999."}
	comps := elmComps()

	// A verdict stored without the revision scope, as an older build would have
	stale, err := cache.Key(p.Verifier().Rules().Fingerprint(), newCacheInputs(drafts, comps, 500000))
	require.NoError(t, err)
	require.NoError(t, vc.Put(stale, model.Verdict{Status: model.StatusVerified, Reason: model.VerifiedReason}))

	report, err := p.Check(context.Background(), payload.Case{TargetPrice: 500000, Drafts: drafts, Comps: comps})
	require.NoError(t, err)
	assert.False(t, report.Cached)
	assert.Equal(t, model.StatusHalt, report.Verdict.Status)

	assert.Contains(t, cacheScope(p.Verifier().Rules()), "rev="+verify.Revision+";")
}

func TestPipeline_Check_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(testConfig()).Check(ctx, payload.Case{Comps: elmComps()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_DraftAndCheck(t *testing.T) {
	drafter := &fakeDrafter{drafts: model.DraftPair{
		MMSDraft:   "Target Pricing Strategy: $500,000.",
		EmailDraft: "Subject: Custom Equity & Pricing Strategy for Willow Way\n\nA comp closed at $475,000.",
	}}
	p := NewPipeline(testConfig(), WithProvider(drafter))
	require.True(t, p.CanDraft())

	comps := []model.Comparable{
		{Address: "80 Oak Ln", Price: 525000, Sqft: 2500, LotAcres: 1.5, Remarks: "sold to family"},
		{Address: "124 Elm St", Price: 475000, Sqft: 2200, LotAcres: 0.5, Remarks: "Beautiful home, new roof."},
		{Address: "91 Maple Dr", Price: 490000, Sqft: 2400, LotAcres: 1.2, Remarks: "needs TLC but great bones."},
		{Address: "55 Pine Ct", Price: 510000, Sqft: 2600, LotAcres: 1.8},
		{Address: "30 Arlmont St", Price: 540000, Sqft: 2700, LotAcres: 2.0},
		{Address: "12 Birch Rd", Price: 455000, Sqft: 2100, LotAcres: 0.8},
	}

	report, err := p.DraftAndCheck(context.Background(), DraftRequest{
		CaseID:      "willow",
		Subject:     "Willow Way",
		TargetPrice: 500000,
		Comps:       comps,
	})
	require.NoError(t, err)

	require.Len(t, drafter.got, 1)
	sent := drafter.got[0].Comps
	require.Len(t, sent, MaxDraftComps)
	assert.Equal(t, "124 Elm St", sent[0].Address)
	assert.Equal(t, "55 Pine Ct", sent[1].Address)
	assert.Equal(t, "30 Arlmont St", sent[2].Address)

	assert.Equal(t, model.StatusVerified, report.Verdict.Status)
	assert.Equal(t, sent, report.Comparables)
	require.NotNil(t, report.Generation)
	assert.Equal(t, "fake", report.Generation.Provider)
	assert.Equal(t, 42, report.Generation.TokensUsed)
}

func TestPipeline_DraftAndCheck_HaltIsNotAnError(t *testing.T) {
	drafter := &fakeDrafter{drafts: model.DraftPair{MMSDraft: "Homes here sell for $999,999."}}
	p := NewPipeline(testConfig(), WithProvider(drafter))

	report, err := p.DraftAndCheck(context.Background(), DraftRequest{TargetPrice: 500000, Comps: elmComps()})
	require.NoError(t, err)
	assert.Equal(t, model.StatusHalt, report.Verdict.Status)
	assert.Equal(t, "Hallucinated numbers detected: [999999.0]", report.Verdict.Reason)
}

func TestPipeline_DraftAndCheck_Errors(t *testing.T) {
	_, err := NewPipeline(testConfig()).DraftAndCheck(context.Background(), DraftRequest{Comps: elmComps()})
	assert.ErrorIs(t, err, ErrDraftingDisabled)

	p := NewPipeline(testConfig(), WithProvider(&fakeDrafter{}))
	_, err = p.DraftAndCheck(context.Background(), DraftRequest{
		Comps: []model.Comparable{{Address: "12 Birch Rd", Remarks: "Handyman Special"}},
	})
	assert.ErrorIs(t, err, ErrNoComparables)

	failing := &fakeDrafter{err: errors.New("quota exceeded")}
	p = NewPipeline(testConfig(), WithProvider(failing))
	_, err = p.DraftAndCheck(context.Background(), DraftRequest{TargetPrice: 500000, Comps: elmComps()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestPipeline_RenderReport(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(testConfig())

	report, err := p.Check(context.Background(), payload.Case{
		ID:          "willow",
		Subject:     "7 Willow Way",
		TargetPrice: 500000,
		Drafts:      model.DraftPair{MMSDraft: "Homes here sell for $999,999."},
		Comps:       elmComps(),
	})
	require.NoError(t, err)

	jsonPath := filepath.Join(dir, "out", "willow.json")
	mdPath := filepath.Join(dir, "out", "willow.md")
	require.NoError(t, p.RenderReport(report, jsonPath, mdPath))

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status": "HALT"`)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Fact Lock: 7 Willow Way"))
	assert.Contains(t, string(md), "`999999.0`")
	assert.Contains(t, string(md), Footer)
}

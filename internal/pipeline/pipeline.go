package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/factlock/internal/cache"
	"github.com/ppiankov/factlock/internal/extract"
	"github.com/ppiankov/factlock/internal/llm"
	"github.com/ppiankov/factlock/internal/logx"
	"github.com/ppiankov/factlock/internal/model"
	"github.com/ppiankov/factlock/internal/payload"
	"github.com/ppiankov/factlock/internal/verify"
)

// MaxDraftComps is how many screened comparables a drafting prompt receives
const MaxDraftComps = 3

// ErrDraftingDisabled is returned by DraftAndCheck when no LLM provider is configured
var ErrDraftingDisabled = errors.New("drafting disabled: no LLM provider configured")

// ErrNoComparables is returned when screening leaves nothing to draft from
var ErrNoComparables = errors.New("no usable comparables after screening")

// Observer is notified once per completed check
type Observer interface {
	ObserveVerdict(v model.Verdict, elapsed time.Duration)
}

// Pipeline orchestrates the complete check process
type Pipeline struct {
	verifier *verify.Verifier
	cache    *cache.VerdictCache // nil when caching is disabled
	drafter  llm.Provider        // Optional draft generator (nil if disabled)
	renderer *Renderer
	observer Observer
	logger   *slog.Logger
	config   *model.Config
}

type options struct {
	cache    *cache.VerdictCache
	cacheSet bool
	drafter  llm.Provider
	observer Observer
	logger   *slog.Logger
}

// Option customizes a Pipeline
type Option func(*options)

// WithProvider sets the draft generator, overriding the configured one
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.drafter = p }
}

// WithCache sets the verdict cache; nil disables caching
func WithCache(c *cache.VerdictCache) Option {
	return func(o *options) {
		o.cache = c
		o.cacheSet = true
	}
}

// WithObserver registers a verdict observer such as the metrics collector
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger sets the pipeline logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, opts ...Option) *Pipeline {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logx.Nop()
	}

	p := &Pipeline{
		verifier: verify.NewVerifier(verify.RulesFromConfig(cfg.Rules)),
		cache:    o.cache,
		drafter:  o.drafter,
		renderer: NewRenderer(cfg.Output.IncludeFooter),
		observer: o.observer,
		logger:   o.logger,
		config:   cfg,
	}

	if !o.cacheSet {
		p.cache = cache.NewFromConfig(cfg.Cache)
	}

	// Create LLM drafter if configured
	if p.drafter == nil && cfg.LLM.Provider != "" {
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			p.logger.Warn("failed to initialize LLM provider", "provider", cfg.LLM.Provider, logx.Error(err))
		} else {
			p.drafter = provider
		}
	}

	return p
}

// Verifier returns the verifier the pipeline checks with
func (p *Pipeline) Verifier() *verify.Verifier {
	return p.verifier
}

// Renderer returns the pipeline's report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// CanDraft reports whether a draft generator is configured
func (p *Pipeline) CanDraft() bool {
	return p.drafter != nil
}

// Check verifies one case and builds its report.
// A HALT is a successful check; only unusable drafts produce an error.
func (p *Pipeline) Check(ctx context.Context, c payload.Case) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	// 1. Reduce HTML email drafts to visible text if enabled
	drafts, err := extract.PrepareDrafts(c.Drafts, p.config.Extract.StripHTML)
	if err != nil {
		return nil, fmt.Errorf("prepare drafts: %w", err)
	}

	// 2. Verify, or serve an identical earlier verdict
	verdict, cached := p.verdict(drafts, c.Comps, c.TargetPrice)

	if !p.config.Output.Findings {
		verdict.Findings = nil
	}

	// 3. Build report
	report := &model.Report{
		ID:          uuid.NewString(),
		CaseID:      c.ID,
		Subject:     c.Subject,
		CheckedAt:   time.Now().UTC(),
		TargetPrice: c.TargetPrice,
		Comparables: c.Comps,
		Drafts:      c.Drafts,
		Verdict:     verdict,
		Cached:      cached,
	}

	elapsed := time.Since(start)
	if p.observer != nil {
		p.observer.ObserveVerdict(verdict, elapsed)
	}

	p.logger.Debug("check complete",
		"case", c.ID,
		"status", verdict.Status,
		"hallucinations", len(verdict.Hallucinations),
		"cached", cached,
		"elapsed", elapsed)

	return report, nil
}

// verdict runs the verifier through the cache when one is configured
func (p *Pipeline) verdict(drafts model.DraftPair, comps []model.Comparable, target float64) (model.Verdict, bool) {
	if p.cache == nil {
		return p.verifier.Verify(drafts, comps, target), false
	}

	key, err := cache.Key(cacheScope(p.verifier.Rules()), newCacheInputs(drafts, comps, target))
	if err != nil {
		p.logger.Warn("cache key failed", logx.Error(err))
		return p.verifier.Verify(drafts, comps, target), false
	}

	if v, ok := p.cache.Get(key); ok {
		return v, true
	}

	v := p.verifier.Verify(drafts, comps, target)
	if err := p.cache.Put(key, v); err != nil {
		p.logger.Warn("cache write failed", logx.Error(err))
	}

	return v, false
}

// cacheScope ties cached verdicts to the verifier revision and its rules
func cacheScope(rules verify.Rules) string {
	return "rev=" + verify.Revision + ";" + rules.Fingerprint()
}

// cacheInputs is everything a verdict depends on. Remarks are left out because
// they never reach the verifier.
type cacheInputs struct {
	Drafts model.DraftPair `json:"drafts"`
	Comps  []compFacts     `json:"comps"`
	Target float64         `json:"target"`
}

type compFacts struct {
	Address  string  `json:"address"`
	Price    float64 `json:"price"`
	Sqft     float64 `json:"sqft"`
	LotAcres float64 `json:"lotAcres"`
}

func newCacheInputs(drafts model.DraftPair, comps []model.Comparable, target float64) cacheInputs {
	facts := make([]compFacts, len(comps))
	for i, c := range comps {
		facts[i] = compFacts{Address: c.Address, Price: c.Price, Sqft: c.Sqft, LotAcres: c.LotAcres}
	}
	return cacheInputs{Drafts: drafts, Comps: facts, Target: target}
}

// DraftRequest describes one drafting job
type DraftRequest struct {
	CaseID      string
	Subject     string
	TargetPrice float64
	Comps       []model.Comparable
	Prompt      string // Optional custom prompt
}

// DraftAndCheck screens the comparables, has the LLM draft an MMS and an email from
// the survivors and fact-locks the result against the same survivors.
// Failed generation is an error; a HALT verdict is a normal report.
func (p *Pipeline) DraftAndCheck(ctx context.Context, req DraftRequest) (*model.Report, error) {
	if p.drafter == nil {
		return nil, ErrDraftingDisabled
	}

	// 1. Screen out non-arm's-length and distressed sales
	comps := verify.ScreenComparables(req.Comps, verify.DefaultToxicRemarks, MaxDraftComps)
	if len(comps) == 0 {
		return nil, ErrNoComparables
	}
	p.logger.Debug("screened comparables", "kept", len(comps), "supplied", len(req.Comps))

	// 2. Generate drafts
	resp, err := p.drafter.Draft(ctx, llm.DraftRequest{
		Subject:     req.Subject,
		TargetPrice: req.TargetPrice,
		Comps:       comps,
		Prompt:      req.Prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("draft: %w", err)
	}

	// 3. Fact-lock the generated drafts
	report, err := p.Check(ctx, payload.Case{
		ID:          req.CaseID,
		Subject:     req.Subject,
		TargetPrice: req.TargetPrice,
		Drafts:      resp.Drafts,
		Comps:       comps,
	})
	if err != nil {
		return nil, err
	}

	report.Generation = &model.Generation{
		Provider:   p.drafter.Name(),
		Model:      resp.Model,
		TokensUsed: resp.TokensUsed,
	}

	if report.Verdict.Halted() {
		p.logger.Warn("generated drafts halted",
			"case", req.CaseID,
			"hallucinations", len(report.Verdict.Hallucinations))
	}

	return report, nil
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string) error {
	// Render JSON
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.logger.Debug("wrote JSON report", "path", jsonPath)
	}

	// Render Markdown
	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		p.logger.Debug("wrote Markdown report", "path", mdPath)
	}

	return nil
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/factlock/internal/payload"
	"github.com/ppiankov/factlock/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	draftSubject string
	draftTarget  string
	draftComps   string
	draftCaseID  string
	draftJSON    string
	draftMD      string
	draftStrict  bool
	draftTimeout time.Duration
)

// draftCmd represents the draft command
var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Generate MMS and email drafts with an LLM and fact-lock them",
	Long: `Draft screens the comparables (non-arm's-length and distressed sales are
dropped, at most three are kept), asks the configured LLM for an MMS and an
email draft, and runs the generated drafts through the fact lock.

The full report, including the drafts, is printed as JSON on stdout.

Supported providers: openai (OPENAI_API_KEY or FACTLOCK_LLM_API_KEY), ollama.

Example:
  factlock draft --subject "7 Willow Way" --target 500000 --comps comps.json --llm-provider openai
  factlock draft --subject "7 Willow Way" --target 500000 --comps comps.json --llm-provider ollama --llm-model llama3.1:8b --md draft.md`,
	Args: cobra.NoArgs,
	RunE: runDraft,
}

func init() {
	rootCmd.AddCommand(draftCmd)

	draftCmd.Flags().StringVar(&draftSubject, "subject", "", "address of the property being marketed (required)")
	draftCmd.Flags().StringVar(&draftTarget, "target", "", "target price (required)")
	draftCmd.Flags().StringVar(&draftComps, "comps", "", "JSON file with the candidate comparables (required)")
	draftCmd.Flags().StringVar(&draftCaseID, "id", "", "case ID recorded in the report")
	draftCmd.Flags().String("llm-provider", "", "LLM provider (openai, ollama)")
	draftCmd.Flags().String("llm-model", "", "LLM model name")
	draftCmd.Flags().StringVar(&draftJSON, "json", "", "also write the report as JSON to this path")
	draftCmd.Flags().StringVar(&draftMD, "md", "", "also write the report as Markdown to this path")
	draftCmd.Flags().BoolVar(&draftStrict, "strict-exit", false, "exit with status 2 when the generated drafts are halted")
	draftCmd.Flags().DurationVar(&draftTimeout, "timeout", 3*time.Minute, "overall timeout")

	_ = draftCmd.MarkFlagRequired("subject")
	_ = draftCmd.MarkFlagRequired("target")
	_ = draftCmd.MarkFlagRequired("comps")

	_ = viper.BindPFlag("llm.provider", draftCmd.Flags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", draftCmd.Flags().Lookup("llm-model"))
}

func runDraft(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), draftTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	target, err := payload.ParseTarget(draftTarget)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(draftComps)
	if err != nil {
		return fmt.Errorf("read comps: %w", err)
	}
	comps, err := payload.ParseComparables(data)
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg, pipeline.WithLogger(logger))
	if !p.CanDraft() {
		return fmt.Errorf("%w: set --llm-provider or llm.provider in the config", pipeline.ErrDraftingDisabled)
	}

	logger.Info("drafting",
		"subject", draftSubject,
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"comps", len(comps))

	report, err := p.DraftAndCheck(ctx, pipeline.DraftRequest{
		CaseID:      draftCaseID,
		Subject:     draftSubject,
		TargetPrice: target,
		Comps:       comps,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrNoComparables) {
			return fmt.Errorf("%w (supplied %d)", err, len(comps))
		}
		return err
	}

	if err := p.RenderReport(report, draftJSON, draftMD); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	return exitFor(report.Verdict.Status, draftStrict)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/factlock/internal/logx"
	"github.com/ppiankov/factlock/internal/pipeline"
	"github.com/ppiankov/factlock/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	outputDir    string
	batchMD      bool
	batchTimeout time.Duration
	batchStrict  bool
	batchNoCache bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <cases-file>",
	Short: "Verify many cases from a file in parallel",
	Long: `Batch verifies every case in a file concurrently:
- Read cases from .jsonl (one JSON case per line), .json (object or array) or .yaml
- Verify cases in parallel with a configurable worker count
- Write one JSON report (and optionally Markdown) per case
- Print one summary line per case and the totals

A case looks like:
  {"id": "willow", "targetPrice": 500000, "drafts": {"mmsDraft": "..."}, "comps": [...]}

Malformed cases are reported as ERROR and do not stop the batch.

Example:
  factlock batch cases.jsonl
  factlock batch cases.yaml --workers 8 --output-dir ./factlock-reports --md`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("workers", 4, "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./factlock-reports", "output directory for reports")
	batchCmd.Flags().BoolVar(&batchMD, "md", false, "also write Markdown reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchStrict, "strict-exit", false, "exit with status 2 when any case is halted")
	batchCmd.Flags().BoolVar(&batchNoCache, "no-cache", false, "disable the verdict cache")

	_ = viper.BindPFlag("concurrency.workers", batchCmd.Flags().Lookup("workers"))
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchNoCache {
		cfg.Cache.Enabled = false
	}
	logger := newLogger(cfg)

	logger.Info("batch started",
		"file", file,
		"workers", cfg.Concurrency.Workers,
		"output_dir", outputDir)

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// Create pipeline
	p := pipeline.NewPipeline(cfg, pipeline.WithLogger(logger))

	// Create batch processor
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	out := cmd.OutOrStdout()
	renderer := p.Renderer()
	used := make(map[string]int)

	for _, result := range results {
		if result.Error != nil {
			_, _ = fmt.Fprintf(out, "%-8s %s: %v\n", result.Outcome.Status, result.Name(), result.Error)
			continue
		}

		slug := uniqueSlug(used, sanitizeFilename(result.Name()))
		jsonPath := filepath.Join(outputDir, slug+".json")
		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			logger.Error("failed to write JSON report", "case", result.Name(), logx.Error(err))
			continue
		}
		if batchMD {
			mdPath := filepath.Join(outputDir, slug+".md")
			if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
				logger.Error("failed to write Markdown report", "case", result.Name(), logx.Error(err))
				continue
			}
		}

		renderer.RenderSummary(out, result.Report)
	}

	summary := worker.Summarize(results)
	_, _ = fmt.Fprintf(out, "\nTotal: %d  Verified: %d  Halted: %d  Errors: %d  Output: %s\n",
		summary.Total(), summary.Verified, summary.Halted, summary.Errors, outputDir)

	logger.Info("batch complete",
		"total", summary.Total(),
		"verified", summary.Verified,
		"halted", summary.Halted,
		"errors", summary.Errors)

	switch {
	case summary.Errors > 0:
		return &ExitCodeError{Code: ExitError, Reason: fmt.Sprintf("%d case(s) failed", summary.Errors)}
	case summary.Halted > 0 && batchStrict:
		return &ExitCodeError{Code: ExitHalted, Reason: fmt.Sprintf("%d case(s) halted", summary.Halted)}
	}

	return nil
}

// sanitizeFilename sanitizes a case ID for use as a filename
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "case"
	}

	return s
}

// uniqueSlug suffixes repeated slugs so reports never overwrite each other
func uniqueSlug(used map[string]int, slug string) string {
	candidate := slug
	for n := 2; used[candidate] > 0; n++ {
		candidate = fmt.Sprintf("%s-%d", slug, n)
	}
	used[candidate]++
	return candidate
}

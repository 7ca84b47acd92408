package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/factlock/internal/model"
	"github.com/ppiankov/factlock/internal/payload"
	"github.com/ppiankov/factlock/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	caseFile      string
	strictExit    bool
	noCache       bool
	verifyJSON    string
	verifyMD      string
	verifyTimeout time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <drafts-json> <comps-json> <target-price>",
	Short: "Verify one pair of drafts against comparables and a target price",
	Long: `Verify extracts every number from the MMS and email drafts and checks each
against the target price, the comparables' price, sqft and lotAcres, the
deltas derived from them, and the structural whitelist.

A single JSON object is printed on stdout:
  {"status":"VERIFIED", ...}   every number is grounded (exit 0)
  {"status":"HALT", ...}       at least one number is not (exit 0, or 2 with --strict-exit)
  {"status":"ERROR", ...}      the inputs are malformed (exit 1)

Arguments starting with @ are read from a file.

Example:
  factlock verify '{"mmsDraft":"Priced at $500,000"}' '[{"address":"12 Main St","price":480000,"sqft":1500,"lotAcres":0.3}]' 500000
  factlock verify @drafts.json @comps.json 500000 --strict-exit
  factlock verify --case case.json --md report.md`,
	Args: cobra.ArbitraryArgs,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&caseFile, "case", "", "read drafts, comps and targetPrice from a JSON or YAML case file")
	verifyCmd.Flags().BoolVar(&strictExit, "strict-exit", false, "exit with status 2 when the drafts are halted")
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the verdict cache")
	verifyCmd.Flags().Bool("findings", false, "include per-number findings in the verdict")
	verifyCmd.Flags().Bool("strip-html", false, "reduce an HTML email draft to visible text before checking")
	verifyCmd.Flags().StringVar(&verifyJSON, "json", "", "also write the full report as JSON to this path")
	verifyCmd.Flags().StringVar(&verifyMD, "md", "", "also write the report as Markdown to this path")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 30*time.Second, "overall timeout")

	_ = viper.BindPFlag("output.findings", verifyCmd.Flags().Lookup("findings"))
	_ = viper.BindPFlag("extract.strip_html", verifyCmd.Flags().Lookup("strip-html"))
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), verifyTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	logger := newLogger(cfg)

	out := cmd.OutOrStdout()

	c, err := readCase(args)
	if err != nil {
		logger.Debug("rejected input", "error", err)
		return emitOutcome(out, model.OutcomeFromError(err), strictExit)
	}

	p := pipeline.NewPipeline(cfg, pipeline.WithLogger(logger))

	report, err := p.Check(ctx, c)
	if err != nil {
		return emitOutcome(out, model.OutcomeFromError(err), strictExit)
	}

	if err := p.RenderReport(report, verifyJSON, verifyMD); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return emitOutcome(out, model.OutcomeFromVerdict(report.Verdict), strictExit)
}

// readCase builds a case from --case or the three positional arguments
func readCase(args []string) (payload.Case, error) {
	if err := checkArgCount(args); err != nil {
		return payload.Case{}, err
	}

	if caseFile != "" {
		entries, err := payload.LoadCases(caseFile)
		if err != nil {
			return payload.Case{}, err
		}
		if len(entries) != 1 {
			return payload.Case{}, fmt.Errorf("%s: expected exactly one case, found %d", caseFile, len(entries))
		}
		return entries[0].Case, entries[0].Err
	}

	drafts, err := argValue(args[0])
	if err != nil {
		return payload.Case{}, err
	}
	comps, err := argValue(args[1])
	if err != nil {
		return payload.Case{}, err
	}
	target, err := argValue(args[2])
	if err != nil {
		return payload.Case{}, err
	}

	return payload.ParseArgs(drafts, comps, target)
}

// checkArgCount reports a wrong argument count as an input error, so it is
// answered with an ERROR outcome like any other malformed input
func checkArgCount(args []string) error {
	switch {
	case caseFile != "" && len(args) > 0:
		return fmt.Errorf("%w: --case takes no positional arguments, got %d", payload.ErrInvalidInput, len(args))
	case caseFile == "" && len(args) != 3:
		return fmt.Errorf("%w: missing arguments: expected <drafts-json> <comps-json> <target-price>, got %d", payload.ErrInvalidInput, len(args))
	}
	return nil
}

// argValue returns the argument, or the contents of the file it names with a leading @
func argValue(arg string) (string, error) {
	path, ok := strings.CutPrefix(arg, "@")
	if !ok {
		return arg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// emitOutcome prints the outcome as one JSON line and maps it to an exit status
func emitOutcome(w io.Writer, outcome model.Outcome, strict bool) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}

	return exitFor(outcome.Status, strict)
}

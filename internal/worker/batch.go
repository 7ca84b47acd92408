package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/factlock/internal/model"
	"github.com/ppiankov/factlock/internal/payload"
)

// ErrNotProcessed marks a case the batch stopped before checking
var ErrNotProcessed = errors.New("case not processed")

// Checker defines the interface for checking a single case
type Checker interface {
	Check(ctx context.Context, c payload.Case) (*model.Report, error)
}

// CheckJob represents one case-file entry to verify
type CheckJob struct {
	Entry   payload.Entry
	Checker Checker
}

// Execute executes the check job. Malformed entries become ERROR results
// without reaching the checker.
func (j *CheckJob) Execute(ctx context.Context) Result {
	res := &CheckResult{
		CaseID: j.Entry.Case.ID,
		Line:   j.Entry.Line,
	}

	if j.Entry.Err != nil {
		res.Error = j.Entry.Err
		res.Outcome = model.OutcomeFromError(j.Entry.Err)
		return res
	}

	report, err := j.Checker.Check(ctx, j.Entry.Case)
	if err != nil {
		res.Error = err
		res.Outcome = model.OutcomeFromError(err)
		return res
	}

	res.Report = report
	res.Outcome = model.OutcomeFromVerdict(report.Verdict)
	return res
}

// CheckResult represents the result of a check job
type CheckResult struct {
	CaseID  string
	Line    int
	Report  *model.Report
	Outcome model.Outcome
	Error   error
}

// GetError returns the error from the check result
func (r *CheckResult) GetError() error {
	return r.Error
}

// Name identifies the result in summaries
func (r *CheckResult) Name() string {
	if r.CaseID != "" {
		return r.CaseID
	}
	return fmt.Sprintf("entry %d", r.Line)
}

// Summary counts batch results by status
type Summary struct {
	Verified int
	Halted   int
	Errors   int
}

// Total returns the number of results summarized
func (s Summary) Total() int {
	return s.Verified + s.Halted + s.Errors
}

// Summarize counts results by outcome status
func Summarize(results []*CheckResult) Summary {
	var s Summary
	for _, r := range results {
		switch r.Outcome.Status {
		case model.StatusVerified:
			s.Verified++
		case model.StatusHalt:
			s.Halted++
		default:
			s.Errors++
		}
	}
	return s
}

// BatchProcessor verifies many cases concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessEntries checks case-file entries concurrently; results keep entry order
func (b *BatchProcessor) ProcessEntries(ctx context.Context, entries []payload.Entry) []*CheckResult {
	if len(entries) == 0 {
		return []*CheckResult{}
	}

	// Create worker pool
	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	// Submit jobs
	for _, entry := range entries {
		pool.Submit(&CheckJob{
			Entry:   entry,
			Checker: b.checker,
		})
	}

	// Wait for all jobs to complete
	results := pool.Wait()

	checkResults := make([]*CheckResult, len(results))
	for i, result := range results {
		if result == nil {
			checkResults[i] = notProcessed(ctx, entries[i])
			continue
		}
		checkResults[i] = result.(*CheckResult)
	}

	return checkResults
}

// notProcessed reports an entry that was dropped before it was checked
func notProcessed(ctx context.Context, entry payload.Entry) *CheckResult {
	err := ErrNotProcessed
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("%w: %w", ErrNotProcessed, ctxErr)
	}
	return &CheckResult{
		CaseID:  entry.Case.ID,
		Line:    entry.Line,
		Outcome: model.OutcomeFromError(err),
		Error:   err,
	}
}

// ProcessFile loads cases from a file and checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	entries, err := payload.LoadCases(filePath)
	if err != nil {
		return nil, fmt.Errorf("load cases: %w", err)
	}

	return b.ProcessEntries(ctx, entries), nil
}

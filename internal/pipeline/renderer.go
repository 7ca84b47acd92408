package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/factlock/internal/model"
	"github.com/ppiankov/factlock/internal/verify"
)

// Footer is appended to Markdown reports unless disabled
const Footer = "_Checked by factlock. A VERIFIED verdict means every number in the drafts is grounded in the supplied comparables; it says nothing about the comparables themselves._"

// Renderer writes reports as JSON, Markdown or a one-line summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown renders the report as a Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	title := report.Subject
	if title == "" {
		title = report.CaseID
	}
	if title == "" {
		title = report.ID
	}

	fmt.Fprintf(&b, "# Fact Lock: %s\n\n", title)
	fmt.Fprintf(&b, "- **Status:** %s\n", report.Verdict.Status)
	fmt.Fprintf(&b, "- **Reason:** %s\n", report.Verdict.Reason)
	fmt.Fprintf(&b, "- **Target price:** %s\n", verify.FormatNumber(report.TargetPrice))
	fmt.Fprintf(&b, "- **Checked at:** %s\n", report.CheckedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Report ID:** `%s`\n", report.ID)
	if report.Cached {
		b.WriteString("- **Cached:** yes\n")
	}
	if gen := report.Generation; gen != nil {
		fmt.Fprintf(&b, "- **Drafted by:** %s/%s\n", gen.Provider, gen.Model)
	}
	b.WriteString("\n")

	if len(report.Verdict.Hallucinations) > 0 {
		b.WriteString("## Hallucinated Numbers\n\n")
		for _, n := range report.Verdict.Hallucinations {
			fmt.Fprintf(&b, "- `%s`\n", verify.FormatNumber(n))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Comparables\n\n")
	b.WriteString("| Address | Price | Sqft | Lot (acres) |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, c := range report.Comparables {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			escapeCell(c.Address),
			verify.FormatNumber(c.Price),
			verify.FormatNumber(c.Sqft),
			verify.FormatNumber(c.LotAcres))
	}
	b.WriteString("\n")

	if len(report.Verdict.MatchedAddresses) > 0 {
		b.WriteString("## Referenced Comparables\n\n")
		for _, a := range report.Verdict.MatchedAddresses {
			fmt.Fprintf(&b, "- %s\n", a)
		}
		b.WriteString("\n")
	}

	if len(report.Verdict.Findings) > 0 {
		b.WriteString("## Findings\n\n")
		b.WriteString("| Value | Match | Against | Comparable | Field |\n")
		b.WriteString("|---:|---|---:|---|---|\n")
		for _, f := range report.Verdict.Findings {
			against := ""
			if f.Match != model.MatchHallucinated {
				against = verify.FormatNumber(f.Against)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				verify.FormatNumber(f.Value), f.Match, against, escapeCell(f.Comp), f.Field)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Drafts\n\n")
	writeDraft(&b, "MMS", report.Drafts.MMSDraft)
	writeDraft(&b, "Email", report.Drafts.EmailDraft)

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString(Footer)
		b.WriteString("\n")
	}

	return b.String()
}

// RenderSummary prints a one-line summary of the report
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	name := report.CaseID
	if name == "" {
		name = report.ID
	}

	line := fmt.Sprintf("%-8s %s", report.Verdict.Status, name)
	if report.Subject != "" {
		line += " (" + report.Subject + ")"
	}
	if n := len(report.Verdict.Hallucinations); n > 0 {
		line += fmt.Sprintf(": %d hallucinated", n)
	}

	_, _ = fmt.Fprintln(w, line)
}

func writeDraft(b *strings.Builder, label, text string) {
	fmt.Fprintf(b, "### %s\n\n", label)
	if strings.TrimSpace(text) == "" {
		b.WriteString("_(empty)_\n\n")
		return
	}
	b.WriteString("```text\n")
	b.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

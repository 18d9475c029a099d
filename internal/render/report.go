package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/clauseflag/internal/apperr"
	"github.com/ppiankov/clauseflag/internal/model"
)

// Writer persists rendered output. All failures carry CodeWriteFailure;
// nothing is retried here.
type Writer struct{}

// NewWriter creates a Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteText writes the annotated text stream to path.
func (w *Writer) WriteText(path, text string) error {
	return writeFile(path, []byte(text))
}

// WriteJSON writes the report as indented JSON to path.
func (w *Writer) WriteJSON(report *model.FlagReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return apperr.WriteFailure(path, fmt.Errorf("marshal report: %w", err))
	}
	return writeFile(path, append(data, '\n'))
}

// WriteSummaryMarkdown writes the optional LLM summary next to the report.
func (w *Writer) WriteSummaryMarkdown(report *model.FlagReport, path string) error {
	if report.Summary == nil {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Review summary: %s\n\n", filepath.Base(report.Document))
	fmt.Fprintf(&b, "_Generated by %s/%s. Flags were produced by %s similarity above %.2f and are not changed by this summary._\n\n",
		report.Summary.Provider, report.Summary.Model, report.Metric, report.Threshold)
	b.WriteString(report.Summary.Text)
	b.WriteString("\n")
	return writeFile(path, []byte(b.String()))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperr.WriteFailure(path, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperr.WriteFailure(path, err)
	}
	return nil
}

// PrintSummary writes a short human-readable overview of the report.
func PrintSummary(out io.Writer, report *model.FlagReport) {
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "  %s\n", filepath.Base(report.Document))
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "  Matrix:      %s (%d categories, %d problems)\n", filepath.Base(report.Matrix), report.Categories, report.Problems)
	fmt.Fprintf(out, "  Sentences:   %d\n", report.Sentences)
	fmt.Fprintf(out, "  Flagged:     %d (%s > %.2f)\n", report.FlaggedCount(), report.Metric, report.Threshold)

	byCategory := make(map[string]int)
	var order []string
	for _, m := range report.Matches {
		if byCategory[m.Category] == 0 {
			order = append(order, m.Category)
		}
		byCategory[m.Category]++
	}
	for _, c := range order {
		fmt.Fprintf(out, "    - %-30s %d\n", c, byCategory[c])
	}
	fmt.Fprintf(out, "\n")
}

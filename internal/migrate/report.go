package migrate

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	reportIndentConstant            = 2
	reportEncodeErrorTemplate       = "unable to encode migration report: %w"
	reportCloseErrorTemplate        = "unable to flush migration report: %w"
	textResultLineTemplateConstant  = "%-17s %s"
	textPatternSuffixTemplate       = " (%s)"
	textReasonLineTemplateConstant  = "    %s\n"
	textContextLineTemplateConstant = "    | %s\n"
	textSummaryTemplateConstant     = "target=%s dry_run=%t changed=%d unchanged=%d rejected=%d needs_review=%d failed=%d\n"
	newlineConstant                 = "\n"
)

// ReportFormat selects how a batch result is printed.
type ReportFormat string

// Supported report formats.
const (
	ReportFormatYAML ReportFormat = "yaml"
	ReportFormatText ReportFormat = "text"
)

// Report is the machine-parsable summary of a batch run.
type Report struct {
	Target string        `yaml:"target"`
	DryRun bool          `yaml:"dry_run"`
	Counts Summary       `yaml:"counts"`
	Files  []ReportEntry `yaml:"files"`
}

// ReportEntry summarizes one file.
type ReportEntry struct {
	File    string   `yaml:"file"`
	Status  Status   `yaml:"status"`
	Pattern string   `yaml:"pattern,omitempty"`
	Reasons []string `yaml:"reasons,omitempty"`
	Reason  string   `yaml:"reason,omitempty"`
	Context []string `yaml:"context,omitempty"`
}

// NewReport converts a batch result into its report form.
func NewReport(batch BatchResult) Report {
	report := Report{
		Target: string(batch.Target),
		DryRun: batch.DryRun,
		Counts: batch.Summary,
		Files:  make([]ReportEntry, 0, len(batch.Results)),
	}
	for _, result := range batch.Results {
		entry := ReportEntry{
			File:    result.File,
			Status:  result.Status,
			Pattern: string(result.Pattern),
			Reason:  result.Reason(),
			Context: result.ReviewContext,
		}
		for _, reason := range result.Reasons {
			entry.Reasons = append(entry.Reasons, string(reason))
		}
		report.Files = append(report.Files, entry)
	}
	return report
}

// WriteYAML encodes the report as a YAML document.
func (report Report) WriteYAML(writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(reportIndentConstant)
	if encodeError := encoder.Encode(report); encodeError != nil {
		return fmt.Errorf(reportEncodeErrorTemplate, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf(reportCloseErrorTemplate, closeError)
	}
	return nil
}

// Reporter emits formatted lines to an underlying sink.
type Reporter interface {
	Printf(format string, args ...any)
}

type writerReporter struct {
	writer io.Writer
}

// NewWriterReporter constructs a Reporter that writes to the provided io.Writer.
func NewWriterReporter(writer io.Writer) Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return writerReporter{writer: writer}
}

func (reporter writerReporter) Printf(format string, args ...any) {
	fmt.Fprintf(reporter.writer, format, args...)
}

// PrintText writes one line per file, followed by the reason, the manual-review context or, for
// dry runs, the would-be diff, and ends with the counts.
func PrintText(reporter Reporter, batch BatchResult) {
	for _, result := range batch.Results {
		line := fmt.Sprintf(textResultLineTemplateConstant, result.Status, result.File)
		if len(result.Pattern) > 0 {
			line += fmt.Sprintf(textPatternSuffixTemplate, result.Pattern)
		}
		reporter.Printf("%s%s", line, newlineConstant)

		if reason := result.Reason(); len(reason) > 0 {
			for _, reasonLine := range strings.Split(reason, newlineConstant) {
				reporter.Printf(textReasonLineTemplateConstant, reasonLine)
			}
		}
		for _, contextLine := range result.ReviewContext {
			reporter.Printf(textContextLineTemplateConstant, contextLine)
		}
		if batch.DryRun && result.Status == StatusChanged {
			reporter.Printf("%s", result.Diff)
		}
	}

	summary := batch.Summary
	reporter.Printf(textSummaryTemplateConstant, batch.Target, batch.DryRun, summary.Changed, summary.Unchanged, summary.Rejected, summary.NeedsReview, summary.Failed)
}

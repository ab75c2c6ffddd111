package migrate_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/triggershift/internal/classifier"
	"github.com/temirov/triggershift/internal/migrate"
	"github.com/temirov/triggershift/internal/rules"
	"github.com/temirov/triggershift/internal/targets"
)

const (
	reportChangedFileConstant  = ".github/workflows/build.yml"
	reportReviewFileConstant   = ".github/workflows/matrix.yml"
	reportRejectedFileConstant = ".github/workflows/publish.yml"
	reportDiffConstant         = "--- build.yml\n+++ build.yml\n@@ -1,3 +1,3 @@\n-    branches: [develop]\n+    branches: [feature/*]\n"
)

func sampleBatchResult(dryRun bool) migrate.BatchResult {
	return migrate.BatchResult{
		Target: targets.FeatureOnly,
		DryRun: dryRun,
		Results: []migrate.TransformResult{
			{
				File:    reportChangedFileConstant,
				Status:  migrate.StatusChanged,
				Pattern: classifier.KindNeedsInversion,
				Reasons: []rules.ReasonTag{rules.ReasonFilterReplacement, rules.ReasonScheduleRemoval},
				Diff:    reportDiffConstant,
			},
			{
				File:          reportReviewFileConstant,
				Status:        migrate.StatusNeedsManualReview,
				Pattern:       classifier.KindNeedsTriggerReplacement,
				ReviewReason:  "inline event list",
				ReviewContext: []string{"on: [push, pull_request]"},
			},
			{
				File:            reportRejectedFileConstant,
				Status:          migrate.StatusRejected,
				Pattern:         classifier.KindNeedsRegistryMigration,
				RejectionReason: "protected line removed: NAMESPACE_GSM_SVC_EMAIL\n@@ -4,1 +4,0 @@",
			},
		},
		Summary: migrate.Summary{Changed: 1, Rejected: 1, NeedsReview: 1},
	}
}

func TestReportWriteYAMLIsParseable(testInstance *testing.T) {
	buffer := &bytes.Buffer{}
	require.NoError(testInstance, migrate.NewReport(sampleBatchResult(false)).WriteYAML(buffer))

	decoded := migrate.Report{}
	require.NoError(testInstance, yaml.Unmarshal(buffer.Bytes(), &decoded))

	expected := migrate.Report{
		Target: string(targets.FeatureOnly),
		Counts: migrate.Summary{Changed: 1, Rejected: 1, NeedsReview: 1},
		Files: []migrate.ReportEntry{
			{
				File:    reportChangedFileConstant,
				Status:  migrate.StatusChanged,
				Pattern: string(classifier.KindNeedsInversion),
				Reasons: []string{string(rules.ReasonFilterReplacement), string(rules.ReasonScheduleRemoval)},
			},
			{
				File:    reportReviewFileConstant,
				Status:  migrate.StatusNeedsManualReview,
				Pattern: string(classifier.KindNeedsTriggerReplacement),
				Reason:  "inline event list",
				Context: []string{"on: [push, pull_request]"},
			},
			{
				File:    reportRejectedFileConstant,
				Status:  migrate.StatusRejected,
				Pattern: string(classifier.KindNeedsRegistryMigration),
				Reason:  "protected line removed: NAMESPACE_GSM_SVC_EMAIL\n@@ -4,1 +4,0 @@",
			},
		},
	}
	require.Empty(testInstance, cmp.Diff(expected, decoded))
	require.NotContains(testInstance, buffer.String(), reportDiffConstant)
}

func TestPrintTextListsFilesReasonsAndSummary(testInstance *testing.T) {
	buffer := &bytes.Buffer{}
	migrate.PrintText(migrate.NewWriterReporter(buffer), sampleBatchResult(true))
	output := buffer.String()

	require.Contains(testInstance, output, "NeedsManualReview "+reportReviewFileConstant+" (NeedsTriggerReplacement)\n")
	require.Contains(testInstance, output, "    inline event list\n")
	require.Contains(testInstance, output, "    | on: [push, pull_request]\n")
	require.Contains(testInstance, output, "    protected line removed: NAMESPACE_GSM_SVC_EMAIL\n    @@ -4,1 +4,0 @@\n")
	require.Contains(testInstance, output, reportDiffConstant)
	require.True(testInstance, strings.HasSuffix(output, "target=feature-only dry_run=true changed=1 unchanged=0 rejected=1 needs_review=1 failed=0\n"))
}

func TestPrintTextOmitsDiffOutsideDryRun(testInstance *testing.T) {
	buffer := &bytes.Buffer{}
	migrate.PrintText(migrate.NewWriterReporter(buffer), sampleBatchResult(false))

	require.NotContains(testInstance, buffer.String(), reportDiffConstant)
	require.Contains(testInstance, buffer.String(), "dry_run=false")
}

package migrate_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/triggershift/internal/classifier"
	"github.com/temirov/triggershift/internal/document"
	"github.com/temirov/triggershift/internal/migrate"
	"github.com/temirov/triggershift/internal/rules"
	"github.com/temirov/triggershift/internal/targets"
	"github.com/temirov/triggershift/internal/verify"
)

const (
	migrateSubtestNameTemplateConstant = "%d_%s"
	testWorkflowFileNameConstant       = ".github/workflows/ci.yml"

	featureBranchesWorkflow = `name: CI
on:
  push:
    branches: [feature/*]
  workflow_dispatch:
jobs:
  build:
    runs-on: ubuntu-latest
`
	ignoreMainWorkflow = `name: CI
on:
  push:
    branches-ignore: [main]
  workflow_dispatch:
jobs:
  build:
    runs-on: ubuntu-latest
`
	inlineEventsWorkflow  = "on: [push, pull_request]\njobs:\n  build:\n    runs-on: ubuntu-latest\n"
	sharedValuesDocument  = "name: shared\nvalues:\n  retries: 3\n"
	secretsPathWorkflow   = "on:\n  pull_request:\n    paths: ['secrets.txt']\njobs:\n  build:\n    runs-on: ubuntu-latest\n"
	byteOrderMarkConstant = "\ufeff"
)

type tamperingRewriter struct {
	engine      *rules.Engine
	original    string
	replacement string
}

func (rewriter tamperingRewriter) Apply(parsed *document.Document, target targets.TargetSpec) rules.Result {
	result := rewriter.engine.Apply(parsed, target)
	if result.Outcome == rules.OutcomeRewritten {
		result.Document = document.Parse(strings.Replace(result.Document.Render(), rewriter.original, rewriter.replacement, 1))
	}
	return result
}

type unsettledRewriter struct{}

func (unsettledRewriter) Apply(parsed *document.Document, target targets.TargetSpec) rules.Result {
	pattern := classifier.Classify(parsed, target)
	outcome := rules.OutcomeRewritten
	if pattern.Settled() {
		outcome = rules.OutcomeUnchanged
	}
	return rules.Result{Document: parsed, Pattern: pattern, Outcome: outcome}
}

func lookupTarget(testInstance *testing.T, name targets.Name) targets.TargetSpec {
	testInstance.Helper()
	target, lookupError := targets.Lookup(string(name))
	require.NoError(testInstance, lookupError)
	return target
}

func TestPipelineTransformStatuses(testInstance *testing.T) {
	testCases := []struct {
		name            string
		content         []byte
		expectedStatus  migrate.Status
		expectedPattern classifier.Kind
		expectReason    bool
	}{
		{
			name:            "needs_inversion_is_changed",
			content:         []byte(featureBranchesWorkflow),
			expectedStatus:  migrate.StatusChanged,
			expectedPattern: classifier.KindNeedsInversion,
		},
		{
			name:            "already_target_is_unchanged",
			content:         []byte(ignoreMainWorkflow),
			expectedStatus:  migrate.StatusUnchanged,
			expectedPattern: classifier.KindAlreadyTarget,
		},
		{
			name:            "not_applicable_is_unchanged",
			content:         []byte(sharedValuesDocument),
			expectedStatus:  migrate.StatusUnchanged,
			expectedPattern: classifier.KindNotApplicable,
		},
		{
			name:           "inline_events_need_review",
			content:        []byte(inlineEventsWorkflow),
			expectedStatus: migrate.StatusNeedsManualReview,
			expectReason:   true,
		},
		{
			name:           "invalid_encoding_needs_review",
			content:        []byte{'o', 'n', ':', 0xff, 0xfe, '\n'},
			expectedStatus: migrate.StatusNeedsManualReview,
			expectReason:   true,
		},
	}

	pipeline := migrate.NewPipeline(nil)
	target := lookupTarget(testInstance, targets.AllExceptMain)
	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(migrateSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			result, transformError := pipeline.Transform(testWorkflowFileNameConstant, testCase.content, target)
			require.NoError(testInstance, transformError)
			require.Equal(testInstance, testWorkflowFileNameConstant, result.File)
			require.Equal(testInstance, testCase.expectedStatus, result.Status)
			if len(testCase.expectedPattern) > 0 {
				require.Equal(testInstance, testCase.expectedPattern, result.Pattern)
			}
			if testCase.expectReason {
				require.NotEmpty(testInstance, result.Reason())
			} else {
				require.Empty(testInstance, result.Reason())
			}
			if testCase.expectedStatus != migrate.StatusChanged {
				require.Empty(testInstance, result.NewContent)
				require.Empty(testInstance, result.Diff)
			}
		})
	}
}

func TestPipelineTransformProducesContentAndDiff(testInstance *testing.T) {
	pipeline := migrate.NewPipeline(nil)
	target := lookupTarget(testInstance, targets.AllExceptMain)

	result, transformError := pipeline.Transform(testWorkflowFileNameConstant, []byte(featureBranchesWorkflow), target)
	require.NoError(testInstance, transformError)
	require.Equal(testInstance, migrate.StatusChanged, result.Status)
	require.Equal(testInstance, ignoreMainWorkflow, result.NewContent)
	require.Equal(testInstance, []rules.ReasonTag{rules.ReasonFilterReplacement}, result.Reasons)
	require.Contains(testInstance, result.Diff, "-    branches: [feature/*]\n")
	require.Contains(testInstance, result.Diff, "+    branches-ignore: [main]\n")

	second, secondError := pipeline.Transform(testWorkflowFileNameConstant, []byte(result.NewContent), target)
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, migrate.StatusUnchanged, second.Status)
}

func TestPipelineRewritesWorkflowWithByteOrderMark(testInstance *testing.T) {
	pipeline := migrate.NewPipeline(nil)
	target := lookupTarget(testInstance, targets.AllExceptMain)

	result, transformError := pipeline.Transform(testWorkflowFileNameConstant, []byte(byteOrderMarkConstant+featureBranchesWorkflow), target)
	require.NoError(testInstance, transformError)
	require.Equal(testInstance, migrate.StatusChanged, result.Status)
	require.Equal(testInstance, classifier.KindNeedsInversion, result.Pattern)
	require.Equal(testInstance, byteOrderMarkConstant+ignoreMainWorkflow, result.NewContent)
}

func TestPipelineAcceptsPlainTextMentioningSecrets(testInstance *testing.T) {
	pipeline := migrate.NewPipeline(nil)
	target := lookupTarget(testInstance, targets.FeatureOnly)

	result, transformError := pipeline.Transform(testWorkflowFileNameConstant, []byte(secretsPathWorkflow), target)
	require.NoError(testInstance, transformError)
	require.Equal(testInstance, migrate.StatusChanged, result.Status, result.Reason())
	require.NotContains(testInstance, result.NewContent, "pull_request:")
	require.Contains(testInstance, result.NewContent, "  push:\n")
}

func TestPipelineRejectsRewritesOutsideAllowList(testInstance *testing.T) {
	pipeline := migrate.NewPipeline(tamperingRewriter{
		engine:      rules.NewEngine(),
		original:    "runs-on: ubuntu-latest",
		replacement: "runs-on: self-hosted",
	})
	target := lookupTarget(testInstance, targets.AllExceptMain)

	result, transformError := pipeline.Transform(testWorkflowFileNameConstant, []byte(featureBranchesWorkflow), target)
	require.NoError(testInstance, transformError)
	require.Equal(testInstance, migrate.StatusRejected, result.Status)
	require.Contains(testInstance, result.RejectionReason, verify.ReasonForbiddenFragment)
	require.Contains(testInstance, result.RejectionReason, "runs-on: ubuntu-latest")
	require.Empty(testInstance, result.NewContent)
}

func TestPipelineReportsIdempotenceViolations(testInstance *testing.T) {
	pipeline := migrate.NewPipeline(unsettledRewriter{})
	target := lookupTarget(testInstance, targets.AllExceptMain)

	result, transformError := pipeline.Transform(testWorkflowFileNameConstant, []byte(featureBranchesWorkflow), target)
	require.Error(testInstance, transformError)

	var violation *verify.IdempotenceViolationError
	require.True(testInstance, errors.As(transformError, &violation))
	require.Equal(testInstance, targets.AllExceptMain, violation.Target)
	require.Equal(testInstance, migrate.StatusRejected, result.Status)
	require.Contains(testInstance, result.RejectionReason, verify.ReasonIdempotenceViolation)
}

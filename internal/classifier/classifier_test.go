package classifier_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/triggershift/internal/classifier"
	"github.com/temirov/triggershift/internal/document"
	"github.com/temirov/triggershift/internal/targets"
)

const (
	classifierSubtestNameTemplateConstant = "%d_%s"
)

func lookupTarget(testInstance *testing.T, name targets.Name) targets.TargetSpec {
	testInstance.Helper()
	target, lookupError := targets.Lookup(string(name))
	require.NoError(testInstance, lookupError)
	return target
}

func TestClassifyTriggerKinds(testInstance *testing.T) {
	testCases := []struct {
		name              string
		input             string
		target            targets.Name
		expectedKind      classifier.Kind
		expectedAmbiguous bool
	}{
		{name: "no_on_key", input: "name: lint\njobs: {}\n", target: targets.AllExceptMain, expectedKind: classifier.KindNotApplicable},
		{name: "ignore_main_is_target", input: "on:\n  push:\n    branches-ignore: [main]\n", target: targets.AllExceptMain, expectedKind: classifier.KindAlreadyTarget},
		{name: "quoted_on_key", input: "'on':\n  push:\n    branches-ignore:\n      - main\n", target: targets.AllExceptMain, expectedKind: classifier.KindAlreadyTarget},
		{name: "extra_ignored_branch", input: "on:\n  push:\n    branches-ignore: [main, develop]\n", target: targets.AllExceptMain, expectedKind: classifier.KindNeedsTokenRemoval},
		{name: "wrong_filter_key", input: "on:\n  push:\n    branches: [main]\n", target: targets.AllExceptMain, expectedKind: classifier.KindNeedsInversion},
		{name: "push_without_filter", input: "on:\n  push:\n  workflow_dispatch:\n", target: targets.AllExceptMain, expectedKind: classifier.KindNeedsInversion},
		{name: "tag_only_push", input: "on:\n  push:\n    tags: ['v*']\n", target: targets.AllExceptMain, expectedKind: classifier.KindNeedsInversion, expectedAmbiguous: true},
		{name: "tags_beside_branch_filter", input: "on:\n  push:\n    branches: [main]\n    tags: ['v*']\n", target: targets.AllExceptMain, expectedKind: classifier.KindNeedsInversion},
		{name: "develop_and_main_for_github_flow", input: "on:\n  push:\n    branches: [develop, main]\n", target: targets.GitHubFlowMigration, expectedKind: classifier.KindNeedsInversion},
		{name: "pull_request_replaced", input: "on:\n  pull_request:\n    types: [opened]\n", target: targets.GitHubFlowMigration, expectedKind: classifier.KindNeedsTriggerReplacement},
		{name: "pull_request_kept_for_all_except_main", input: "on:\n  pull_request:\n    types: [opened]\n", target: targets.AllExceptMain, expectedKind: classifier.KindNeedsTriggerInsertion},
		{name: "dispatch_only", input: "on:\n  workflow_dispatch:\n", target: targets.FeatureOnly, expectedKind: classifier.KindNeedsTriggerInsertion},
		{name: "inline_events", input: "on: [push]\n", target: targets.AllExceptMain, expectedKind: classifier.KindNeedsInversion, expectedAmbiguous: true},
		{name: "inline_push_filters", input: "on:\n  push: {branches: [main]}\n", target: targets.AllExceptMain, expectedKind: classifier.KindNeedsInversion, expectedAmbiguous: true},
		{name: "duplicate_push", input: "on:\n  push:\n    branches-ignore: [main]\n  push:\n    branches: [main]\n", target: targets.AllExceptMain, expectedKind: classifier.KindAlreadyTarget, expectedAmbiguous: true},
		{name: "mapping_in_branch_list", input: "on:\n  push:\n    branches:\n      - name: main\n", target: targets.AllExceptMain, expectedKind: classifier.KindNeedsInversion, expectedAmbiguous: true},
		{name: "dispatch_declared_twice", input: "on:\n  push:\n    branches: [main]\n    workflow_dispatch:\n  workflow_dispatch:\n", target: targets.AllExceptMain, expectedKind: classifier.KindNeedsInversion, expectedAmbiguous: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(classifierSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			pattern := classifier.Classify(document.Parse(testCase.input), lookupTarget(testInstance, testCase.target))
			require.Equal(testInstance, testCase.expectedKind, pattern.Kind)
			require.Equal(testInstance, testCase.expectedAmbiguous, pattern.Ambiguous, pattern.AmbiguityReason)
			require.Equal(testInstance, targets.FamilyTrigger, pattern.Family)
		})
	}
}

func TestClassifyTriggerFacts(testInstance *testing.T) {
	input := "on:\n    push:\n        branches:\n            - main\n        workflow_dispatch:\n    schedule:\n        - cron: '0 0 * * *'\n"
	pattern := classifier.Classify(document.Parse(input), lookupTarget(testInstance, targets.FeatureOnly))

	require.Equal(testInstance, classifier.KindNeedsInversion, pattern.Kind)
	require.False(testInstance, pattern.Ambiguous)
	require.Equal(testInstance, 4, pattern.IndentUnit)
	require.True(testInstance, pattern.HasSchedule)
	require.True(testInstance, pattern.PendingScheduleRemoval)
	require.True(testInstance, pattern.HasWorkflowDispatch)
	require.True(testInstance, pattern.DispatchMisplaced)
	require.Equal(testInstance, []string{"main"}, pattern.TargetBranchList)
	require.Equal(testInstance, classifier.ListFormBlock, pattern.ListForm)
	require.Equal(testInstance, classifier.Anchors{On: 0, Push: 1, Filter: 2, PullRequest: -1, Schedule: 5, Dispatch: 4, DispatchParent: 1}, pattern.Anchors)
	require.False(testInstance, pattern.Settled())
}

func TestBranchTokensNormalizesLayouts(testInstance *testing.T) {
	testCases := []struct {
		name           string
		input          string
		expectedTokens []string
		expectedForm   classifier.ListForm
		expectReason   bool
	}{
		{name: "inline", input: "branches: [develop, 'main', \"feature/*\"]\n", expectedTokens: []string{"develop", "main", "feature/*"}, expectedForm: classifier.ListFormInline},
		{name: "scalar", input: "branches: main\n", expectedTokens: []string{"main"}, expectedForm: classifier.ListFormScalar},
		{name: "block", input: "branches:\n  - develop # legacy\n\n  - 'main'\n", expectedTokens: []string{"develop", "main"}, expectedForm: classifier.ListFormBlock},
		{name: "compact_block", input: "branches:\n- main\n", expectedTokens: []string{"main"}, expectedForm: classifier.ListFormBlock},
		{name: "empty", input: "branches:\n", expectedForm: classifier.ListFormNone},
		{name: "unterminated_inline", input: "branches: [main\n", expectedForm: classifier.ListFormInline, expectReason: true},
		{name: "inline_mapping", input: "branches: {main: true}\n", expectedForm: classifier.ListFormInline, expectReason: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(classifierSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			parsed := document.Parse(testCase.input)
			filter, scoped := parsed.SectionAt(0)
			require.True(testInstance, scoped)

			tokens, form, reason := classifier.BranchTokens(parsed, filter, document.Section{})
			require.Equal(testInstance, testCase.expectedTokens, tokens)
			require.Equal(testInstance, testCase.expectedForm, form)
			require.Equal(testInstance, testCase.expectReason, len(reason) > 0, reason)
		})
	}
}

func TestFlowEntriesHonorsQuotes(testInstance *testing.T) {
	require.Equal(testInstance, []string{"main", "'release, hotfix'", "\"x\""}, classifier.FlowEntries("[main, 'release, hotfix', \"x\"]"))
	require.Nil(testInstance, classifier.FlowEntries("[]"))
}

func TestClassifyDockerPublish(testInstance *testing.T) {
	testCases := []struct {
		name              string
		input             string
		expectedKind      classifier.Kind
		expectedAmbiguous bool
		expectedSteps     int
	}{
		{
			name:         "no_publish_step",
			input:        "jobs:\n  build:\n    steps:\n      - uses: actions/checkout@v4\n",
			expectedKind: classifier.KindNotApplicable,
		},
		{
			name:          "legacy_step",
			input:         "jobs:\n  build:\n    steps:\n      - name: Publish\n        uses: org/publish-docker-image@v1\n        with:\n          GCR_HOSTNAME: gcr.io\n",
			expectedKind:  classifier.KindNeedsRegistryMigration,
			expectedSteps: 1,
		},
		{
			name:          "migrated_step_without_auth",
			input:         "jobs:\n  build:\n    steps:\n      - uses: org/publish-docker-image-to-gar@v1\n        with:\n          IMAGE_REGISTRY_HOSTNAME: us-docker.pkg.dev\n",
			expectedKind:  classifier.KindNeedsRegistryMigration,
			expectedSteps: 1,
		},
		{
			name:          "fully_migrated",
			input:         "jobs:\n  build:\n    steps:\n      - uses: org/common-gar-auth@v1\n      - uses: \"org/publish-docker-image-to-gar@v1\"\n        with:\n          IMAGE_REGISTRY_HOSTNAME: us-docker.pkg.dev\n",
			expectedKind:  classifier.KindAlreadyTarget,
			expectedSteps: 1,
		},
		{
			name:              "both_hostname_inputs",
			input:             "jobs:\n  build:\n    steps:\n      - uses: org/publish-docker-image@v1\n        with:\n          GCR_HOSTNAME: gcr.io\n          IMAGE_REGISTRY_HOSTNAME: us-docker.pkg.dev\n",
			expectedKind:      classifier.KindNeedsRegistryMigration,
			expectedAmbiguous: true,
			expectedSteps:     1,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(classifierSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			pattern := classifier.Classify(document.Parse(testCase.input), lookupTarget(testInstance, targets.GCRToGAR))
			require.Equal(testInstance, testCase.expectedKind, pattern.Kind)
			require.Equal(testInstance, testCase.expectedAmbiguous, pattern.Ambiguous, pattern.AmbiguityReason)
			require.Len(testInstance, pattern.PublishSteps, testCase.expectedSteps)
		})
	}
}

func TestClassifyDockerPublishStepDetails(testInstance *testing.T) {
	input := "jobs:\n  build:\n    steps:\n      - name: Publish\n        uses: 'org/actions/publish-docker-image@v3'\n        with:\n          GCR_HOSTNAME: gcr.io\n"
	pattern := classifier.Classify(document.Parse(input), lookupTarget(testInstance, targets.GCRToGAR))
	require.Len(testInstance, pattern.PublishSteps, 1)

	step := pattern.PublishSteps[0]
	require.True(testInstance, step.Legacy)
	require.Equal(testInstance, "org/actions/", step.ActionPrefix)
	require.Equal(testInstance, "@v3", step.ActionRef)
	require.Equal(testInstance, 4, step.UsesLine)
	require.Equal(testInstance, 5, step.WithLine)
	require.Equal(testInstance, 6, step.HostnameLine)
	require.Equal(testInstance, -1, step.RegistryLine)
	require.False(testInstance, step.AuthStepPrecedes)
	require.Equal(testInstance, document.Section{Key: "name", Start: 3, End: 7, Indent: 6}, step.Item)
}

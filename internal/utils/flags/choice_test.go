package flags

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

const choiceSubtestNameTemplateConstant = "%d_%s"

func TestChoicesUsage(testInstance *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        Choices
		description    string
		expectedOutput string
	}{
		{
			name:           "default_first_choice",
			defaultChoice:  "text",
			choices:        Choices{"text", "yaml"},
			description:    "Report layout printed after the run",
			expectedOutput: "`<TEXT|yaml>` Report layout printed after the run",
		},
		{
			name:           "default_later_choice",
			defaultChoice:  "feature-only",
			choices:        Choices{"all-except-main", "feature-only", "gcr-to-gar"},
			description:    "Target shape",
			expectedOutput: "`<all-except-main|FEATURE-ONLY|gcr-to-gar>` Target shape",
		},
		{
			name:           "empty_description",
			defaultChoice:  "yaml",
			choices:        Choices{"text", "yaml"},
			expectedOutput: "`<text|YAML>`",
		},
		{
			name:           "duplicates_and_blanks_ignored",
			defaultChoice:  " YAML ",
			choices:        Choices{"yaml", "YAML", "", " text ", "text"},
			description:    "  Select a layout. ",
			expectedOutput: "`<YAML|text>` Select a layout.",
		},
		{
			name:           "unknown_default",
			defaultChoice:  "json",
			choices:        Choices{"text", "yaml"},
			expectedOutput: "`<text|yaml>`",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(choiceSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedOutput, testCase.choices.Usage(testCase.defaultChoice, testCase.description))
		})
	}
}

func TestChoicesMatch(testInstance *testing.T) {
	choices := Choices{"text", " yaml "}

	testCases := []struct {
		name          string
		value         string
		expectedValue string
		expectedMatch bool
	}{
		{name: "exact", value: "text", expectedValue: "text", expectedMatch: true},
		{name: "case_and_space_insensitive", value: " YAML ", expectedValue: "yaml", expectedMatch: true},
		{name: "unknown", value: "json", expectedMatch: false},
		{name: "blank", value: "  ", expectedMatch: false},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(choiceSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			matched, found := choices.Match(testCase.value)
			require.Equal(testInstance, testCase.expectedMatch, found)
			require.Equal(testInstance, testCase.expectedValue, matched)
		})
	}

	require.Equal(testInstance, "text, yaml", choices.String())
}

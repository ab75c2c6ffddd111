package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestBindRootFlagsUsesDefaultsAndParsesValues(testInstance *testing.T) {
	command := &cobra.Command{}

	values := BindRootFlags(command, RootFlagValues{Roots: []string{"/tmp/default"}}, RootFlagDefinition{Enabled: true})

	require.NotNil(testInstance, values)
	require.Equal(testInstance, []string{"/tmp/default"}, values.Roots)

	parseError := command.ParseFlags([]string{"--" + DefaultRootFlagName, "/workspace", "--" + DefaultRootFlagName, "/projects/.github/workflows/ci.yml"})
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, []string{"/workspace", "/projects/.github/workflows/ci.yml"}, values.Roots)
}

func TestBindRootFlagsDisabledLeavesCommandUntouched(testInstance *testing.T) {
	command := &cobra.Command{}

	values := BindRootFlags(command, RootFlagValues{}, RootFlagDefinition{})

	require.Empty(testInstance, values.Roots)
	require.Nil(testInstance, command.Flags().Lookup(DefaultRootFlagName))
}

func TestBindExecutionFlagsRegistersDryRunToggle(testInstance *testing.T) {
	command := &cobra.Command{}
	BindExecutionFlags(command, ExecutionDefaults{}, ExecutionFlagDefinitions{
		DryRun: ExecutionFlagDefinition{Name: DryRunFlagName, Usage: DryRunFlagUsage, Enabled: true},
	})

	parseError := command.ParseFlags(NormalizeToggleArguments([]string{"--" + DryRunFlagName, "yes"}))
	require.NoError(testInstance, parseError)

	dryRun, lookupError := command.Flags().GetBool(DryRunFlagName)
	require.NoError(testInstance, lookupError)
	require.True(testInstance, dryRun)
}

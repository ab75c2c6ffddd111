// Package flags provides helpers for binding standardized flags to Cobra commands.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ExecutionDefaults describes default flag values shared across commands.
type ExecutionDefaults struct {
	DryRun bool
}

// ExecutionFlagDefinition captures a single flag's configuration.
type ExecutionFlagDefinition struct {
	Name    string
	Usage   string
	Enabled bool
}

// ExecutionFlagDefinitions groups execution flag definitions.
type ExecutionFlagDefinitions struct {
	DryRun ExecutionFlagDefinition
}

// BindExecutionFlags attaches execution flags to the provided command using persistent scope.
// Each flag is a toggle, so "--dry-run", "--dry-run yes" and "--dry-run=no" are all accepted.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionDefaults, definitions ExecutionFlagDefinitions) {
	if command == nil {
		return
	}

	bindToggleFlag(command.PersistentFlags(), definitions.DryRun, defaults.DryRun)
}

func bindToggleFlag(flagSet *pflag.FlagSet, definition ExecutionFlagDefinition, defaultValue bool) {
	if flagSet == nil {
		return
	}
	if !definition.Enabled {
		return
	}
	if len(definition.Name) == 0 {
		return
	}

	AddToggleFlag(flagSet, nil, definition.Name, defaultValue, definition.Usage)
}

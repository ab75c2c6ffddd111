package flags

import "github.com/spf13/cobra"

const (
	// DefaultRootFlagName exposes the shared workflow root flag name.
	DefaultRootFlagName  = "root"
	// DefaultRootFlagUsage describes the shared workflow root flag purpose.
	DefaultRootFlagUsage = "Repository, workflow directory or workflow file to process (repeatable)"
	// DryRunFlagName exposes the shared dry-run flag name.
	DryRunFlagName       = "dry-run"
	// DryRunFlagUsage describes the shared dry-run flag purpose.
	DryRunFlagUsage      = "Report what would change without writing files"
)

// RootFlagDefinition captures configuration for workflow root flags.
type RootFlagDefinition struct {
	Name       string
	Usage      string
	Enabled    bool
	Persistent bool
}

// RootFlagValues stores workflow root flag values.
type RootFlagValues struct {
	Roots []string
}

// BindRootFlags attaches the repeatable root flag to the provided command.
func BindRootFlags(command *cobra.Command, defaults RootFlagValues, definition RootFlagDefinition) *RootFlagValues {
	values := RootFlagValues{Roots: append([]string{}, defaults.Roots...)}
	if command == nil {
		return &values
	}
	if !definition.Enabled {
		return &values
	}
	flagName := definition.Name
	if len(flagName) == 0 {
		flagName = DefaultRootFlagName
	}
	flagUsage := definition.Usage
	if len(flagUsage) == 0 {
		flagUsage = DefaultRootFlagUsage
	}

	targetSet := command.PersistentFlags()
	if !definition.Persistent {
		targetSet = command.Flags()
	}

	if targetSet.Lookup(flagName) == nil {
		targetSet.StringSliceVar(&values.Roots, flagName, values.Roots, flagUsage)
	}

	if definition.Persistent {
		if command.Flags().Lookup(flagName) == nil {
			if persistentFlag := targetSet.Lookup(flagName); persistentFlag != nil {
				command.Flags().AddFlag(persistentFlag)
			}
		}
	}
	return &values
}

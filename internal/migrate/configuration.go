package migrate

import (
	"fmt"
	"strings"

	"github.com/temirov/triggershift/internal/targets"
	pathutils "github.com/temirov/triggershift/internal/utils/path"
)

const (
	// DefaultWorkflowsDirectory is where GitHub Actions workflows live inside a repository.
	DefaultWorkflowsDirectory = ".github/workflows"

	targetConfigurationKeyConstant             = "target"
	dryRunConfigurationKeyConstant             = "dry_run"
	workersConfigurationKeyConstant            = "workers"
	rootsConfigurationKeyConstant              = "roots"
	workflowsDirectoryConfigurationKeyConstant = "workflows_directory"
	registryHostnameConfigurationKeyConstant   = "registry_hostname"
	reportFormatConfigurationKeyConstant       = "report_format"
	configurationKeyTemplateConstant           = "%s.%s"
	allowListOverrideErrorTemplateConstant     = "invalid allow-list override: %w"
)

var migrateConfigurationRootSanitizer = pathutils.NewRootSanitizerWithConfiguration(nil, pathutils.RootSanitizerConfiguration{
	ExcludeBooleanLiteralCandidates: true,
	DeduplicateRoots:                true,
})

// CommandConfiguration captures persisted configuration for workflow migration.
type CommandConfiguration struct {
	Target             string                       `mapstructure:"target"`
	DryRun             bool                         `mapstructure:"dry_run"`
	Workers            int                          `mapstructure:"workers"`
	Roots              []string                     `mapstructure:"roots"`
	WorkflowsDirectory string                       `mapstructure:"workflows_directory"`
	RegistryHostname   string                       `mapstructure:"registry_hostname"`
	ReportFormat       string                       `mapstructure:"report_format"`
	AllowLists         map[string]targets.Overrides `mapstructure:"allow_lists"`
}

// DefaultCommandConfiguration returns baseline configuration values for workflow migration.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Target:             string(targets.AllExceptMain),
		WorkflowsDirectory: DefaultWorkflowsDirectory,
		RegistryHostname:   targets.DefaultRegistryHostname,
		ReportFormat:       string(ReportFormatText),
	}
}

// DefaultConfigurationValues returns Viper defaults under the provided key prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		fmt.Sprintf(configurationKeyTemplateConstant, prefix, targetConfigurationKeyConstant):             defaults.Target,
		fmt.Sprintf(configurationKeyTemplateConstant, prefix, dryRunConfigurationKeyConstant):             defaults.DryRun,
		fmt.Sprintf(configurationKeyTemplateConstant, prefix, workersConfigurationKeyConstant):            defaults.Workers,
		fmt.Sprintf(configurationKeyTemplateConstant, prefix, rootsConfigurationKeyConstant):              []string{},
		fmt.Sprintf(configurationKeyTemplateConstant, prefix, workflowsDirectoryConfigurationKeyConstant): defaults.WorkflowsDirectory,
		fmt.Sprintf(configurationKeyTemplateConstant, prefix, registryHostnameConfigurationKeyConstant):   defaults.RegistryHostname,
		fmt.Sprintf(configurationKeyTemplateConstant, prefix, reportFormatConfigurationKeyConstant):       defaults.ReportFormat,
	}
}

// Sanitize trims configured values, expands roots, and fills blanks with defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration
	sanitized.Target = strings.ToLower(strings.TrimSpace(configuration.Target))
	if len(sanitized.Target) == 0 {
		sanitized.Target = defaults.Target
	}
	sanitized.Roots = migrateConfigurationRootSanitizer.Sanitize(configuration.Roots)
	sanitized.WorkflowsDirectory = strings.TrimSpace(configuration.WorkflowsDirectory)
	if len(sanitized.WorkflowsDirectory) == 0 {
		sanitized.WorkflowsDirectory = defaults.WorkflowsDirectory
	}
	sanitized.RegistryHostname = strings.TrimSpace(configuration.RegistryHostname)
	if len(sanitized.RegistryHostname) == 0 {
		sanitized.RegistryHostname = defaults.RegistryHostname
	}
	sanitized.ReportFormat = strings.ToLower(strings.TrimSpace(configuration.ReportFormat))
	if len(sanitized.ReportFormat) == 0 {
		sanitized.ReportFormat = defaults.ReportFormat
	}
	if sanitized.Workers < 0 {
		sanitized.Workers = 0
	}
	return sanitized
}

// ResolveTarget looks up targetName and applies the configured registry hostname and allow-list
// extensions for that target.
func (configuration CommandConfiguration) ResolveTarget(targetName string) (targets.TargetSpec, error) {
	target, lookupError := targets.Lookup(targetName)
	if lookupError != nil {
		return targets.TargetSpec{}, lookupError
	}
	if target.Family == targets.FamilyDockerPublish {
		target = target.WithRegistryHostname(configuration.RegistryHostname)
	}
	overrides, configured := configuration.AllowLists[string(target.Name)]
	if !configured {
		return target, nil
	}
	extended, overrideError := target.WithOverrides(overrides)
	if overrideError != nil {
		return targets.TargetSpec{}, fmt.Errorf(allowListOverrideErrorTemplateConstant, overrideError)
	}
	return extended, nil
}

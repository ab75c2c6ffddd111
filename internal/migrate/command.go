package migrate

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/triggershift/internal/discovery"
	"github.com/temirov/triggershift/internal/filesystem"
	"github.com/temirov/triggershift/internal/targets"
	"github.com/temirov/triggershift/internal/utils"
	"github.com/temirov/triggershift/internal/utils/flags"
)

const (
	commandUseConstant                      = "migrate [paths...]"
	commandShortDescriptionConstant         = "Rewrite workflow triggers and publish steps to a target shape"
	commandLongDescriptionConstant          = "migrate classifies every GitHub Actions workflow under the provided paths, rewrites the ones that can be moved safely to the requested target, and reports the rest for manual review. Each rewritten workflow keeps a .backup copy of its original."
	targetFlagNameConstant                  = "target"
	targetFlagUsageConstant                 = "Target shape to migrate workflows to"
	workersFlagNameConstant                 = "workers"
	workersFlagUsageConstant                = "Number of workflows processed concurrently (0 uses all CPUs)"
	reportFormatFlagNameConstant            = "report-format"
	reportFormatFlagUsageConstant           = "Report layout printed after the run"
	registryHostnameFlagNameConstant        = "registry-hostname"
	registryHostnameFlagUsageConstant       = "Artifact Registry host written by gcr-to-gar"
	workflowsDirectoryFlagNameConstant      = "workflows-directory"
	workflowsDirectoryFlagUsageConstant     = "Directory, relative to each repository, holding workflow files"
	unsupportedReportFormatTemplateConstant = "unsupported report format %q (expected one of %s)"
	workflowDiscoveryErrorTemplateConstant  = "workflow discovery failed: %w"
	reportWriteErrorTemplateConstant        = "unable to write migration report: %w"
	logMessageWorkflowDiscoveryFailed       = "Workflow discovery failed"
	logMessageNoWorkflowsFound              = "No workflow files found"
	logMessageWorkflowsDiscovered           = "Workflow files discovered"
	logFieldRoots                           = "roots"
	logFieldWorkflowCount                   = "workflow_count"
)

var reportFormatChoices = flags.Choices{string(ReportFormatText), string(ReportFormatYAML)}

// ErrRejectedFiles reports that at least one rewrite was refused by the diff verifier.
var ErrRejectedFiles = errors.New("one or more workflow rewrites were rejected")

// WorkflowDiscoverer locates workflow files beneath provided roots.
type WorkflowDiscoverer interface {
	DiscoverWorkflowFiles(roots []string) ([]string, error)
}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

type commandOptions struct {
	debugLoggingEnabled bool
	configuration       CommandConfiguration
}

// CommandBuilder assembles the migrate Cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	WorkflowDiscoverer    WorkflowDiscoverer
	FileSystem            filesystem.FileSystem
	Output                io.Writer
	WorkingDirectory      string
}

// Build constructs the migrate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(targetFlagNameConstant, defaults.Target, flags.Choices(targets.Names()).Usage(defaults.Target, targetFlagUsageConstant))
	command.Flags().Int(workersFlagNameConstant, defaults.Workers, workersFlagUsageConstant)
	command.Flags().String(reportFormatFlagNameConstant, defaults.ReportFormat, reportFormatChoices.Usage(defaults.ReportFormat, reportFormatFlagUsageConstant))
	command.Flags().String(registryHostnameFlagNameConstant, defaults.RegistryHostname, registryHostnameFlagUsageConstant)
	command.Flags().String(workflowsDirectoryFlagNameConstant, defaults.WorkflowsDirectory, workflowsDirectoryFlagUsageConstant)
	flags.BindRootFlags(command, flags.RootFlagValues{}, flags.RootFlagDefinition{Enabled: true})
	flags.BindExecutionFlags(command, flags.ExecutionDefaults{}, flags.ExecutionFlagDefinitions{
		DryRun: flags.ExecutionFlagDefinition{Name: flags.DryRunFlagName, Usage: flags.DryRunFlagUsage, Enabled: true},
	})

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command, arguments)
	if optionsError != nil {
		return optionsError
	}
	configuration := options.configuration

	logger := builder.resolveLogger(options.debugLoggingEnabled)

	target, targetError := configuration.ResolveTarget(configuration.Target)
	if targetError != nil {
		return targetError
	}

	workflowFiles, discoveryError := builder.resolveWorkflowDiscoverer(configuration.WorkflowsDirectory).DiscoverWorkflowFiles(configuration.Roots)
	if discoveryError != nil {
		logger.Error(
			logMessageWorkflowDiscoveryFailed,
			zap.Strings(logFieldRoots, configuration.Roots),
			zap.Error(discoveryError),
		)
		return fmt.Errorf(workflowDiscoveryErrorTemplateConstant, discoveryError)
	}
	if len(workflowFiles) == 0 {
		logger.Info(logMessageNoWorkflowsFound, zap.Strings(logFieldRoots, configuration.Roots))
	} else {
		logger.Debug(logMessageWorkflowsDiscovered, zap.Int(logFieldWorkflowCount, len(workflowFiles)))
	}

	driver := NewBatchDriver(logger, NewPipeline(nil), NewBackupWriter(builder.FileSystem))
	batch, batchError := driver.Run(command.Context(), workflowFiles, BatchOptions{
		Target:  target,
		DryRun:  configuration.DryRun,
		Workers: configuration.Workers,
	})

	output := builder.resolveOutput(command)
	switch ReportFormat(configuration.ReportFormat) {
	case ReportFormatYAML:
		if writeError := NewReport(batch).WriteYAML(output); writeError != nil {
			return errors.Join(batchError, fmt.Errorf(reportWriteErrorTemplateConstant, writeError))
		}
	default:
		PrintText(NewWriterReporter(output), batch)
	}

	if batchError != nil {
		return batchError
	}
	if batch.Summary.Rejected > 0 {
		return ErrRejectedFiles
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) (commandOptions, error) {
	configuration := builder.resolveConfiguration()

	debugEnabled := false
	contextAccessor := utils.NewCommandContextAccessor()
	if logLevel, available := contextAccessor.LogLevel(command.Context()); available {
		debugEnabled = strings.EqualFold(logLevel, string(utils.LogLevelDebug))
	}

	commandFlags := command.Flags()
	if commandFlags.Changed(targetFlagNameConstant) {
		configuration.Target, _ = commandFlags.GetString(targetFlagNameConstant)
	}
	if commandFlags.Changed(workersFlagNameConstant) {
		configuration.Workers, _ = commandFlags.GetInt(workersFlagNameConstant)
	}
	if commandFlags.Changed(reportFormatFlagNameConstant) {
		configuration.ReportFormat, _ = commandFlags.GetString(reportFormatFlagNameConstant)
	}
	if commandFlags.Changed(registryHostnameFlagNameConstant) {
		configuration.RegistryHostname, _ = commandFlags.GetString(registryHostnameFlagNameConstant)
	}
	if commandFlags.Changed(workflowsDirectoryFlagNameConstant) {
		configuration.WorkflowsDirectory, _ = commandFlags.GetString(workflowsDirectoryFlagNameConstant)
	}
	if commandFlags.Changed(flags.DryRunFlagName) {
		configuration.DryRun, _ = commandFlags.GetBool(flags.DryRunFlagName)
	}

	roots := append([]string{}, arguments...)
	if commandFlags.Changed(flags.DefaultRootFlagName) {
		flagRoots, _ := commandFlags.GetStringSlice(flags.DefaultRootFlagName)
		roots = append(roots, flagRoots...)
	}
	if len(roots) > 0 {
		configuration.Roots = roots
	}

	configuration = configuration.Sanitize()
	if len(configuration.Roots) == 0 && len(builder.WorkingDirectory) > 0 {
		configuration.Roots = []string{builder.WorkingDirectory}
	}

	reportFormat, supported := reportFormatChoices.Match(configuration.ReportFormat)
	if !supported {
		return commandOptions{}, fmt.Errorf(unsupportedReportFormatTemplateConstant, configuration.ReportFormat, reportFormatChoices)
	}
	configuration.ReportFormat = reportFormat

	return commandOptions{debugLoggingEnabled: debugEnabled, configuration: configuration}, nil
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveWorkflowDiscoverer(workflowsDirectory string) WorkflowDiscoverer {
	if builder.WorkflowDiscoverer != nil {
		return builder.WorkflowDiscoverer
	}
	return discovery.NewFilesystemWorkflowDiscoverer(workflowsDirectory)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveOutput(command *cobra.Command) io.Writer {
	if builder.Output != nil {
		return builder.Output
	}
	return utils.NewFlushingWriter(command.OutOrStdout())
}

package migrate

import (
	"context"
	"errors"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/triggershift/internal/targets"
)

const (
	logMessageWorkflowChanged     = "Workflow rewritten"
	logMessageWorkflowWouldChange = "Workflow would be rewritten"
	logMessageWorkflowUnchanged   = "Workflow already in target shape"
	logMessageWorkflowRejected    = "Workflow rewrite rejected"
	logMessageWorkflowReview      = "Workflow needs manual review"
	logMessageWorkflowFailed      = "Workflow processing failed"
	logMessageBatchCompleted      = "Workflow migration completed"
	logMessageBatchCancelled      = "Workflow migration cancelled"
	logFieldWorkflowFile          = "workflow_file"
	logFieldTargetSpec            = "target_spec"
	logFieldStatus                = "status"
	logFieldPatternKind           = "pattern_kind"
	logFieldReasons               = "reasons"
	logFieldReason                = "reason"
	logFieldContext               = "context"
	logFieldDryRun                = "dry_run"
	logFieldChanged               = "changed"
	logFieldUnchanged             = "unchanged"
	logFieldRejected              = "rejected"
	logFieldNeedsReview           = "needs_review"
	logFieldFailed                = "failed"
	logFieldWorkers               = "workers"
)

// BatchOptions configures one batch run.
type BatchOptions struct {
	Target  targets.TargetSpec
	DryRun  bool
	Workers int
}

// Summary counts results per status.
type Summary struct {
	Changed     int `yaml:"changed"`
	Unchanged   int `yaml:"unchanged"`
	Rejected    int `yaml:"rejected"`
	NeedsReview int `yaml:"needs_review"`
	Failed      int `yaml:"failed"`
}

// BatchResult holds every per-file result sorted by file name.
type BatchResult struct {
	Target  targets.Name
	DryRun  bool
	Results []TransformResult
	Summary Summary
}

// BatchDriver runs the pipeline over many files with a bounded worker pool.
type BatchDriver struct {
	logger   *zap.Logger
	pipeline *Pipeline
	writer   *BackupWriter
}

// NewBatchDriver constructs a BatchDriver. Nil collaborators fall back to defaults.
func NewBatchDriver(logger *zap.Logger, pipeline *Pipeline, writer *BackupWriter) *BatchDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pipeline == nil {
		pipeline = NewPipeline(nil)
	}
	if writer == nil {
		writer = NewBackupWriter(nil)
	}
	return &BatchDriver{logger: logger, pipeline: pipeline, writer: writer}
}

// Run processes files independently. Dry runs compute identical results but never write.
// The returned error joins every I/O failure and idempotence violation; files that were not
// scheduled because ctx ended are omitted and ctx.Err() is included.
func (driver *BatchDriver) Run(executionContext context.Context, files []string, options BatchOptions) (BatchResult, error) {
	workers := options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]TransformResult, len(files))
	failures := make([]error, len(files))
	scheduled := make([]bool, len(files))

	group := errgroup.Group{}
	group.SetLimit(workers)

	var cancellationError error
	for fileIndex := range files {
		if contextError := executionContext.Err(); contextError != nil {
			cancellationError = contextError
			break
		}
		fileIndex := fileIndex
		scheduled[fileIndex] = true
		group.Go(func() error {
			results[fileIndex], failures[fileIndex] = driver.processFile(files[fileIndex], options)
			return nil
		})
	}
	_ = group.Wait()

	batch := BatchResult{Target: options.Target.Name, DryRun: options.DryRun}
	var batchErrors []error
	for fileIndex := range files {
		if !scheduled[fileIndex] {
			continue
		}
		batch.Results = append(batch.Results, results[fileIndex])
		batch.Summary.add(results[fileIndex].Status)
		if failures[fileIndex] != nil {
			batchErrors = append(batchErrors, failures[fileIndex])
		}
	}
	sort.SliceStable(batch.Results, func(first int, second int) bool {
		return batch.Results[first].File < batch.Results[second].File
	})

	if cancellationError != nil {
		driver.logger.Warn(logMessageBatchCancelled, zap.Error(cancellationError))
		batchErrors = append(batchErrors, cancellationError)
	}
	driver.logger.Info(
		logMessageBatchCompleted,
		zap.String(logFieldTargetSpec, string(options.Target.Name)),
		zap.Bool(logFieldDryRun, options.DryRun),
		zap.Int(logFieldWorkers, workers),
		zap.Int(logFieldChanged, batch.Summary.Changed),
		zap.Int(logFieldUnchanged, batch.Summary.Unchanged),
		zap.Int(logFieldRejected, batch.Summary.Rejected),
		zap.Int(logFieldNeedsReview, batch.Summary.NeedsReview),
		zap.Int(logFieldFailed, batch.Summary.Failed),
	)

	return batch, errors.Join(batchErrors...)
}

func (driver *BatchDriver) processFile(file string, options BatchOptions) (TransformResult, error) {
	content, readError := driver.writer.Read(file)
	if readError != nil {
		return driver.recordFailure(TransformResult{File: file}, readError), readError
	}

	result, transformError := driver.pipeline.Transform(file, content, options.Target)
	if result.Status == StatusChanged && !options.DryRun {
		if persistError := driver.writer.Persist(file, content, []byte(result.NewContent)); persistError != nil {
			return driver.recordFailure(result, persistError), persistError
		}
	}

	driver.logResult(result, options)
	return result, transformError
}

func (driver *BatchDriver) recordFailure(result TransformResult, failure error) TransformResult {
	result.Status = StatusFailed
	result.FailureReason = failure.Error()
	driver.logger.Warn(
		logMessageWorkflowFailed,
		zap.String(logFieldWorkflowFile, result.File),
		zap.Error(failure),
	)
	return result
}

func (driver *BatchDriver) logResult(result TransformResult, options BatchOptions) {
	fileField := zap.String(logFieldWorkflowFile, result.File)
	targetField := zap.String(logFieldTargetSpec, string(options.Target.Name))
	patternField := zap.String(logFieldPatternKind, string(result.Pattern))

	switch result.Status {
	case StatusChanged:
		message := logMessageWorkflowChanged
		if options.DryRun {
			message = logMessageWorkflowWouldChange
		}
		reasons := make([]string, 0, len(result.Reasons))
		for _, reason := range result.Reasons {
			reasons = append(reasons, string(reason))
		}
		driver.logger.Info(message, fileField, targetField, patternField, zap.Strings(logFieldReasons, reasons))
	case StatusRejected:
		driver.logger.Warn(logMessageWorkflowRejected, fileField, targetField, patternField, zap.String(logFieldReason, result.RejectionReason))
	case StatusNeedsManualReview:
		driver.logger.Warn(logMessageWorkflowReview, fileField, targetField, patternField, zap.String(logFieldReason, result.ReviewReason), zap.Strings(logFieldContext, result.ReviewContext))
	default:
		driver.logger.Debug(logMessageWorkflowUnchanged, fileField, targetField, patternField, zap.String(logFieldStatus, string(result.Status)))
	}
}

func (summary *Summary) add(status Status) {
	switch status {
	case StatusChanged:
		summary.Changed++
	case StatusRejected:
		summary.Rejected++
	case StatusNeedsManualReview:
		summary.NeedsReview++
	case StatusFailed:
		summary.Failed++
	default:
		summary.Unchanged++
	}
}

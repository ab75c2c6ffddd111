package migrate

import (
	"unicode/utf8"

	"github.com/temirov/triggershift/internal/classifier"
	"github.com/temirov/triggershift/internal/document"
	"github.com/temirov/triggershift/internal/rules"
	"github.com/temirov/triggershift/internal/targets"
	"github.com/temirov/triggershift/internal/verify"
)

// Status is the per-file outcome of a migration run.
type Status string

// Per-file statuses.
const (
	StatusUnchanged         Status = "Unchanged"
	StatusChanged           Status = "Changed"
	StatusRejected          Status = "Rejected"
	StatusNeedsManualReview Status = "NeedsManualReview"
	StatusFailed            Status = "Failed"
)

const (
	invalidEncodingReasonConstant = "file is not valid UTF-8"
)

// Rewriter applies the rule engine to one parsed workflow.
type Rewriter interface {
	Apply(parsed *document.Document, target targets.TargetSpec) rules.Result
}

// TransformResult is the immutable record of one file's trip through the pipeline.
type TransformResult struct {
	File            string
	Status          Status
	Pattern         classifier.Kind
	Reasons         []rules.ReasonTag
	NewContent      string
	Diff            string
	RejectionReason string
	ReviewReason    string
	ReviewContext   []string
	FailureReason   string
}

// Reason returns the reason matching the result status, empty for Changed and Unchanged.
func (result TransformResult) Reason() string {
	switch result.Status {
	case StatusRejected:
		return result.RejectionReason
	case StatusNeedsManualReview:
		return result.ReviewReason
	case StatusFailed:
		return result.FailureReason
	default:
		return ""
	}
}

// Pipeline runs classify, rewrite, idempotence guard and diff verification for single files.
type Pipeline struct {
	rewriter Rewriter
	guard    *verify.Guard
	verifier *verify.DiffVerifier
}

// NewPipeline constructs a Pipeline. A nil rewriter uses the rule engine.
func NewPipeline(rewriter Rewriter) *Pipeline {
	engine := rules.NewEngine()
	if rewriter == nil {
		rewriter = engine
	}
	return &Pipeline{
		rewriter: rewriter,
		guard:    verify.NewGuard(engine),
		verifier: verify.NewDiffVerifier(),
	}
}

// Transform computes the TransformResult for file content without touching the filesystem.
// The returned error is non-nil only for idempotence violations, which the result also records
// as Rejected.
func (pipeline *Pipeline) Transform(file string, content []byte, target targets.TargetSpec) (TransformResult, error) {
	result := TransformResult{File: file, Status: StatusUnchanged}

	if !utf8.Valid(content) {
		result.Status = StatusNeedsManualReview
		result.ReviewReason = invalidEncodingReasonConstant
		return result, nil
	}

	original := document.Parse(string(content))
	rewrite := pipeline.rewriter.Apply(original, target)
	result.Pattern = rewrite.Pattern.Kind

	switch rewrite.Outcome {
	case rules.OutcomeManualReview:
		result.Status = StatusNeedsManualReview
		result.ReviewReason = rewrite.Reason
		result.ReviewContext = rewrite.Context
		return result, nil
	case rules.OutcomeRewritten:
	default:
		return result, nil
	}

	if guardError := pipeline.guard.Check(rewrite.Document, target); guardError != nil {
		result.Status = StatusRejected
		result.RejectionReason = guardError.Error()
		return result, guardError
	}

	if verifyError := pipeline.verifier.Verify(original, rewrite.Document, rewrite.ChangeLog, target.AllowList); verifyError != nil {
		result.Status = StatusRejected
		result.RejectionReason = verifyError.Error()
		return result, nil
	}

	diffText, diffError := verify.UnifiedDiff(file, original, rewrite.Document)
	if diffError != nil {
		result.Status = StatusRejected
		result.RejectionReason = diffError.Error()
		return result, nil
	}

	result.Status = StatusChanged
	result.Reasons = rewrite.ChangeLog.Reasons()
	result.NewContent = rewrite.Document.Render()
	result.Diff = diffText
	return result, nil
}

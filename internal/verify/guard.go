package verify

import (
	"fmt"

	"github.com/temirov/triggershift/internal/classifier"
	"github.com/temirov/triggershift/internal/document"
	"github.com/temirov/triggershift/internal/rules"
	"github.com/temirov/triggershift/internal/targets"
)

const (
	// ReasonIdempotenceViolation tags results whose rewrite is not a fixed point of the engine.
	ReasonIdempotenceViolation = "idempotence-violation"

	idempotenceViolationTemplateConstant = "%s: %s"
	unsettledPatternTemplateConstant     = "re-classified as %s (ambiguous=%t, dispatch misplaced=%t, schedule pending=%t)"
	secondPassOutcomeTemplateConstant    = "second pass returned %s"
	secondPassChangedMessageConstant     = "second pass changed the document"
)

// IdempotenceViolationError reports a rewrite that the engine would rewrite again.
type IdempotenceViolationError struct {
	Target targets.Name
	Detail string
}

// Error describes the violation.
func (violation *IdempotenceViolationError) Error() string {
	return fmt.Sprintf(idempotenceViolationTemplateConstant, ReasonIdempotenceViolation, violation.Detail)
}

// Guard proves that a rewritten document is already in the target shape.
type Guard struct {
	engine *rules.Engine
}

// NewGuard constructs a Guard backed by engine; nil uses a fresh engine.
func NewGuard(engine *rules.Engine) *Guard {
	if engine == nil {
		engine = rules.NewEngine()
	}
	return &Guard{engine: engine}
}

// Check re-classifies rewritten and applies the engine a second time. Anything other than a settled
// pattern and an unchanged second pass yields an *IdempotenceViolationError.
func (guard *Guard) Check(rewritten *document.Document, target targets.TargetSpec) error {
	pattern := classifier.Classify(rewritten, target)
	if !pattern.Settled() {
		return &IdempotenceViolationError{
			Target: target.Name,
			Detail: fmt.Sprintf(unsettledPatternTemplateConstant, pattern.Kind, pattern.Ambiguous, pattern.DispatchMisplaced, pattern.PendingScheduleRemoval),
		}
	}

	secondPass := guard.engine.Apply(rewritten, target)
	if secondPass.Outcome != rules.OutcomeUnchanged {
		return &IdempotenceViolationError{Target: target.Name, Detail: fmt.Sprintf(secondPassOutcomeTemplateConstant, secondPass.Outcome)}
	}
	if secondPass.Document.Render() != rewritten.Render() {
		return &IdempotenceViolationError{Target: target.Name, Detail: secondPassChangedMessageConstant}
	}
	return nil
}

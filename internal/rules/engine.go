package rules

import (
	"errors"
	"fmt"

	"github.com/temirov/triggershift/internal/classifier"
	"github.com/temirov/triggershift/internal/document"
	"github.com/temirov/triggershift/internal/targets"
)

const (
	basePassBudgetConstant        = 4
	passesPerPublishStepConstant  = 3
	missingRuleTemplateConstant   = "no rule handles pattern %s"
	ruleFailureTemplateConstant   = "%s rule could not apply: %v"
	ambiguousRewriteTemplate      = "rewrite produced an ambiguous shape: %s"
	vanishedRewriteMessage        = "rewrite removed every trigger the target depends on"
	stalledRuleTemplateConstant   = "%s rule made no progress"
	anchorMissingMessageConstant  = "section anchor is missing"
	anchorInvalidTemplateConstant = "no section at line %d"
)

// Outcome summarizes what the engine did with one document.
type Outcome string

// Engine outcomes.
const (
	OutcomeNotApplicable Outcome = "not-applicable"
	OutcomeUnchanged     Outcome = "unchanged"
	OutcomeRewritten     Outcome = "rewritten"
	OutcomeManualReview  Outcome = "manual-review"
)

// Rule rewrites the section a pattern points at. It returns an error when it cannot apply safely.
type Rule func(parsed *document.Document, pattern classifier.Pattern, target targets.TargetSpec) (*document.Document, ChangeLog, error)

// Result is the engine's answer for one document.
type Result struct {
	Document  *document.Document
	Pattern   classifier.Pattern
	ChangeLog ChangeLog
	Outcome   Outcome
	Reason    string
	Context   []string
}

var errAnchorMissing = errors.New(anchorMissingMessageConstant)

// Engine selects and applies rules until the document reaches the target shape.
type Engine struct {
	primaryRules map[classifier.Kind]Rule
}

// NewEngine constructs an Engine with one rule per pattern kind.
func NewEngine() *Engine {
	return &Engine{
		primaryRules: map[classifier.Kind]Rule{
			classifier.KindNeedsTokenRemoval:       RemoveExtraTokens,
			classifier.KindNeedsInversion:          ReplaceFilter,
			classifier.KindNeedsTriggerReplacement: ReplacePullRequestTrigger,
			classifier.KindNeedsTriggerInsertion:   InsertPushTrigger,
			classifier.KindNeedsRegistryMigration:  MigrateRegistry,
		},
	}
}

// Apply classifies the document and rewrites it toward target. It never returns an error:
// shapes it cannot handle degrade to OutcomeManualReview with the document untouched.
func (engine *Engine) Apply(parsed *document.Document, target targets.TargetSpec) Result {
	initial := classifier.Classify(parsed, target)
	result := Result{Document: parsed, Pattern: initial, Outcome: OutcomeUnchanged}

	if initial.Ambiguous {
		return manualReview(result, initial.AmbiguityReason, initial.Context)
	}
	if initial.Kind == classifier.KindNotApplicable {
		result.Outcome = OutcomeNotApplicable
		return result
	}

	current := parsed
	pattern := initial
	var changeLog ChangeLog
	passBudget := basePassBudgetConstant + passesPerPublishStepConstant*len(initial.PublishSteps)

	for pass := 0; pass < passBudget && !pattern.Settled(); pass++ {
		ruleName, rule := engine.nextRule(pattern)
		if rule == nil {
			return manualReview(result, fmt.Sprintf(missingRuleTemplateConstant, pattern.Kind), pattern.Context)
		}

		updated, entries, ruleError := rule(current, pattern, target)
		if ruleError != nil {
			return manualReview(result, fmt.Sprintf(ruleFailureTemplateConstant, ruleName, ruleError), pattern.Context)
		}
		if len(entries) == 0 {
			return manualReview(result, fmt.Sprintf(stalledRuleTemplateConstant, ruleName), pattern.Context)
		}

		current = updated
		changeLog = append(changeLog, entries...)
		pattern = classifier.Classify(current, target)

		if pattern.Ambiguous {
			return manualReview(result, fmt.Sprintf(ambiguousRewriteTemplate, pattern.AmbiguityReason), pattern.Context)
		}
		if pattern.Kind == classifier.KindNotApplicable {
			return manualReview(result, vanishedRewriteMessage, nil)
		}
	}

	if len(changeLog) == 0 {
		return result
	}

	result.Document = current
	result.ChangeLog = changeLog
	result.Outcome = OutcomeRewritten
	return result
}

// nextRule orders work as: indentation repair, primary rule, schedule cleanup.
func (engine *Engine) nextRule(pattern classifier.Pattern) (string, Rule) {
	switch {
	case pattern.DispatchMisplaced:
		return string(ReasonDispatchReindent), RepairDispatchIndentation
	case pattern.Kind != classifier.KindAlreadyTarget:
		return string(pattern.Kind), engine.primaryRules[pattern.Kind]
	case pattern.PendingScheduleRemoval:
		return string(ReasonScheduleRemoval), RemoveSchedule
	default:
		return "", nil
	}
}

func manualReview(result Result, reason string, context []string) Result {
	result.Outcome = OutcomeManualReview
	result.Reason = reason
	result.Context = append([]string(nil), context...)
	result.ChangeLog = nil
	return result
}

func sectionAt(parsed *document.Document, lineIndex int) (document.Section, error) {
	if lineIndex < 0 {
		return document.Section{}, errAnchorMissing
	}
	section, scoped := parsed.SectionAt(lineIndex)
	if !scoped {
		return document.Section{}, fmt.Errorf(anchorInvalidTemplateConstant, lineIndex)
	}
	return section, nil
}

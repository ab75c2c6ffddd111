package classifier

import (
	"github.com/temirov/triggershift/internal/document"
	"github.com/temirov/triggershift/internal/targets"
)

// Kind names a classified configuration shape.
type Kind string

// Classification kinds. Trigger kinds are listed in tie-break order.
const (
	KindNotApplicable           Kind = "NotApplicable"
	KindAlreadyTarget           Kind = "AlreadyTarget"
	KindNeedsTokenRemoval       Kind = "NeedsTokenRemoval"
	KindNeedsInversion          Kind = "NeedsInversion"
	KindNeedsTriggerReplacement Kind = "NeedsTriggerReplacement"
	KindNeedsTriggerInsertion   Kind = "NeedsTriggerInsertion"
	KindNeedsRegistryMigration  Kind = "NeedsRegistryMigration"
)

const (
	defaultIndentUnitConstant = 2
	absentLineIndexConstant   = -1
)

// ListForm records how a branch filter lists its tokens.
type ListForm int

// Branch list layouts.
const (
	ListFormNone ListForm = iota
	ListFormInline
	ListFormScalar
	ListFormBlock
)

// Anchors hold line indices of the sections a rule edits; absent sections are -1.
type Anchors struct {
	On             int
	Push           int
	Filter         int
	PullRequest    int
	Schedule       int
	Dispatch       int
	DispatchParent int
}

func absentAnchors() Anchors {
	return Anchors{
		On:             absentLineIndexConstant,
		Push:           absentLineIndexConstant,
		Filter:         absentLineIndexConstant,
		PullRequest:    absentLineIndexConstant,
		Schedule:       absentLineIndexConstant,
		Dispatch:       absentLineIndexConstant,
		DispatchParent: absentLineIndexConstant,
	}
}

// PublishStep describes one docker publish step found in a workflow.
type PublishStep struct {
	Item             document.Section
	UsesLine         int
	Legacy           bool
	ActionPrefix     string
	ActionRef        string
	WithLine         int
	HostnameLine     int
	RegistryLine     int
	AuthStepPrecedes bool
}

// Settled reports whether the step already publishes to Artifact Registry.
func (step PublishStep) Settled() bool {
	return !step.Legacy && step.HostnameLine < 0 && step.RegistryLine >= 0 && step.AuthStepPrecedes
}

// Pattern is the classification of one document for one target.
type Pattern struct {
	Kind                   Kind
	Family                 targets.Family
	FilterKey              string
	TargetBranchList       []string
	ListForm               ListForm
	HasSchedule            bool
	HasWorkflowDispatch    bool
	DispatchMisplaced      bool
	PendingScheduleRemoval bool
	IndentUnit             int
	Ambiguous              bool
	AmbiguityReason        string
	Context                []string
	Anchors                Anchors
	PublishSteps           []PublishStep
}

// Settled reports whether the document needs no primary or cleanup rule for the target.
func (pattern Pattern) Settled() bool {
	return pattern.Kind == KindAlreadyTarget && !pattern.Ambiguous && !pattern.DispatchMisplaced && !pattern.PendingScheduleRemoval
}

func (pattern *Pattern) markAmbiguous(reason string, context []string) {
	if pattern.Ambiguous {
		return
	}
	pattern.Ambiguous = true
	pattern.AmbiguityReason = reason
	pattern.Context = context
}

// Classify assigns exactly one Pattern to the document for the target.
func Classify(parsed *document.Document, target targets.TargetSpec) Pattern {
	switch target.Family {
	case targets.FamilyDockerPublish:
		return classifyDockerPublish(parsed, target)
	default:
		return classifyTrigger(parsed, target)
	}
}

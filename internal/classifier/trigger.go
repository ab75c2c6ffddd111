package classifier

import (
	"fmt"

	"github.com/temirov/triggershift/internal/document"
	"github.com/temirov/triggershift/internal/targets"
)

const (
	onKeyConstant               = "on"
	pushKeyConstant             = "push"
	pullRequestKeyConstant      = "pull_request"
	scheduleKeyConstant         = "schedule"
	workflowDispatchKeyConstant = "workflow_dispatch"
	tagsKeyConstant             = "tags"
	tagsIgnoreKeyConstant       = "tags-ignore"

	reasonDuplicateOnKeys          = "workflow declares more than one on: key"
	reasonInlineEvents             = "on: declares its events inline"
	reasonDuplicateTriggerTemplate = "on: declares %s more than once"
	reasonDispatchDeclaredTwice    = "workflow_dispatch is declared both in place and nested"
	reasonInlinePushFilters        = "push: declares its filters inline"
	reasonBothFilterKeys           = "branches and branches-ignore coexist under push"
	reasonPushAndPullRequest       = "push and pull_request triggers coexist"
	reasonTagOnlyPush              = "push: filters tags only, a branch filter would widen it"
)

func classifyTrigger(parsed *document.Document, target targets.TargetSpec) Pattern {
	pattern := Pattern{
		Kind:       KindNotApplicable,
		Family:     targets.FamilyTrigger,
		IndentUnit: defaultIndentUnitConstant,
		Anchors:    absentAnchors(),
	}

	onSections := parsed.TopLevelAll(onKeyConstant)
	if len(onSections) == 0 {
		return pattern
	}

	onSection := onSections[0]
	pattern.Anchors.On = onSection.Start
	if len(onSections) > 1 {
		headers := make([]string, 0, len(onSections))
		for _, section := range onSections {
			headers = append(headers, parsed.Line(section.Start).Content())
		}
		pattern.markAmbiguous(reasonDuplicateOnKeys, headers)
	}

	childIndent := parsed.ChildIndent(onSection)
	if childIndent > onSection.Indent {
		pattern.IndentUnit = childIndent - onSection.Indent
	}

	if inlineEvents := parsed.Line(onSection.Start).Value(); len(inlineEvents) > 0 {
		pattern.markAmbiguous(reasonInlineEvents, parsed.Slice(onSection.Start, onSection.End))
		pattern.Kind = inlineEventsKind(inlineEvents, target)
		return pattern
	}

	childSections := make(map[string][]document.Section)
	for _, child := range parsed.Children(onSection) {
		childSections[child.Key] = append(childSections[child.Key], child)
	}
	for _, key := range []string{pushKeyConstant, pullRequestKeyConstant, scheduleKeyConstant, workflowDispatchKeyConstant} {
		if sections := childSections[key]; len(sections) > 1 {
			pattern.markAmbiguous(fmt.Sprintf(reasonDuplicateTriggerTemplate, key), parsed.Slice(onSection.Start, onSection.End))
		}
	}

	pushSection, hasPush := firstSection(childSections[pushKeyConstant])
	pullRequestSection, hasPullRequest := firstSection(childSections[pullRequestKeyConstant])
	scheduleSection, hasSchedule := firstSection(childSections[scheduleKeyConstant])
	_, hasDispatch := firstSection(childSections[workflowDispatchKeyConstant])

	if hasSchedule {
		pattern.HasSchedule = true
		pattern.Anchors.Schedule = scheduleSection.Start
		pattern.PendingScheduleRemoval = target.RemoveSchedule
	}
	if hasPullRequest {
		pattern.Anchors.PullRequest = pullRequestSection.Start
	}
	pattern.HasWorkflowDispatch = hasDispatch

	misplacedDispatch := locateMisplacedDispatch(parsed, onSection, childIndent, &pattern)
	if pattern.DispatchMisplaced && hasDispatch {
		pattern.markAmbiguous(reasonDispatchDeclaredTwice, parsed.Slice(onSection.Start, onSection.End))
	}

	if hasPush {
		pattern.Anchors.Push = pushSection.Start
		classifyPushFilter(parsed, pushSection, misplacedDispatch, target, &pattern)
		if hasPullRequest && target.ReplacePullRequest {
			pattern.markAmbiguous(reasonPushAndPullRequest, parsed.Slice(onSection.Start, onSection.End))
		}
		return pattern
	}

	if hasPullRequest && target.ReplacePullRequest {
		pattern.Kind = KindNeedsTriggerReplacement
		return pattern
	}
	pattern.Kind = KindNeedsTriggerInsertion
	return pattern
}

func classifyPushFilter(parsed *document.Document, pushSection document.Section, skip document.Section, target targets.TargetSpec, pattern *Pattern) {
	if len(parsed.Line(pushSection.Start).Value()) > 0 {
		pattern.markAmbiguous(reasonInlinePushFilters, parsed.Slice(pushSection.Start, pushSection.End))
		pattern.Kind = KindNeedsInversion
		return
	}

	branchesSection, hasBranches := parsed.Child(pushSection, targets.FilterKeyBranches)
	ignoreSection, hasIgnore := parsed.Child(pushSection, targets.FilterKeyBranchesIgnore)

	var filterSection document.Section
	switch {
	case hasBranches && hasIgnore:
		pattern.markAmbiguous(reasonBothFilterKeys, parsed.Slice(pushSection.Start, pushSection.End))
		filterSection = branchesSection
		if target.FilterKey == targets.FilterKeyBranchesIgnore {
			filterSection = ignoreSection
		}
	case hasBranches:
		filterSection = branchesSection
	case hasIgnore:
		filterSection = ignoreSection
	default:
		pattern.Kind = KindNeedsInversion
		if filtersTagsOnly(parsed, pushSection) {
			pattern.markAmbiguous(reasonTagOnlyPush, parsed.Slice(pushSection.Start, pushSection.End))
		}
		return
	}

	pattern.FilterKey = filterSection.Key
	pattern.Anchors.Filter = filterSection.Start

	tokens, form, ambiguityReason := BranchTokens(parsed, filterSection, skip)
	pattern.TargetBranchList = tokens
	pattern.ListForm = form
	if len(ambiguityReason) > 0 {
		pattern.markAmbiguous(ambiguityReason, parsed.Slice(filterSection.Start, filterSection.End))
	}

	targetTokens := target.BranchSet()
	switch {
	case filterSection.Key == target.FilterKey && sameTokenSet(tokens, targetTokens):
		pattern.Kind = KindAlreadyTarget
	case filterSection.Key == target.FilterKey && containsTokenSet(tokens, targetTokens):
		pattern.Kind = KindNeedsTokenRemoval
	default:
		pattern.Kind = KindNeedsInversion
	}
}

func filtersTagsOnly(parsed *document.Document, pushSection document.Section) bool {
	_, hasTags := parsed.Child(pushSection, tagsKeyConstant)
	_, hasTagsIgnore := parsed.Child(pushSection, tagsIgnoreKeyConstant)
	return hasTags || hasTagsIgnore
}

// locateMisplacedDispatch finds a workflow_dispatch key nested below an on: child instead of beside it.
func locateMisplacedDispatch(parsed *document.Document, onSection document.Section, childIndent int, pattern *Pattern) document.Section {
	var misplaced document.Section
	found := false
	for _, child := range parsed.Children(onSection) {
		for index := child.Start + 1; index < child.End; index++ {
			line := parsed.Line(index)
			if key, isKey := line.Key(); !isKey || key != workflowDispatchKeyConstant || line.Indent <= childIndent {
				continue
			}
			if found {
				pattern.markAmbiguous(reasonDispatchDeclaredTwice, parsed.Slice(onSection.Start, onSection.End))
				return misplaced
			}
			misplaced, found = parsed.SectionAt(index)
			pattern.DispatchMisplaced = true
			pattern.HasWorkflowDispatch = true
			pattern.Anchors.Dispatch = index
			pattern.Anchors.DispatchParent = child.Start
		}
	}
	return misplaced
}

func inlineEventsKind(inlineEvents string, target targets.TargetSpec) Kind {
	events := map[string]struct{}{}
	for _, entry := range FlowEntries(inlineEvents) {
		events[document.Unquote(entry)] = struct{}{}
	}
	if _, hasPush := events[pushKeyConstant]; hasPush {
		return KindNeedsInversion
	}
	if _, hasPullRequest := events[pullRequestKeyConstant]; hasPullRequest && target.ReplacePullRequest {
		return KindNeedsTriggerReplacement
	}
	return KindNeedsTriggerInsertion
}

func firstSection(sections []document.Section) (document.Section, bool) {
	if len(sections) == 0 {
		return document.Section{}, false
	}
	return sections[0], true
}

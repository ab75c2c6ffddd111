package rules

import (
	"errors"
	"strings"

	"github.com/temirov/triggershift/internal/classifier"
	"github.com/temirov/triggershift/internal/document"
	"github.com/temirov/triggershift/internal/targets"
)

const (
	pushHeaderConstant      = "push:"
	keySuffixConstant       = ":"
	inlineListTemplateOpen  = ": ["
	inlineListClose         = "]"
	inlineEntrySeparator    = ", "
	blockItemPrefixConstant = "- "
	singleQuoteConstant     = "'"
	yamlIndicatorCharacters = "*&!|>%@`{}[],#?:-"
	inlineValueMissingMessage = "inline branch list not found on filter line"
)

var errInlineValueMissing = errors.New(inlineValueMissingMessage)

// RemoveExtraTokens drops branch entries outside the target set, keeping the order of the rest.
// An emptied list is replaced wholesale by the target list.
func RemoveExtraTokens(parsed *document.Document, pattern classifier.Pattern, target targets.TargetSpec) (*document.Document, ChangeLog, error) {
	filterSection, anchorError := sectionAt(parsed, pattern.Anchors.Filter)
	if anchorError != nil {
		return nil, nil, anchorError
	}
	keep := target.BranchSet()

	switch pattern.ListForm {
	case classifier.ListFormInline:
		header := parsed.Line(filterSection.Start)
		content := header.Content()
		value := header.Value()
		valueStart := strings.Index(content, value)
		if valueStart < 0 || len(value) == 0 {
			return nil, nil, errInlineValueMissing
		}

		var kept []string
		for _, entry := range classifier.FlowEntries(value) {
			if _, wanted := keep[document.Unquote(entry)]; wanted {
				kept = append(kept, entry)
			}
		}
		if len(kept) == 0 {
			return replaceFilterWholesale(parsed, pattern, target, filterSection, ReasonTokenRemoval)
		}

		rewritten := content[:valueStart] + "[" + strings.Join(kept, inlineEntrySeparator) + inlineListClose + content[valueStart+len(value):]
		updated, entry := replaceLines(parsed, filterSection.Start, filterSection.Start+1, []string{rewritten}, ReasonTokenRemoval)
		return updated, ChangeLog{entry}, nil

	case classifier.ListFormBlock:
		items := parsed.Items(filterSection)
		var removals []document.Section
		for _, item := range items {
			if _, wanted := keep[document.Unquote(parsed.Line(item.Start).ItemText())]; !wanted {
				removals = append(removals, item)
			}
		}
		if len(removals) == len(items) {
			return replaceFilterWholesale(parsed, pattern, target, filterSection, ReasonTokenRemoval)
		}

		updated := parsed
		changeLog := make(ChangeLog, 0, len(removals))
		for removalIndex := len(removals) - 1; removalIndex >= 0; removalIndex-- {
			var entry Entry
			updated, entry = replaceLines(updated, removals[removalIndex].Start, removals[removalIndex].End, nil, ReasonTokenRemoval)
			changeLog = append(changeLog, entry)
		}
		return updated, changeLog, nil

	default:
		return replaceFilterWholesale(parsed, pattern, target, filterSection, ReasonTokenRemoval)
	}
}

// ReplaceFilter swaps the push branch filter key and list wholesale for the target's, or adds one
// as the first child of push when none exists.
func ReplaceFilter(parsed *document.Document, pattern classifier.Pattern, target targets.TargetSpec) (*document.Document, ChangeLog, error) {
	if pattern.Anchors.Filter >= 0 {
		filterSection, anchorError := sectionAt(parsed, pattern.Anchors.Filter)
		if anchorError != nil {
			return nil, nil, anchorError
		}
		return replaceFilterWholesale(parsed, pattern, target, filterSection, ReasonFilterReplacement)
	}

	pushSection, anchorError := sectionAt(parsed, pattern.Anchors.Push)
	if anchorError != nil {
		return nil, nil, anchorError
	}
	childIndent := parsed.ChildIndent(pushSection)
	if childIndent <= pushSection.Indent {
		childIndent = pushSection.Indent + pattern.IndentUnit
	}
	block := filterBlock(childIndent, pattern.IndentUnit, target, classifier.ListFormBlock)
	updated, entry := replaceLines(parsed, pushSection.Start+1, pushSection.Start+1, block, ReasonFilterReplacement)
	return updated, ChangeLog{entry}, nil
}

// ReplacePullRequestTrigger replaces the whole pull_request section, including types, with a push
// section carrying the target filter.
func ReplacePullRequestTrigger(parsed *document.Document, pattern classifier.Pattern, target targets.TargetSpec) (*document.Document, ChangeLog, error) {
	pullRequestSection, anchorError := sectionAt(parsed, pattern.Anchors.PullRequest)
	if anchorError != nil {
		return nil, nil, anchorError
	}
	block := pushBlock(pullRequestSection.Indent, pattern.IndentUnit, target)
	updated, entry := replaceLines(parsed, pullRequestSection.Start, pullRequestSection.End, block, ReasonTriggerReplacement)
	return updated, ChangeLog{entry}, nil
}

// InsertPushTrigger adds a push section as the first child of on.
func InsertPushTrigger(parsed *document.Document, pattern classifier.Pattern, target targets.TargetSpec) (*document.Document, ChangeLog, error) {
	onSection, anchorError := sectionAt(parsed, pattern.Anchors.On)
	if anchorError != nil {
		return nil, nil, anchorError
	}
	childIndent := parsed.ChildIndent(onSection)
	if childIndent <= onSection.Indent {
		childIndent = onSection.Indent + pattern.IndentUnit
	}
	block := pushBlock(childIndent, pattern.IndentUnit, target)
	updated, entry := replaceLines(parsed, onSection.Start+1, onSection.Start+1, block, ReasonTriggerInsertion)
	return updated, ChangeLog{entry}, nil
}

// RemoveSchedule deletes the schedule section and its cron entries.
func RemoveSchedule(parsed *document.Document, pattern classifier.Pattern, _ targets.TargetSpec) (*document.Document, ChangeLog, error) {
	scheduleSection, anchorError := sectionAt(parsed, pattern.Anchors.Schedule)
	if anchorError != nil {
		return nil, nil, anchorError
	}
	updated, entry := replaceLines(parsed, scheduleSection.Start, scheduleSection.End, nil, ReasonScheduleRemoval)
	return updated, ChangeLog{entry}, nil
}

// RepairDispatchIndentation moves a workflow_dispatch key nested under another trigger back to the
// on: child level, directly after the trigger it drifted into.
func RepairDispatchIndentation(parsed *document.Document, pattern classifier.Pattern, _ targets.TargetSpec) (*document.Document, ChangeLog, error) {
	dispatchSection, anchorError := sectionAt(parsed, pattern.Anchors.Dispatch)
	if anchorError != nil {
		return nil, nil, anchorError
	}
	onSection, anchorError := sectionAt(parsed, pattern.Anchors.On)
	if anchorError != nil {
		return nil, nil, anchorError
	}
	if pattern.Anchors.DispatchParent < 0 || pattern.Anchors.DispatchParent >= dispatchSection.Start {
		return nil, nil, errAnchorMissing
	}

	targetIndent := parsed.ChildIndent(onSection)
	shift := dispatchSection.Indent - targetIndent
	moved := make([]string, 0, dispatchSection.End-dispatchSection.Start)
	for _, content := range parsed.Slice(dispatchSection.Start, dispatchSection.End) {
		moved = append(moved, outdent(content, shift))
	}

	withoutDispatch, removal := replaceLines(parsed, dispatchSection.Start, dispatchSection.End, nil, ReasonDispatchReindent)
	parentSection, anchorError := sectionAt(withoutDispatch, pattern.Anchors.DispatchParent)
	if anchorError != nil {
		return nil, nil, anchorError
	}
	updated, insertion := replaceLines(withoutDispatch, parentSection.End, parentSection.End, moved, ReasonDispatchReindent)
	return updated, ChangeLog{removal, insertion}, nil
}

func replaceFilterWholesale(parsed *document.Document, pattern classifier.Pattern, target targets.TargetSpec, filterSection document.Section, reason ReasonTag) (*document.Document, ChangeLog, error) {
	itemOffset := pattern.IndentUnit
	if pattern.ListForm == classifier.ListFormBlock {
		if itemIndent := parsed.ChildIndent(filterSection); itemIndent >= filterSection.Indent {
			itemOffset = itemIndent - filterSection.Indent
		}
	}
	form := classifier.ListFormBlock
	if pattern.ListForm == classifier.ListFormInline {
		form = classifier.ListFormInline
	}
	block := filterBlock(filterSection.Indent, itemOffset, target, form)
	updated, entry := replaceLines(parsed, filterSection.Start, filterSection.End, block, reason)
	return updated, ChangeLog{entry}, nil
}

func pushBlock(indent int, indentUnit int, target targets.TargetSpec) []string {
	block := []string{document.Indentation(indent) + pushHeaderConstant}
	return append(block, filterBlock(indent+indentUnit, indentUnit, target, classifier.ListFormBlock)...)
}

func filterBlock(indent int, itemOffset int, target targets.TargetSpec, form classifier.ListForm) []string {
	tokens := make([]string, 0, len(target.Branches))
	for _, branch := range target.Branches {
		tokens = append(tokens, quoteToken(branch))
	}
	if form == classifier.ListFormInline {
		return []string{document.Indentation(indent) + target.FilterKey + inlineListTemplateOpen + strings.Join(tokens, inlineEntrySeparator) + inlineListClose}
	}
	block := []string{document.Indentation(indent) + target.FilterKey + keySuffixConstant}
	for _, token := range tokens {
		block = append(block, document.Indentation(indent+itemOffset)+blockItemPrefixConstant+token)
	}
	return block
}

func quoteToken(token string) string {
	if len(token) > 0 && strings.ContainsRune(yamlIndicatorCharacters, rune(token[0])) {
		return singleQuoteConstant + token + singleQuoteConstant
	}
	return token
}

func outdent(content string, shift int) string {
	if len(strings.TrimSpace(content)) == 0 {
		return ""
	}
	leading := len(content) - len(strings.TrimLeft(content, " "))
	if shift > leading {
		shift = leading
	}
	if shift < 0 {
		return document.Indentation(-shift) + content
	}
	return content[shift:]
}

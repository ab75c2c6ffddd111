package rules

import "github.com/temirov/triggershift/internal/document"

// ReasonTag attributes a change log entry to the rule that produced it.
type ReasonTag string

// Reason tags emitted by rules.
const (
	ReasonTokenRemoval       ReasonTag = "token-removal"
	ReasonFilterReplacement  ReasonTag = "filter-replacement"
	ReasonTriggerReplacement ReasonTag = "trigger-replacement"
	ReasonTriggerInsertion   ReasonTag = "trigger-insertion"
	ReasonScheduleRemoval    ReasonTag = "schedule-removal"
	ReasonDispatchReindent   ReasonTag = "dispatch-reindent"
	ReasonRegistryMigration  ReasonTag = "registry-migration"
	ReasonAuthStepInsertion  ReasonTag = "auth-step-insertion"
)

// LineRange is a half-open range of line indices.
type LineRange struct {
	Start int
	End   int
}

// Entry records one contiguous edit. Ranges are relative to the document the edit was applied to.
type Entry struct {
	Before  LineRange
	After   LineRange
	Reason  ReasonTag
	Removed []string
	Added   []string
}

// ChangeLog is the ordered list of edits applied during one rewrite.
type ChangeLog []Entry

// Reasons returns the distinct reason tags in first-seen order.
func (changeLog ChangeLog) Reasons() []ReasonTag {
	seen := make(map[ReasonTag]struct{}, len(changeLog))
	reasons := make([]ReasonTag, 0, len(changeLog))
	for _, entry := range changeLog {
		if _, duplicate := seen[entry.Reason]; duplicate {
			continue
		}
		seen[entry.Reason] = struct{}{}
		reasons = append(reasons, entry.Reason)
	}
	return reasons
}

func replaceLines(parsed *document.Document, start int, end int, contents []string, reason ReasonTag) (*document.Document, Entry) {
	entry := Entry{
		Before:  LineRange{Start: start, End: end},
		After:   LineRange{Start: start, End: start + len(contents)},
		Reason:  reason,
		Removed: parsed.Slice(start, end),
		Added:   append([]string(nil), contents...),
	}
	return parsed.Replace(start, end, contents), entry
}

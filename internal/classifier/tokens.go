package classifier

import (
	"strings"

	"github.com/temirov/triggershift/internal/document"
)

const (
	flowSequenceOpenConstant  = "["
	flowSequenceCloseConstant = "]"
	flowMappingOpenConstant   = "{"
	flowEntrySeparatorRune    = ','

	reasonUnterminatedFlowSequence = "branch list uses an unterminated inline sequence"
	reasonFlowMappingFilter        = "branch filter holds an inline mapping"
	reasonMappingInsideBranchList  = "branch list entry is a mapping"
	reasonUnexpectedBranchContent  = "unexpected content inside branch list"
	reasonMixedBranchListForms     = "inline and block branch lists coexist"
)

// BranchTokens lowers a branch filter, in inline "[a, b]", scalar, or block "- a" layout, to a flat
// token list. Lines inside skip are ignored. A non-empty reason marks an ambiguous layout.
func BranchTokens(parsed *document.Document, filter document.Section, skip document.Section) ([]string, ListForm, string) {
	header := parsed.Line(filter.Start)
	inlineValue := header.Value()

	var inlineTokens []string
	form := ListFormNone
	reason := ""

	switch {
	case len(inlineValue) == 0:
	case strings.HasPrefix(inlineValue, flowSequenceOpenConstant):
		if !strings.HasSuffix(inlineValue, flowSequenceCloseConstant) {
			return nil, ListFormInline, reasonUnterminatedFlowSequence
		}
		for _, entry := range FlowEntries(inlineValue) {
			if token := document.Unquote(entry); len(token) > 0 {
				inlineTokens = append(inlineTokens, token)
			}
		}
		form = ListFormInline
	case strings.HasPrefix(inlineValue, flowMappingOpenConstant):
		return nil, ListFormInline, reasonFlowMappingFilter
	default:
		inlineTokens = []string{document.Unquote(inlineValue)}
		form = ListFormScalar
	}

	var blockTokens []string
	itemIndent := -1
	for index := filter.Start + 1; index < filter.End; index++ {
		if skip.End > skip.Start && skip.Contains(index) {
			continue
		}
		line := parsed.Line(index)
		if !line.IsContent() {
			continue
		}
		if line.Tag != document.TagListItem {
			reason = reasonUnexpectedBranchContent
			continue
		}
		if itemIndent < 0 {
			itemIndent = line.Indent
		}
		if line.Indent != itemIndent {
			reason = reasonUnexpectedBranchContent
			continue
		}
		if _, _, isMapping := line.ItemKey(); isMapping {
			reason = reasonMappingInsideBranchList
			continue
		}
		if token := document.Unquote(line.ItemText()); len(token) > 0 {
			blockTokens = append(blockTokens, token)
		}
	}

	if form != ListFormNone {
		if len(blockTokens) > 0 && len(reason) == 0 {
			reason = reasonMixedBranchListForms
		}
		return inlineTokens, form, reason
	}
	if len(blockTokens) > 0 {
		form = ListFormBlock
	}
	return blockTokens, form, reason
}

// FlowEntries splits an inline "[a, 'b', c]" sequence into its raw entries, honoring quotes.
func FlowEntries(value string) []string {
	inner := strings.TrimSpace(value)
	inner = strings.TrimPrefix(inner, flowSequenceOpenConstant)
	inner = strings.TrimSuffix(inner, flowSequenceCloseConstant)

	var entries []string
	var quote rune
	entryStart := 0
	for index, character := range inner {
		switch {
		case quote != 0:
			if character == quote {
				quote = 0
			}
		case character == '\'' || character == '"':
			quote = character
		case character == flowEntrySeparatorRune:
			if entry := strings.TrimSpace(inner[entryStart:index]); len(entry) > 0 {
				entries = append(entries, entry)
			}
			entryStart = index + 1
		}
	}
	if entry := strings.TrimSpace(inner[entryStart:]); len(entry) > 0 {
		entries = append(entries, entry)
	}
	return entries
}

func sameTokenSet(tokens []string, expected map[string]struct{}) bool {
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if _, wanted := expected[token]; !wanted {
			return false
		}
		seen[token] = struct{}{}
	}
	return len(seen) == len(expected)
}

func containsTokenSet(tokens []string, expected map[string]struct{}) bool {
	seen := make(map[string]struct{}, len(expected))
	for _, token := range tokens {
		if _, wanted := expected[token]; wanted {
			seen[token] = struct{}{}
		}
	}
	return len(seen) == len(expected)
}

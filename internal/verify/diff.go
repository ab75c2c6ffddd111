package verify

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/temirov/triggershift/internal/document"
	"github.com/temirov/triggershift/internal/rules"
	"github.com/temirov/triggershift/internal/targets"
)

// Rejection reasons reported by the diff verifier.
const (
	ReasonForbiddenFragment   = "forbidden fragment touched"
	ReasonProtectedRemoval    = "protected line removed"
	ReasonUnexplainedRemoval  = "unexplained removal"
	ReasonUnexplainedAddition = "unexplained addition"
	ReasonInvalidYAML         = "rewritten document is no longer valid YAML"
)

const (
	defaultHunkContextLinesConstant = 2
	unexpectedChangeTemplate        = "%s: %s"
	unexpectedChangeHunkTemplate    = "%s: %s\n%s"
	hunkHeaderTemplateConstant      = "@@ -%d,%d +%d,%d @@"
	contextLinePrefixConstant       = " "
	removedLinePrefixConstant       = "-"
	addedLinePrefixConstant         = "+"
	hunkLineSeparatorConstant       = "\n"
	equalOpCodeTag                  = 'e'
)

// UnexpectedChangeError rejects a rewrite whose diff contains a change nothing accounts for.
// Hunk holds the offending hunk in unified diff form.
type UnexpectedChangeError struct {
	Reason string
	Detail string
	Hunk   string
}

// Error describes the rejection, including the hunk when one is attached.
func (unexpected *UnexpectedChangeError) Error() string {
	if len(unexpected.Hunk) == 0 {
		return fmt.Sprintf(unexpectedChangeTemplate, unexpected.Reason, unexpected.Detail)
	}
	return fmt.Sprintf(unexpectedChangeHunkTemplate, unexpected.Reason, unexpected.Detail, unexpected.Hunk)
}

// DiffVerifier explains every changed line of a rewrite.
type DiffVerifier struct {
	contextLines int
}

// NewDiffVerifier constructs a DiffVerifier that attaches hunks with two lines of context.
func NewDiffVerifier() *DiffVerifier {
	return &DiffVerifier{contextLines: defaultHunkContextLinesConstant}
}

// Verify diffs original against rewritten line by line. Removed and added lines that cancel inside a
// hunk are ignored; every other line must avoid forbidden fragments and be covered either by a
// changeLog entry at the same position or by the permitted patterns of allowList. Protected lines
// may never disappear. When original parses as YAML, rewritten must too.
func (verifier *DiffVerifier) Verify(original *document.Document, rewritten *document.Document, changeLog rules.ChangeLog, allowList targets.AllowList) error {
	originalLines := original.Contents()
	rewrittenLines := rewritten.Contents()
	loggedRemovals, loggedAdditions := changeLogPositions(changeLog)

	retained := make(map[string]struct{}, len(rewrittenLines))
	for _, line := range rewrittenLines {
		retained[line] = struct{}{}
	}

	matcher := difflib.NewMatcherWithJunk(originalLines, rewrittenLines, false, nil)
	for _, group := range matcher.GetGroupedOpCodes(verifier.contextLines) {
		var removed, added []positionedLine
		for _, opCode := range group {
			if opCode.Tag == equalOpCodeTag {
				continue
			}
			removed = append(removed, positionedLines(originalLines, opCode.I1, opCode.I2)...)
			added = append(added, positionedLines(rewrittenLines, opCode.J1, opCode.J2)...)
		}
		removed, added = cancelPairs(removed, added)

		reject := func(reason string, line string) error {
			return &UnexpectedChangeError{Reason: reason, Detail: fmt.Sprintf("%q", line), Hunk: formatHunk(group, originalLines, rewrittenLines)}
		}

		for _, line := range removed {
			if targets.MatchesAny(allowList.Forbidden, line.text) {
				return reject(ReasonForbiddenFragment, line.text)
			}
			if _, stillPresent := retained[line.text]; !stillPresent && targets.MatchesAny(allowList.Protected, line.text) {
				return reject(ReasonProtectedRemoval, line.text)
			}
			if line.loggedIn(loggedRemovals) || targets.MatchesAny(allowList.PermittedRemoved, line.text) {
				continue
			}
			return reject(ReasonUnexplainedRemoval, line.text)
		}
		for _, line := range added {
			if targets.MatchesAny(allowList.Forbidden, line.text) {
				return reject(ReasonForbiddenFragment, line.text)
			}
			if line.loggedIn(loggedAdditions) || targets.MatchesAny(allowList.PermittedAdded, line.text) {
				continue
			}
			return reject(ReasonUnexplainedAddition, line.text)
		}
	}

	return verifyYAML(original.Render(), rewritten.Render())
}

// UnifiedDiff renders the would-be change of a rewrite for reporting.
func UnifiedDiff(fileName string, original *document.Document, rewritten *document.Document) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original.Render()),
		B:        difflib.SplitLines(rewritten.Render()),
		FromFile: fileName,
		ToFile:   fileName,
		Context:  defaultHunkContextLinesConstant + 1,
	})
}

type positionedLine struct {
	index int
	text  string
}

func positionedLines(lines []string, start int, end int) []positionedLine {
	positioned := make([]positionedLine, 0, end-start)
	for index := start; index < end; index++ {
		positioned = append(positioned, positionedLine{index: index, text: lines[index]})
	}
	return positioned
}

func (line positionedLine) loggedIn(logged map[int]string) bool {
	text, exists := logged[line.index]
	return exists && text == line.text
}

// changeLogPositions maps every logged removal to its index in the original document and every
// logged addition to its index in the final document. Lines that a later edit replaced again, or
// that an earlier edit introduced, have no such index and are left out.
func changeLogPositions(changeLog rules.ChangeLog) (map[int]string, map[int]string) {
	removed := make(map[int]string)
	added := make(map[int]string)
	for entryIndex, entry := range changeLog {
		for offset, line := range entry.Removed {
			if position, original := projectBackward(changeLog[:entryIndex], entry.Before.Start+offset); original {
				removed[position] = line
			}
		}
		for offset, line := range entry.Added {
			if position, final := projectForward(changeLog[entryIndex+1:], entry.After.Start+offset); final {
				added[position] = line
			}
		}
	}
	return removed, added
}

// projectBackward walks position back through earlier edits to the document they started from.
func projectBackward(earlier rules.ChangeLog, position int) (int, bool) {
	for entryIndex := len(earlier) - 1; entryIndex >= 0; entryIndex-- {
		entry := earlier[entryIndex]
		switch {
		case position < entry.After.Start:
		case position < entry.After.End:
			return 0, false
		default:
			position -= rangeLength(entry.After) - rangeLength(entry.Before)
		}
	}
	return position, true
}

// projectForward walks position through later edits to the document they produced.
func projectForward(later rules.ChangeLog, position int) (int, bool) {
	for _, entry := range later {
		switch {
		case position < entry.Before.Start:
		case position < entry.Before.End:
			return 0, false
		default:
			position += rangeLength(entry.After) - rangeLength(entry.Before)
		}
	}
	return position, true
}

func rangeLength(lineRange rules.LineRange) int {
	return lineRange.End - lineRange.Start
}

// cancelPairs drops lines that a hunk removes and re-adds verbatim.
func cancelPairs(removed []positionedLine, added []positionedLine) ([]positionedLine, []positionedLine) {
	pending := make(map[string]int, len(added))
	for _, line := range added {
		pending[line.text]++
	}
	cancelled := make(map[string]int)
	var remainingRemoved []positionedLine
	for _, line := range removed {
		if pending[line.text] > 0 {
			pending[line.text]--
			cancelled[line.text]++
			continue
		}
		remainingRemoved = append(remainingRemoved, line)
	}
	var remainingAdded []positionedLine
	for _, line := range added {
		if cancelled[line.text] > 0 {
			cancelled[line.text]--
			continue
		}
		remainingAdded = append(remainingAdded, line)
	}
	return remainingRemoved, remainingAdded
}

func formatHunk(group []difflib.OpCode, originalLines []string, rewrittenLines []string) string {
	first, last := group[0], group[len(group)-1]
	lines := []string{fmt.Sprintf(hunkHeaderTemplateConstant, first.I1+1, last.I2-first.I1, first.J1+1, last.J2-first.J1)}
	for _, opCode := range group {
		if opCode.Tag == equalOpCodeTag {
			for _, line := range originalLines[opCode.I1:opCode.I2] {
				lines = append(lines, contextLinePrefixConstant+line)
			}
			continue
		}
		for _, line := range originalLines[opCode.I1:opCode.I2] {
			lines = append(lines, removedLinePrefixConstant+line)
		}
		for _, line := range rewrittenLines[opCode.J1:opCode.J2] {
			lines = append(lines, addedLinePrefixConstant+line)
		}
	}
	return strings.Join(lines, hunkLineSeparatorConstant)
}

func verifyYAML(originalText string, rewrittenText string) error {
	var originalNode yaml.Node
	if yaml.Unmarshal([]byte(originalText), &originalNode) != nil {
		return nil
	}
	var rewrittenNode yaml.Node
	if parseError := yaml.Unmarshal([]byte(rewrittenText), &rewrittenNode); parseError != nil {
		return &UnexpectedChangeError{Reason: ReasonInvalidYAML, Detail: parseError.Error()}
	}
	return nil
}

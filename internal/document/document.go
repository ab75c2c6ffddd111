package document

import "strings"

const (
	carriageReturnLineFeedConstant = "\r\n"
	byteOrderMarkConstant          = "\ufeff"
)

// Document is an ordered sequence of lines. Edits never mutate a document; they return a new one.
type Document struct {
	lines         []Line
	newline       string
	byteOrderMark string
}

// Parse indexes text into lines. It never fails: the index carries no schema.
// A leading byte order mark is kept aside so the first line keys like any other.
func Parse(text string) *Document {
	document := &Document{newline: lineFeedConstant}
	if strings.Contains(text, carriageReturnLineFeedConstant) {
		document.newline = carriageReturnLineFeedConstant
	}

	remaining := text
	if strings.HasPrefix(remaining, byteOrderMarkConstant) {
		document.byteOrderMark = byteOrderMarkConstant
		remaining = strings.TrimPrefix(remaining, byteOrderMarkConstant)
	}
	for len(remaining) > 0 {
		lineEnd := strings.Index(remaining, lineFeedConstant)
		if lineEnd < 0 {
			document.lines = append(document.lines, NewLine(remaining))
			break
		}
		document.lines = append(document.lines, NewLine(remaining[:lineEnd+1]))
		remaining = remaining[lineEnd+1:]
	}
	return document
}

// Render concatenates the raw text of every line in order.
func Render(document *Document) string {
	if document == nil {
		return ""
	}
	var builder strings.Builder
	builder.WriteString(document.byteOrderMark)
	for _, line := range document.lines {
		builder.WriteString(line.Raw)
	}
	return builder.String()
}

// Render returns the document text.
func (document *Document) Render() string {
	return Render(document)
}

// Len returns the number of lines.
func (document *Document) Len() int {
	if document == nil {
		return 0
	}
	return len(document.lines)
}

// Line returns the line at index.
func (document *Document) Line(index int) Line {
	return document.lines[index]
}

// Lines returns a copy of the line slice.
func (document *Document) Lines() []Line {
	return append([]Line(nil), document.lines...)
}

// Contents returns every line without terminators.
func (document *Document) Contents() []string {
	contents := make([]string, 0, len(document.lines))
	for _, line := range document.lines {
		contents = append(contents, line.Content())
	}
	return contents
}

// Newline returns the dominant line terminator of the document.
func (document *Document) Newline() string {
	return document.newline
}

// Replace returns a new document with lines [start, end) replaced by the given contents.
// Contents carry no terminators; the document's newline style is applied.
func (document *Document) Replace(start int, end int, contents []string) *Document {
	start = clampIndex(start, len(document.lines))
	end = clampIndex(end, len(document.lines))
	if end < start {
		end = start
	}

	replaced := &Document{newline: document.newline, byteOrderMark: document.byteOrderMark}
	replaced.lines = make([]Line, 0, len(document.lines)-(end-start)+len(contents))
	replaced.lines = append(replaced.lines, document.lines[:start]...)

	if len(contents) > 0 && start > 0 && start == len(document.lines) {
		previous := replaced.lines[start-1]
		if len(previous.Terminator()) == 0 {
			replaced.lines[start-1] = NewLine(previous.Raw + document.newline)
		}
	}

	finalUnterminated := end == len(document.lines) && end > start && len(document.lines[end-1].Terminator()) == 0
	for contentIndex, content := range contents {
		terminator := document.newline
		if finalUnterminated && contentIndex == len(contents)-1 {
			terminator = ""
		}
		replaced.lines = append(replaced.lines, NewLine(content+terminator))
	}

	replaced.lines = append(replaced.lines, document.lines[end:]...)
	return replaced
}

// Insert returns a new document with contents inserted before index.
func (document *Document) Insert(index int, contents []string) *Document {
	return document.Replace(index, index, contents)
}

// Delete returns a new document without lines [start, end).
func (document *Document) Delete(start int, end int) *Document {
	return document.Replace(start, end, nil)
}

func clampIndex(index int, length int) int {
	if index < 0 {
		return 0
	}
	if index > length {
		return length
	}
	return index
}

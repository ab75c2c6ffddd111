package document

import (
	"regexp"
	"strings"
)

const (
	lineFeedConstant           = "\n"
	carriageReturnConstant     = "\r"
	commentPrefixConstant      = "#"
	listItemMarkerConstant     = "-"
	listItemPrefixConstant     = "- "
	inlineCommentMarkerLiteral = " #"
	keyValueSeparatorConstant  = ":"
)

// LineTag classifies a line by its leading structure.
type LineTag int

// Supported line tags.
const (
	TagPlain LineTag = iota
	TagKey
	TagListItem
	TagBlank
)

var lineTagNames = map[LineTag]string{
	TagPlain:    "plain",
	TagKey:      "key",
	TagListItem: "list-item",
	TagBlank:    "blank",
}

// String returns the tag name.
func (tag LineTag) String() string {
	if name, exists := lineTagNames[tag]; exists {
		return name
	}
	return "unknown"
}

var keyPattern = regexp.MustCompile(`^(?:'([^']*)'|"([^"]*)"|([^\s#'"\[\]{}:,&*!|>%@` + "`" + `-][^:#]*?))\s*:(?:\s|$)`)

// Line is a single physical line of a document.
type Line struct {
	Raw    string
	Indent int
	Tag    LineTag
}

// NewLine builds a tagged line from raw text, including any terminator.
func NewLine(raw string) Line {
	content := strings.TrimRight(raw, lineFeedConstant+carriageReturnConstant)
	indent := len(content) - len(strings.TrimLeft(content, " \t"))
	trimmed := strings.TrimSpace(content)

	line := Line{Raw: raw, Indent: indent, Tag: TagPlain}
	switch {
	case len(trimmed) == 0:
		line.Tag = TagBlank
	case strings.HasPrefix(trimmed, commentPrefixConstant):
		line.Tag = TagPlain
	case trimmed == listItemMarkerConstant || strings.HasPrefix(trimmed, listItemPrefixConstant):
		line.Tag = TagListItem
	case keyPattern.MatchString(trimmed):
		line.Tag = TagKey
	}
	return line
}

// Content returns the line without its terminator.
func (line Line) Content() string {
	return strings.TrimRight(line.Raw, lineFeedConstant+carriageReturnConstant)
}

// Terminator returns the line ending, empty for a final unterminated line.
func (line Line) Terminator() string {
	return line.Raw[len(line.Content()):]
}

// Text returns the content with surrounding whitespace removed.
func (line Line) Text() string {
	return strings.TrimSpace(line.Content())
}

// IsComment reports whether the line holds only a comment.
func (line Line) IsComment() bool {
	return strings.HasPrefix(line.Text(), commentPrefixConstant)
}

// IsContent reports whether the line participates in indentation scoping.
func (line Line) IsContent() bool {
	return line.Tag != TagBlank && !line.IsComment()
}

// Key returns the unquoted key of a key line.
func (line Line) Key() (string, bool) {
	if line.Tag != TagKey {
		return "", false
	}
	key, _, found := splitKeyValue(line.Text())
	return key, found
}

// Value returns the inline value of a key line with any trailing comment removed.
func (line Line) Value() string {
	if line.Tag != TagKey {
		return ""
	}
	_, value, _ := splitKeyValue(line.Text())
	return value
}

// ItemText returns the text following the list marker with any trailing comment removed.
func (line Line) ItemText() string {
	if line.Tag != TagListItem {
		return ""
	}
	trimmed := strings.TrimPrefix(line.Text(), listItemMarkerConstant)
	return strings.TrimSpace(StripComment(trimmed))
}

// ItemKey returns the key and value of a list item that opens an inline mapping, e.g. "- name: build".
func (line Line) ItemKey() (string, string, bool) {
	if line.Tag != TagListItem {
		return "", "", false
	}
	itemText := strings.TrimSpace(strings.TrimPrefix(line.Text(), listItemMarkerConstant))
	return splitKeyValue(itemText)
}

// ItemIndent returns the indentation of content following the list marker.
func (line Line) ItemIndent() int {
	if line.Tag != TagListItem {
		return line.Indent
	}
	afterMarker := strings.TrimPrefix(line.Content()[line.Indent:], listItemMarkerConstant)
	return line.Indent + len(listItemMarkerConstant) + len(afterMarker) - len(strings.TrimLeft(afterMarker, " "))
}

func splitKeyValue(text string) (string, string, bool) {
	match := keyPattern.FindStringSubmatch(text)
	if match == nil {
		return "", "", false
	}
	key := match[1] + match[2] + strings.TrimSpace(match[3])
	value := strings.TrimSpace(StripComment(text[len(match[0]):]))
	return key, value, true
}

// StripComment removes a trailing " #" comment that is not inside quotes.
func StripComment(text string) string {
	var quote rune
	for index, character := range text {
		switch {
		case quote != 0:
			if character == quote {
				quote = 0
			}
		case character == '\'' || character == '"':
			quote = character
		case character == '#':
			if index == 0 || strings.HasSuffix(text[:index], " ") || strings.HasSuffix(text[:index], "\t") {
				return strings.TrimRight(text[:index], " \t")
			}
		}
	}
	return text
}

// Unquote removes one layer of matching single or double quotes.
func Unquote(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) >= 2 {
		first, last := trimmed[0], trimmed[len(trimmed)-1]
		if (first == '\'' || first == '"') && first == last {
			return trimmed[1 : len(trimmed)-1]
		}
	}
	return trimmed
}

// Indentation returns a string of count spaces.
func Indentation(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.Repeat(" ", count)
}

package flags

import (
	"fmt"
	"strings"
)

const (
	choiceSeparatorConstant     = "|"
	choiceListSeparatorConstant = ", "
	choicePlaceholderTemplate   = "`<%s>`"
	choiceDescriptionTemplate   = "%s %s"
)

// Choices is the ordered set of values a string flag accepts. Matching ignores case and surrounding
// whitespace.
type Choices []string

// Usage renders the choices as a placeholder with defaultChoice upper-cased, followed by description.
func (choices Choices) Usage(defaultChoice string, description string) string {
	defaultKey := choiceKey(defaultChoice)
	rendered := make([]string, 0, len(choices))
	for _, choice := range choices.canonical() {
		if len(defaultKey) > 0 && choiceKey(choice) == defaultKey {
			choice = strings.ToUpper(choice)
		}
		rendered = append(rendered, choice)
	}

	placeholder := fmt.Sprintf(choicePlaceholderTemplate, strings.Join(rendered, choiceSeparatorConstant))
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return placeholder
	}
	return fmt.Sprintf(choiceDescriptionTemplate, placeholder, trimmedDescription)
}

// Match returns the canonical spelling of value, or false when value is not one of the choices.
func (choices Choices) Match(value string) (string, bool) {
	key := choiceKey(value)
	for _, choice := range choices.canonical() {
		if choiceKey(choice) == key {
			return choice, true
		}
	}
	return "", false
}

// String lists the canonical choices for error messages.
func (choices Choices) String() string {
	return strings.Join(choices.canonical(), choiceListSeparatorConstant)
}

func (choices Choices) canonical() []string {
	seen := make(map[string]struct{}, len(choices))
	canonical := make([]string, 0, len(choices))
	for _, choice := range choices {
		trimmed := strings.TrimSpace(choice)
		key := choiceKey(trimmed)
		if len(key) == 0 {
			continue
		}
		if _, duplicate := seen[key]; duplicate {
			continue
		}
		seen[key] = struct{}{}
		canonical = append(canonical, trimmed)
	}
	return canonical
}

func choiceKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

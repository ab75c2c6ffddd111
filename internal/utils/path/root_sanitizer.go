package pathutils

import (
	"path/filepath"
	"runtime"
	"strings"
)

const (
	booleanLiteralTrueValueConstant  = "true"
	booleanLiteralFalseValueConstant = "false"
)

// RootSanitizerConfiguration controls how workflow roots are normalized.
type RootSanitizerConfiguration struct {
	// ExcludeBooleanLiteralCandidates drops values that are boolean literals, which appear when a
	// toggle flag value is mistaken for a positional path.
	ExcludeBooleanLiteralCandidates bool
	// DeduplicateRoots keeps only the first occurrence of each cleaned absolute path.
	DeduplicateRoots bool
}

// RootSanitizer normalizes workflow root inputs from flags, arguments and configuration.
type RootSanitizer struct {
	homeExpander  *HomeExpander
	configuration RootSanitizerConfiguration
}

// NewRootSanitizer constructs a RootSanitizer with default behavior.
func NewRootSanitizer() *RootSanitizer {
	return NewRootSanitizerWithConfiguration(nil, RootSanitizerConfiguration{})
}

// NewRootSanitizerWithConfiguration constructs a RootSanitizer using the provided expander and configuration.
func NewRootSanitizerWithConfiguration(homeExpander *HomeExpander, configuration RootSanitizerConfiguration) *RootSanitizer {
	if homeExpander == nil {
		homeExpander = NewHomeExpander()
	}
	return &RootSanitizer{homeExpander: homeExpander, configuration: configuration}
}

// Sanitize trims whitespace, expands the user's home directory and removes disallowed values.
// It returns nil when nothing survives.
func (sanitizer *RootSanitizer) Sanitize(candidatePaths []string) []string {
	if sanitizer == nil {
		sanitizer = NewRootSanitizer()
	}

	sanitizedPaths := make([]string, 0, len(candidatePaths))
	seenPaths := make(map[string]struct{}, len(candidatePaths))
	for _, candidatePath := range candidatePaths {
		trimmedCandidate := strings.TrimSpace(candidatePath)
		if len(trimmedCandidate) == 0 {
			continue
		}
		if sanitizer.configuration.ExcludeBooleanLiteralCandidates && isBooleanLiteral(trimmedCandidate) {
			continue
		}

		expandedPath := sanitizer.homeExpander.Expand(trimmedCandidate)
		if len(expandedPath) == 0 {
			continue
		}

		if sanitizer.configuration.DeduplicateRoots {
			comparison := comparisonPath(expandedPath)
			if _, seen := seenPaths[comparison]; seen {
				continue
			}
			seenPaths[comparison] = struct{}{}
		}

		sanitizedPaths = append(sanitizedPaths, expandedPath)
	}

	if len(sanitizedPaths) == 0 {
		return nil
	}
	return sanitizedPaths
}

func isBooleanLiteral(candidate string) bool {
	loweredCandidate := strings.ToLower(candidate)
	return loweredCandidate == booleanLiteralTrueValueConstant || loweredCandidate == booleanLiteralFalseValueConstant
}

func comparisonPath(path string) string {
	comparison := filepath.Clean(path)
	if absolutePath, absoluteError := filepath.Abs(comparison); absoluteError == nil {
		comparison = absolutePath
	}
	if runtime.GOOS == "windows" {
		comparison = strings.ToLower(comparison)
	}
	return comparison
}

package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const homeShortcutConstant = "~"

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander resolves "~" and "~/..." workflow roots against the user's home directory. The
// directory is looked up once; a failed lookup leaves roots unexpanded.
type HomeExpander struct {
	lookupHome func() string
}

// NewHomeExpander constructs a HomeExpander backed by os.UserHomeDir.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom provider.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{lookupHome: sync.OnceValue(func() string {
		homeDirectory, lookupError := provider()
		if lookupError != nil {
			return ""
		}
		return homeDirectory
	})}
}

// Expand returns candidatePath with a leading home shortcut resolved. "~user" forms are not supported
// and come back unchanged.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil {
		return candidatePath
	}
	remainder, hasShortcut := strings.CutPrefix(candidatePath, homeShortcutConstant)
	if !hasShortcut {
		return candidatePath
	}
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return candidatePath
	}

	homeDirectory := expander.lookupHome()
	if len(homeDirectory) == 0 {
		return candidatePath
	}
	return filepath.Join(homeDirectory, remainder)
}

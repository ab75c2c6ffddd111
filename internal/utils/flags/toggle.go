package flags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

const (
	toggleTrueValueConstant     = "true"
	toggleFalseValueConstant    = "false"
	toggleTypeNameConstant      = "bool"
	longFlagPrefixConstant      = "--"
	flagAssignmentConstant      = "="
	toggleParseErrorTemplate    = "invalid toggle value %q (expected yes or no)"
	toggleUsageTemplate         = "`%s` %s"
	toggleDefaultYesPlaceholder = "<YES|no>"
	toggleDefaultNoPlaceholder  = "<yes|NO>"
)

var (
	toggleLiterals = map[string]bool{
		"true": true, "yes": true, "on": true, "1": true, "y": true, "t": true,
		"false": false, "no": false, "off": false, "0": false, "n": false, "f": false,
	}

	registeredTogglesMutex sync.RWMutex
	registeredToggles = map[string]struct{}{}
)

// AddToggleFlag registers a long-only boolean flag that accepts yes/no style values. A bare flag
// means yes.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	flagSet.Var(newToggleValue(defaultValue, target), name, usage)
	flag := flagSet.Lookup(name)
	flag.NoOptDefVal = toggleTrueValueConstant
	flag.Usage = toggleUsage(usage, defaultValue)

	registeredTogglesMutex.Lock()
	registeredToggles[name] = struct{}{}
	registeredTogglesMutex.Unlock()
}

// NormalizeToggleArguments joins "--toggle value" into "--toggle=value" for registered toggles so
// pflag does not read the value as a positional argument. Arguments after "--" are left alone.
func NormalizeToggleArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == longFlagPrefixConstant {
			return append(normalized, arguments[index:]...)
		}
		if index+1 < len(arguments) && expectsToggleValue(current) && !strings.HasPrefix(arguments[index+1], "-") {
			normalized = append(normalized, current+flagAssignmentConstant+arguments[index+1])
			index++
			continue
		}
		normalized = append(normalized, current)
	}
	return normalized
}

func expectsToggleValue(argument string) bool {
	name, isLong := strings.CutPrefix(argument, longFlagPrefixConstant)
	if !isLong || len(name) == 0 || strings.Contains(name, flagAssignmentConstant) {
		return false
	}
	registeredTogglesMutex.RLock()
	defer registeredTogglesMutex.RUnlock()
	_, registered := registeredToggles[name]
	return registered
}

func toggleUsage(description string, defaultValue bool) string {
	placeholder := toggleDefaultNoPlaceholder
	if defaultValue {
		placeholder = toggleDefaultYesPlaceholder
	}
	return strings.TrimSpace(fmt.Sprintf(toggleUsageTemplate, placeholder, strings.TrimSpace(description)))
}

type toggleValue struct {
	value  bool
	target *bool
}

func newToggleValue(defaultValue bool, target *bool) *toggleValue {
	if target != nil {
		*target = defaultValue
	}
	return &toggleValue{value: defaultValue, target: target}
}

func (toggle *toggleValue) Set(rawValue string) error {
	trimmed := strings.ToLower(strings.TrimSpace(rawValue))
	if len(trimmed) == 0 {
		trimmed = toggleTrueValueConstant
	}
	parsed, known := toggleLiterals[trimmed]
	if !known {
		return fmt.Errorf(toggleParseErrorTemplate, rawValue)
	}

	toggle.value = parsed
	if toggle.target != nil {
		*toggle.target = parsed
	}
	return nil
}

func (toggle *toggleValue) String() string {
	if toggle != nil && toggle.value {
		return toggleTrueValueConstant
	}
	return toggleFalseValueConstant
}

func (toggle *toggleValue) Type() string {
	return toggleTypeNameConstant
}

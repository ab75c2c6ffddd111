package targets

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	// FilterKeyBranches selects branches to run on.
	FilterKeyBranches = "branches"

	// FilterKeyBranchesIgnore selects branches to skip.
	FilterKeyBranchesIgnore = "branches-ignore"

	// BranchMain names the protected default branch.
	BranchMain = "main"

	// BranchFeatureGlob matches feature branches.
	BranchFeatureGlob = "feature/*"

	// DefaultRegistryHostname is the Artifact Registry host written by gcr-to-gar.
	DefaultRegistryHostname = "us-docker.pkg.dev"

	unknownTargetTemplateConstant      = "unknown target %q (expected one of %s)"
	invalidAllowListPatternTemplate    = "invalid %s pattern %q for target %s: %w"
	allowListPermittedAddedFieldName   = "permitted_added"
	allowListPermittedRemovedFieldName = "permitted_removed"
	allowListForbiddenFieldName        = "forbidden"
	allowListProtectedFieldName        = "protected"
	targetNameSeparatorConstant        = ", "
)

// Name identifies a migration target.
type Name string

// Supported targets.
const (
	AllExceptMain       Name = "all-except-main"
	FeatureOnly         Name = "feature-only"
	GitHubFlowMigration Name = "github-flow-migration"
	GCRToGAR            Name = "gcr-to-gar"
)

// Family selects which classifier and rule set a target uses.
type Family int

// Supported families.
const (
	FamilyTrigger Family = iota
	FamilyDockerPublish
)

// String returns the family name.
func (family Family) String() string {
	switch family {
	case FamilyTrigger:
		return "trigger"
	case FamilyDockerPublish:
		return "docker-publish"
	default:
		return "unknown"
	}
}

// TargetSpec names the desired end state of a migration run.
type TargetSpec struct {
	Name               Name
	Family             Family
	FilterKey          string
	Branches           []string
	ReplacePullRequest bool
	RemoveSchedule     bool
	RegistryHostname   string
	AllowList          AllowList
}

// AllowList holds line fragments a target may add or remove, plus fragments it must never touch.
type AllowList struct {
	PermittedAdded   []*regexp.Regexp
	PermittedRemoved []*regexp.Regexp
	Forbidden        []*regexp.Regexp
	Protected        []*regexp.Regexp
}

// Overrides extends a target's allow-list from configuration.
type Overrides struct {
	PermittedAdded   []string `mapstructure:"permitted_added"`
	PermittedRemoved []string `mapstructure:"permitted_removed"`
	Forbidden        []string `mapstructure:"forbidden"`
	Protected        []string `mapstructure:"protected"`
}

var triggerAllowList = AllowList{
	PermittedAdded: compilePatterns(
		`^\s*push:\s*$`,
		`^\s*(branches|branches-ignore):(\s+\[[^\]]*\])?\s*$`,
		`^\s*-\s+['"]?(main|feature/\*)['"]?\s*$`,
		`^\s*workflow_dispatch:`,
	),
	PermittedRemoved: compilePatterns(
		`^\s*(pull_request|schedule|types):`,
		`^\s*-\s+cron:`,
		`^\s*-\s+['"]?(develop|main|master|opened|synchronize|reopened|closed)['"]?\s*$`,
		`^\s*(branches|branches-ignore):`,
		`^\s*workflow_dispatch:`,
	),
	Forbidden: compilePatterns(
		`\$\{\{\s*secrets\.`,
		`^\s*(-\s+)?(uses|run|runs-on|env):`,
	),
}

var dockerPublishAllowList = AllowList{
	PermittedAdded: compilePatterns(
		`^\s*IMAGE_REGISTRY_HOSTNAME:`,
		`common-gar-auth`,
		`publish-docker-image-to-gar`,
		`^\s*-\s+name:\s+Authenticate to Google Artifact Registry\s*$`,
		`^\s*with:\s*$`,
	),
	PermittedRemoved: compilePatterns(
		`^\s*GCR_HOSTNAME:`,
		`^\s*(-\s+)?uses:.*publish-docker-image(@|\s*$)`,
	),
	Forbidden: compilePatterns(
		`secrets\.dev::`,
	),
	Protected: compilePatterns(
		`NAMESPACE_GSM_SVC_EMAIL`,
	),
}

var catalog = map[Name]TargetSpec{
	AllExceptMain: {
		Name:      AllExceptMain,
		Family:    FamilyTrigger,
		FilterKey: FilterKeyBranchesIgnore,
		Branches:  []string{BranchMain},
		AllowList: triggerAllowList,
	},
	FeatureOnly: {
		Name:               FeatureOnly,
		Family:             FamilyTrigger,
		FilterKey:          FilterKeyBranches,
		Branches:           []string{BranchFeatureGlob},
		ReplacePullRequest: true,
		RemoveSchedule:     true,
		AllowList:          triggerAllowList,
	},
	GitHubFlowMigration: {
		Name:               GitHubFlowMigration,
		Family:             FamilyTrigger,
		FilterKey:          FilterKeyBranches,
		Branches:           []string{BranchFeatureGlob},
		ReplacePullRequest: true,
		AllowList:          triggerAllowList,
	},
	GCRToGAR: {
		Name:             GCRToGAR,
		Family:           FamilyDockerPublish,
		RegistryHostname: DefaultRegistryHostname,
		AllowList:        dockerPublishAllowList,
	},
}

// Names lists every supported target name in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a target name to its catalog entry.
func Lookup(name string) (TargetSpec, error) {
	spec, exists := catalog[Name(strings.ToLower(strings.TrimSpace(name)))]
	if !exists {
		return TargetSpec{}, fmt.Errorf(unknownTargetTemplateConstant, name, strings.Join(Names(), targetNameSeparatorConstant))
	}
	return spec.clone(), nil
}

// WithRegistryHostname returns a copy using hostname for IMAGE_REGISTRY_HOSTNAME; blank keeps the current value.
func (spec TargetSpec) WithRegistryHostname(hostname string) TargetSpec {
	trimmed := strings.TrimSpace(hostname)
	if len(trimmed) == 0 {
		return spec
	}
	updated := spec.clone()
	updated.RegistryHostname = trimmed
	return updated
}

// WithOverrides returns a copy whose allow-list is extended by overrides.
func (spec TargetSpec) WithOverrides(overrides Overrides) (TargetSpec, error) {
	updated := spec.clone()

	extensions := []struct {
		fieldName   string
		expressions []string
		destination *[]*regexp.Regexp
	}{
		{fieldName: allowListPermittedAddedFieldName, expressions: overrides.PermittedAdded, destination: &updated.AllowList.PermittedAdded},
		{fieldName: allowListPermittedRemovedFieldName, expressions: overrides.PermittedRemoved, destination: &updated.AllowList.PermittedRemoved},
		{fieldName: allowListForbiddenFieldName, expressions: overrides.Forbidden, destination: &updated.AllowList.Forbidden},
		{fieldName: allowListProtectedFieldName, expressions: overrides.Protected, destination: &updated.AllowList.Protected},
	}

	for _, extension := range extensions {
		for _, expression := range extension.expressions {
			trimmed := strings.TrimSpace(expression)
			if len(trimmed) == 0 {
				continue
			}
			compiled, compileError := regexp.Compile(trimmed)
			if compileError != nil {
				return TargetSpec{}, fmt.Errorf(invalidAllowListPatternTemplate, extension.fieldName, trimmed, spec.Name, compileError)
			}
			*extension.destination = append(*extension.destination, compiled)
		}
	}

	return updated, nil
}

// BranchSet returns the target branch tokens as a set.
func (spec TargetSpec) BranchSet() map[string]struct{} {
	set := make(map[string]struct{}, len(spec.Branches))
	for _, branch := range spec.Branches {
		set[branch] = struct{}{}
	}
	return set
}

func (spec TargetSpec) clone() TargetSpec {
	cloned := spec
	cloned.Branches = append([]string(nil), spec.Branches...)
	cloned.AllowList = AllowList{
		PermittedAdded:   append([]*regexp.Regexp(nil), spec.AllowList.PermittedAdded...),
		PermittedRemoved: append([]*regexp.Regexp(nil), spec.AllowList.PermittedRemoved...),
		Forbidden:        append([]*regexp.Regexp(nil), spec.AllowList.Forbidden...),
		Protected:        append([]*regexp.Regexp(nil), spec.AllowList.Protected...),
	}
	return cloned
}

// MatchesAny reports whether text matches at least one pattern.
func MatchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func compilePatterns(expressions ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(expressions))
	for _, expression := range expressions {
		compiled = append(compiled, regexp.MustCompile(expression))
	}
	return compiled
}

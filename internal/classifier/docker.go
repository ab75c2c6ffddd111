package classifier

import (
	"regexp"
	"strings"

	"github.com/temirov/triggershift/internal/document"
	"github.com/temirov/triggershift/internal/targets"
)

const (
	usesKeyConstant             = "uses"
	withKeyConstant             = "with"
	gcrHostnameKeyConstant      = "GCR_HOSTNAME"
	registryHostnameKeyConstant = "IMAGE_REGISTRY_HOSTNAME"
	legacyPublishActionName     = "publish-docker-image"
	authActionNameConstant      = "common-gar-auth"

	reasonPublishOutsideSteps = "publish action is not inside a steps list"
	reasonInlineWithInputs    = "publish step declares with: inline"
	reasonBothHostnameInputs  = "publish step sets both GCR_HOSTNAME and IMAGE_REGISTRY_HOSTNAME"
)

var publishActionPattern = regexp.MustCompile(`^['"]?([^'"@\s]*/)?(publish-docker-image(?:-to-gar)?)(@[^'"\s]+)?['"]?$`)

func classifyDockerPublish(parsed *document.Document, _ targets.TargetSpec) Pattern {
	pattern := Pattern{
		Kind:       KindNotApplicable,
		Family:     targets.FamilyDockerPublish,
		IndentUnit: defaultIndentUnitConstant,
		Anchors:    absentAnchors(),
	}

	for index := 0; index < parsed.Len(); index++ {
		usesValue, onItemLine, isUses := usesValueAt(parsed.Line(index))
		if !isUses {
			continue
		}
		match := publishActionPattern.FindStringSubmatch(usesValue)
		if match == nil {
			continue
		}

		item, found := enclosingItem(parsed, index, onItemLine)
		if !found {
			pattern.markAmbiguous(reasonPublishOutsideSteps, []string{parsed.Line(index).Content()})
			continue
		}

		step := PublishStep{
			Item:         item,
			UsesLine:     index,
			Legacy:       match[2] == legacyPublishActionName,
			ActionPrefix: match[1],
			ActionRef:    match[3],
			WithLine:     absentLineIndexConstant,
			HostnameLine: absentLineIndexConstant,
			RegistryLine: absentLineIndexConstant,
		}
		inspectWithInputs(parsed, &step, &pattern)
		step.AuthStepPrecedes = authStepPrecedes(parsed, item)

		pattern.PublishSteps = append(pattern.PublishSteps, step)
		if item.End-1 > index {
			index = item.End - 1
		}
	}

	if len(pattern.PublishSteps) == 0 {
		return pattern
	}

	pattern.Kind = KindAlreadyTarget
	for _, step := range pattern.PublishSteps {
		if !step.Settled() {
			pattern.Kind = KindNeedsRegistryMigration
			break
		}
	}
	return pattern
}

func inspectWithInputs(parsed *document.Document, step *PublishStep, pattern *Pattern) {
	withSection, hasWith := parsed.ItemChild(step.Item, withKeyConstant)
	if !hasWith {
		return
	}
	step.WithLine = withSection.Start
	if len(parsed.Line(withSection.Start).Value()) > 0 {
		pattern.markAmbiguous(reasonInlineWithInputs, parsed.Slice(step.Item.Start, step.Item.End))
		return
	}
	if childIndent := parsed.ChildIndent(withSection); childIndent > withSection.Indent {
		pattern.IndentUnit = childIndent - withSection.Indent
	}
	for _, input := range parsed.Children(withSection) {
		switch input.Key {
		case gcrHostnameKeyConstant:
			step.HostnameLine = input.Start
		case registryHostnameKeyConstant:
			step.RegistryLine = input.Start
		}
	}
	if step.HostnameLine >= 0 && step.RegistryLine >= 0 {
		pattern.markAmbiguous(reasonBothHostnameInputs, parsed.Slice(step.Item.Start, step.Item.End))
	}
}

func usesValueAt(line document.Line) (string, bool, bool) {
	switch line.Tag {
	case document.TagKey:
		if key, _ := line.Key(); key == usesKeyConstant {
			return line.Value(), false, true
		}
	case document.TagListItem:
		if key, value, isMapping := line.ItemKey(); isMapping && key == usesKeyConstant {
			return value, true, true
		}
	}
	return "", false, false
}

// enclosingItem finds the list item (step) that owns the uses line at usesIndex.
func enclosingItem(parsed *document.Document, usesIndex int, onItemLine bool) (document.Section, bool) {
	if onItemLine {
		return parsed.SectionAt(usesIndex)
	}
	usesIndent := parsed.Line(usesIndex).Indent
	for index := usesIndex - 1; index >= 0; index-- {
		line := parsed.Line(index)
		if !line.IsContent() {
			continue
		}
		if line.Tag == document.TagListItem && line.ItemIndent() == usesIndent {
			return parsed.SectionAt(index)
		}
		if line.Indent < usesIndent {
			return document.Section{}, false
		}
	}
	return document.Section{}, false
}

func authStepPrecedes(parsed *document.Document, item document.Section) bool {
	for index := item.Start - 1; index >= 0; index-- {
		line := parsed.Line(index)
		if !line.IsContent() {
			continue
		}
		if line.Indent < item.Indent {
			return false
		}
		if line.Tag != document.TagListItem || line.Indent != item.Indent {
			continue
		}
		sibling, scoped := parsed.SectionAt(index)
		if !scoped {
			continue
		}
		for siblingIndex := sibling.Start; siblingIndex < sibling.End; siblingIndex++ {
			if usesValue, _, isUses := usesValueAt(parsed.Line(siblingIndex)); isUses && strings.Contains(usesValue, authActionNameConstant) {
				return true
			}
		}
	}
	return false
}

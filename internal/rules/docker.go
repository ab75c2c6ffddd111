package rules

import (
	"errors"
	"strings"

	"github.com/temirov/triggershift/internal/classifier"
	"github.com/temirov/triggershift/internal/document"
	"github.com/temirov/triggershift/internal/targets"
)

const (
	legacyPublishActionConstant   = "publish-docker-image"
	garPublishActionConstant      = "publish-docker-image-to-gar"
	authActionConstant            = "common-gar-auth"
	authStepNameConstant          = "Authenticate to Google Artifact Registry"
	usesMarkerConstant            = "uses:"
	withHeaderConstant            = "with:"
	registryInputTemplateConstant = "IMAGE_REGISTRY_HOSTNAME: "
	namePrefixConstant            = "- name: "
	usesPrefixConstant            = "uses: "
	registryHostnameMissingText   = "registry hostname is not configured"
	usesActionMissingText         = "publish action not found on uses line"
	noPendingRegistryEditText     = "no publish step needs an edit"
)

var (
	errRegistryHostnameMissing = errors.New(registryHostnameMissingText)
	errUsesActionMissing       = errors.New(usesActionMissingText)
	errNoPendingRegistryEdit   = errors.New(noPendingRegistryEditText)
)

// MigrateRegistry applies the next pending Artifact Registry edit to the first unsettled publish
// step: switch the action, swap GCR_HOSTNAME for IMAGE_REGISTRY_HOSTNAME, then add the auth step.
// The engine calls it repeatedly, re-classifying between edits.
func MigrateRegistry(parsed *document.Document, pattern classifier.Pattern, target targets.TargetSpec) (*document.Document, ChangeLog, error) {
	if len(strings.TrimSpace(target.RegistryHostname)) == 0 {
		return nil, nil, errRegistryHostnameMissing
	}

	for _, step := range pattern.PublishSteps {
		if step.Settled() {
			continue
		}
		switch {
		case step.Legacy:
			return switchPublishAction(parsed, step)
		case step.HostnameLine >= 0:
			return replaceHostnameInput(parsed, step, target)
		case step.RegistryLine < 0:
			return insertRegistryInput(parsed, step, pattern.IndentUnit, target)
		default:
			return insertAuthStep(parsed, step)
		}
	}
	return nil, nil, errNoPendingRegistryEdit
}

func switchPublishAction(parsed *document.Document, step classifier.PublishStep) (*document.Document, ChangeLog, error) {
	content := parsed.Line(step.UsesLine).Content()
	usesPosition := strings.Index(content, usesMarkerConstant)
	if usesPosition < 0 {
		return nil, nil, errUsesActionMissing
	}
	actionPosition := strings.Index(content[usesPosition:], legacyPublishActionConstant)
	if actionPosition < 0 {
		return nil, nil, errUsesActionMissing
	}
	actionPosition += usesPosition
	rewritten := content[:actionPosition] + garPublishActionConstant + content[actionPosition+len(legacyPublishActionConstant):]
	updated, entry := replaceLines(parsed, step.UsesLine, step.UsesLine+1, []string{rewritten}, ReasonRegistryMigration)
	return updated, ChangeLog{entry}, nil
}

func replaceHostnameInput(parsed *document.Document, step classifier.PublishStep, target targets.TargetSpec) (*document.Document, ChangeLog, error) {
	hostnameLine := parsed.Line(step.HostnameLine)
	rewritten := document.Indentation(hostnameLine.Indent) + registryInputTemplateConstant + target.RegistryHostname
	updated, entry := replaceLines(parsed, step.HostnameLine, step.HostnameLine+1, []string{rewritten}, ReasonRegistryMigration)
	return updated, ChangeLog{entry}, nil
}

func insertRegistryInput(parsed *document.Document, step classifier.PublishStep, indentUnit int, target targets.TargetSpec) (*document.Document, ChangeLog, error) {
	if step.WithLine >= 0 {
		withSection, anchorError := sectionAt(parsed, step.WithLine)
		if anchorError != nil {
			return nil, nil, anchorError
		}
		inputIndent := parsed.ChildIndent(withSection)
		if inputIndent <= withSection.Indent {
			inputIndent = withSection.Indent + indentUnit
		}
		input := document.Indentation(inputIndent) + registryInputTemplateConstant + target.RegistryHostname
		updated, entry := replaceLines(parsed, withSection.Start+1, withSection.Start+1, []string{input}, ReasonRegistryMigration)
		return updated, ChangeLog{entry}, nil
	}

	keyIndent := parsed.Line(step.Item.Start).ItemIndent()
	block := []string{
		document.Indentation(keyIndent) + withHeaderConstant,
		document.Indentation(keyIndent+indentUnit) + registryInputTemplateConstant + target.RegistryHostname,
	}
	updated, entry := replaceLines(parsed, step.Item.End, step.Item.End, block, ReasonRegistryMigration)
	return updated, ChangeLog{entry}, nil
}

func insertAuthStep(parsed *document.Document, step classifier.PublishStep) (*document.Document, ChangeLog, error) {
	header := parsed.Line(step.Item.Start)
	block := []string{
		document.Indentation(header.Indent) + namePrefixConstant + authStepNameConstant,
		document.Indentation(header.ItemIndent()) + usesPrefixConstant + step.ActionPrefix + authActionConstant + step.ActionRef,
	}
	updated, entry := replaceLines(parsed, step.Item.Start, step.Item.Start, block, ReasonAuthStepInsertion)
	return updated, ChangeLog{entry}, nil
}

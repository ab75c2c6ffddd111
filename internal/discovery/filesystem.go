package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	gitMetadataDirectoryNameConstant = ".git"
	yamlExtensionConstant            = ".yaml"
	ymlExtensionConstant             = ".yml"
	rootResolutionErrorTemplate      = "unable to resolve workflow root %s: %w"
	rootWalkErrorTemplateConstant    = "unable to walk workflow root %s: %w"
)

// FilesystemWorkflowDiscoverer expands roots into workflow files stored under a workflows directory.
type FilesystemWorkflowDiscoverer struct {
	workflowsDirectory string
}

// NewFilesystemWorkflowDiscoverer constructs a discoverer backed by filepath.WalkDir that collects
// YAML files whose parent directory ends with workflowsDirectory (for example ".github/workflows").
func NewFilesystemWorkflowDiscoverer(workflowsDirectory string) *FilesystemWorkflowDiscoverer {
	return &FilesystemWorkflowDiscoverer{workflowsDirectory: filepath.Clean(strings.TrimSpace(workflowsDirectory))}
}

// DiscoverWorkflowFiles returns absolute, de-duplicated, sorted workflow paths. Roots naming a file
// are taken as is; directory roots are walked, skipping .git metadata.
func (discoverer *FilesystemWorkflowDiscoverer) DiscoverWorkflowFiles(roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var workflowFiles []string
	record := func(path string) {
		if _, alreadySeen := seen[path]; alreadySeen {
			return
		}
		seen[path] = struct{}{}
		workflowFiles = append(workflowFiles, path)
	}

	for _, root := range roots {
		absoluteRoot, absoluteError := filepath.Abs(root)
		if absoluteError != nil {
			return nil, fmt.Errorf(rootResolutionErrorTemplate, root, absoluteError)
		}
		rootInfo, statError := os.Stat(absoluteRoot)
		if statError != nil {
			return nil, fmt.Errorf(rootResolutionErrorTemplate, root, statError)
		}
		if !rootInfo.IsDir() {
			record(absoluteRoot)
			continue
		}

		walkError := filepath.WalkDir(absoluteRoot, func(path string, directoryEntry fs.DirEntry, walkError error) error {
			if walkError != nil {
				return nil
			}
			if directoryEntry.IsDir() {
				if directoryEntry.Name() == gitMetadataDirectoryNameConstant {
					return fs.SkipDir
				}
				return nil
			}
			if discoverer.isWorkflowFile(path) {
				record(path)
			}
			return nil
		})
		if walkError != nil {
			return nil, fmt.Errorf(rootWalkErrorTemplateConstant, root, walkError)
		}
	}

	sort.Strings(workflowFiles)
	return workflowFiles, nil
}

func (discoverer *FilesystemWorkflowDiscoverer) isWorkflowFile(path string) bool {
	extension := strings.ToLower(filepath.Ext(path))
	if extension != yamlExtensionConstant && extension != ymlExtensionConstant {
		return false
	}
	parentDirectory := filepath.ToSlash(filepath.Dir(path))
	workflowsDirectory := filepath.ToSlash(discoverer.workflowsDirectory)
	if len(workflowsDirectory) == 0 || workflowsDirectory == "." {
		return true
	}
	return parentDirectory == workflowsDirectory || strings.HasSuffix(parentDirectory, "/"+workflowsDirectory)
}

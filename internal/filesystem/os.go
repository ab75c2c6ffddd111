package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	temporaryFilePatternTemplateConstant = ".%s.tmp-*"
	temporaryFileCreateErrorTemplate     = "unable to create temporary file for %s: %w"
	temporaryFileWriteErrorTemplate      = "unable to write temporary file for %s: %w"
	temporaryFileSyncErrorTemplate       = "unable to sync temporary file for %s: %w"
	temporaryFileCloseErrorTemplate      = "unable to close temporary file for %s: %w"
	temporaryFileChmodErrorTemplate      = "unable to set permissions on temporary file for %s: %w"
	replaceFileErrorTemplateConstant     = "unable to move temporary file into %s: %w"
)

// FileSystem is the narrow set of file operations the migration needs.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	WriteFileAtomically(path string, data []byte, permissions fs.FileMode) error
}

// OSFileSystem implements FileSystem using the operating system primitives.
type OSFileSystem struct{}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads file contents.
func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFileAtomically writes data to a temporary file in the destination directory and renames it
// over path, so readers observe either the old or the new contents and never a partial file.
func (OSFileSystem) WriteFileAtomically(path string, data []byte, permissions fs.FileMode) (writeError error) {
	directory := filepath.Dir(path)
	temporaryFile, createError := os.CreateTemp(directory, fmt.Sprintf(temporaryFilePatternTemplateConstant, filepath.Base(path)))
	if createError != nil {
		return fmt.Errorf(temporaryFileCreateErrorTemplate, path, createError)
	}
	temporaryPath := temporaryFile.Name()
	defer func() {
		if writeError != nil {
			_ = temporaryFile.Close()
			_ = os.Remove(temporaryPath)
		}
	}()

	if _, dataError := temporaryFile.Write(data); dataError != nil {
		return fmt.Errorf(temporaryFileWriteErrorTemplate, path, dataError)
	}
	if syncError := temporaryFile.Sync(); syncError != nil {
		return fmt.Errorf(temporaryFileSyncErrorTemplate, path, syncError)
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		return fmt.Errorf(temporaryFileCloseErrorTemplate, path, closeError)
	}
	if chmodError := os.Chmod(temporaryPath, permissions); chmodError != nil {
		return fmt.Errorf(temporaryFileChmodErrorTemplate, path, chmodError)
	}
	if renameError := os.Rename(temporaryPath, path); renameError != nil {
		return fmt.Errorf(replaceFileErrorTemplateConstant, path, renameError)
	}
	return nil
}

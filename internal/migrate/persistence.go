package migrate

import (
	"fmt"

	"github.com/temirov/triggershift/internal/filesystem"
)

const (
	// BackupSuffix is appended to a workflow path to name its pre-transform backup.
	BackupSuffix = ".backup"

	fileOperationErrorTemplateConstant = "unable to %s %s: %v"
)

// File operations reported by FileOperationError.
const (
	FileOperationRead   = "read"
	FileOperationStat   = "stat"
	FileOperationBackup = "back up"
	FileOperationWrite  = "write"
)

// FileOperationError reports an I/O failure for one workflow file.
type FileOperationError struct {
	Operation string
	Path      string
	Err       error
}

// Error describes the failed operation.
func (operationError *FileOperationError) Error() string {
	return fmt.Sprintf(fileOperationErrorTemplateConstant, operationError.Operation, operationError.Path, operationError.Err)
}

// Unwrap exposes the underlying error.
func (operationError *FileOperationError) Unwrap() error {
	return operationError.Err
}

// BackupWriter persists rewritten workflows, always leaving a byte-identical backup of the original
// in place before the original is replaced.
type BackupWriter struct {
	fileSystem filesystem.FileSystem
}

// NewBackupWriter constructs a BackupWriter; nil uses the operating system.
func NewBackupWriter(fileSystem filesystem.FileSystem) *BackupWriter {
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}
	return &BackupWriter{fileSystem: fileSystem}
}

// Read loads a workflow file.
func (writer *BackupWriter) Read(path string) ([]byte, error) {
	content, readError := writer.fileSystem.ReadFile(path)
	if readError != nil {
		return nil, &FileOperationError{Operation: FileOperationRead, Path: path, Err: readError}
	}
	return content, nil
}

// Persist writes original to path+BackupSuffix and only then replaces path with updated. Both writes
// are all-or-nothing and keep the workflow's permission bits.
func (writer *BackupWriter) Persist(path string, original []byte, updated []byte) error {
	info, statError := writer.fileSystem.Stat(path)
	if statError != nil {
		return &FileOperationError{Operation: FileOperationStat, Path: path, Err: statError}
	}
	permissions := info.Mode().Perm()

	backupPath := path + BackupSuffix
	if backupError := writer.fileSystem.WriteFileAtomically(backupPath, original, permissions); backupError != nil {
		return &FileOperationError{Operation: FileOperationBackup, Path: backupPath, Err: backupError}
	}
	if writeError := writer.fileSystem.WriteFileAtomically(path, updated, permissions); writeError != nil {
		return &FileOperationError{Operation: FileOperationWrite, Path: path, Err: writeError}
	}
	return nil
}

// Package fileutils provides the file operations shared by the CLI and the
// upload store.
package fileutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fjacquet/statement-insights/internal/parsererror"
)

// FileExists checks if a file exists and is not a directory
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirectoryExists checks if a directory exists
func DirectoryExists(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDirectoryExists creates a directory if it doesn't exist
func EnsureDirectoryExists(dirPath string) error {
	if !DirectoryExists(dirPath) {
		if err := os.MkdirAll(dirPath, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return nil
}

// ReadFileLimited reads a whole file, refusing files larger than limit bytes.
// A limit of zero or less disables the check.
func ReadFileLimited(filePath string, limit int64) ([]byte, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if limit <= 0 {
		return io.ReadAll(f)
	}
	if info, err := f.Stat(); err == nil && info.Size() > limit {
		return nil, &parsererror.FileTooLargeError{Size: info.Size(), Limit: limit}
	}
	// Read one byte past the limit so files that grow after Stat are caught.
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, &parsererror.FileTooLargeError{Size: int64(len(data)), Limit: limit}
	}
	return data, nil
}

// WriteFile writes data to a file, creating the file if it doesn't exist
// and creating any parent directories if needed
func WriteFile(filePath string, data []byte, perm os.FileMode) error {
	if err := EnsureDirectoryExists(filepath.Dir(filePath)); err != nil {
		return err
	}
	if err := os.WriteFile(filePath, data, perm); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// CreateFile creates or truncates a file for writing
func CreateFile(filePath string) (*os.File, error) {
	if err := EnsureDirectoryExists(filepath.Dir(filePath)); err != nil {
		return nil, err
	}
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return file, nil
}

// ListFilesWithExtension returns the files directly inside dirPath with the
// given extension.
func ListFilesWithExtension(dirPath, extension string) ([]string, error) {
	if !DirectoryExists(dirPath) {
		return nil, fmt.Errorf("directory does not exist: %s", dirPath)
	}
	matches, err := filepath.Glob(filepath.Join(dirPath, "*"+extension))
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	files := matches[:0]
	for _, m := range matches {
		if FileExists(m) {
			files = append(files, m)
		}
	}
	return files, nil
}

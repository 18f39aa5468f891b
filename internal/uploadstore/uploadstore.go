// Package uploadstore buffers uploaded statements on disk between the upload
// and process requests. Entries are removed as soon as they are processed.
package uploadstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fjacquet/statement-insights/internal/fileutils"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/parsererror"

	"github.com/google/uuid"
)

// Metadata is the JSON sidecar written next to each upload.
type Metadata struct {
	OriginalName string    `json:"originalName"`
	MIMEType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Upload is a stored file with its metadata.
type Upload struct {
	ID       string
	Metadata Metadata
	Data     []byte
}

// Store keeps uploads in a directory as <id>.<ext> plus <id>.json.
type Store struct {
	dir    string
	now    func() time.Time
	logger logging.Logger
}

// New creates a store rooted at dir, or under the system temp directory when
// dir is empty.
func New(dir string, logger logging.Logger) (*Store, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "statement-insights")
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if err := fileutils.EnsureDirectoryExists(dir); err != nil {
		return nil, err
	}
	return &Store{dir: dir, now: time.Now, logger: logger}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.dir }

// Save writes data and its sidecar and returns the new id.
func (s *Store) Save(originalName, mimeType string, data []byte) (string, error) {
	id := uuid.New().String()
	meta := Metadata{
		OriginalName: originalName,
		MIMEType:     mimeType,
		Size:         int64(len(data)),
		UploadedAt:   s.now().UTC(),
	}

	sidecar, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode upload metadata: %w", err)
	}
	if err := fileutils.WriteFile(s.dataPath(id, originalName), data, 0600); err != nil {
		return "", err
	}
	if err := fileutils.WriteFile(s.metaPath(id), sidecar, 0600); err != nil {
		s.remove(id, originalName)
		return "", err
	}

	s.logger.Debug("Stored upload",
		logging.F(logging.FieldFileID, id),
		logging.F(logging.FieldFile, originalName),
		logging.F(logging.FieldSize, meta.Size))
	return id, nil
}

// Load reads an upload. Unknown or malformed ids are UploadNotFoundError.
func (s *Store) Load(id string) (*Upload, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &parsererror.UploadNotFoundError{ID: id}
	}

	raw, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &parsererror.UploadNotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to read upload metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode upload metadata: %w", err)
	}

	data, err := os.ReadFile(s.dataPath(id, meta.OriginalName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &parsererror.UploadNotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return &Upload{ID: id, Metadata: meta, Data: data}, nil
}

// Delete removes an upload and its sidecar. Missing files are not an error.
func (s *Store) Delete(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &parsererror.UploadNotFoundError{ID: id}
	}
	var originalName string
	if raw, err := os.ReadFile(s.metaPath(id)); err == nil {
		var meta Metadata
		if json.Unmarshal(raw, &meta) == nil {
			originalName = meta.OriginalName
		}
	}
	return s.remove(id, originalName)
}

// WithUpload loads an upload, runs fn and deletes the upload whatever the
// outcome.
func (s *Store) WithUpload(id string, fn func(*Upload) error) error {
	defer func() {
		if _, perr := uuid.Parse(id); perr != nil {
			return
		}
		if err := s.Delete(id); err != nil {
			s.logger.WithError(err).Warn("Failed to remove upload", logging.F(logging.FieldFileID, id))
		}
	}()

	u, err := s.Load(id)
	if err != nil {
		return err
	}
	return fn(u)
}

// Sweep deletes uploads older than maxAge, for entries left behind by a crash.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	sidecars, err := fileutils.ListFilesWithExtension(s.dir, ".json")
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, path := range sidecars {
		id := strings.TrimSuffix(filepath.Base(path), ".json")
		info, err := os.Stat(path)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := s.Delete(id); err != nil {
			s.logger.WithError(err).Warn("Failed to sweep upload", logging.F(logging.FieldFileID, id))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("Swept stale uploads", logging.F(logging.FieldCount, removed))
	}
	return removed, nil
}

func (s *Store) remove(id, originalName string) error {
	var firstErr error
	for _, path := range []string{s.dataPath(id, originalName), s.metaPath(id)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Store) metaPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) dataPath(id, originalName string) string {
	return filepath.Join(s.dir, id+"."+extension(originalName))
}

// extension keeps a short alphanumeric extension from the client file name.
func extension(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" || ext == "json" || len(ext) > 5 {
		return "bin"
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "bin"
		}
	}
	return ext
}

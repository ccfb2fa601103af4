package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no asset matches the given id.
var ErrNotFound = errors.New("asset not found")

// Asset is one stored binary with its content-type metadata.
type Asset struct {
	ID          string
	FileName    string
	ContentType string
	Size        int64
	Content     []byte
}

// Registry maps an opaque asset id to binary content and metadata.
type Registry interface {
	Resolve(id string) (Asset, error)
}

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// AllowedType reports whether the registry accepts the given content type.
func AllowedType(contentType string) bool {
	for _, ct := range contentTypes {
		if ct == contentType {
			return true
		}
	}
	return false
}

// DirRegistry stores assets as files in a single directory, named by a
// minted uuid plus the original extension.
type DirRegistry struct {
	dir string
}

func NewDirRegistry(dir string) (*DirRegistry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir '%s': %w", dir, err)
	}
	return &DirRegistry{dir: dir}, nil
}

// Store writes the content under a fresh id and returns the stored asset.
func (r *DirRegistry) Store(fileName string, content []byte) (Asset, error) {
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(fileName))
	ct, ok := contentTypes[ext]
	if !ok {
		return Asset{}, fmt.Errorf("unsupported image type '%s'", ext)
	}

	path := filepath.Join(r.dir, id+ext)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return Asset{}, fmt.Errorf("failed to write asset: %w", err)
	}

	return Asset{
		ID:          id,
		FileName:    fileName,
		ContentType: ct,
		Size:        int64(len(content)),
		Content:     content,
	}, nil
}

// Resolve scans the directory for a file whose name starts with the id.
func (r *DirRegistry) Resolve(id string) (Asset, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to read upload dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), id+".") {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return Asset{}, fmt.Errorf("failed to read asset '%s': %w", id, err)
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		ct, ok := contentTypes[ext]
		if !ok {
			ct = "image/jpeg"
		}
		return Asset{
			ID:          id,
			FileName:    entry.Name(),
			ContentType: ct,
			Size:        int64(len(content)),
			Content:     content,
		}, nil
	}
	return Asset{}, ErrNotFound
}

// URL returns the serving path for an asset id.
func (r *DirRegistry) URL(id string) string {
	return "/api/images/" + id
}

// Package imagestore places extracted images under a document-scoped
// directory tree and records a BLAKE3 digest for each payload.
package imagestore

import (
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dgallion1/clausegest/internal/imagefmt"
	"github.com/zeebo/blake3"
)

// Dir is the directory under the output root that holds all images.
const Dir = "output_images"

// Stored describes a persisted image. Path is relative to the output
// root and always uses forward slashes.
type Stored struct {
	Path   string
	Digest string
}

// SanitizeKey turns an extractor image key such as "/page/0/Picture/1"
// into a filename fragment ("page_0_picture_1").
func SanitizeKey(key string) string {
	return strings.ToLower(strings.Trim(strings.ReplaceAll(key, "/", "_"), "_"))
}

// ClauseDir is the per-clause folder name; dots become underscores.
func ClauseDir(clauseID string) string {
	return strings.ReplaceAll(clauseID, ".", "_")
}

// ClauseImagePath is the relative path of a figure owned by a clause.
func ClauseImagePath(docID, clauseID string, seq int, ref string, format imagefmt.Format) string {
	return path.Join(Dir, docID, ClauseDir(clauseID), fmt.Sprintf("figure_%d_%s%s", seq, ref, format))
}

// MiscImagePath is the relative path of an image seen before any clause.
func MiscImagePath(docID string, seq int, ref string, format imagefmt.Format) string {
	return path.Join(Dir, docID, "misc", fmt.Sprintf("misc_%d_%s%s", seq, ref, format))
}

// Digest returns the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FS writes images to disk beneath an output root.
type FS struct {
	root string
}

func NewFS(root string) *FS {
	return &FS{root: root}
}

// Root returns the output root images are written under.
func (s *FS) Root() string {
	return s.root
}

func (s *FS) SaveClauseImage(docID, clauseID string, seq int, ref string, format imagefmt.Format, data []byte) (Stored, error) {
	return s.write(ClauseImagePath(docID, clauseID, seq, ref, format), data)
}

func (s *FS) SaveMiscImage(docID string, seq int, ref string, format imagefmt.Format, data []byte) (Stored, error) {
	return s.write(MiscImagePath(docID, seq, ref, format), data)
}

func (s *FS) write(rel string, data []byte) (Stored, error) {
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Stored{}, fmt.Errorf("create image dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return Stored{}, fmt.Errorf("write image %s: %w", rel, err)
	}
	return Stored{Path: rel, Digest: Digest(data)}, nil
}

// RemoveDocument deletes every image written for docID.
func (s *FS) RemoveDocument(docID string) error {
	return os.RemoveAll(filepath.Join(s.root, Dir, docID))
}

// Memory keeps images in memory. It is safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	files  map[string][]byte
	failOn map[string]bool
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte), failOn: make(map[string]bool)}
}

// FailKey makes every save of an image with the given sanitized key fail.
func (m *Memory) FailKey(ref string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[ref] = true
}

func (m *Memory) SaveClauseImage(docID, clauseID string, seq int, ref string, format imagefmt.Format, data []byte) (Stored, error) {
	return m.put(ref, ClauseImagePath(docID, clauseID, seq, ref, format), data)
}

func (m *Memory) SaveMiscImage(docID string, seq int, ref string, format imagefmt.Format, data []byte) (Stored, error) {
	return m.put(ref, MiscImagePath(docID, seq, ref, format), data)
}

func (m *Memory) put(ref, rel string, data []byte) (Stored, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[ref] {
		return Stored{}, fmt.Errorf("write image %s: injected failure", rel)
	}
	m.files[rel] = append([]byte(nil), data...)
	return Stored{Path: rel, Digest: Digest(data)}, nil
}

// Get returns the bytes stored at a relative path.
func (m *Memory) Get(rel string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[rel]
	return data, ok
}

// Len returns the number of stored images.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

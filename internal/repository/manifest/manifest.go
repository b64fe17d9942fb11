package manifest

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// DefaultChecksumFunction is used to hash staged files.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// DefaultFileMode is the permission of written manifests.
	DefaultFileMode os.FileMode = 0o644
)

var (
	// ErrNotFound is returned when the manifest file does not exist yet.
	ErrNotFound = errors.New("manifest not found")

	errHashUnavailable = errors.New("hash function unavailable")
	errManifestIsNil   = errors.New("manifest is not set")
)

// Manifest describes a staged distribution.
type Manifest struct {
	// Name is the distribution name.
	Name string `yaml:"name"`
	// Version is the distribution version.
	Version string `yaml:"version"`
	// Packages are the python packages included in the distribution.
	Packages []string `yaml:"packages"`
	// Mode is the packaging mode that produced the staged tree.
	Mode string `yaml:"mode"`
	// NativeSourceDir is the CMake source root of a build pass.
	NativeSourceDir string `yaml:"native_source_dir,omitempty"`
	// Files maps staged paths (slash separated) to base64 checksums.
	Files map[string]string `yaml:"files"`
}

// New returns a manifest with an empty file set.
func New(name, version string, packages []string) *Manifest {
	return &Manifest{
		Name:     name,
		Version:  version,
		Packages: append([]string(nil), packages...),
		Files:    make(map[string]string),
	}
}

// Filename returns the conventional manifest name, "<name>-<version>.yaml".
func Filename(name, version string) string {
	return name + "-" + version + ".yaml"
}

// AddFile records path with the checksum bytes.
func (m *Manifest) AddFile(path string, checksum []byte) {
	if m.Files == nil {
		m.Files = make(map[string]string)
	}

	m.Files[filepath.ToSlash(path)] = base64.StdEncoding.EncodeToString(checksum)
}

// Paths returns the recorded paths in sorted order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.Files))
	for path := range m.Files {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	return paths
}

// Checksum returns the DefaultChecksumFunction digest of data.
func Checksum(data []byte) ([]byte, error) {
	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err := hasher.Write(data); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// FileChecksum returns the digest of the file at path.
func FileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	return Checksum(contents)
}

// FileRepository reads and writes a manifest at a fixed path.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileRepository creates a repository for the manifest at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the manifest location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the manifest from disk.
func (r *FileRepository) Load() (*Manifest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err = yaml.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	if m.Files == nil {
		m.Files = make(map[string]string)
	}

	return &m, nil
}

// Save writes the manifest to disk.
func (r *FileRepository) Save(m *Manifest) error {
	if m == nil {
		return errManifestIsNil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err = os.WriteFile(r.path, data, DefaultFileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

package backend

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/dgfx-setup/internal/repository/manifest"
)

// ErrPackageDirMissing is returned when a listed python package has no directory.
var ErrPackageDirMissing = errors.New("package directory does not exist")

// listTree returns the slash-separated paths of all regular files under root,
// sorted. Symlinks resolving to a regular file are listed too, so versioned
// shared library links survive. A missing root yields an empty listing.
func listTree(root string) ([]string, error) {
	if _, err := os.Stat(root); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		switch {
		case d.Type().IsRegular():
		case d.Type()&fs.ModeSymlink != 0:
			target, statErr := os.Stat(path)
			if statErr != nil {
				return fmt.Errorf("resolve %s: %w", path, statErr)
			}

			if !target.Mode().IsRegular() {
				return nil
			}
		default:
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		files = append(files, filepath.ToSlash(rel))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}

	sort.Strings(files)

	return files, nil
}

// packageDir maps a dotted package name to its directory under root.
func packageDir(root, name string) string {
	return filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(name, ".", "/")))
}

// packageModules returns the python modules of a package: the *.py files
// directly inside its directory. Subpackages are separate packages.
func packageModules(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrPackageDirMissing, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read package %s: %w", dir, err)
	}

	var modules []string

	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), ".py") {
			modules = append(modules, entry.Name())
		}
	}

	sort.Strings(modules)

	return modules, nil
}

// stageFile copies src to dst through go-update, which verifies the written
// bytes against their checksum and swaps the file in atomically.
// A symlinked src is staged as a copy of its target.
// It returns the checksum of the staged contents.
func stageFile(src, dst string) ([]byte, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", src, err)
	}

	data, err := os.ReadFile(filepath.Clean(src))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}

	checksum, err := manifest.Checksum(data)
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}

	// go-update replaces an existing target, so one has to be present.
	if _, err = os.Stat(dst); errors.Is(err, os.ErrNotExist) {
		placeholder, createErr := os.Create(dst)
		if createErr != nil {
			return nil, fmt.Errorf("create %s: %w", dst, createErr)
		}

		if closeErr := placeholder.Close(); closeErr != nil {
			return nil, fmt.Errorf("close %s: %w", dst, closeErr)
		}
	}

	options := goupdate.Options{
		TargetPath: dst,
		TargetMode: info.Mode().Perm(),
		Checksum:   checksum,
		Hash:       manifest.DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return nil, fmt.Errorf("stage %s: %w", dst, err)
	}

	return checksum, nil
}

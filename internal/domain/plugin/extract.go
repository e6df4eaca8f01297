package plugin

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ExtractTarGz unpacks a gzip-compressed tarball into dir and returns the
// paths of all files under dir, relative to it. When every entry sits under one
// top-level directory, as in GitHub tag archives, that directory is
// stripped. Entries escaping dir fail the extraction.
func ExtractTarGz(r io.Reader, dir string) ([]string, error) {
	staging := filepath.Join(dir, ".extract-"+uuid.NewString())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create staging directory: %w", ErrExtract, err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	if err := untar(r, staging); err != nil {
		return nil, err
	}

	root := staging
	entries, err := os.ReadDir(staging)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtract, err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		root = filepath.Join(staging, entries[0].Name())
		if entries, err = os.ReadDir(root); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExtract, err)
		}
	}

	for _, e := range entries {
		target := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(target); err != nil {
			return nil, fmt.Errorf("%w: failed to replace %s: %w", ErrExtract, e.Name(), err)
		}
		if err := os.Rename(filepath.Join(root, e.Name()), target); err != nil {
			return nil, fmt.Errorf("%w: failed to move %s: %w", ErrExtract, e.Name(), err)
		}
	}

	return listFiles(dir, filepath.Base(staging))
}

func untar(r io.Reader, dir string) error {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("%w: failed to create gzip reader: %w", ErrExtract, err)
	}
	defer func() { _ = gr.Close() }()

	tr := tar.NewReader(gr)
	cleanDir := filepath.Clean(dir) + string(filepath.Separator)

	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: failed to read tar: %w", ErrExtract, err)
		}

		target := filepath.Join(dir, filepath.Clean(header.Name))
		if !strings.HasPrefix(target, cleanDir) && target != filepath.Clean(dir) {
			return fmt.Errorf("%w: invalid path in archive: %s", ErrExtract, header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: failed to create directory: %w", ErrExtract, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("%w: failed to create parent directory: %w", ErrExtract, err)
			}
			if err := writeEntry(target, tr, os.FileMode(header.Mode).Perm()|0o600); err != nil {
				return err
			}

		default:
			// Global pax headers, links and devices carry nothing a plugin needs.
		}
	}
}

func writeEntry(target string, src io.Reader, mode os.FileMode) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("%w: failed to create file: %w", ErrExtract, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: failed to write file: %w", ErrExtract, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: failed to close file: %w", ErrExtract, err)
	}
	return nil
}

func listFiles(dir, skip string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == skip {
			return filepath.SkipDir
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtract, err)
	}
	sort.Strings(files)
	return files, nil
}

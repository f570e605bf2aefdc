package sync

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Scan walks root in lexical order and fingerprints every regular file, skipping
// paths that match one of the exclude globs. Globs use doublestar syntax and are
// matched against the slash separated relative path. Symlinks to files are
// followed; symlinked directories are not descended into.
func Scan(root string, exclude []string) ([]LocalFile, error) {
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, &FilesystemError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &FilesystemError{Path: root, Err: errors.New("not a directory")}
	}

	var files []LocalFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &FilesystemError{Path: path, Err: err}
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return &FilesystemError{Path: path, Err: err}
		}
		rel = filepath.ToSlash(rel)

		if excluded(rel, exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		mode := d.Type()
		if mode&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				return &FilesystemError{Path: path, Err: err}
			}
			mode = target.Mode().Type()
		}
		if !mode.IsRegular() {
			return nil
		}

		f, err := fingerprint(root, path, rel)
		if err != nil {
			return err
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func fingerprint(root, path, rel string) (LocalFile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return LocalFile{}, &FilesystemError{Path: path, Err: err}
	}
	defer fh.Close()

	h := md5.New()
	n, err := io.Copy(h, fh)
	if err != nil {
		return LocalFile{}, &FilesystemError{Path: path, Err: err}
	}

	abs, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		abs = path
	}

	return LocalFile{
		RelPath:     rel,
		AbsPath:     abs,
		Fingerprint: h.Sum(nil),
		Size:        n,
	}, nil
}

// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FindFilesByExtension searches the given path for all files ending with the
// specified extension. A file path is returned as-is if it matches; a
// directory is walked recursively. It returns a slice of full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if strings.HasSuffix(rootPath, extension) {
			return []string{rootPath}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// WaitForFile polls until the file at path exists on disk or the timeout
// elapses. It guards against dispatching work whose input has not yet become
// visible on slow or network-attached storage.
func WaitForFile(path string, timeout, poll time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("file %s did not appear within %s", path, timeout)
		}
		time.Sleep(poll)
	}
}

// RedirectRoot creates target and places a symlink at root pointing to it, so
// that everything written under root lands on the target storage. It is a
// no-op if root already exists.
func RedirectRoot(root, target string) error {
	if _, err := os.Lstat(root); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("failed to create redirection target %s: %w", target, err)
	}
	if err := os.MkdirAll(filepath.Dir(root), 0755); err != nil {
		return err
	}
	if err := os.Symlink(target, root); err != nil {
		return fmt.Errorf("failed to redirect %s to %s: %w", root, target, err)
	}
	return nil
}

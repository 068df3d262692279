package resource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v2"
	"github.com/spf13/afero"

	"github.com/kevensen/frtsdk/internal/file"
	"github.com/kevensen/frtsdk/redteam/redteamerr"
)

var _ Connector = (*DirectoryConnector)(nil)

// DirectoryConnector exposes the entries of a local directory.
type DirectoryConnector struct {
	fs   afero.Fs
	path string
}

func NewDirectoryConnector(fs afero.Fs, path string) *DirectoryConnector {
	return &DirectoryConnector{fs: fs, path: path}
}

func (c *DirectoryConnector) Location() string { return c.path }

func (c *DirectoryConnector) Kind() Kind { return DirectoryKind }

// List returns the sorted names of the directory entries.
func (c *DirectoryConnector) List() ([]string, error) {
	entries, err := afero.ReadDir(c.fs, c.path)
	if err != nil {
		return nil, redteamerr.NewFetchError(c.path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Glob walks the directory tree and returns the sorted paths (joined with the directory) of the files whose
// slash-separated path relative to the directory matches the pattern.
func (c *DirectoryConnector) Glob(pattern string) ([]string, error) {
	var matches []string
	err := afero.Walk(c.fs, c.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(c.path, path)
		if err != nil {
			return err
		}
		ok, err := doublestar.Match(pattern, filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if ok {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, redteamerr.NewFetchError(c.path, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Open returns the entry names, one per line.
func (c *DirectoryConnector) Open(context.Context) ([]byte, error) {
	names, err := c.List()
	if err != nil {
		return nil, err
	}
	return []byte(strings.Join(names, "\n")), nil
}

func (c *DirectoryConnector) Exists(context.Context) (bool, error) {
	return file.IsDir(c.fs, c.path), nil
}

func (c *DirectoryConnector) Write(context.Context, []byte) error {
	return fmt.Errorf("unable to write directory %q: %w", c.path, redteamerr.ErrUnsupported)
}

func (c *DirectoryConnector) Delete(context.Context) error {
	if err := c.fs.RemoveAll(c.path); err != nil {
		return fmt.Errorf("unable to delete %q: %w", c.path, err)
	}
	return nil
}

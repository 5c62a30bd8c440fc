package dump

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultDir returns the dump location used when none is configured:
// statbridge/dump under the user cache directory.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "statbridge", "dump"), nil
}

// Dir writes bodies below a directory.
type Dir struct {
	dir string
}

// NewDir creates a Dir rooted at dir, creating it if needed.
func NewDir(dir string) (*Dir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Dir{dir: dir}, nil
}

// Root returns the directory bodies are written to.
func (d *Dir) Root() string { return d.dir }

// Write stores body and returns its path.
func (d *Dir) Write(ctx context.Context, source, key string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := d.Path(source, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Path returns where the body for source and key is written.
func (d *Dir) Path(source, key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(d.dir, source, hash[:2], hash[2:16]+".json")
}

// Clear removes every dumped body and the emptied subdirectories, returning
// the number of files removed. The root itself is kept.
func (d *Dir) Clear() (int, error) {
	count := 0
	err := filepath.WalkDir(d.dir, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !e.IsDir() && filepath.Ext(path) == ".json" {
			if os.Remove(path) == nil {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return count, err
	}
	entries, _ := os.ReadDir(d.dir)
	for _, e := range entries {
		if e.IsDir() {
			removeEmpty(filepath.Join(d.dir, e.Name()))
		}
	}
	return count, nil
}

// removeEmpty deletes dir and its subdirectories when they hold no files.
func removeEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			removeEmpty(filepath.Join(dir, e.Name()))
		}
	}
	os.Remove(dir)
}

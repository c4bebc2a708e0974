package walk

import (
	"context"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// Dir lists the regular files directly inside dir whose name ends with suffix,
// in lexical order. It does not descend into subdirectories and does not follow
// symlinks to directories. A missing or unreadable dir is reported as a single error.
// Entries can be opened only while the iteration is running.
func Dir(ctx context.Context, dir, suffix string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		root, err := os.OpenRoot(dir)
		if err != nil {
			yield(nil, err)
			return
		}
		defer func() {
			_ = root.Close()
		}()

		for entry, err := range FS(ctx, root.FS(), dir, suffix) {
			if !yield(entry, err) {
				return
			}
		}
	}
}

// FS lists the top level of root. Each Entry's Path() is prefixed with name.
func FS(ctx context.Context, root fs.FS, name, suffix string) iter.Seq2[Entry, error] {
	if root == nil {
		panic("root is nil")
	}

	return func(yield func(Entry, error) bool) {
		dirEntries, err := fs.ReadDir(root, ".")
		if err != nil {
			yield(nil, err)
			return
		}
		for _, d := range dirEntries {
			if ctx.Err() != nil {
				return
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
				continue
			}
			var entry = fsEntry{
				root:    root,
				abspath: filepath.Join(name, d.Name()),
				path:    d.Name(),
			}
			var yieldErr error
			info, err := fs.Stat(root, d.Name())
			if err != nil {
				entry.infoErr = err
				yieldErr = err
			} else {
				if !info.Mode().IsRegular() {
					continue
				}
				entry.info = info
			}

			if !yield(entry, yieldErr) {
				return
			}
		}
	}
}

// fsEntry implements Entry for a filesystem
// it uses root.Open to open the file
type fsEntry struct {
	root    fs.FS
	abspath string
	path    string
	info    fs.FileInfo
	infoErr error
}

func (e fsEntry) Path() string {
	return e.abspath
}

func (e fsEntry) Open() (io.ReadCloser, error) {
	if e.infoErr != nil {
		return nil, e.infoErr
	}
	return e.root.Open(e.path)
}

func (e fsEntry) Stat() (fs.FileInfo, error) {
	return e.info, e.infoErr
}

package walk

import (
	"io"
	"io/fs"
)

// Entry is a file found by a walk.
type Entry interface {
	// Path returns the path of the file prefixed with the walked directory.
	Path() string
	Open() (io.ReadCloser, error)
	Stat() (fs.FileInfo, error)
}

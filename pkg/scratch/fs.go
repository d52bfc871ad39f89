package scratch

import (
	"io"
	"os"

	"github.com/saworbit/scratchfile/internal/platform"
)

// File is the handle the writer owns between open and close.
type File interface {
	io.Writer
	io.Closer
}

// FS opens the scratch file for writing.
type FS interface {
	Create(name string) (File, error)
}

// osFS opens real files, truncating any existing content.
type osFS struct{}

func (osFS) Create(name string) (File, error) {
	return os.OpenFile(platform.LongPathname(name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
}

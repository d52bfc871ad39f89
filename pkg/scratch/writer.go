package scratch

import (
	"bufio"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const bufferSize = 64 * 1024

// Result describes a completed write run.
type Result struct {
	Path     string
	Values   int
	Bytes    int64 // bytes handed to the buffered stream
	Duration time.Duration
}

// Writer produces the scratch file: the decimal text of 0 through Count-1,
// ascending, with no separators.
type Writer struct {
	fs     FS
	path   string
	count  int
	logger *zap.Logger

	// beforeWrite, when set, runs ahead of each value and aborts the run on error.
	beforeWrite func(i int) error
}

// NewWriter returns a writer targeting FileName in the working directory.
func NewWriter(logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		fs:     osFS{},
		path:   FileName,
		count:  Count,
		logger: logger,
	}
}

// Path returns the file the writer targets.
func (w *Writer) Path() string {
	return w.path
}

// Run writes the scratch file. The file is closed on every return path; any
// failure comes back as an *IOError carrying the failing step and its cause.
// Partial contents may remain on disk after an error.
func (w *Writer) Run() (res Result, err error) {
	start := time.Now()
	res.Path = w.path

	f, err := w.fs.Create(w.path)
	if err != nil {
		return res, newIOError(OpOpen, w.path, -1, err)
	}
	w.logger.Debug("scratch file opened", zap.String("path", w.path))

	defer func() {
		cerr := f.Close()
		switch {
		case cerr == nil:
		case err == nil:
			err = newIOError(OpClose, w.path, -1, cerr)
		default:
			err = errors.WithSecondaryError(err, cerr)
		}
		res.Duration = time.Since(start)
	}()

	bw := bufio.NewWriterSize(f, bufferSize)
	digits := make([]byte, 0, 20)

	for i := 0; i < w.count; i++ {
		if w.beforeWrite != nil {
			if herr := w.beforeWrite(i); herr != nil {
				return res, newIOError(OpWrite, w.path, i, herr)
			}
		}

		digits = strconv.AppendInt(digits[:0], int64(i), 10)
		n, werr := bw.Write(digits)
		res.Bytes += int64(n)
		if werr != nil {
			return res, newIOError(OpWrite, w.path, i, werr)
		}
		res.Values++
	}

	if err := bw.Flush(); err != nil {
		return res, newIOError(OpFlush, w.path, -1, err)
	}

	w.logger.Debug("scratch file flushed",
		zap.String("path", w.path),
		zap.Int("values", res.Values),
		zap.Int64("bytes", res.Bytes),
	)
	return res, nil
}

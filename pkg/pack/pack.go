package pack

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

const (
	FormatZstd = "zstd"
	FormatXZ   = "xz"
)

// Stats describes a completed pack.
type Stats struct {
	Format   string
	Source   string
	Dest     string
	InBytes  int64
	OutBytes int64
}

// Ratio returns compressed size over original size.
func (s Stats) Ratio() float64 {
	if s.InBytes == 0 {
		return 0
	}
	return float64(s.OutBytes) / float64(s.InBytes)
}

// Ext returns the file extension for a format.
func Ext(format string) (string, error) {
	switch format {
	case FormatZstd:
		return ".zst", nil
	case FormatXZ:
		return ".xz", nil
	default:
		return "", fmt.Errorf("unsupported pack format: %s (must be 'zstd' or 'xz')", format)
	}
}

// FormatFromPath infers a format from a packed file's extension.
func FormatFromPath(path string) (string, bool) {
	switch {
	case strings.HasSuffix(path, ".zst"):
		return FormatZstd, true
	case strings.HasSuffix(path, ".xz"):
		return FormatXZ, true
	default:
		return "", false
	}
}

// NewWriter wraps w with a compressor. Closing the returned writer flushes the
// compressed stream but does not close w.
func NewWriter(w io.Writer, format string) (io.WriteCloser, error) {
	switch format {
	case FormatZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, fmt.Errorf("init zstd writer: %w", err)
		}
		return enc, nil
	case FormatXZ:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("init xz writer: %w", err)
		}
		return xw, nil
	default:
		_, err := Ext(format)
		return nil, err
	}
}

// NewReader wraps r with a decompressor.
func NewReader(r io.Reader, format string) (io.ReadCloser, error) {
	switch format {
	case FormatZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("init zstd reader: %w", err)
		}
		return dec.IOReadCloser(), nil
	case FormatXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("init xz reader: %w", err)
		}
		return io.NopCloser(xr), nil
	default:
		_, err := Ext(format)
		return nil, err
	}
}

// Compress streams src into dst and returns the number of source bytes read.
func Compress(dst io.Writer, src io.Reader, format string) (int64, error) {
	cw, err := NewWriter(dst, format)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(cw, src)
	if err != nil {
		_ = cw.Close()
		return n, fmt.Errorf("compress %s: %w", format, err)
	}
	if err := cw.Close(); err != nil {
		return n, fmt.Errorf("finish %s stream: %w", format, err)
	}
	return n, nil
}

// File compresses src into src plus the format's extension.
func File(src, format string) (stats Stats, err error) {
	ext, err := Ext(format)
	if err != nil {
		return Stats{}, err
	}
	stats = Stats{Format: format, Source: src, Dest: src + ext}

	in, err := os.Open(src)
	if err != nil {
		return stats, fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(stats.Dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return stats, fmt.Errorf("create %s: %w", stats.Dest, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", stats.Dest, cerr)
		}
	}()

	cw := &countingWriter{w: out}
	stats.InBytes, err = Compress(cw, in, format)
	stats.OutBytes = cw.n
	return stats, err
}

// Open returns a reader over a possibly packed file, decompressing by extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	format, packed := FormatFromPath(path)
	if !packed {
		return f, nil
	}

	r, err := NewReader(f, format)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &stackedReadCloser{ReadCloser: r, file: f}, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// stackedReadCloser closes the decompressor and then the file under it.
type stackedReadCloser struct {
	io.ReadCloser
	file *os.File
}

func (s *stackedReadCloser) Close() error {
	err := s.ReadCloser.Close()
	if ferr := s.file.Close(); err == nil {
		err = ferr
	}
	return err
}

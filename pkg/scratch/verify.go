package scratch

import (
	"bufio"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Decoder splits scratch content back into integers using the digit-count
// boundaries implied by an ascending sequence starting at 0.
type Decoder struct {
	r      *bufio.Reader
	next   int
	offset int64
	buf    [20]byte
}

// NewDecoder reads scratch content from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, bufferSize)}
}

// Next returns the value stored at the next position. It returns io.EOF when
// the content ends on a value boundary and io.ErrUnexpectedEOF when it ends
// inside a value.
func (d *Decoder) Next() (int, error) {
	width := DigitCount(d.next)
	n, err := io.ReadFull(d.r, d.buf[:width])
	d.offset += int64(n)
	if err != nil {
		return 0, err
	}

	v, err := strconv.Atoi(string(d.buf[:width]))
	if err != nil {
		return 0, errors.Wrapf(ErrMismatch, "position %d at offset %d: %q is not a number",
			d.next, d.offset-int64(width), d.buf[:width])
	}
	d.next++
	return v, nil
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int64 {
	return d.offset
}

// Decode parses the first count values out of r.
func Decode(r io.Reader, count int) ([]int, error) {
	d := NewDecoder(r)
	values := make([]int, 0, count)
	for len(values) < count {
		v, err := d.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return values, errors.Wrapf(ErrTruncated, "after %d values", len(values))
			}
			return values, err
		}
		values = append(values, v)
	}
	return values, nil
}

// Report summarizes a verification pass.
type Report struct {
	Bytes    int64 // bytes consumed
	Values   int   // values that matched their position
	Expected int64 // expected total length
}

// Complete reports whether every expected byte was matched.
func (r Report) Complete() bool {
	return r.Bytes == r.Expected
}

// Verify checks that r holds exactly the decimal text of 0 through count-1.
func Verify(r io.Reader, count int) (Report, error) {
	d := NewDecoder(r)
	rep := Report{Expected: ExpectedLength(count)}

	for i := 0; i < count; i++ {
		v, err := d.Next()
		rep.Bytes = d.Offset()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return rep, errors.Wrapf(ErrTruncated, "value %d missing at offset %d", i, rep.Bytes)
			}
			return rep, err
		}
		if v != i {
			return rep, errors.Wrapf(ErrMismatch, "position %d holds %d", i, v)
		}
		rep.Values++
	}

	if _, err := d.r.ReadByte(); err == nil {
		return rep, errors.Wrapf(ErrTrailingData, "after offset %d", rep.Bytes)
	} else if !errors.Is(err, io.EOF) {
		return rep, err
	}
	return rep, nil
}

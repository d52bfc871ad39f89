package scratch

const (
	// FileName is the fixed name of the scratch file, relative to the working directory.
	FileName = "scratch"

	// Count is the number of integers written, 0 through Count-1.
	Count = 1000000
)

// DigitCount returns the number of characters in the canonical decimal form of n.
func DigitCount(n int) int {
	if n < 0 {
		return 1 + DigitCount(-n)
	}
	digits := 1
	for n >= 10 {
		n /= 10
		digits++
	}
	return digits
}

// ExpectedLength returns the byte length of the concatenated decimal text of
// 0 through count-1.
func ExpectedLength(count int) int64 {
	var total int64
	lo, hi, digits := 0, 10, 1
	for lo < count {
		top := hi
		if count < top {
			top = count
		}
		total += int64(top-lo) * int64(digits)
		lo, hi, digits = hi, hi*10, digits+1
	}
	return total
}

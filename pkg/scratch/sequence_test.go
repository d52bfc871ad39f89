package scratch

import (
	"strconv"
	"testing"
)

func TestDigitCount(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 1},
		{9, 1},
		{10, 2},
		{99, 2},
		{100, 3},
		{99999, 5},
		{100000, 6},
		{999999, 6},
		{-7, 2},
	}

	for _, tt := range tests {
		if got := DigitCount(tt.n); got != tt.want {
			t.Errorf("DigitCount(%d) = %d, want %d", tt.n, got, tt.want)
		}
		if got := len(strconv.Itoa(tt.n)); got != tt.want {
			t.Errorf("len(Itoa(%d)) = %d disagrees with table value %d", tt.n, got, tt.want)
		}
	}
}

func TestExpectedLength(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  int64
	}{
		{"empty", 0, 0},
		{"single zero", 1, 1},
		{"one decade", 10, 10},
		{"first two digit value", 11, 12},
		{"two decades", 100, 190},
		{"full range", Count, 5888890},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpectedLength(tt.count); got != tt.want {
				t.Errorf("ExpectedLength(%d) = %d, want %d", tt.count, got, tt.want)
			}
		})
	}
}

func TestExpectedLengthMatchesSum(t *testing.T) {
	var sum int64
	for i := 0; i < 12345; i++ {
		sum += int64(DigitCount(i))
	}
	if got := ExpectedLength(12345); got != sum {
		t.Fatalf("ExpectedLength(12345) = %d, want %d", got, sum)
	}
}

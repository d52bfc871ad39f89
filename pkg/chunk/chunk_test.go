package chunk

import (
	"bytes"
	"testing"
)

func TestSplitFile(t *testing.T) {
	tests := []struct {
		name           string
		data           []byte
		chunkSize      int
		expectedChunks int
	}{
		{
			name:           "empty file",
			data:           []byte{},
			chunkSize:      100,
			expectedChunks: 0,
		},
		{
			name:           "file smaller than chunk size",
			data:           []byte("0123"),
			chunkSize:      100,
			expectedChunks: 1,
		},
		{
			name:           "file exactly chunk size",
			data:           bytes.Repeat([]byte("7"), 100),
			chunkSize:      100,
			expectedChunks: 1,
		},
		{
			name:           "file larger than chunk size",
			data:           bytes.Repeat([]byte("7"), 250),
			chunkSize:      100,
			expectedChunks: 3,
		},
		{
			name:           "invalid chunk size",
			data:           []byte("0123"),
			chunkSize:      -1,
			expectedChunks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitFile(tt.data, tt.chunkSize)

			if len(chunks) != tt.expectedChunks {
				t.Errorf("SplitFile() returned %d chunks, want %d", len(chunks), tt.expectedChunks)
				return
			}

			if !bytes.Equal(ReassembleChunks(chunks), tt.data) {
				t.Error("Reassembled data doesn't match original")
			}
		})
	}
}

func TestComputeChunkHash(t *testing.T) {
	hash := ComputeChunkHash([]byte("0123456789"))

	if len(hash) != 64 {
		t.Errorf("ComputeChunkHash() returned hash of length %d, want 64", len(hash))
	}

	if hash != ComputeChunkHash([]byte("0123456789")) {
		t.Error("ComputeChunkHash() is not deterministic")
	}

	if hash == ComputeChunkHash([]byte("0123456780")) {
		t.Error("ComputeChunkHash() returned same hash for different data")
	}
}

func TestLeaves(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 100)
	leaves := Leaves(data, 300)

	if len(leaves) != 4 {
		t.Fatalf("Leaves() returned %d leaves, want 4", len(leaves))
	}

	var offset int64
	for i, l := range leaves {
		if l.Index != i {
			t.Errorf("leaves[%d].Index = %d", i, l.Index)
		}
		if l.Offset != offset {
			t.Errorf("leaves[%d].Offset = %d, want %d", i, l.Offset, offset)
		}
		chunk := data[l.Offset : l.Offset+int64(l.Size)]
		if err := VerifyLeaf(chunk, l); err != nil {
			t.Errorf("VerifyLeaf(%d) error = %v", i, err)
		}
		offset += int64(l.Size)
	}
	if leaves[3].Size != 100 {
		t.Errorf("last leaf size = %d, want 100", leaves[3].Size)
	}

	if got := Hashes(leaves); len(got) != 4 || got[0] != leaves[0].Hash {
		t.Errorf("Hashes() = %v", got)
	}
}

func TestFirstDifference(t *testing.T) {
	base := bytes.Repeat([]byte("0123456789"), 50)
	changed := append([]byte{}, base...)
	changed[260] = 'x'

	a := Leaves(base, 100)

	tests := []struct {
		name string
		b    []Leaf
		want int
	}{
		{"identical", Leaves(base, 100), -1},
		{"byte changed in third leaf", Leaves(changed, 100), 2},
		{"shorter", Leaves(base[:300], 100), 3},
		{"partial last leaf", Leaves(base[:450], 100), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstDifference(a, tt.b); got != tt.want {
				t.Errorf("FirstDifference() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVerifyLeaf(t *testing.T) {
	chunk := []byte("10111213")
	leaf := Leaf{Size: len(chunk), Hash: ComputeChunkHash(chunk)}

	if err := VerifyLeaf(chunk, leaf); err != nil {
		t.Errorf("VerifyLeaf() failed for valid chunk: %v", err)
	}

	if err := VerifyLeaf([]byte("10111214"), leaf); err == nil {
		t.Error("VerifyLeaf() should fail for corrupted chunk")
	}

	wrongSize := leaf
	wrongSize.Size = 999
	if err := VerifyLeaf(chunk, wrongSize); err == nil {
		t.Error("VerifyLeaf() should fail for size mismatch")
	}
}

func BenchmarkLeaves(b *testing.B) {
	data := bytes.Repeat([]byte("0123456789"), 600*1024) // ~6MB, scratch sized

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Leaves(data, 64*1024)
	}
}

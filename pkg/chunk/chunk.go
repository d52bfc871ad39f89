package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Leaf describes one fixed-size slice of a file
type Leaf struct {
	Index  int    // Index of this leaf (0-based)
	Offset int64  // Byte offset within the file
	Size   int    // Size of this leaf in bytes
	Hash   string // SHA256 hash of this leaf's data
}

// SplitFile splits data into fixed-size chunks
func SplitFile(data []byte, chunkSizeBytes int) [][]byte {
	if len(data) == 0 {
		return [][]byte{}
	}

	if chunkSizeBytes <= 0 {
		// Invalid chunk size, return entire file as single chunk
		return [][]byte{data}
	}

	chunks := make([][]byte, 0, (len(data)+chunkSizeBytes-1)/chunkSizeBytes)
	for i := 0; i < len(data); i += chunkSizeBytes {
		end := i + chunkSizeBytes
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[i:end])
	}

	return chunks
}

// ReassembleChunks combines chunks back into a single file
func ReassembleChunks(chunks [][]byte) []byte {
	totalSize := 0
	for _, chunk := range chunks {
		totalSize += len(chunk)
	}

	result := make([]byte, 0, totalSize)
	for _, chunk := range chunks {
		result = append(result, chunk...)
	}

	return result
}

// ComputeChunkHash computes SHA256 hash of chunk data
func ComputeChunkHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Leaves splits data and hashes every chunk
func Leaves(data []byte, chunkSizeBytes int) []Leaf {
	chunks := SplitFile(data, chunkSizeBytes)

	leaves := make([]Leaf, len(chunks))
	var offset int64
	for i, chunk := range chunks {
		leaves[i] = Leaf{
			Index:  i,
			Offset: offset,
			Size:   len(chunk),
			Hash:   ComputeChunkHash(chunk),
		}
		offset += int64(len(chunk))
	}

	return leaves
}

// Hashes returns the leaf hashes in order
func Hashes(leaves []Leaf) []string {
	out := make([]string, len(leaves))
	for i, l := range leaves {
		out[i] = l.Hash
	}
	return out
}

// FirstDifference returns the index of the first leaf that differs between
// two leaf lists, or -1 if they are identical.
func FirstDifference(a, b []Leaf) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i].Hash != b[i].Hash || a[i].Size != b[i].Size {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}

// VerifyLeaf verifies a single chunk against its leaf record
func VerifyLeaf(chunk []byte, leaf Leaf) error {
	if len(chunk) != leaf.Size {
		return fmt.Errorf("leaf %d size mismatch: expected %d bytes, got %d bytes",
			leaf.Index, leaf.Size, len(chunk))
	}

	if actual := ComputeChunkHash(chunk); actual != leaf.Hash {
		return fmt.Errorf("leaf %d integrity check failed: expected hash %s, got %s",
			leaf.Index, leaf.Hash, actual)
	}

	return nil
}

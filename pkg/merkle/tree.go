package merkle

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/cbergoon/merkletree"
)

// Content implements merkletree.Content for a hex-encoded leaf hash
type Content struct {
	hash string
}

// NewContent wraps a hex leaf hash
func NewContent(hash string) Content {
	return Content{hash: hash}
}

// CalculateHash implements the Content interface. Leaf hashes are already
// SHA-256 digests, so the decoded bytes are used as-is.
func (c Content) CalculateHash() ([]byte, error) {
	raw, err := hex.DecodeString(c.hash)
	if err != nil {
		return nil, fmt.Errorf("decode leaf hash %q: %w", c.hash, err)
	}
	return raw, nil
}

// Equals implements the Content interface
func (c Content) Equals(other merkletree.Content) (bool, error) {
	otherContent, ok := other.(Content)
	if !ok {
		return false, fmt.Errorf("type mismatch")
	}
	return c.hash == otherContent.hash, nil
}

// BuildTree builds a Merkle tree from leaf hashes in file order
func BuildTree(hashes []string) (*merkletree.MerkleTree, error) {
	if len(hashes) == 0 {
		return nil, fmt.Errorf("cannot build tree from empty leaf list")
	}

	contents := make([]merkletree.Content, 0, len(hashes))
	for _, h := range hashes {
		contents = append(contents, NewContent(h))
	}

	tree, err := merkletree.NewTree(contents)
	if err != nil {
		return nil, fmt.Errorf("failed to build Merkle tree: %w", err)
	}

	return tree, nil
}

// Root returns the Merkle root hash for a tree
func Root(tree *merkletree.MerkleTree) []byte {
	if tree == nil {
		return nil
	}
	return tree.MerkleRoot()
}

// RootOf builds a tree from leaf hashes and returns its root
func RootOf(hashes []string) ([]byte, error) {
	tree, err := BuildTree(hashes)
	if err != nil {
		return nil, err
	}
	return Root(tree), nil
}

// Contains reports whether a leaf hash is part of the tree
func Contains(tree *merkletree.MerkleTree, hash string) (bool, error) {
	if tree == nil {
		return false, fmt.Errorf("cannot verify content in nil tree")
	}

	verified, err := tree.VerifyContent(NewContent(hash))
	if err != nil {
		return false, fmt.Errorf("failed to verify content: %w", err)
	}

	return verified, nil
}

// VerifyRoot rebuilds the tree from leaf hashes and compares it with an expected root
func VerifyRoot(hashes []string, expectedRoot []byte) error {
	tree, err := BuildTree(hashes)
	if err != nil {
		return fmt.Errorf("failed to build tree for verification: %w", err)
	}

	valid, err := tree.VerifyTree()
	if err != nil {
		return fmt.Errorf("tree verification failed: %w", err)
	}
	if !valid {
		return fmt.Errorf("tree structure is invalid")
	}

	if actual := Root(tree); !bytes.Equal(actual, expectedRoot) {
		return fmt.Errorf("merkle root mismatch: expected %x, got %x", expectedRoot, actual)
	}

	return nil
}

package digest

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/multiformats/go-multihash"
	"github.com/saworbit/scratchfile/pkg/chunk"
	"github.com/saworbit/scratchfile/pkg/merkle"
)

// Digest identifies a file's content.
type Digest struct {
	Path       string
	Size       int64
	CID        string       // base58 multihash of the whole content
	MerkleRoot []byte       // root over fixed-size leaves; nil for empty content
	Leaves     []chunk.Leaf // leaf layout the root was built from
}

// RootHex returns the Merkle root as lowercase hex.
func (d Digest) RootHex() string {
	return hex.EncodeToString(d.MerkleRoot)
}

// Digester computes content identifiers and Merkle roots.
type Digester struct {
	hashAlgo string
	leafSize int
}

// New returns a digester for "sha256" or "blake3" with the given leaf size in bytes.
func New(hashAlgo string, leafSize int) (*Digester, error) {
	if _, err := hashCode(hashAlgo); err != nil {
		return nil, err
	}
	if leafSize <= 0 {
		return nil, fmt.Errorf("leaf size must be positive, got: %d", leafSize)
	}
	return &Digester{hashAlgo: hashAlgo, leafSize: leafSize}, nil
}

func hashCode(algo string) (uint64, error) {
	switch algo {
	case "sha256":
		return multihash.SHA2_256, nil
	case "blake3":
		return multihash.BLAKE3, nil
	default:
		return 0, fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

// CID computes a content identifier for data.
func (d *Digester) CID(data []byte) (string, error) {
	code, err := hashCode(d.hashAlgo)
	if err != nil {
		return "", err
	}

	mh, err := multihash.Sum(data, code, -1)
	if err != nil {
		return "", fmt.Errorf("failed to compute multihash: %w", err)
	}

	return mh.B58String(), nil
}

// Bytes digests in-memory content.
func (d *Digester) Bytes(data []byte) (Digest, error) {
	cid, err := d.CID(data)
	if err != nil {
		return Digest{}, err
	}

	out := Digest{
		Size:   int64(len(data)),
		CID:    cid,
		Leaves: chunk.Leaves(data, d.leafSize),
	}
	if len(out.Leaves) == 0 {
		return out, nil
	}

	root, err := merkle.RootOf(chunk.Hashes(out.Leaves))
	if err != nil {
		return Digest{}, err
	}
	out.MerkleRoot = root
	return out, nil
}

// File digests the file at path.
func (d *Digester) File(path string) (Digest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Digest{}, fmt.Errorf("read %s: %w", path, err)
	}

	out, err := d.Bytes(data)
	if err != nil {
		return Digest{}, fmt.Errorf("digest %s: %w", path, err)
	}
	out.Path = path
	return out, nil
}

// VerifyRoot checks the digest's leaves against an expected hex Merkle root.
func VerifyRoot(dg Digest, expectedHex string) error {
	expected, err := hex.DecodeString(expectedHex)
	if err != nil {
		return fmt.Errorf("invalid expected root %q: %w", expectedHex, err)
	}
	if len(dg.Leaves) == 0 {
		return fmt.Errorf("cannot verify root of empty content")
	}
	return merkle.VerifyRoot(chunk.Hashes(dg.Leaves), expected)
}

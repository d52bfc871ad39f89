package digest

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/saworbit/scratchfile/pkg/chunk"
)

func sequence(count int) []byte {
	var buf bytes.Buffer
	for i := 0; i < count; i++ {
		buf.WriteString(strconv.Itoa(i))
	}
	return buf.Bytes()
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		algo     string
		leafSize int
		wantErr  bool
	}{
		{"sha256", "sha256", 1024, false},
		{"blake3", "blake3", 1024, false},
		{"unknown algo", "md5", 1024, true},
		{"zero leaf size", "sha256", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.algo, tt.leafSize)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBytesDeterministic(t *testing.T) {
	d, err := New("sha256", 4096)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	data := sequence(20000)
	a, err := d.Bytes(data)
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	b, err := d.Bytes(sequence(20000))
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	if a.CID != b.CID || !bytes.Equal(a.MerkleRoot, b.MerkleRoot) {
		t.Fatal("identical content produced different digests")
	}
	if !strings.HasPrefix(a.CID, "Qm") {
		t.Errorf("sha256 CID = %s, want base58 multihash starting with Qm", a.CID)
	}
	if a.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", a.Size, len(data))
	}
	if want := (len(data) + 4095) / 4096; len(a.Leaves) != want {
		t.Errorf("Leaves = %d, want %d", len(a.Leaves), want)
	}

	changed := append([]byte{}, data...)
	changed[len(changed)-1] = '0'
	c, err := d.Bytes(changed)
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if c.CID == a.CID || bytes.Equal(c.MerkleRoot, a.MerkleRoot) {
		t.Fatal("changed content kept the same digest")
	}
	if got := chunk.FirstDifference(a.Leaves, c.Leaves); got != len(a.Leaves)-1 {
		t.Errorf("FirstDifference() = %d, want last leaf %d", got, len(a.Leaves)-1)
	}
}

func TestBlake3DiffersFromSHA256(t *testing.T) {
	data := sequence(1000)

	s, _ := New("sha256", 1024)
	b, _ := New("blake3", 1024)

	sd, err := s.Bytes(data)
	if err != nil {
		t.Fatalf("sha256 Bytes() error = %v", err)
	}
	bd, err := b.Bytes(data)
	if err != nil {
		t.Fatalf("blake3 Bytes() error = %v", err)
	}
	if sd.CID == bd.CID {
		t.Fatal("different hash algorithms produced the same CID")
	}
	if !bytes.Equal(sd.MerkleRoot, bd.MerkleRoot) {
		t.Fatal("Merkle root should not depend on the CID hash algorithm")
	}
}

func TestEmptyContent(t *testing.T) {
	d, _ := New("sha256", 1024)

	dg, err := d.Bytes(nil)
	if err != nil {
		t.Fatalf("Bytes(nil) error = %v", err)
	}
	if dg.CID == "" {
		t.Error("empty content should still have a CID")
	}
	if dg.MerkleRoot != nil || len(dg.Leaves) != 0 {
		t.Errorf("empty content digest = %+v, want no root and no leaves", dg)
	}
	if err := VerifyRoot(dg, "00"); err == nil {
		t.Error("VerifyRoot() on empty content should fail")
	}
}

func TestFileAndVerifyRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scratch")
	if err := os.WriteFile(path, sequence(5000), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	d, _ := New("sha256", 2048)
	dg, err := d.File(path)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if dg.Path != path {
		t.Errorf("Path = %s, want %s", dg.Path, path)
	}

	if err := VerifyRoot(dg, dg.RootHex()); err != nil {
		t.Errorf("VerifyRoot() with own root error = %v", err)
	}
	if err := VerifyRoot(dg, strings.Repeat("ab", 32)); err == nil {
		t.Error("VerifyRoot() with foreign root should fail")
	}
	if err := VerifyRoot(dg, "zz"); err == nil {
		t.Error("VerifyRoot() with non-hex root should fail")
	}

	if _, err := d.File(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("File() on missing path should fail")
	}
}

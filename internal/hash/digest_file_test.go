package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDigestFile_KnownContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slo_results.json")
	content := []byte(`{"platform":"qemu-q35","metrics":{"input.latency.p99_us":1500}}`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	h := sha256.Sum256(content)
	want := "sha256:" + hex.EncodeToString(h[:])

	digest, size, err := DigestFile(path)
	if err != nil {
		t.Fatalf("DigestFile: %v", err)
	}
	if digest != want {
		t.Errorf("digest = %q, want %q", digest, want)
	}
	if size != int64(len(content)) {
		t.Errorf("size = %d, want %d", size, len(content))
	}
}

func TestDigestFile_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	if err := os.WriteFile(path, []byte{0x01, 0x02, 0x03}, 0o644); err != nil {
		t.Fatal(err)
	}

	digest, _, err := DigestFile(path)
	if err != nil {
		t.Fatal(err)
	}
	hexPart, ok := strings.CutPrefix(digest, "sha256:")
	if !ok {
		t.Fatalf("digest should start with 'sha256:', got %q", digest)
	}
	if len(hexPart) != 64 {
		t.Errorf("hex part should be 64 chars, got %d", len(hexPart))
	}
}

func TestDigestFile_NotFound(t *testing.T) {
	if _, _, err := DigestFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

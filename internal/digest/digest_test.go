package digest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSumFile(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{
			"Empty file",
			nil,
			"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			"Known vector",
			[]byte("abc"),
			"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
		{
			"Binary content with CRLF stays untranslated",
			[]byte("line1\r\nline2\n\x00\xff"),
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "f.bin")
			if err := os.WriteFile(path, tt.content, 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := SumFile(path)
			if err != nil {
				t.Fatalf("SumFile() error = %v", err)
			}
			if len(got) != 64 {
				t.Errorf("SumFile() digest length = %d, want 64", len(got))
			}
			if tt.want != "" && got != tt.want {
				t.Errorf("SumFile() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSumFile_LargerThanChunk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.bin")
	content := make([]byte, chunkSize*3+17)
	for i := range content {
		content[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := SumFile(path)
	if err != nil {
		t.Fatalf("SumFile() error = %v", err)
	}
	second, err := SumFile(path)
	if err != nil {
		t.Fatalf("SumFile() error = %v", err)
	}
	if first != second {
		t.Errorf("digest not stable across reads: %s vs %s", first, second)
	}
}

func TestSumFile_Missing(t *testing.T) {
	_, err := SumFile(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("SumFile() on missing file: want error")
	}
	if !strings.Contains(err.Error(), "hash") {
		t.Errorf("error %q does not name the operation", err)
	}
}

func TestProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("12345"), 0o644); err != nil {
		t.Fatal(err)
	}

	size, modTime, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if size != 5 {
		t.Errorf("Probe() size = %d, want 5", size)
	}
	if modTime.IsZero() || time.Since(modTime) > time.Minute {
		t.Errorf("Probe() modTime = %v, not recent", modTime)
	}
}

func TestProbe_Missing(t *testing.T) {
	if _, _, err := Probe(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("Probe() on missing file: want error")
	}
}

package policy

import (
	"testing"
	"time"

	"github.com/CireWire/preserv/internal/manifest"
)

func TestEvaluate(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 500000000, time.UTC)
	rec := manifest.Record{
		RelativePath: "a.txt",
		Checksum:     "aa",
		Size:         100,
		ModTime:      base,
	}

	tests := []struct {
		name    string
		size    int64
		modTime time.Time
		want    Decision
	}{
		{"Exact match", 100, base, TrustExistingHash},
		{"Same instant different zone", 100, base.In(time.FixedZone("X", 3600)), TrustExistingHash},
		{"Size differs", 101, base, MustRehash},
		{"Mtime later", 100, base.Add(time.Second), MustRehash},
		{"Mtime earlier", 100, base.Add(-time.Second), MustRehash},
		{"Sub-second drift forces rehash", 100, base.Add(time.Nanosecond), MustRehash},
		{"Both differ", 1, base.Add(time.Hour), MustRehash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(rec, tt.size, tt.modTime); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

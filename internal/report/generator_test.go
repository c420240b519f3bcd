package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/CireWire/preserv/internal/audit"
	"github.com/CireWire/preserv/internal/config"
	"github.com/CireWire/preserv/pkg/models"
)

func sampleReport() *models.VerificationReport {
	rep := &models.VerificationReport{
		RunID:       "run-1",
		Root:        "/archive",
		StartTime:   time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
		Duration:    90 * time.Second,
		WorkersUsed: 4,
	}
	rep.AddOutcome(models.VerificationOutcome{RelativePath: "ok.txt", Outcome: models.OutcomeUnchanged})
	rep.AddOutcome(models.VerificationOutcome{
		RelativePath: "changed.bin",
		Outcome:      models.OutcomeModified,
		Before:       &models.FileState{Checksum: strings.Repeat("a", 64), Size: 10, ModTime: rep.StartTime},
		After:        &models.FileState{Checksum: strings.Repeat("b", 64), Size: 2048, ModTime: rep.StartTime.Add(time.Hour)},
	})
	rep.AddOutcome(models.VerificationOutcome{RelativePath: "gone.txt", Outcome: models.OutcomeMissing})
	return rep
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"Milliseconds", 250 * time.Millisecond, "250.00ms"},
		{"Seconds", 12*time.Second + 340*time.Millisecond, "12.34s"},
		{"Minutes", 90 * time.Second, "1m30.00s"},
		{"Hours", time.Hour + 61*time.Second, "1h1m1.00s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.d); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestGenerator_TextReport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.txt")
	g := NewGenerator(&config.Config{ReportFormat: "text", OutputFile: out}, audit.NewNop())

	path, err := g.Verification(sampleReport())
	if err != nil {
		t.Fatalf("Verification() error = %v", err)
	}
	if path != out {
		t.Errorf("report path = %q, want %q", path, out)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"Unchanged:  1", "Modified:   1", "Missing:    1", "[MODIFIED] changed.bin", "[MISSING] gone.txt", "2.0 kB"} {
		if !strings.Contains(text, want) {
			t.Errorf("text report missing %q:\n%s", want, text)
		}
	}
}

func TestGenerator_JSONReportRoundTrips(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	g := NewGenerator(&config.Config{ReportFormat: "json", OutputFile: out}, audit.NewNop())

	if _, err := g.Verification(sampleReport()); err != nil {
		t.Fatalf("Verification() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var decoded models.VerificationReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.Modified != 1 || len(decoded.Outcomes) != 3 {
		t.Errorf("decoded report = %+v", decoded)
	}
}

func TestGenerator_UnknownFormat(t *testing.T) {
	g := NewGenerator(&config.Config{ReportFormat: "xml"}, audit.NewNop())
	if _, err := g.Verification(sampleReport()); err == nil {
		t.Error("Verification() with unknown format: want error")
	}
}

package audit

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zapcore"
)

// lineFormat is the external contract for activity log lines.
var lineFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}(Z|[+-]\d{4}) - (DEBUG|INFO|WARNING|ERROR) - .+$`)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{"Default empty", "", zapcore.InfoLevel, false},
		{"Info", "info", zapcore.InfoLevel, false},
		{"Warning long form", "warning", zapcore.WarnLevel, false},
		{"Warn short form", "warn", zapcore.WarnLevel, false},
		{"Error", "error", zapcore.ErrorLevel, false},
		{"Mixed case", "ERROR", zapcore.ErrorLevel, false},
		{"Unknown", "loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLog_LineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")

	log, err := New(path, zapcore.InfoLevel)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.Infof("processing %s", "docs/report.pdf")
	log.Warnf("cannot access %s", "secret/")
	log.Errorf("hash failed for %s", "broken.bin")
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), lines)
	}
	for _, line := range lines {
		if !lineFormat.MatchString(line) {
			t.Errorf("line %q does not match the activity log format", line)
		}
	}
	if !strings.Contains(lines[1], "WARNING") {
		t.Errorf("warn line = %q, want WARNING level tag", lines[1])
	}
}

func TestLog_MinLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")

	log, err := New(path, zapcore.ErrorLevel)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.Infof("not persisted")
	log.Warnf("not persisted either")
	log.Errorf("persisted")
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines, err := NewNop().Tail(0) // nop log has no file
	if err != nil || lines != nil {
		t.Errorf("nop Tail() = %v, %v, want nil, nil", lines, err)
	}

	data, _ := os.ReadFile(path)
	got := strings.TrimRight(string(data), "\n")
	if strings.Count(got, "\n")+1 != 1 || !strings.Contains(got, "ERROR") {
		t.Errorf("log content = %q, want exactly one ERROR line", got)
	}
}

func TestLog_ConcurrentAppendsDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")

	log, err := New(path, zapcore.InfoLevel)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				log.Infof("worker %d entry %d", id, j)
			}
		}(i)
	}
	wg.Wait()
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != writers*perWriter {
		t.Fatalf("got %d lines, want %d", len(lines), writers*perWriter)
	}
	for _, line := range lines {
		if !lineFormat.MatchString(line) {
			t.Fatalf("garbled line: %q", line)
		}
	}
}

func TestLog_Tail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")

	log, err := New(path, zapcore.InfoLevel)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer log.Close()

	for i := 0; i < 10; i++ {
		log.Infof("entry %d", i)
	}

	lines, err := log.Tail(3)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("Tail(3) returned %d lines", len(lines))
	}
	if !strings.Contains(lines[2], "entry 9") {
		t.Errorf("last tailed line = %q, want entry 9", lines[2])
	}
}

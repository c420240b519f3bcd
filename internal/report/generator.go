// Package report renders verification results for humans and tooling.
// The engine never depends on this package; it consumes the in-memory
// report the engine hands back.
package report

import (
	"fmt"
	"time"

	"github.com/CireWire/preserv/internal/audit"
	"github.com/CireWire/preserv/internal/config"
	"github.com/CireWire/preserv/pkg/models"
)

// FormatDuration renders a duration with at most two decimal places.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d < time.Hour:
		mins := int(d.Minutes())
		return fmt.Sprintf("%dm%.2fs", mins, d.Seconds()-float64(mins*60))
	default:
		hours := int(d.Hours())
		mins := int(d.Minutes()) - hours*60
		return fmt.Sprintf("%dh%dm%.2fs", hours, mins, d.Seconds()-float64(hours*3600)-float64(mins*60))
	}
}

// Generator writes verification reports in the configured format.
type Generator struct {
	config *config.Config
	log    *audit.Log
}

// NewGenerator creates a report generator.
func NewGenerator(cfg *config.Config, log *audit.Log) *Generator {
	return &Generator{config: cfg, log: log}
}

// Verification renders a report. With no format configured it prints a
// console summary and returns an empty path; otherwise it writes the
// report file and returns its location.
func (g *Generator) Verification(rep *models.VerificationReport) (string, error) {
	format := g.config.ReportFormat
	if format == "" {
		g.printConsole(rep)
		return "", nil
	}

	outputFile := g.config.OutputFile
	if outputFile == "" {
		timestamp := time.Now().Format("20060102-150405")
		switch format {
		case "json":
			outputFile = fmt.Sprintf("PRESERV-REPORT-%s.json", timestamp)
		case "txt", "text":
			outputFile = fmt.Sprintf("PRESERV-REPORT-%s.txt", timestamp)
		default:
			return "", fmt.Errorf("unknown report format: %s", format)
		}
	}

	var err error
	switch format {
	case "json":
		err = g.generateJSON(rep, outputFile)
	case "txt", "text":
		err = g.generateText(rep, outputFile)
	default:
		return "", fmt.Errorf("unknown report format: %s", format)
	}
	if err != nil {
		return "", err
	}

	g.log.Infof("report written to %s", outputFile)
	return outputFile, nil
}

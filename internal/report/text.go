package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/CireWire/preserv/pkg/models"
)

// generateText writes a plain-text report file.
func (g *Generator) generateText(rep *models.VerificationReport, outputFile string) error {
	return os.WriteFile(outputFile, []byte(renderText(rep)), 0o644)
}

// printConsole prints the summary to stdout.
func (g *Generator) printConsole(rep *models.VerificationReport) {
	fmt.Print(renderText(rep))
}

func renderText(rep *models.VerificationReport) string {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 79) + "\n")
	sb.WriteString("  PRESERV INTEGRITY REPORT\n")
	sb.WriteString(strings.Repeat("=", 79) + "\n\n")

	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	sb.WriteString(fmt.Sprintf("Run ID:           %s\n", rep.RunID))
	sb.WriteString(fmt.Sprintf("Archive Root:     %s\n", rep.Root))
	sb.WriteString(fmt.Sprintf("Start Time:       %s\n", rep.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Duration:         %s\n", FormatDuration(rep.Duration)))
	sb.WriteString(fmt.Sprintf("Workers:          %d\n", rep.WorkersUsed))
	sb.WriteString(fmt.Sprintf("Deep Verify:      %v\n", rep.DeepVerify))
	sb.WriteString(fmt.Sprintf("Files Rehashed:   %d\n", rep.HashedFiles))
	if rep.Incomplete {
		sb.WriteString("Status:           INCOMPLETE (run cancelled)\n")
	}
	sb.WriteString("\n")

	sb.WriteString("OUTCOMES\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	sb.WriteString(fmt.Sprintf("  Unchanged:  %d\n", rep.Unchanged))
	sb.WriteString(fmt.Sprintf("  Modified:   %d\n", rep.Modified))
	sb.WriteString(fmt.Sprintf("  Missing:    %d\n", rep.Missing))
	sb.WriteString(fmt.Sprintf("  New:        %d\n", rep.New))
	if len(rep.FailedFiles) > 0 {
		sb.WriteString(fmt.Sprintf("  Failed:     %d\n", len(rep.FailedFiles)))
	}
	sb.WriteString("\n")

	drifted := false
	for _, o := range rep.Outcomes {
		if o.Outcome == models.OutcomeUnchanged {
			continue
		}
		if !drifted {
			sb.WriteString("DRIFT DETAIL\n")
			sb.WriteString(strings.Repeat("-", 79) + "\n")
			drifted = true
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", strings.ToUpper(string(o.Outcome)), o.RelativePath))
		if o.Outcome == models.OutcomeModified && o.Before != nil && o.After != nil {
			sb.WriteString(fmt.Sprintf("      was: %s  %s  %s\n",
				shortSum(o.Before.Checksum), humanize.Bytes(uint64(o.Before.Size)), o.Before.ModTime.Format("2006-01-02 15:04:05")))
			sb.WriteString(fmt.Sprintf("      now: %s  %s  %s\n",
				shortSum(o.After.Checksum), humanize.Bytes(uint64(o.After.Size)), o.After.ModTime.Format("2006-01-02 15:04:05")))
		}
	}
	if drifted {
		sb.WriteString("\n")
	}

	for _, f := range rep.FailedFiles {
		sb.WriteString(fmt.Sprintf("  [FAILED] %s\n", f))
	}

	return sb.String()
}

func shortSum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}

// RenderGenerateSummary formats a generation summary for the console.
func RenderGenerateSummary(sum *models.GenerateSummary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Manifest generated for %s in %s\n", sum.Root, FormatDuration(sum.Duration)))
	sb.WriteString(fmt.Sprintf("  Files processed: %d of %d\n", sum.ProcessedFiles, sum.TotalFiles))
	if len(sum.FailedFiles) > 0 {
		sb.WriteString(fmt.Sprintf("  Files failed:    %d\n", len(sum.FailedFiles)))
		for _, f := range sum.FailedFiles {
			sb.WriteString(fmt.Sprintf("    %s\n", f))
		}
	}
	if sum.Incomplete {
		sb.WriteString("  Status: INCOMPLETE (run cancelled)\n")
	}
	return sb.String()
}

package report

import (
	"encoding/json"
	"os"

	"github.com/CireWire/preserv/pkg/models"
)

// generateJSON writes the report as indented JSON for tooling.
func (g *Generator) generateJSON(rep *models.VerificationReport, outputFile string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputFile, data, 0o644)
}

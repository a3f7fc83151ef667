package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"dirhunter/internal/scan"
)

// Report is the top-level structure for the final JSON report.
type Report struct {
	Summary  scan.Summary  `json:"summary"`
	Findings []scan.Result `json:"findings"`
}

// JSONExporter handles the creation of the JSON report file.
type JSONExporter struct {
	OutputPath string
}

// NewJSONExporter creates a new exporter that will write to the specified path.
func NewJSONExporter(outputPath string) (*JSONExporter, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &JSONExporter{OutputPath: outputPath}, nil
}

// Export generates and saves the JSON report.
func (e *JSONExporter) Export(report Report) error {
	file, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}

	if err := os.WriteFile(e.OutputPath, file, 0644); err != nil {
		return fmt.Errorf("failed to write JSON report to file: %w", err)
	}

	log.Info().Str("path", e.OutputPath).Msg("JSON report saved successfully.")
	return nil
}

// TxtExporter handles the creation of the TXT report file.
type TxtExporter struct {
	OutputPath string
}

// NewTxtExporter creates a new exporter that will write to the specified path.
func NewTxtExporter(outputPath string) (*TxtExporter, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &TxtExporter{OutputPath: outputPath}, nil
}

// Export generates and saves the TXT report.
func (e *TxtExporter) Export(report Report) error {
	file, err := os.Create(e.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create TXT report file: %w", err)
	}
	defer file.Close()

	summary := report.Summary
	file.WriteString("Discovery Report\n")
	file.WriteString("===================================\n")
	file.WriteString("Summary\n")
	file.WriteString("-----------------------------------\n")
	file.WriteString(fmt.Sprintf("Target URL:       %s\n", summary.TargetURL))
	file.WriteString(fmt.Sprintf("Session ID:       %s\n", summary.SessionID))
	file.WriteString(fmt.Sprintf("Start Time:       %s\n", summary.StartTime.Format(time.RFC3339)))
	file.WriteString(fmt.Sprintf("End Time:         %s\n", summary.EndTime.Format(time.RFC3339)))
	file.WriteString(fmt.Sprintf("Duration:         %s\n", summary.Duration))
	file.WriteString(fmt.Sprintf("Status:           %s\n", summary.Status))
	file.WriteString(fmt.Sprintf("Total Requests:   %d\n", summary.TotalRequests))
	file.WriteString(fmt.Sprintf("Findings:         %d\n", summary.Findings))
	file.WriteString(fmt.Sprintf("Suppressed:       %d\n", summary.Suppressed))
	file.WriteString(fmt.Sprintf("Errors:           %d\n", summary.Errors))
	file.WriteString("===================================\n")

	file.WriteString("Findings\n")
	file.WriteString("-----------------------------------\n")

	if len(report.Findings) == 0 {
		file.WriteString("\nNo hidden resources found.\n")
	} else {
		for _, finding := range report.Findings {
			file.WriteString("\n")
			file.WriteString(fmt.Sprintf("URL:            %s\n", finding.URL))
			file.WriteString(fmt.Sprintf("Status:         %d\n", finding.StatusCode))
			file.WriteString(fmt.Sprintf("Size:           %d\n", finding.Size))
			if finding.RedirectURL != "" {
				file.WriteString(fmt.Sprintf("Redirects To:   %s\n", finding.RedirectURL))
			}
			if finding.IsDirectory {
				file.WriteString("Type:           directory\n")
			}
			file.WriteString(fmt.Sprintf("Depth:          %d\n", finding.Depth))
			file.WriteString(fmt.Sprintf("Origin:         %s\n", finding.Origin))
			file.WriteString("-----------------------------------\n")
		}
	}

	log.Info().Str("path", e.OutputPath).Msg("TXT report saved successfully.")
	return nil
}

package report

import (
	"fmt"
	"strings"

	"github.com/Justin-Lund/PS-Decode/pkg/models"
)

// renderText renders a plain text report
func renderText(log *models.SessionLog) []byte {
	var sb strings.Builder

	// Header
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")
	sb.WriteString(fmt.Sprintf("  PS-DECODE SESSION REPORT v%s\n", log.Version))
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n\n")

	// Summary
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	sb.WriteString(fmt.Sprintf("Input:            %s\n", log.InputPath))
	if log.Encoding != "" {
		sb.WriteString(fmt.Sprintf("Encoding:         %s\n", log.Encoding))
	}
	sb.WriteString(fmt.Sprintf("Start Time:       %s\n", log.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("End Time:         %s\n", log.EndTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Duration:         %s\n", FormatDuration(log.Duration)))
	sb.WriteString(fmt.Sprintf("Initial Size:     %d bytes\n", log.InitialSize))
	sb.WriteString(fmt.Sprintf("Final Size:       %d bytes\n", log.FinalSize))
	sb.WriteString(fmt.Sprintf("Passes:           %d (%d changed)\n", len(log.Passes), log.ChangedPasses()))
	sb.WriteString(fmt.Sprintf("Undos:            %d\n", log.Undos))
	sb.WriteString(fmt.Sprintf("Resets:           %d\n", log.Resets))
	sb.WriteString("\n")

	// Passes
	sb.WriteString("PASSES\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	if len(log.Passes) == 0 {
		sb.WriteString("No passes applied.\n")
	}
	for i, p := range log.Passes {
		status := "unchanged"
		if p.Changed {
			status = deltaString(p.Delta()) + " bytes"
		}
		sb.WriteString(fmt.Sprintf("[%d] %s  %-3s %-12s %s\n",
			i+1, p.AppliedAt.Format("15:04:05"), p.Key, p.Rule, status))
	}
	sb.WriteString("\n")

	// Saves
	if len(log.Saves) > 0 {
		sb.WriteString("SAVES\n")
		sb.WriteString(strings.Repeat("-", 79) + "\n")
		for _, s := range log.Saves {
			sb.WriteString(fmt.Sprintf("%s  %s (%d bytes)\n", s.SavedAt.Format("15:04:05"), s.Path, s.Size))
		}
		sb.WriteString("\n")
	}

	// Footer
	sb.WriteString(strings.Repeat("=", 79) + "\n")
	sb.WriteString("End of Report\n")
	sb.WriteString(strings.Repeat("=", 79) + "\n")

	return []byte(sb.String())
}

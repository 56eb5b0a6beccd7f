package report

import (
	"fmt"
	"strings"

	"github.com/Justin-Lund/PS-Decode/pkg/models"
)

// renderMarkdown renders a Markdown report
func renderMarkdown(log *models.SessionLog) []byte {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# PS-Decode Session Report v%s\n\n", log.Version))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Input | `%s` |\n", log.InputPath))
	if log.Encoding != "" {
		sb.WriteString(fmt.Sprintf("| Encoding | %s |\n", log.Encoding))
	}
	sb.WriteString(fmt.Sprintf("| Start Time | %s |\n", log.StartTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("| End Time | %s |\n", log.EndTime.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("| Duration | %s |\n", FormatDuration(log.Duration)))
	sb.WriteString(fmt.Sprintf("| Size | %d → %d bytes |\n", log.InitialSize, log.FinalSize))
	sb.WriteString(fmt.Sprintf("| **Passes** | **%d** (%d changed) |\n", len(log.Passes), log.ChangedPasses()))
	sb.WriteString(fmt.Sprintf("| Undos / Resets | %d / %d |\n", log.Undos, log.Resets))
	sb.WriteString("\n")

	if len(log.Passes) == 0 {
		sb.WriteString("> No passes applied\n\n")
	} else {
		sb.WriteString("## Passes\n\n")
		sb.WriteString("| # | Time | Key | Rule | Change |\n")
		sb.WriteString("|---|------|-----|------|--------|\n")
		for i, p := range log.Passes {
			change := "no change"
			if p.Changed {
				change = deltaString(p.Delta()) + " bytes"
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | `%s` | %s | %s |\n",
				i+1, p.AppliedAt.Format("15:04:05"), p.Key, p.Rule, change))
		}
		sb.WriteString("\n")
	}

	if len(log.Saves) > 0 {
		sb.WriteString("## Saves\n\n")
		for _, s := range log.Saves {
			sb.WriteString(fmt.Sprintf("- `%s` (%d bytes) at %s\n", s.Path, s.Size, s.SavedAt.Format("15:04:05")))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("---\n\n")
	sb.WriteString("*Generated by PS-Decode*\n")

	return []byte(sb.String())
}

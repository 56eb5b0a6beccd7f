package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Justin-Lund/PS-Decode/internal/config"
	"github.com/Justin-Lund/PS-Decode/pkg/models"
	"go.uber.org/zap"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorOrange = "\033[38;5;208m"
	colorGray   = "\033[38;5;245m"
)

// FormatDuration formats duration to a human-readable string with max 2 decimal places
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		// Milliseconds
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		// Seconds
		return fmt.Sprintf("%.2fs", d.Seconds())
	} else if d < time.Hour {
		// Minutes and seconds
		mins := int(d.Minutes())
		secs := d.Seconds() - float64(mins*60)
		return fmt.Sprintf("%dm%.2fs", mins, secs)
	}
	// Hours, minutes and seconds
	hours := int(d.Hours())
	mins := int(d.Minutes()) - hours*60
	secs := d.Seconds() - float64(hours*3600) - float64(mins*60)
	return fmt.Sprintf("%dh%dm%.2fs", hours, mins, secs)
}

// Generator writes session reports in various formats
type Generator struct {
	format string
	output string
	color  bool
	out    io.Writer
	logger *zap.Logger
}

// NewGenerator creates a new report generator
func NewGenerator(cfg *config.Config, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		format: strings.ToLower(cfg.ReportFormat),
		output: cfg.ReportOutput,
		color:  cfg.Color,
		out:    os.Stdout,
		logger: logger,
	}
}

// SetWriter redirects the console summary
func (g *Generator) SetWriter(w io.Writer) {
	g.out = w
}

// DefaultFilename returns the timestamped report name for a format
func DefaultFilename(format string, now time.Time) (string, error) {
	timestamp := now.Format("20060102-150405")
	switch format {
	case "json":
		return fmt.Sprintf("PSDECODE-REPORT-%s.json", timestamp), nil
	case "txt", "text":
		return fmt.Sprintf("PSDECODE-REPORT-%s.txt", timestamp), nil
	case "md", "markdown":
		return fmt.Sprintf("PSDECODE-REPORT-%s.md", timestamp), nil
	}
	return "", fmt.Errorf("unknown report format: %s", format)
}

// Generate writes a report for the session log and returns its absolute path.
// With no format configured the summary goes to the console and the path is empty.
func (g *Generator) Generate(log *models.SessionLog) (string, error) {
	if g.format == "" {
		g.printConsole(log)
		return "", nil
	}

	outputFile := g.output
	if outputFile == "" {
		name, err := DefaultFilename(g.format, time.Now())
		if err != nil {
			return "", err
		}
		outputFile = name
	}

	g.logger.Info("Generating report",
		zap.String("format", g.format),
		zap.String("output", outputFile))

	var data []byte
	var err error
	switch g.format {
	case "json":
		data, err = renderJSON(log)
	case "txt", "text":
		data = renderText(log)
	case "md", "markdown":
		data = renderMarkdown(log)
	default:
		return "", fmt.Errorf("unknown report format: %s", g.format)
	}
	if err == nil {
		err = os.WriteFile(outputFile, data, 0644)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", g.format, err)
	}

	// Get absolute path
	absPath, _ := filepath.Abs(outputFile)
	return absPath, nil
}

// paint wraps s in an ANSI code when color is enabled
func (g *Generator) paint(code, s string) string {
	if !g.color {
		return s
	}
	return code + s + colorReset
}

// printConsole prints a short session summary
func (g *Generator) printConsole(log *models.SessionLog) {
	w := g.out
	fmt.Fprintln(w)
	fmt.Fprintln(w, g.paint(colorBold+colorOrange, "SESSION COMPLETE"))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s     %s\n", g.paint(colorGray, "Input:"), log.InputPath)
	fmt.Fprintf(w, "  %s  %s\n", g.paint(colorGray, "Duration:"), FormatDuration(log.Duration))
	fmt.Fprintf(w, "  %s      %d -> %d bytes\n", g.paint(colorGray, "Size:"), log.InitialSize, log.FinalSize)
	fmt.Fprintf(w, "  %s    %d applied, %d changed\n", g.paint(colorGray, "Passes:"), len(log.Passes), log.ChangedPasses())

	if len(log.Saves) == 0 {
		fmt.Fprintf(w, "  %s\n", g.paint(colorYellow, "Buffer was not saved"))
	} else {
		last := log.Saves[len(log.Saves)-1]
		fmt.Fprintf(w, "  %s     %s\n", g.paint(colorGray, "Saved:"), g.paint(colorGreen, last.Path))
	}
	fmt.Fprintln(w)
}

// deltaString renders a signed byte delta
func deltaString(d int) string {
	if d > 0 {
		return fmt.Sprintf("+%d", d)
	}
	return fmt.Sprintf("%d", d)
}

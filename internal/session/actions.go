package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Justin-Lund/PS-Decode/internal/analysis"
	"github.com/Justin-Lund/PS-Decode/internal/deobfuscator/powershell"
	"github.com/Justin-Lund/PS-Decode/internal/filesystem"
	"github.com/Justin-Lund/PS-Decode/pkg/models"
	"github.com/alecthomas/chroma/v2/quick"
	"go.uber.org/zap"
)

func (s *Session) showSample() error {
	answer, ok, err := s.prompt("Number of lines to show (blank for default, 0 for all): ")
	if err != nil {
		return err
	}
	if !ok {
		return errQuit
	}

	n := s.cfg.SampleLines
	if answer != "" {
		n, err = strconv.Atoi(answer)
		if err != nil || n < 0 {
			fmt.Fprintln(s.out, s.styles.Error.Render("Invalid number, please try again."))
			return nil
		}
	}

	s.printCode(n)
	return nil
}

// printCode writes the first n lines of the buffer, highlighted when color is on
func (s *Session) printCode(n int) {
	text := powershell.Head(powershell.ShowSample(s.buffer), n)
	if text == "" {
		fmt.Fprintln(s.out, s.styles.Muted.Render("(empty buffer)"))
		return
	}

	fmt.Fprintln(s.out)
	if s.cfg.Color {
		if err := quick.Highlight(s.out, text, "powershell", "terminal256", s.cfg.Style); err != nil {
			s.logger.Warn("Highlighting failed", zap.Error(err))
			fmt.Fprint(s.out, text)
		}
	} else {
		fmt.Fprint(s.out, text)
	}
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(s.out)
	}
}

func (s *Session) inspect() error {
	r := analysis.Inspect(s.buffer)

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, s.styles.Title.Render("Buffer analysis"))
	row := func(label string, value any) {
		fmt.Fprintf(s.out, "  %s %v\n", s.styles.Muted.Render(fmt.Sprintf("%-16s", label+":")), value)
	}
	row("Size", fmt.Sprintf("%d bytes, %d lines", r.Size, r.Lines))
	row("Entropy", fmt.Sprintf("%.2f (max %.2f, avg %.2f) %s", r.Entropy.Overall, r.Entropy.Max, r.Entropy.Average, r.Entropy.Level()))
	row("Backticks", r.Backticks)
	row("Concatenations", r.Concatenation)
	row("Format ops", r.FormatOps)
	row("Char casts", r.CharCasts)
	row("Alternating case", r.AltCaseWords)

	if r.IsLikelyObfuscated() {
		fmt.Fprintln(s.out, "  "+s.styles.Warn.Render("Buffer looks obfuscated"))
	}

	applicable := s.manager.Applicable(s.buffer)
	if len(applicable) == 0 {
		fmt.Fprintln(s.out, "  "+s.styles.Muted.Render("No rule patterns found"))
		return nil
	}
	keys := make([]string, 0, len(applicable))
	for _, e := range applicable {
		keys = append(keys, fmt.Sprintf("%s (%s)", e.Key, e.Deobfuscator.Name()))
	}
	row("Applicable", strings.Join(keys, ", "))
	return nil
}

func (s *Session) save() error {
	path := s.outputPath
	if path == "" {
		answer, ok, err := s.prompt("Save as: ")
		if err != nil {
			return err
		}
		if !ok {
			return errQuit
		}
		if answer == "" {
			fmt.Fprintln(s.out, s.styles.Warn.Render("Save cancelled"))
			return nil
		}
		path = answer
	}

	if err := filesystem.WriteScript(path, s.buffer); err != nil {
		s.logger.Error("Save failed", zap.String("path", path), zap.Error(err))
		fmt.Fprintln(s.out, s.styles.Error.Render(fmt.Sprintf("Save failed: %v", err)))
		return nil
	}

	s.outputPath = path
	s.log.Saves = append(s.log.Saves, &models.Save{
		Path:    path,
		Size:    len(s.buffer),
		SavedAt: time.Now(),
	})
	s.logger.Debug("Buffer saved", zap.String("path", path), zap.Int("size", len(s.buffer)))
	fmt.Fprintln(s.out, s.styles.OK.Render(fmt.Sprintf("Saved %d bytes to %s", len(s.buffer), path)))
	return nil
}

// signed renders a byte delta with an explicit sign
func signed(d int) string {
	if d > 0 {
		return "+" + strconv.Itoa(d)
	}
	return strconv.Itoa(d)
}

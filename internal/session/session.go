package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Justin-Lund/PS-Decode/internal/config"
	"github.com/Justin-Lund/PS-Decode/internal/deobfuscator"
	"github.com/Justin-Lund/PS-Decode/pkg/models"
	"go.uber.org/zap"
)

// errQuit ends the loop without an error
var errQuit = errors.New("quit")

// Built-in choice keys
const (
	KeySample  = "0"
	KeyAuto    = "a"
	KeyInspect = "i"
	KeyUndo    = "u"
	KeyReset   = "r"
	KeySave    = "s"
	KeyQuit    = "q"
)

// action is a single menu entry
type action struct {
	key   string
	label string
	run   func() error
}

// Session is the interactive de-obfuscation loop. It owns the working buffer.
type Session struct {
	cfg     *config.Config
	manager *deobfuscator.Manager
	logger  *zap.Logger

	in     *bufio.Reader
	out    io.Writer
	styles styles

	original   string
	buffer     string
	outputPath string
	hist       *history
	log        *models.SessionLog

	actions map[string]*action
	menu    []*action
}

// New creates a session over the loaded script
func New(script *models.Script, cfg *config.Config, manager *deobfuscator.Manager, in io.Reader, out io.Writer, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}

	log := models.NewSessionLog(script.Path)
	log.Encoding = script.Encoding
	log.InitialSize = len(script.Content)

	s := &Session{
		cfg:        cfg,
		manager:    manager,
		logger:     logger,
		in:         bufio.NewReader(in),
		out:        out,
		styles:     newStyles(out, cfg.Color),
		original:   script.Content,
		buffer:     script.Content,
		outputPath: cfg.Output,
		hist:       newHistory(0),
		log:        log,
	}
	s.buildActions()
	return s
}

// buildActions assembles the choice map from the session built-ins and every registered rule
func (s *Session) buildActions() {
	s.actions = make(map[string]*action)
	s.menu = nil

	add := func(a *action) {
		s.actions[a.key] = a
		s.menu = append(s.menu, a)
	}

	add(&action{key: KeySample, label: "Show code sample", run: s.showSample})
	for _, e := range s.manager.Entries() {
		e := e // per-iteration copy; go directive predates Go 1.22 loop semantics
		add(&action{
			key:   e.Key,
			label: e.Deobfuscator.Description(),
			run:   func() error { return s.applyRule(e) },
		})
	}
	add(&action{key: KeyAuto, label: "Auto (apply automatic rules until nothing changes)", run: s.auto})
	add(&action{key: KeyInspect, label: "Inspect buffer", run: s.inspect})
	add(&action{key: KeyUndo, label: "Undo last change", run: s.undo})
	add(&action{key: KeyReset, label: "Reset to original", run: s.reset})
	add(&action{key: KeySave, label: "Save", run: s.save})
	add(&action{key: KeyQuit, label: "Quit", run: func() error { return errQuit }})
}

// Buffer returns the current working text
func (s *Session) Buffer() string {
	return s.buffer
}

// Log returns the session activity log
func (s *Session) Log() *models.SessionLog {
	return s.log
}

// Run prompts for choices until the user quits or input ends
func (s *Session) Run() error {
	defer func() { s.log.Finish(len(s.buffer)) }()

	for {
		s.printMenu()
		choice, ok, err := s.prompt("Enter your choice: ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(s.out)
			return nil
		}

		if err := s.Dispatch(choice); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
}

// Dispatch runs the action bound to choice. Unknown choices leave all state untouched.
func (s *Session) Dispatch(choice string) error {
	a, ok := s.actions[deobfuscator.NormalizeKey(choice)]
	if !ok {
		fmt.Fprintln(s.out, s.styles.Error.Render("Invalid option, please try again."))
		return nil
	}
	return a.run()
}

// prompt writes label and reads one line. ok is false at end of input.
func (s *Session) prompt(label string) (string, bool, error) {
	fmt.Fprint(s.out, s.styles.Key.Render(strings.TrimSpace(label))+" ")
	line, err := s.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", false, nil
			}
			return strings.TrimSpace(line), true, nil
		}
		return "", false, fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), true, nil
}

func (s *Session) printMenu() {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, s.styles.Title.Render("PS-Decode"))
	for _, a := range s.menu {
		fmt.Fprintf(s.out, "  %s  %s\n", s.styles.Key.Render(fmt.Sprintf("%-2s", a.key)), s.styles.Label.Render(a.label))
	}
	fmt.Fprintln(s.out)
}

// commit replaces the buffer and records the previous value for undo
func (s *Session) commit(key, rule, result string, changed bool) {
	pass := &models.Pass{
		Key:        key,
		Rule:       rule,
		SizeBefore: len(s.buffer),
		SizeAfter:  len(result),
		Changed:    changed,
		AppliedAt:  time.Now(),
	}
	s.log.AddPass(pass)

	s.logger.Debug("Rule applied",
		zap.String("key", key),
		zap.String("rule", rule),
		zap.Int("size_before", pass.SizeBefore),
		zap.Int("size_after", pass.SizeAfter),
		zap.Bool("changed", changed))

	if changed {
		s.hist.push(s.buffer)
		s.buffer = result
		fmt.Fprintln(s.out, s.styles.OK.Render(fmt.Sprintf("Applied %s (%s bytes)", rule, signed(pass.Delta()))))
	} else {
		fmt.Fprintln(s.out, s.styles.Warn.Render("No changes"))
	}
	s.printCode(s.cfg.PreviewLines)
}

func (s *Session) applyRule(e *deobfuscator.Entry) error {
	result, changed, err := s.manager.Apply(e.Key, s.buffer)
	if err != nil {
		return err
	}
	s.commit(e.Key, e.Deobfuscator.Name(), result, changed)
	return nil
}

func (s *Session) auto() error {
	result, changed := s.manager.Deobfuscate(s.buffer)
	s.commit(KeyAuto, "auto", result, changed)
	return nil
}

func (s *Session) undo() error {
	prev, ok := s.hist.pop()
	if !ok {
		fmt.Fprintln(s.out, s.styles.Warn.Render("Nothing to undo"))
		return nil
	}
	s.buffer = prev
	s.log.Undos++
	s.logger.Debug("Undo", zap.Int("size", len(prev)), zap.Int("remaining", s.hist.len()))
	fmt.Fprintln(s.out, s.styles.OK.Render("Undid last change"))
	return nil
}

func (s *Session) reset() error {
	s.buffer = s.original
	s.hist.clear()
	s.log.Resets++
	s.logger.Debug("Reset", zap.Int("size", len(s.original)))
	fmt.Fprintln(s.out, s.styles.OK.Render("Buffer reset to original input"))
	return nil
}

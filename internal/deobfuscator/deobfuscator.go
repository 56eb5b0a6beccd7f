package deobfuscator

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Deobfuscator is the interface for a single de-obfuscation rule
type Deobfuscator interface {
	Name() string
	Description() string
	CanDeobfuscate(content string) bool
	Deobfuscate(content string) (string, error)
}

// Entry binds a deobfuscator to the menu key that selects it
type Entry struct {
	Key          string
	Deobfuscator Deobfuscator
	Auto         bool // participates in auto mode
}

// reservedKeys are menu keys owned by the session itself
var reservedKeys = map[string]bool{
	"0": true, // show sample
	"a": true, // auto
	"i": true, // inspect
	"u": true, // undo
	"r": true, // reset
	"s": true, // save
	"q": true, // quit
}

// IsReserved reports whether key is owned by the session
func IsReserved(key string) bool {
	return reservedKeys[NormalizeKey(key)]
}

// NormalizeKey trims and lower-cases a menu key
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Manager manages the keyed set of deobfuscators
type Manager struct {
	entries  []*Entry
	byKey    map[string]*Entry
	maxDepth int
	logger   *zap.Logger
}

// NewManager creates a new deobfuscator manager
func NewManager(maxDepth int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		entries:  make([]*Entry, 0),
		byKey:    make(map[string]*Entry),
		maxDepth: maxDepth,
		logger:   logger,
	}
}

// Register registers a deobfuscator under key and enables it for auto mode
func (m *Manager) Register(key string, d Deobfuscator) error {
	return m.register(key, d, true)
}

// RegisterManual registers a deobfuscator that auto mode never runs
func (m *Manager) RegisterManual(key string, d Deobfuscator) error {
	return m.register(key, d, false)
}

func (m *Manager) register(key string, d Deobfuscator, auto bool) error {
	key = NormalizeKey(key)
	if key == "" || strings.ContainsAny(key, " \t") {
		return fmt.Errorf("invalid key %q for %s", key, d.Name())
	}
	if reservedKeys[key] {
		return fmt.Errorf("key %q is reserved", key)
	}
	if existing, ok := m.byKey[key]; ok {
		return fmt.Errorf("key %q already bound to %s", key, existing.Deobfuscator.Name())
	}

	e := &Entry{Key: key, Deobfuscator: d, Auto: auto}
	m.entries = append(m.entries, e)
	m.byKey[key] = e

	m.logger.Debug("Registered deobfuscator",
		zap.String("key", key),
		zap.String("name", d.Name()),
		zap.Bool("auto", auto))
	return nil
}

// Lookup returns the entry bound to key
func (m *Manager) Lookup(key string) (*Entry, bool) {
	e, ok := m.byKey[NormalizeKey(key)]
	return e, ok
}

// Entries returns all entries in registration order
func (m *Manager) Entries() []*Entry {
	out := make([]*Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Applicable returns the entries whose pattern is present in content
func (m *Manager) Applicable(content string) []*Entry {
	var out []*Entry
	for _, e := range m.entries {
		if e.Deobfuscator.CanDeobfuscate(content) {
			out = append(out, e)
		}
	}
	return out
}

// Apply runs the deobfuscator bound to key once. A failing rule leaves content unchanged.
func (m *Manager) Apply(key, content string) (string, bool, error) {
	e, ok := m.Lookup(key)
	if !ok {
		return content, false, fmt.Errorf("no deobfuscator bound to key %q", key)
	}

	result, err := e.Deobfuscator.Deobfuscate(content)
	if err != nil {
		m.logger.Warn("Deobfuscator failed",
			zap.String("name", e.Deobfuscator.Name()),
			zap.Error(err))
		return content, false, nil
	}

	return result, result != content, nil
}

// Deobfuscate runs auto-mode entries until nothing changes or maxDepth is reached
func (m *Manager) Deobfuscate(content string) (string, bool) {
	result := content
	modified := false

	for depth := 0; depth < m.maxDepth; depth++ {
		deobfuscated := false

		for _, e := range m.entries {
			if !e.Auto {
				continue
			}
			d := e.Deobfuscator
			if d.CanDeobfuscate(result) {
				newResult, err := d.Deobfuscate(result)
				if err == nil && newResult != result {
					m.logger.Debug("Auto pass applied",
						zap.String("name", d.Name()),
						zap.Int("depth", depth))
					result = newResult
					deobfuscated = true
					modified = true
					break // Try again from the beginning
				}
			}
		}

		if !deobfuscated {
			break // No more deobfuscation possible
		}
	}

	return result, modified
}

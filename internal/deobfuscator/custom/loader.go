package custom

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Justin-Lund/PS-Decode/internal/deobfuscator"
	"gopkg.in/yaml.v3"
)

// Loader loads custom rules from YAML files
type Loader struct {
	rulesPath string
}

// NewLoader creates a new rule loader
func NewLoader(rulesPath string) *Loader {
	return &Loader{
		rulesPath: rulesPath,
	}
}

// RuleFile represents a YAML rule file
type RuleFile struct {
	Rules []Rule `yaml:"rules"`
}

// Load loads all rules from a file or a directory of YAML files
func (l *Loader) Load() ([]*RegexDeobfuscator, error) {
	var out []*RegexDeobfuscator

	if l.rulesPath == "" {
		return out, nil
	}

	info, err := os.Stat(l.rulesPath)
	if os.IsNotExist(err) {
		return out, nil // No custom rules
	}
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return l.loadFile(l.rulesPath)
	}

	err = filepath.Walk(l.rulesPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories and non-YAML files
		if info.IsDir() || (filepath.Ext(path) != ".yaml" && filepath.Ext(path) != ".yml") {
			return nil
		}

		rules, err := l.loadFile(path)
		if err != nil {
			return err
		}
		out = append(out, rules...)
		return nil
	})

	return out, err
}

// loadFile loads rules from a single YAML file
func (l *Loader) loadFile(path string) ([]*RegexDeobfuscator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	var ruleFile RuleFile
	if err := yaml.Unmarshal(data, &ruleFile); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	out := make([]*RegexDeobfuscator, 0, len(ruleFile.Rules))
	for _, r := range ruleFile.Rules {
		d, err := NewRegexDeobfuscator(r)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		out = append(out, d)
	}

	return out, nil
}

// Register loads every rule and binds it into the manager
func (l *Loader) Register(m *deobfuscator.Manager) (int, error) {
	rules, err := l.Load()
	if err != nil {
		return 0, err
	}

	for _, d := range rules {
		if deobfuscator.IsReserved(d.Key()) {
			return 0, fmt.Errorf("custom rule %s: key %q is reserved for a session action", d.Name(), d.Key())
		}
		if d.Auto() {
			err = m.Register(d.Key(), d)
		} else {
			err = m.RegisterManual(d.Key(), d)
		}
		if err != nil {
			return 0, fmt.Errorf("custom rule %s: %w", d.Name(), err)
		}
	}

	return len(rules), nil
}

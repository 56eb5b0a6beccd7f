package custom

import (
	"fmt"
	"regexp"
)

// Rule is a user-defined regex rule as declared in YAML
type Rule struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Pattern     string `yaml:"pattern"`
	Replace     string `yaml:"replace"`
	Auto        bool   `yaml:"auto"`
}

// RegexDeobfuscator applies a compiled user rule
type RegexDeobfuscator struct {
	rule    Rule
	pattern *regexp.Regexp
}

// NewRegexDeobfuscator compiles a rule
func NewRegexDeobfuscator(rule Rule) (*RegexDeobfuscator, error) {
	if rule.Key == "" {
		return nil, fmt.Errorf("rule %q: missing key", rule.Name)
	}
	if rule.Name == "" {
		return nil, fmt.Errorf("rule with key %q: missing name", rule.Key)
	}
	if rule.Pattern == "" {
		return nil, fmt.Errorf("rule %q: missing pattern", rule.Name)
	}

	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return nil, fmt.Errorf("rule %q: invalid pattern: %w", rule.Name, err)
	}

	return &RegexDeobfuscator{rule: rule, pattern: re}, nil
}

// Name returns the deobfuscator name
func (d *RegexDeobfuscator) Name() string {
	return d.rule.Name
}

// Description returns the menu label
func (d *RegexDeobfuscator) Description() string {
	if d.rule.Description != "" {
		return d.rule.Description
	}
	return d.rule.Name
}

// Key returns the menu key the rule asks for
func (d *RegexDeobfuscator) Key() string {
	return d.rule.Key
}

// Auto reports whether the rule takes part in auto mode
func (d *RegexDeobfuscator) Auto() bool {
	return d.rule.Auto
}

// CanDeobfuscate checks if the pattern occurs in content
func (d *RegexDeobfuscator) CanDeobfuscate(content string) bool {
	return d.pattern.MatchString(content)
}

// Deobfuscate replaces every match, expanding $1-style references
func (d *RegexDeobfuscator) Deobfuscate(content string) (string, error) {
	return d.pattern.ReplaceAllString(content, d.rule.Replace), nil
}

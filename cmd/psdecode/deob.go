package main

import (
	"fmt"
	"os"

	"github.com/Justin-Lund/PS-Decode/internal/config"
	"github.com/Justin-Lund/PS-Decode/internal/deobfuscator"
	"github.com/Justin-Lund/PS-Decode/internal/filesystem"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// deobCmd creates the non-interactive deobfuscate command
func deobCmd() *cobra.Command {
	var (
		rules     string
		output    string
		rulesPath string
	)

	cmd := &cobra.Command{
		Use:   "deob <file>",
		Short: "Deobfuscate a file and print result to stdout",
		Long: `Apply a comma-separated sequence of rule keys (e.g. --rules 2,7,1,3) to a file,
or every automatic rule until nothing changes (--rules auto), and print the result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(); err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return err
			}
			if rulesPath != "" {
				cfg.RulesPath = rulesPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			script, err := filesystem.ReadScript(args[0], filesystem.ParseSize(cfg.MaxSize))
			if err != nil {
				return err
			}

			manager, err := buildManager(cfg)
			if err != nil {
				return err
			}

			result, modified, err := runRules(manager, script.Content, rules)
			if err != nil {
				return err
			}

			if !modified {
				fmt.Fprintf(os.Stderr, "%s⚠ No obfuscation detected or nothing to deobfuscate%s\n", colorYellow, colorReset)
			} else {
				fmt.Fprintf(os.Stderr, "%s✓ Deobfuscation applied%s\n\n", colorOrange, colorReset)
			}

			if output != "" {
				if err := filesystem.WriteScript(output, result); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "  %sSaved:%s %s\n", colorGray, colorReset, output)
				return nil
			}

			fmt.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&rules, "rules", "auto", "Rule keys to apply in order, or auto")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result to a file instead of stdout")
	cmd.Flags().StringVar(&rulesPath, "rules-path", "", "YAML custom rules file or directory")

	return cmd
}

// runRules applies the requested rule sequence, or auto mode
func runRules(manager *deobfuscator.Manager, content, rules string) (string, bool, error) {
	if deobfuscator.NormalizeKey(rules) == "auto" {
		result, modified := manager.Deobfuscate(content)
		return result, modified, nil
	}

	keys := parseRuleList(rules)
	if len(keys) == 0 {
		return "", false, fmt.Errorf("no rules given")
	}

	result := content
	modified := false
	for _, key := range keys {
		next, changed, err := manager.Apply(key, result)
		if err != nil {
			return "", false, err
		}
		logger.Debug("Pass applied", zap.String("key", key), zap.Bool("changed", changed))
		result = next
		modified = modified || changed
	}

	return result, modified, nil
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Justin-Lund/PS-Decode/internal/config"
	"github.com/Justin-Lund/PS-Decode/internal/deobfuscator"
	"github.com/Justin-Lund/PS-Decode/internal/deobfuscator/custom"
	"github.com/Justin-Lund/PS-Decode/internal/deobfuscator/powershell"
	"github.com/Justin-Lund/PS-Decode/internal/filesystem"
	"github.com/Justin-Lund/PS-Decode/internal/report"
	"github.com/Justin-Lund/PS-Decode/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorOrange = "\033[38;5;208m"
	colorYellow = "\033[38;5;220m"
	colorGray   = "\033[38;5;245m"
	colorCyan   = "\033[36m"
)

var (
	version    = "1.0.0"
	logger     *zap.Logger
	verbose    bool
	configFile string
)

func main() {
	root := rootCmd()

	// Global flags
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file")

	// Disable built-in help command
	root.SetHelpCommand(&cobra.Command{Hidden: true})

	// Add commands
	root.AddCommand(deobCmd())
	root.AddCommand(rulesCmd())
	root.AddCommand(helpCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initLogger builds the development logger with -v, otherwise a silent error-only logger
func initLogger() error {
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.Config{
			Level:            zap.NewAtomicLevelAt(zapcore.ErrorLevel),
			Encoding:         "json",
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
			EncoderConfig:    zap.NewProductionEncoderConfig(),
		}
		logger, err = cfg.Build()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
	}
	return err
}

// buildManager registers the built-in rules and any custom rules from rulesPath
func buildManager(cfg *config.Config) (*deobfuscator.Manager, error) {
	manager := deobfuscator.NewManager(cfg.MaxDepth, logger)
	if err := powershell.RegisterBuiltins(manager); err != nil {
		return nil, err
	}

	n, err := custom.NewLoader(cfg.RulesPath).Register(manager)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom rules: %w", err)
	}
	if n > 0 {
		logger.Info("Loaded custom rules", zap.Int("count", n), zap.String("path", cfg.RulesPath))
	}

	return manager, nil
}

// rootCmd creates the interactive session command
func rootCmd() *cobra.Command {
	var (
		input        string
		output       string
		noColor      bool
		style        string
		maxSize      string
		sampleLines  int
		previewLines int
		rulesPath    string
		reportFormat string
		reportOutput string
	)

	cmd := &cobra.Command{
		Use:   "psdecode",
		Short: "PS-Decode - Interactive PowerShell de-obfuscator",
		Long: `Load an obfuscated PowerShell script and undo its obfuscation one pass at a time:
re-ordered format strings, backticks, concatenation, char casts and scrambled case.`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(); err != nil {
				return err
			}
			defer logger.Sync()

			// Load configuration
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				logger.Error("Failed to load config", zap.Error(err))
				return err
			}

			// Override config with CLI flags
			flags := cmd.Flags()
			if input != "" {
				cfg.Input = input
			}
			if output != "" {
				cfg.Output = output
			}
			if noColor {
				cfg.Color = false
			}
			if style != "" {
				cfg.Style = style
			}
			if maxSize != "" {
				cfg.MaxSize = maxSize
			}
			if flags.Changed("sample-lines") {
				cfg.SampleLines = sampleLines
			}
			if flags.Changed("preview-lines") {
				cfg.PreviewLines = previewLines
			}
			if rulesPath != "" {
				cfg.RulesPath = rulesPath
			}
			if reportFormat != "" {
				cfg.ReportFormat = reportFormat
			}
			if reportOutput != "" {
				cfg.ReportOutput = reportOutput
			}

			if err := cfg.Validate(); err != nil {
				fmt.Printf("\n  %s✗ Invalid parameter:%s %s\n\n", colorRed, colorReset, err.Error())
				return err
			}

			if cfg.Input == "" {
				printMainBanner()
				return cmd.Help()
			}

			script, err := filesystem.ReadScript(cfg.Input, filesystem.ParseSize(cfg.MaxSize))
			if err != nil {
				return err
			}

			manager, err := buildManager(cfg)
			if err != nil {
				return err
			}

			printBanner(script.Path, script.Encoding, len(script.Content))

			s := session.New(script, cfg, manager, os.Stdin, os.Stdout, logger)
			s.Log().Version = version
			if err := s.Run(); err != nil {
				logger.Error("Session failed", zap.Error(err))
				return err
			}

			path, err := report.NewGenerator(cfg, logger).Generate(s.Log())
			if err != nil {
				logger.Error("Failed to write report", zap.Error(err))
				return nil
			}
			if path != "" {
				fmt.Printf("  %sReport:%s    %s%s%s\n\n", colorGray, colorReset, colorOrange, path, colorReset)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "PowerShell script to de-obfuscate")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Save destination (prompted when empty)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable styling and syntax highlighting")
	cmd.Flags().StringVar(&style, "style", "", "Syntax highlighting style (default: monokai)")
	cmd.Flags().StringVar(&maxSize, "max-size", "", "Maximum input size (default: 10M)")
	cmd.Flags().IntVar(&sampleLines, "sample-lines", 0, "Default number of lines for show sample (0 = all)")
	cmd.Flags().IntVar(&previewLines, "preview-lines", 0, "Lines printed after each change (0 = all)")
	cmd.Flags().StringVar(&rulesPath, "rules-path", "", "YAML custom rules file or directory")
	cmd.Flags().StringVarP(&reportFormat, "report", "r", "", "Session report format: text, json, md (default: console summary)")
	cmd.Flags().StringVar(&reportOutput, "report-output", "", "Session report path")

	return cmd
}

// printMainBanner prints the main banner
func printMainBanner() {
	fmt.Println()
	fmt.Printf("%s", colorOrange)
	fmt.Println("█▀█ █▀   █▀▄ █▀▀ █▀▀ █▀█ █▀▄ █▀▀")
	fmt.Println("█▀▀ ▄█ ▄ █▄▀ ██▄ █▄▄ █▄█ █▄▀ ██▄")
	fmt.Printf("%s", colorReset)
	fmt.Println()
	fmt.Printf("%sPowerShell De-obfuscator v%s%s\n", colorGray, version, colorReset)
	fmt.Println()
}

// printBanner prints the session banner
func printBanner(path, encoding string, size int) {
	printMainBanner()
	fmt.Printf("  %sInput:%s     %s\n", colorGray, colorReset, path)
	fmt.Printf("  %sEncoding:%s  %s\n", colorGray, colorReset, encoding)
	fmt.Printf("  %sSize:%s      %d bytes\n", colorGray, colorReset, size)
}

// rulesCmd lists the registered rules
func rulesCmd() *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List available rules",
		Long:  `Display every rule bound to a menu key, including custom YAML rules.`,
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

			manager, err := buildManager(cfg)
			if err != nil {
				return err
			}

			fmt.Println("RULES:")
			for _, e := range manager.Entries() {
				mark := "○"
				if e.Auto {
					mark = "✓"
				}
				fmt.Printf("  %s %-3s %-12s %s\n", mark, e.Key, e.Deobfuscator.Name(), e.Deobfuscator.Description())
			}
			fmt.Println("")
			fmt.Println("  ✓ runs in auto mode   ○ manual only")
			fmt.Println("")
			fmt.Println("SESSION KEYS:")
			fmt.Println("  0   Show code sample")
			fmt.Println("  a   Auto")
			fmt.Println("  i   Inspect buffer")
			fmt.Println("  u   Undo last change")
			fmt.Println("  r   Reset to original")
			fmt.Println("  s   Save")
			fmt.Println("  q   Quit")
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules-path", "", "YAML custom rules file or directory")
	return cmd
}

// helpCmd creates a detailed help command
func helpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "help",
		Short: "Show detailed help and documentation",
		Long:  `Display complete documentation including all commands, flags, and examples.`,
		Run: func(cmd *cobra.Command, args []string) {
			printMainBanner()

			fmt.Printf("%s%sABOUT%s\n\n", colorBold, colorOrange, colorReset)
			fmt.Printf("  PS-Decode loads an obfuscated PowerShell script into a working buffer and\n")
			fmt.Printf("  lets you undo each obfuscation technique as a separate, reversible pass.\n\n")

			fmt.Printf("%s%sCOMMANDS%s\n\n", colorBold, colorOrange, colorReset)
			fmt.Printf("  %spsdecode -i <file>%s  Start an interactive session\n", colorBold, colorReset)
			fmt.Printf("  %sdeob <file>%s         Apply rules non-interactively and print the result\n", colorBold, colorReset)
			fmt.Printf("  %srules%s               Show all available rules\n", colorBold, colorReset)

			fmt.Printf("\n%s%sSESSION FLAGS%s\n\n", colorBold, colorOrange, colorReset)
			fmt.Printf("  %s-i, --input%s <file>  Script to load\n", colorBold, colorReset)
			fmt.Printf("  %s-o, --output%s <file> Save destination (prompted when empty)\n", colorBold, colorReset)
			fmt.Printf("  %s--no-color%s          Disable styling and syntax highlighting\n", colorBold, colorReset)
			fmt.Printf("  %s--style%s <name>      Highlighting style (default: monokai)\n", colorBold, colorReset)
			fmt.Printf("  %s--rules-path%s <path> YAML custom rules file or directory\n", colorBold, colorReset)
			fmt.Printf("  %s-r, --report%s <fmt>  Session report: %stext%s, %sjson%s, %smd%s\n",
				colorBold, colorReset, colorCyan, colorReset, colorCyan, colorReset, colorCyan, colorReset)

			fmt.Printf("\n%s%sGLOBAL FLAGS%s\n\n", colorBold, colorOrange, colorReset)
			fmt.Printf("  %s-v, --verbose%s       Enable verbose logging\n", colorBold, colorReset)
			fmt.Printf("  %s--config%s <file>     YAML config file (env: PSDECODE_*)\n", colorBold, colorReset)
			fmt.Printf("  %s--version%s           Show version\n", colorBold, colorReset)

			fmt.Printf("\n%s%sEXAMPLES%s\n\n", colorBold, colorOrange, colorReset)
			fmt.Printf("  %s# Interactive session%s\n", colorGray, colorReset)
			fmt.Printf("  psdecode -i dropper.ps1 -o clean.ps1\n\n")
			fmt.Printf("  %s# Fixed pass order, scripted%s\n", colorGray, colorReset)
			fmt.Printf("  psdecode deob --rules 2,7,1,3 dropper.ps1\n\n")
			fmt.Printf("  %s# All automatic rules until nothing changes%s\n", colorGray, colorReset)
			fmt.Printf("  psdecode deob dropper.ps1 > clean.ps1\n\n")
		},
	}
}

// parseRuleList splits a comma-separated key list
func parseRuleList(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = deobfuscator.NormalizeKey(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Package main provides the cardwire binary entry point.
// Cardwire discovers card types marked with //cardwire:register and
// generates the registrars that add them to a card registry.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/cardwire/config"
	"github.com/c360studio/cardwire/discovery"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "cardwire"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	outDir     string
	pkg        string
	prefix     string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Compile-time card registration",
		Long: `Cardwire finds types marked with //cardwire:register and generates
registrar functions that add a fresh instance of each to a card registry.

Typical use from a package directory:

  //go:generate go run github.com/c360studio/cardwire/cmd/cardwire generate --out ../../generate .`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.outDir, "out", "", "Generated package directory, relative to the scan root")
	cmd.PersistentFlags().StringVar(&flags.pkg, "package", "", "Package name of generated files")
	cmd.PersistentFlags().StringVar(&flags.prefix, "prefix", "", "Registrar function name prefix")

	cmd.AddCommand(
		initCmd(flags),
		generateCmd(flags),
		aggregateCmd(flags),
		listCmd(flags),
		watchCmd(flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

func initCmd(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default " + config.ProjectConfigFile + " into dir",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootArg(args)
			info, err := os.Stat(dir)
			if err != nil {
				return fmt.Errorf("stat dir: %w", err)
			}
			if !info.IsDir() {
				return fmt.Errorf("not a directory: %s", dir)
			}

			path := filepath.Join(dir, config.ProjectConfigFile)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.DefaultConfig()
			cfg.Merge(&config.Config{
				Output: config.OutputConfig{
					Dir:     flags.outDir,
					Package: flags.pkg,
					Prefix:  flags.prefix,
				},
			})
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := cfg.SaveToFile(path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func generateCmd(flags *globalFlags) *cobra.Command {
	var aggregate bool

	cmd := &cobra.Command{
		Use:   "generate [dir]",
		Short: "Generate the registrar for the card packages below dir",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags, rootArg(args))
			if err != nil {
				return err
			}
			file, err := app.Generate(cmd.Context(), aggregate)
			if err != nil {
				return err
			}
			if file == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no card types found")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d card(s) -> %s\n", file.Name, file.Cards, file.Filename)
			return nil
		},
	}

	cmd.Flags().BoolVar(&aggregate, "aggregate", false, "Rewrite the InitAll entry point afterwards")
	return cmd
}

func aggregateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate [dir]",
		Short: "Write InitAll calling every registrar in the generated package",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags, rootArg(args))
			if err != nil {
				return err
			}
			regs, err := app.Aggregate()
			if err != nil {
				return err
			}
			for _, name := range regs.Names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func listCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir-or-pattern...]",
		Short: "List discovered card types without generating code",
		Long: `List discovered card types without generating code.

Arguments are directories or doublestar patterns such as "./business*/card";
each resolved directory is scanned on its own.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			roots, err := discovery.ResolveRoots(args)
			if err != nil {
				return err
			}
			for _, root := range roots {
				app, err := newApp(flags, root)
				if err != nil {
					return err
				}
				set, err := app.Discover(cmd.Context())
				if err != nil {
					return err
				}
				for _, rt := range set.Sorted() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", rt.QualifiedName(), rt.Constructor, rt.Pos)
				}
			}
			return nil
		},
	}
}

func watchCmd(flags *globalFlags) *cobra.Command {
	var aggregate bool

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Regenerate the registrar whenever sources change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags, rootArg(args))
			if err != nil {
				return err
			}

			// Setup signal handling
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return app.Watch(ctx, aggregate)
		},
	}

	cmd.Flags().BoolVar(&aggregate, "aggregate", false, "Rewrite the InitAll entry point after each pass")
	return cmd
}

func rootArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// newApp configures logging, loads the layered config for root and applies
// command-line overrides.
func newApp(flags *globalFlags, root string) (*App, error) {
	logger := newLogger(flags.logLevel)
	slog.SetDefault(logger)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	cfg, err := config.NewLoader(logger).Load(root, flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Merge(&config.Config{
		Output: config.OutputConfig{
			Dir:     flags.outDir,
			Package: flags.pkg,
			Prefix:  flags.prefix,
		},
	})
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return NewApp(cfg, root, logger)
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/recera/tmapview/cmd/tmapview/internal/config"
	"github.com/recera/tmapview/pkg/viewer"
)

var (
	version = "0.1.0-preview"
	commit  = "dev"
	date    = "unknown"
)

// app carries what every command needs after the root's pre-run
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log zerolog.Logger
}

func main() {
	a := &app{}

	var rootCmd = &cobra.Command{
		Use:   "tmapview",
		Short: "tmapview - point cloud selection and inspection",
		Long: `tmapview serves and inspects 2D/3D point cloud datasets: vertex selection,
hover labels, named vertex watchers and viewport-synchronized annotations,
over a live websocket protocol or in the terminal.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a config file (default ./tmapview.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override (trace, debug, info, warn, error)")

	// Add commands
	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newInspectCommand(a))
	rootCmd.AddCommand(newBoundsCommand(a))
	rootCmd.AddCommand(newSearchCommand(a))
	rootCmd.AddCommand(newBookmarksCommand(a))
	rootCmd.AddCommand(newInitCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) setup() error {
	cfg, err := config.Load(".", a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	a.cfg = cfg
	a.log = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}).Level(level).With().Timestamp().Logger()
	return nil
}

// viewerOptions converts the viewer section of the config
func (a *app) viewerOptions() *viewer.Options {
	return &viewer.Options{
		DevicePixelRatio: a.cfg.Viewer.DevicePixelRatio,
		ZoomPadding:      a.cfg.Viewer.ZoomPadding,
		Strict:           a.cfg.Viewer.Strict,
		Logger:           &a.log,
	}
}

// datasetPath returns the positional dataset argument or the configured one
func (a *app) datasetPath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if a.cfg.Dataset != "" {
		return a.cfg.Dataset, nil
	}
	return "", fmt.Errorf("no dataset given and none configured in %s", config.FileName)
}

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/soapmap/pkg/adapter"
	"github.com/getmockd/soapmap/pkg/config"
	"github.com/getmockd/soapmap/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	configPath string
	jsonOutput bool
	logLevel   string
	logFormat  string
	logFile    string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "soapmap",
	Short: "soapmap calls SOAP services through declarative field mappings",
	Long: `soapmap maps record-style requests onto SOAP operations and SOAP responses
back onto typed records, as declared in a configuration file.

By default, soapmap looks for soapmap.yaml, soapmap.yml or soapmap.json in the
current directory. SOAPMAP_CONFIG or --config select another file.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Run()
}

// Run executes the root command with os.Args and returns the process exit
// code.
func Run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	os.Exit(Run())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: discover soapmap.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: warn)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append JSON logs to this file")
}

// session is a loaded configuration with its registry and logger.
type session struct {
	file     *config.File
	registry *adapter.Registry
	logger   *slog.Logger
	closer   io.Closer
}

func (s *session) Close() error {
	return s.closer.Close()
}

// openSession loads the configuration, opens the logger it and the flags
// describe, and builds the registry.
func openSession(ctx context.Context, stderr io.Writer) (*session, error) {
	path := configPath
	if path == "" {
		discovered, err := config.DiscoverConfig()
		if err != nil {
			return nil, err
		}
		path = discovered
	}

	f, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	logger, closer, err := openLogger(f.Logging, stderr)
	if err != nil {
		return nil, err
	}

	b, err := f.Builder(adapter.WithBuilderLogger(logger))
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	reg, err := b.Build(ctx)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	return &session{file: f, registry: reg, logger: logger, closer: closer}, nil
}

// openLogger applies the config logging defaults, then the flags.
func openLogger(defaults *config.LoggingConfig, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, format, file := "warn", "text", ""
	if defaults != nil {
		level = firstNonEmpty(defaults.Level, level)
		format = firstNonEmpty(defaults.Format, format)
		file = defaults.File
	}
	level = firstNonEmpty(logLevel, level)
	format = firstNonEmpty(logFormat, format)
	file = firstNonEmpty(logFile, file)

	return logging.Open(logging.Config{
		Level:  logging.ParseLevel(level),
		Format: logging.ParseFormat(format),
		Output: stderr,
	}, file)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

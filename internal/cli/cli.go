package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/exrun/internal/app"
	"github.com/vk/exrun/internal/config"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("exrun", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
exrun - runs annotated example programs in dependency order.

Every command block found in the source tree becomes one invocation of the
program named after its source file. Blocks that consume an artifact run
after the block producing it.

Usage:
  exrun [options] [SOURCE_DIR]

Arguments:
  SOURCE_DIR
    Root of the annotated sources. Same as -source-dir.

Options:
`)
		flagSet.PrintDefaults()
	}

	var searchPaths, skipDirs stringList
	configFlag := flagSet.String("config", "", "Path to an HCL settings file. Flags override its values.")
	sourceDirFlag := flagSet.String("source-dir", "", "Root of the annotated example sources.")
	buildDirFlag := flagSet.String("build-dir", "", "Build tree used to expand the default search paths.")
	execDirFlag := flagSet.String("exec-dir", "", "Directory holding the built example programs.")
	outputDirFlag := flagSet.String("output-dir", "", "Root for generated artifacts.")
	flagSet.Var(&searchPaths, "search-path", "Directory searched for input files. Repeatable; replaces the defaults.")
	extFlag := flagSet.String("ext", "", fmt.Sprintf("Source file extension (default %q).", config.DefaultExtension))
	flagSet.Var(&skipDirs, "skip-dir", fmt.Sprintf("Skip directories whose path contains this marker. Repeatable (default %q).", config.DefaultSkipMarker))
	timeoutFlag := flagSet.Duration("block-timeout", 0, "Maximum run time of one block, e.g. 10m. 0 means no limit.")
	strictFlag := flagSet.Bool("strict", false, "Treat an unterminated command block as a parse error.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Print the ordered command lines without running them.")
	manifestFlag := flagSet.Bool("manifest", false, "Write the CMake dependency manifest after the run.")
	reportFlag := flagSet.String("report", "", "Write a YAML run report to this path.")
	socketIOFlag := flagSet.String("report-socketio", "", "Stream block results to a Socket.IO server, e.g. http://localhost:3000/exrun.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	otelFlag := flagSet.String("otel-endpoint", "", "OTLP/gRPC collector address for traces. Empty disables tracing.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	keepGoingFlag := flagSet.Bool("keep-going-exit-zero", false, "Exit with status 0 even if some blocks failed.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	sourceDir := *sourceDirFlag
	switch {
	case flagSet.NArg() > 1:
		return nil, false, &ExitError{Code: 2, Message: "at most one SOURCE_DIR argument is allowed"}
	case flagSet.NArg() == 1 && sourceDir != "" && sourceDir != flagSet.Arg(0):
		return nil, false, &ExitError{Code: 2, Message: "SOURCE_DIR argument conflicts with -source-dir"}
	case flagSet.NArg() == 1:
		sourceDir = flagSet.Arg(0)
	}

	if sourceDir == "" && *configFlag == "" {
		slog.Debug("No source dir or config file provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *timeoutFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid block-timeout: must not be negative"}
	}
	slog.Debug("CLI parameter validation complete.")

	cfg, err := app.NewConfig(app.Config{
		ConfigPath: *configFlag,
		Settings: config.Settings{
			SourceDir:    sourceDir,
			BuildDir:     *buildDirFlag,
			OutputDir:    *outputDirFlag,
			ExecDir:      *execDirFlag,
			SearchPaths:  searchPaths,
			SkipDirs:     skipDirs,
			Extension:    *extFlag,
			BlockTimeout: *timeoutFlag,
			Strict:       *strictFlag,
			Manifest:     *manifestFlag,
			ReportPath:   *reportFlag,
			SocketIOURL:  *socketIOFlag,
			OTelEndpoint: *otelFlag,
		},
		LogFormat:         logFormat,
		LogLevel:          logLevel,
		HealthcheckPort:   *healthPortFlag,
		DryRun:            *dryRunFlag,
		KeepGoingExitZero: *keepGoingFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"recordkit/internal/analysis"
	"recordkit/internal/metrics"
	"recordkit/internal/metrics/promfile"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
)

var (
	// Global flags
	logLevel    string
	metricsFile string
	outFormat   string

	// Set up per invocation by setupRun.
	runner   *analysis.Runner
	recorder *metrics.Recorder
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "recordkit",
	Short: "Extract, validate and aggregate records from text, CSV and JSON",
	Long: `recordkit turns semi-structured input into typed records and reports
on them.

Analyses:
  recordkit levels app.log         # log level counts and errors
  recordkit revenue sales.csv      # revenue per product
  recordkit flatten response.json  # users x posts rows

Rule files:
  recordkit run --rules rules/access-log.yaml access.log
  recordkit lint rules/users.yaml`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupRun,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// execute runs rootCmd with args and flushes metrics afterwards, also when
// the command failed.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	recorder = nil
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.Execute()
	if recorder != nil {
		if ferr := recorder.Flush(); ferr != nil && err == nil {
			err = fmt.Errorf("flush metrics: %w", ferr)
		}
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().StringVarP(&outFormat, "format", "f", formatText, "output format (text, json)")
}

// newLogger builds the console logger written to w.
func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger(), nil
}

// setupRun builds the logger, the metrics recorder and the runner for the
// command about to run. The command name is the metrics job.
func setupRun(cmd *cobra.Command, args []string) error {
	if outFormat != formatText && outFormat != formatJSON {
		return fmt.Errorf("invalid --format %q (text, json)", outFormat)
	}
	log, err := newLogger(cmd.ErrOrStderr(), logLevel)
	if err != nil {
		return err
	}

	var backend metrics.Backend
	if metricsFile != "" {
		b, err := promfile.NewBackend(cmd.Name(), metricsFile)
		if err != nil {
			return err
		}
		backend = b
	}
	recorder = metrics.NewRecorder(cmd.Name(), backend)
	runner = analysis.NewRunner(log, recorder)
	lg := runner.Logger()
	lg.Debug().Strs("args", args).Msg("starting")
	return nil
}

// emit writes rep to the command output in the selected format.
func emit(cmd *cobra.Command, rep analysis.Report) error {
	out := cmd.OutOrStdout()
	if outFormat == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	for _, line := range rep.Lines() {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

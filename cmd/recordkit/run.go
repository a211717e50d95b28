package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recordkit/internal/analysis"
	"recordkit/internal/config"
	"recordkit/internal/extract"
	"recordkit/internal/probe"
	"recordkit/internal/tree"
)

var (
	rulesFile  string
	inferTypes bool
	lintStrict bool
)

var runCmd = &cobra.Command{
	Use:   "run --rules <file> <input>...",
	Short: "Run a rule file over an input",
	Long: `Run a YAML or JSON rule file: extract records, validate them when the
file has a validate block, then run every aggregate step in order.

The input is read according to the extract kind: lines for line rules, a
JSON or YAML document for path rules, a CSV table for row rules and one or
more key-value documents (files or directories) for kv rules.

A row rule without declared fields reads every column as text; with
--infer-types the column types are inferred from the table first.

Examples:
  recordkit run --rules rules/app-log-levels.yaml app.log
  recordkit run --rules rules/sales.json sales.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRules,
}

var lintCmd = &cobra.Command{
	Use:   "lint <rules>...",
	Short: "Check rule files without running them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLint,
}

func init() {
	runCmd.Flags().StringVarP(&rulesFile, "rules", "r", "", "rule file (YAML or JSON)")
	_ = runCmd.MarkFlagRequired("rules")
	runCmd.Flags().StringVarP(&csvDelimiter, "delimiter", "d", ",", `CSV field delimiter for row rules ("\t" for tabs)`)
	runCmd.Flags().BoolVar(&inferTypes, "infer-types", false, "infer column types for row rules that declare no fields")
	lintCmd.Flags().BoolVar(&lintStrict, "strict", false, "treat warnings as errors")

	rootCmd.AddCommand(runCmd, lintCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	rs, err := config.Load(rulesFile)
	if err != nil {
		return err
	}
	for _, iss := range config.Lint(rs) {
		if iss.Severity == config.SeverityWarning {
			lg := runner.Logger()
			lg.Warn().Str("path", iss.Path).Msg(iss.Message)
		}
	}
	c, err := config.Compile(rs)
	if err != nil {
		return err
	}

	var in analysis.Input
	switch c.Kind {
	case "kv":
		in.Docs, err = readDocs(cmd, args)
	case "line":
		in.Lines, err = oneArg(args, func(p string) ([]string, error) { return readLines(cmd, p) })
	case "path":
		in.Doc, err = oneArg(args, func(p string) (*tree.Node, error) { return readDoc(cmd, p) })
	case "row":
		var t analysis.Table
		t, err = oneArg(args, func(p string) (analysis.Table, error) {
			return readTable(cmd, p, probe.DecodeDelimiter(csvDelimiter))
		})
		in.Table = &t
	}
	if err != nil {
		return err
	}
	if inferTypes && c.Kind == "row" && len(rs.Extract.Fields) == 0 {
		profile := probe.Infer(probe.SampleRows(in.Table.Header, in.Table.Rows, 0))
		spec := profile.RowSpec(rs.Extract.Name, false)
		spec.Normalize = rs.Extract.Normalize
		if c.Row, err = extract.NewRowRule(spec); err != nil {
			return err
		}
		lg := runner.Logger()
		lg.Info().Int("columns", len(profile.Columns)).Msg("row rule built from inferred column types")
	}

	rep, err := runner.Rules(c, in)
	if err != nil {
		return err
	}
	return emit(cmd, rep)
}

// oneArg reads the single input of a rule kind that takes one file.
func oneArg[T any](args []string, read func(string) (T, error)) (T, error) {
	if len(args) != 1 {
		var zero T
		return zero, fmt.Errorf("expected one input, got %d", len(args))
	}
	return read(args[0])
}

func runLint(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		rs, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", path, err)
			failed++
			continue
		}
		issues := config.Lint(rs)
		if len(issues) == 0 {
			fmt.Fprintf(out, "%s: ok\n", path)
			continue
		}
		for _, iss := range issues {
			fmt.Fprintf(out, "%s: %s at %s: %s\n", path, iss.Severity, iss.Path, iss.Message)
		}
		if len(config.Errors(issues)) > 0 || lintStrict {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d rule files failed lint", failed, len(args))
	}
	return nil
}

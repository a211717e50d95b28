package main

import (
	"github.com/spf13/cobra"
)

var levelsCmd = &cobra.Command{
	Use:   "levels <app.log>",
	Short: "Count log levels and list error messages",
	Long: `Count "YYYY-MM-DD HH:MM:SS LEVEL message" lines per level.

INFO, DEBUG, WARN and ERROR are always reported, in that order. The message
of every ERROR line is listed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := readLines(cmd, args[0])
		if err != nil {
			return err
		}
		return emit(cmd, runner.LogLevels(lines))
	},
}

var accessCmd = &cobra.Command{
	Use:   "access <access.log>",
	Short: "Summarize methods, status codes and paths of an access log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := readLines(cmd, args[0])
		if err != nil {
			return err
		}
		return emit(cmd, runner.AccessLog(lines))
	},
}

var timestampsCmd = &cobra.Command{
	Use:   "timestamps <app.log>",
	Short: "Report the time span covered by a log",
	Long: `Report the first and last timestamp of a log, the whole minutes between
them and the number of timestamped lines. Lines are taken to be in
chronological order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := readLines(cmd, args[0])
		if err != nil {
			return err
		}
		rep, err := runner.Timestamps(lines)
		if err != nil {
			return err
		}
		return emit(cmd, rep)
	},
}

func init() {
	rootCmd.AddCommand(levelsCmd, accessCmd, timestampsCmd)
}

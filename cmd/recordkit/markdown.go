package main

import (
	"github.com/spf13/cobra"
)

var changelogCmd = &cobra.Command{
	Use:   "changelog <CHANGELOG.md>",
	Short: "List released versions and count Added, Changed and Fixed sections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := readLines(cmd, args[0])
		if err != nil {
			return err
		}
		return emit(cmd, runner.Changelog(lines))
	},
}

var headersCmd = &cobra.Command{
	Use:   "headers <doc.md>",
	Short: "Build a table of contents and count headings per level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := readLines(cmd, args[0])
		if err != nil {
			return err
		}
		return emit(cmd, runner.Headers(lines))
	},
}

var linksCmd = &cobra.Command{
	Use:   "links <doc.md>",
	Short: "List [text](url) links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readText(cmd, args[0])
		if err != nil {
			return err
		}
		return emit(cmd, runner.Links(doc))
	},
}

var envCmd = &cobra.Command{
	Use:   "env <.env>",
	Short: "Parse a .env file, masking secrets and reporting malformed lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := readLines(cmd, args[0])
		if err != nil {
			return err
		}
		return emit(cmd, runner.EnvFile(lines))
	},
}

func init() {
	rootCmd.AddCommand(changelogCmd, headersCmd, linksCmd, envCmd)
}

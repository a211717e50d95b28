package main

import (
	"github.com/spf13/cobra"
)

var minAge int64

var kvCmd = &cobra.Command{
	Use:   "kv <file-or-dir>...",
	Short: `Turn "key: value" documents into JSON records`,
	Long: `Turn "key: value" text documents into records, one per file. Directory
arguments contribute their *.txt files in name order. The age key is read as
an integer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := readDocs(cmd, args)
		if err != nil {
			return err
		}
		return emit(cmd, runner.KVRecords(docs))
	},
}

var peopleCmd = &cobra.Command{
	Use:   "people <file-or-dir>...",
	Short: "List people older than --min-age from key-value documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := readDocs(cmd, args)
		if err != nil {
			return err
		}
		return emit(cmd, runner.PeopleOver(docs, minAge))
	},
}

func init() {
	peopleCmd.Flags().Int64Var(&minAge, "min-age", 28, "exclusive lower age bound")
	rootCmd.AddCommand(kvCmd, peopleCmd)
}

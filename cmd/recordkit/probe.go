package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"recordkit/internal/probe"
)

var (
	probeMaxRows   int
	probeDelimiter string
)

var probeCmd = &cobra.Command{
	Use:   "probe <file.csv>",
	Short: "Infer column names and types from a CSV sample",
	Long: `Read up to --max-rows rows of a CSV file and infer, per column, a field
name and one of the kinds text, integer, boolean, real, date or timestamp.
Malformed rows are dropped from the sample.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := open(cmd, args[0])
		if err != nil {
			return err
		}
		defer rc.Close()

		sample, err := probe.ReadSample(rc, probe.DecodeDelimiter(probeDelimiter), probeMaxRows)
		if err != nil {
			return err
		}
		if sample.Dropped > 0 {
			lg := runner.Logger()
			lg.Warn().Int("dropped", sample.Dropped).Msg("malformed rows left out of the sample")
		}
		profile := probe.Infer(sample)

		if outFormat == formatJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(profile)
		}
		_, err = cmd.OutOrStdout().Write(profile.Render())
		return err
	},
}

func init() {
	probeCmd.Flags().IntVar(&probeMaxRows, "max-rows", probe.DefaultMaxRows, "rows to sample")
	probeCmd.Flags().StringVarP(&probeDelimiter, "delimiter", "d", ",", `CSV field delimiter ("\t" for tabs)`)
	rootCmd.AddCommand(probeCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"recordkit/internal/analysis"
	"recordkit/internal/probe"
)

// csvDelimiter is shared by the CSV commands.
var csvDelimiter string

func tableArg(cmd *cobra.Command, args []string) (analysis.Table, error) {
	return readTable(cmd, args[0], probe.DecodeDelimiter(csvDelimiter))
}

var usersCmd = &cobra.Command{
	Use:   "users <users.csv>",
	Short: "Validate the email, phone and created_at columns of a users table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := tableArg(cmd, args)
		if err != nil {
			return err
		}
		rep, err := runner.ValidateUsers(t)
		if err != nil {
			return err
		}
		return emit(cmd, rep)
	},
}

var revenueCmd = &cobra.Command{
	Use:   "revenue <sales.csv>",
	Short: "Sum quantity x price per product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := tableArg(cmd, args)
		if err != nil {
			return err
		}
		rep, err := runner.Revenue(t)
		if err != nil {
			return err
		}
		return emit(cmd, rep)
	},
}

var salesCmd = &cobra.Command{
	Use:   "sales <sales.csv>",
	Short: "Report totals, the most popular product and the product count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := tableArg(cmd, args)
		if err != nil {
			return err
		}
		rep, err := runner.SalesStats(t)
		if err != nil {
			return err
		}
		return emit(cmd, rep)
	},
}

func init() {
	for _, c := range []*cobra.Command{usersCmd, revenueCmd, salesCmd} {
		c.Flags().StringVarP(&csvDelimiter, "delimiter", "d", ",", `CSV field delimiter ("\t" for tabs)`)
		rootCmd.AddCommand(c)
	}
}

package main

import (
	"github.com/spf13/cobra"

	"recordkit/internal/analysis"
)

var (
	filterRole     string
	codegenTarget  string
	codegenPackage string
)

var mergeCmd = &cobra.Command{
	Use:   "merge <base> <override>",
	Short: "Deep-merge an override document onto a base document",
	Long: `Deep-merge two JSON or YAML documents. Nested mappings merge key by key;
any other value in the override replaces the base value. The result is
printed as indented JSON.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := readDoc(cmd, args[0])
		if err != nil {
			return err
		}
		override, err := readDoc(cmd, args[1])
		if err != nil {
			return err
		}
		rep, err := runner.MergeConfig(base, override)
		if err != nil {
			return err
		}
		return emit(cmd, rep)
	},
}

var flattenCmd = &cobra.Command{
	Use:   "flatten <response.json>",
	Short: "Flatten data.users[].posts[] into user x post rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readDoc(cmd, args[0])
		if err != nil {
			return err
		}
		rep, err := runner.FlattenPosts(doc)
		if err != nil {
			return err
		}
		return emit(cmd, rep)
	},
}

var apiStatsCmd = &cobra.Command{
	Use:   "api-stats <response.json>",
	Short: "Summarize users, posts and pagination of an API response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readDoc(cmd, args[0])
		if err != nil {
			return err
		}
		rep, err := runner.APIStats(doc)
		if err != nil {
			return err
		}
		return emit(cmd, rep)
	},
}

var filterRoleCmd = &cobra.Command{
	Use:   "filter-role <users.json>",
	Short: "List the users of a JSON array that have a given role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readDoc(cmd, args[0])
		if err != nil {
			return err
		}
		return emit(cmd, runner.FilterRole(doc, filterRole))
	},
}

var codegenCmd = &cobra.Command{
	Use:   "codegen <schema.json>",
	Short: "Generate SQL tables or Go structs from an entity schema",
	Long: `Generate code from a schema of the form

  {"User": {"fields": {"id": "int", "email": "str"}}}

Field types are int, str, float, bool and datetime; anything else maps to a
generic type.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readDoc(cmd, args[0])
		if err != nil {
			return err
		}
		rep, err := runner.Codegen(doc, codegenTarget, codegenPackage)
		if err != nil {
			return err
		}
		return emit(cmd, rep)
	},
}

func init() {
	filterRoleCmd.Flags().StringVar(&filterRole, "role", "admin", "role to select")
	codegenCmd.Flags().StringVarP(&codegenTarget, "target", "t", analysis.TargetSQL, "output target (sql, go)")
	codegenCmd.Flags().StringVar(&codegenPackage, "package", "models", "package name for --target go")

	rootCmd.AddCommand(mergeCmd, flattenCmd, apiStatsCmd, filterRoleCmd, codegenCmd)
}

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/volcengine/apminsight-profiling-demo/dataset"
	"github.com/volcengine/apminsight-profiling-demo/query"
)

var (
	queryStrategy string
	querySize     int
)

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryStrategy, "strategy", "s", query.NameStreamlined, "full-copy or streamlined")
	queryCmd.Flags().IntVarP(&querySize, "size", "n", 4, "number of synthetic users to generate")
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run one strategy once and print the active users as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := query.Lookup(queryStrategy)
		if err != nil {
			return err
		}
		users, err := s.ActiveUsers(dataset.Generate(querySize))
		if err != nil {
			return err
		}
		return json.NewEncoder(cmd.OutOrStdout()).Encode(users)
	},
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the build version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(map[string]string{"version": version, "commit": commit})
			}
			_, err := fmt.Fprintf(out, "crowpanel %s (%s)\n", version, commit)
			return err
		},
	}
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/armadaproject/foldbatch/internal/foldbatch"
)

func summarizeCmd(a *foldbatch.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize the confidence scores of the batch.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initParams(cmd, a); err != nil {
				return err
			}
			var err error
			a.Params.Output, err = cmd.Flags().GetString("output")
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Summarize()
		},
	}
	cmd.Flags().StringP("output", "o", "table",
		fmt.Sprintf("Output format, one of %s", strings.Join(foldbatch.OutputFormats, ", ")))
	return cmd
}

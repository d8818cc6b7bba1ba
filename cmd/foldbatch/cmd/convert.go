package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/foldbatch/internal/foldbatch"
)

func convertCmd(a *foldbatch.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <fasta-dir>",
		Short: "Convert ColabFold FASTA files into AlphaFold3 inputs.",
		Long: `Convert every ColabFold FASTA file under <fasta-dir> into an AlphaFold3 JSON input in the batch's input
directory. Each file holds one record whose sequence is two chains separated by ':'.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initParams(cmd, a); err != nil {
				return err
			}
			a.Params.FastaDir = args[0]
			var err error
			if a.Params.Seeds, err = cmd.Flags().GetIntSlice("seeds"); err != nil {
				return err
			}
			a.Params.Overwrite, err = cmd.Flags().GetBool("overwrite")
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Convert()
		},
	}
	cmd.Flags().IntSlice("seeds", []int{1}, "Model seeds written into every input")
	cmd.Flags().Bool("overwrite", false, "Replace inputs that already exist")
	return cmd
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/foldbatch/internal/foldbatch"
)

func pairCmd(a *foldbatch.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair <bait-fasta> <prey-fasta>",
		Short: "Pair a bait sequence with every sequence of a multi-FASTA file.",
		Long: `Pair the single record of <bait-fasta> with every record of <prey-fasta>. Each pair is written as
<bait>_<prey>/<bait>_<prey>.fasta holding one record whose sequence is bait:prey, with '*' removed.

The pairs are written into the batch's input directory when tool.kind is colabfold, and into --out otherwise,
from where convert turns them into AlphaFold3 inputs.`,
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initParams(cmd, a); err != nil {
				return err
			}
			a.Params.BaitFile = args[0]
			a.Params.PreyFile = args[1]
			var err error
			if a.Params.PairDir, err = cmd.Flags().GetString("out"); err != nil {
				return err
			}
			a.Params.Overwrite, err = cmd.Flags().GetBool("overwrite")
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Pair()
		},
	}
	cmd.Flags().String("out", "", "Directory to write the pairs to; defaults to batch.inputDir for colabfold")
	cmd.Flags().Bool("overwrite", false, "Replace pairs that already exist")
	return cmd
}

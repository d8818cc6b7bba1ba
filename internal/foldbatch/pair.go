package foldbatch

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/armadaproject/foldbatch/internal/af3"
	"github.com/armadaproject/foldbatch/internal/common/util"
	"github.com/armadaproject/foldbatch/internal/predictor"
)

// Pair writes one ColabFold FASTA per prey record, pairing it with the bait. Without PairDir the pairs go into the
// batch's input directory, which only holds FASTA inputs for colabfold.
func (a *App) Pair() error {
	config, err := a.loadConfig()
	if err != nil {
		return err
	}
	dir := a.Params.PairDir
	if dir == "" {
		if config.Tool.Kind != predictor.ColabFold {
			return errors.Errorf("tool.kind is %s, whose inputs are not FASTA files; pass --out and convert the pairs", config.Tool.Kind)
		}
		dir = config.Batch.InputDir
	}

	pairings, err := af3.PairAll(a.Params.BaitFile, a.Params.PreyFile, dir, af3.PairOptions{Overwrite: a.Params.Overwrite})
	if err != nil {
		return err
	}

	var paired, skipped, failed int
	table := util.NewTableBuilder()
	table.WriteRow("NAME", "LENGTHS", "RESULT")
	for _, p := range pairings {
		switch {
		case p.Err != nil:
			failed++
			table.WriteRow(p.Name, "-", p.Err)
		case p.Skipped:
			skipped++
			table.WriteRow(p.Name, "-", "exists")
		default:
			paired++
			table.WriteRow(p.Name, formatLengths(p.Lengths), p.Target)
		}
	}
	if len(pairings) > 0 {
		fmt.Fprint(a.Out, table.String())
	}
	fmt.Fprintf(a.Out, "Paired %d, skipped %d, failed %d of %d prey sequences into %s\n",
		paired, skipped, failed, len(pairings), dir)
	if failed > 0 {
		return errors.Errorf("%d prey sequences could not be paired", failed)
	}
	return nil
}

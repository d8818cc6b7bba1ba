package foldbatch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/armadaproject/foldbatch/internal/af3"
	"github.com/armadaproject/foldbatch/internal/common/util"
	"github.com/armadaproject/foldbatch/internal/predictor"
)

// Convert writes an AlphaFold3 input into the batch's input directory for every ColabFold FASTA file under FastaDir.
func (a *App) Convert() error {
	config, err := a.loadConfig()
	if err != nil {
		return err
	}
	if config.Tool.Kind != predictor.AlphaFold3 {
		return errors.Errorf("convert writes %s inputs but tool.kind is %s", predictor.AlphaFold3, config.Tool.Kind)
	}
	if a.Params.FastaDir == "" {
		return errors.New("no FASTA directory given")
	}

	conversions, err := af3.ConvertAll(a.Params.FastaDir, config.Batch.InputDir, af3.ConvertOptions{
		Seeds:     a.Params.Seeds,
		Overwrite: a.Params.Overwrite,
	})
	if err != nil {
		return err
	}

	var converted, skipped, failed int
	table := util.NewTableBuilder()
	table.WriteRow("NAME", "CHAINS", "RESULT")
	for _, c := range conversions {
		switch {
		case c.Err != nil:
			failed++
			table.WriteRow(c.Name, "-", c.Err)
		case c.Skipped:
			skipped++
			table.WriteRow(c.Name, "-", "exists")
		default:
			converted++
			table.WriteRow(c.Name, formatLengths(c.Lengths), c.Target)
		}
	}
	if len(conversions) > 0 {
		fmt.Fprint(a.Out, table.String())
	}
	fmt.Fprintf(a.Out, "Converted %d, skipped %d, failed %d of %d FASTA files from %s\n",
		converted, skipped, failed, len(conversions), a.Params.FastaDir)
	if failed > 0 {
		return errors.Errorf("%d FASTA files could not be converted", failed)
	}
	return nil
}

func formatLengths(lengths []int) string {
	parts := make([]string, len(lengths))
	for i, n := range lengths {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, "+")
}

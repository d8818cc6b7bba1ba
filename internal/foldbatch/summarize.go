package foldbatch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/foldbatch/internal/af3"
	"github.com/armadaproject/foldbatch/internal/common/util"
	"github.com/armadaproject/foldbatch/internal/predictor"
)

// OutputFormats lists the formats Summarize can write.
var OutputFormats = []string{"table", "csv", "json", "yaml"}

type summaryReport struct {
	Statistics af3.Statistics `json:"statistics"`
	Jobs       []af3.Row      `json:"jobs"`
}

var csvHeader = []string{
	"name", "proteinA", "proteinB", "status", "category", "rankingScore", "ptm", "iptm",
	"fractionDisordered", "hasClash", "plddt", "lengthA", "lengthB", "totalResidues", "message",
}

// Summarize writes the confidence scores of every job in the batch, best first, in the format given by Output.
func (a *App) Summarize() error {
	config, err := a.loadConfig()
	if err != nil {
		return err
	}
	b := newBatch(config)
	states, err := b.State()
	if err != nil {
		return err
	}
	format := af3.AlphaFold3Scores
	if config.Tool.Kind == predictor.ColabFold {
		format = af3.ColabFoldScores
	}
	rows := af3.Summarize(states, b.Markers(), format)
	report := summaryReport{Statistics: af3.ComputeStatistics(rows), Jobs: rows}

	switch a.Params.Output {
	case "", "table":
		a.writeSummaryTable(report)
		return nil
	case "csv":
		return a.writeSummaryCSV(rows)
	case "json":
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = fmt.Fprintln(a.Out, string(out))
		return err
	case "yaml":
		out, err := yaml.Marshal(report)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = a.Out.Write(out)
		return err
	default:
		return errors.Errorf("unknown output format %q; use one of %v", a.Params.Output, OutputFormats)
	}
}

func (a *App) writeSummaryTable(report summaryReport) {
	table := util.NewTableBuilder()
	table.WriteRow("NAME", "STATUS", "CATEGORY", "RANKING", "PTM", "IPTM", "PLDDT", "RESIDUES", "MESSAGE")
	for _, row := range report.Jobs {
		table.WriteRow(row.Name, row.Status, row.Category,
			formatScore(row.RankingScore), formatScore(row.PTM), formatScore(row.IPTM), formatPLDDT(row.PLDDT),
			formatInt(row.TotalResidues), row.Message)
	}
	fmt.Fprint(a.Out, table.String())

	stats := report.Statistics
	fmt.Fprintln(a.Out)
	stat := util.NewTableBuilder()
	stat.WriteRow("Total jobs:", stats.Total)
	stat.WriteRow("Completed:", stats.Completed)
	stat.WriteRow("Failed:", stats.Failed)
	stat.WriteRow("High confidence (>= 0.6):", stats.HighConfidence)
	stat.WriteRow("Very high confidence (>= 0.8):", stats.VeryHighConfidence)
	stat.WriteRow("Mean ranking score:", formatScore(stats.MeanRankingScore))
	stat.WriteRow("Mean pTM:", formatScore(stats.MeanPTM))
	stat.WriteRow("Mean ipTM:", formatScore(stats.MeanIPTM))
	if stats.MeanPLDDT != nil {
		stat.WriteRow("Mean pLDDT:", formatPLDDT(stats.MeanPLDDT))
	}
	if stats.Best != "" {
		stat.WriteRow("Best:", fmt.Sprintf("%s (%s)", stats.Best, formatScore(stats.BestRankingScore)))
	}
	fmt.Fprint(a.Out, stat.String())
}

func (a *App) writeSummaryCSV(rows []af3.Row) error {
	w := csv.NewWriter(a.Out)
	if err := w.Write(csvHeader); err != nil {
		return errors.WithStack(err)
	}
	for _, row := range rows {
		record := []string{
			row.Name, row.ProteinA, row.ProteinB, row.Status.String(), string(row.Category),
			formatFloat(row.RankingScore), formatFloat(row.PTM), formatFloat(row.IPTM),
			formatFloat(row.FractionDisordered), formatFloat(row.HasClash), formatFloat(row.PLDDT),
			formatInt(row.LengthA), formatInt(row.LengthB), formatInt(row.TotalResidues), row.Message,
		}
		if err := w.Write(record); err != nil {
			return errors.WithStack(err)
		}
	}
	w.Flush()
	return errors.WithStack(w.Error())
}

func formatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 3, 64)
}

func formatPLDDT(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

// formatFloat keeps full precision for machine-readable output; missing values are empty.
func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

package af3

import (
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/armadaproject/foldbatch/internal/batch"
)

const maxMessageLen = 200

// Row summarises one job of a batch.
type Row struct {
	Name               string       `json:"name"`
	ProteinA           string       `json:"proteinA"`
	ProteinB           string       `json:"proteinB"`
	Status             batch.Status `json:"status"`
	Category           Category     `json:"category"`
	RankingScore       *float64     `json:"rankingScore,omitempty"`
	PTM                *float64     `json:"ptm,omitempty"`
	IPTM               *float64     `json:"iptm,omitempty"`
	FractionDisordered *float64     `json:"fractionDisordered,omitempty"`
	HasClash           *float64     `json:"hasClash,omitempty"`
	PLDDT              *float64     `json:"plddt,omitempty"`
	LengthA            *int         `json:"lengthA,omitempty"`
	LengthB            *int         `json:"lengthB,omitempty"`
	TotalResidues      *int         `json:"totalResidues,omitempty"`
	Message            string       `json:"message,omitempty"`
}

// Summarize builds one row per job, sorted best first: by ranking score descending, jobs without a score last.
func Summarize(states []batch.JobState, markers *batch.MarkerStore, format ScoreFormat) []Row {
	rows := make([]Row, len(states))
	for i, state := range states {
		rows[i] = SummarizeJob(state, markers, format)
	}
	SortRows(rows)
	return rows
}

// SummarizeJob builds the row for one job. Problems reading scores are reported in the row's Message rather than
// returned, so that one damaged output directory does not hide the rest of the batch.
func SummarizeJob(state batch.JobState, markers *batch.MarkerStore, format ScoreFormat) Row {
	job := state.Job
	row := Row{Name: job.Name, Status: state.Status}
	row.ProteinA, row.ProteinB = SplitName(job.Name)
	setLengths(&row, job.Input)

	switch state.Status {
	case batch.Error, batch.TimedOut:
		note, err := markers.Read(job, state.Status)
		if err != nil {
			row.Message = err.Error()
		} else {
			row.Message = truncate(strings.TrimSpace(note), maxMessageLen)
		}
	case batch.Done:
		if format == ColabFoldScores {
			setColabFoldConfidences(&row, job)
		} else {
			setConfidences(&row, job)
		}
	}
	row.Category = Categorize(row.RankingScore)
	return row
}

func setConfidences(row *Row, job batch.Job) {
	path, err := FindSummaryFile(job.OutputDir, job.Name)
	if err != nil {
		row.Message = err.Error()
		return
	}
	if path == "" {
		row.Message = "no " + summarySuffix + " found in " + job.OutputDir
		return
	}
	c, err := ReadConfidences(path)
	if err != nil {
		row.Message = err.Error()
		return
	}
	row.RankingScore = c.RankingScore
	row.PTM = c.PTM
	row.IPTM = c.IPTM
	row.FractionDisordered = c.FractionDisordered
	row.HasClash = c.HasClash
	if c.RankingScore == nil {
		row.Message = "no ranking_score in " + filepath.Base(path)
	}
}

func setColabFoldConfidences(row *Row, job batch.Job) {
	path, err := FindTopRankFile(job.OutputDir)
	if err != nil {
		row.Message = err.Error()
		return
	}
	if path == "" {
		row.Message = "no " + topRankPattern + " found in " + job.OutputDir
		return
	}
	c, err := ReadColabFoldConfidences(path)
	if err != nil {
		row.Message = err.Error()
		return
	}
	row.RankingScore = c.RankingScore
	row.PTM = c.PTM
	row.IPTM = c.IPTM
	row.PLDDT = c.PLDDT
	if c.RankingScore == nil {
		row.Message = "no ptm in " + filepath.Base(path)
	}
}

// setLengths fills in chain lengths from the job's input, which is either AlphaFold3 JSON or a ColabFold FASTA file.
// Unreadable inputs leave the lengths empty.
func setLengths(row *Row, input string) {
	var lengths []int
	switch strings.ToLower(filepath.Ext(input)) {
	case ".json":
		in, err := ReadInputFile(input)
		if err != nil {
			return
		}
		lengths = in.ProteinLengths()
	case ".fasta", ".fa":
		c, err := ReadComplexFile(input)
		if err != nil {
			return
		}
		for _, chain := range c.Chains {
			lengths = append(lengths, len(chain))
		}
	}
	if len(lengths) < 2 {
		return
	}
	a, b := lengths[0], lengths[1]
	total := a + b
	row.LengthA, row.LengthB, row.TotalResidues = &a, &b, &total
}

// SortRows orders rows by ranking score descending, rows without a score last, ties by name.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].RankingScore, rows[j].RankingScore
		switch {
		case a != nil && b != nil && *a != *b:
			return *a > *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		default:
			return rows[i].Name < rows[j].Name
		}
	})
}

// Statistics aggregates the rows of a batch.
type Statistics struct {
	Total              int      `json:"total"`
	Completed          int      `json:"completed"`
	Failed             int      `json:"failed"`
	HighConfidence     int      `json:"highConfidence"`
	VeryHighConfidence int      `json:"veryHighConfidence"`
	MeanRankingScore   *float64 `json:"meanRankingScore,omitempty"`
	MeanPTM            *float64 `json:"meanPtm,omitempty"`
	MeanIPTM           *float64 `json:"meanIptm,omitempty"`
	MeanPLDDT          *float64 `json:"meanPlddt,omitempty"`
	BestRankingScore   *float64 `json:"bestRankingScore,omitempty"`
	Best               string   `json:"best,omitempty"`
}

// ComputeStatistics aggregates rows. High confidence means a ranking score of at least 0.6, very high at least 0.8.
func ComputeStatistics(rows []Row) Statistics {
	stats := Statistics{Total: len(rows)}
	var ranking, ptm, iptm, plddt mean
	for _, row := range rows {
		switch {
		case row.Status == batch.Done:
			stats.Completed++
		case row.Status.IsFailure():
			stats.Failed++
		}
		if row.Status != batch.Done || row.RankingScore == nil {
			continue
		}
		score := *row.RankingScore
		ranking.add(row.RankingScore)
		ptm.add(row.PTM)
		iptm.add(row.IPTM)
		plddt.add(row.PLDDT)
		if score >= 0.6 {
			stats.HighConfidence++
		}
		if score >= 0.8 {
			stats.VeryHighConfidence++
		}
		if stats.BestRankingScore == nil || score > *stats.BestRankingScore {
			best := score
			stats.BestRankingScore = &best
			stats.Best = row.ProteinA + " + " + row.ProteinB
		}
	}
	stats.MeanRankingScore = ranking.value()
	stats.MeanPTM = ptm.value()
	stats.MeanIPTM = iptm.value()
	stats.MeanPLDDT = plddt.value()
	return stats
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v != nil {
		m.sum += *v
		m.n++
	}
}

func (m *mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

package af3

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"
)

const (
	summarySuffix = "summary_confidences.json"
	// topRankPattern matches the scores of ColabFold's best model, e.g.
	// X_scores_rank_001_alphafold2_multimer_v3_model_1_seed_000.json.
	topRankPattern = "*rank_001*.json"
)

// ScoreFormat selects which tool's score files a summary reads.
type ScoreFormat int

const (
	AlphaFold3Scores ScoreFormat = iota
	ColabFoldScores
)

// Confidences holds the scores a tool writes for its top-ranked model. Scores absent from the file are nil.
type Confidences struct {
	RankingScore       *float64 `json:"ranking_score"`
	PTM                *float64 `json:"ptm"`
	IPTM               *float64 `json:"iptm"`
	FractionDisordered *float64 `json:"fraction_disordered"`
	HasClash           *float64 `json:"has_clash"`
	// PLDDT is the mean per-residue pLDDT, 0 to 100. Only ColabFold scores carry it.
	PLDDT *float64 `json:"-"`
}

// FindSummaryFile locates the summary confidences of a job. AlphaFold3 writes them to
// <outputDir>/<lower(name)>/<lower(name)>_summary_confidences.json; any other *summary_confidences.json below
// outputDir is accepted as a fallback. It returns "" if there is none.
func FindSummaryFile(outputDir, name string) (string, error) {
	lower := strings.ToLower(name)
	expected := filepath.Join(outputDir, lower, lower+"_"+summarySuffix)
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", errors.Wrapf(err, "error reading %s", expected)
	}

	matches, err := zglob.Glob(filepath.Join(outputDir, "**", "*"+summarySuffix))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", errors.Wrapf(err, "error searching %s", outputDir)
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)
	return matches[0], nil
}

func ReadConfidences(path string) (*Confidences, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", path)
	}
	c := &Confidences{}
	if err := json.Unmarshal(content, c); err != nil {
		return nil, errors.Wrapf(err, "error parsing %s", filepath.Base(path))
	}
	return c, nil
}

// FindTopRankFile returns the first, in name order, *rank_001*.json directly in outputDir, where ColabFold writes the
// scores of its best model. It returns "" if there is none.
func FindTopRankFile(outputDir string) (string, error) {
	matches, err := zglob.Glob(filepath.Join(outputDir, topRankPattern))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", errors.Wrapf(err, "error searching %s", outputDir)
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)
	return matches[0], nil
}

type colabFoldScores struct {
	PLDDT []float64 `json:"plddt"`
	PTM   *float64  `json:"ptm"`
	IPTM  *float64  `json:"iptm"`
}

// ReadColabFoldConfidences reads a ColabFold scores file. PLDDT is the mean of the per-residue values. The ranking
// score is ColabFold's multimer confidence, 0.8 ipTM + 0.2 pTM, or pTM alone when the file has no ipTM.
func ReadColabFoldConfidences(path string) (*Confidences, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", path)
	}
	scores := colabFoldScores{}
	if err := json.Unmarshal(content, &scores); err != nil {
		return nil, errors.Wrapf(err, "error parsing %s", filepath.Base(path))
	}
	c := &Confidences{PTM: scores.PTM, IPTM: scores.IPTM}
	if len(scores.PLDDT) > 0 {
		var plddt mean
		for i := range scores.PLDDT {
			plddt.add(&scores.PLDDT[i])
		}
		c.PLDDT = plddt.value()
	}
	switch {
	case scores.PTM != nil && scores.IPTM != nil:
		ranking := 0.8**scores.IPTM + 0.2**scores.PTM
		c.RankingScore = &ranking
	case scores.PTM != nil:
		ranking := *scores.PTM
		c.RankingScore = &ranking
	}
	return c, nil
}

// Category buckets a ranking score.
type Category string

const (
	CategoryVeryHigh Category = "Very High"
	CategoryHigh     Category = "High"
	CategoryMedium   Category = "Medium"
	CategoryLow      Category = "Low"
	CategoryVeryLow  Category = "Very Low"
	CategoryUnknown  Category = "Unknown"
)

// Categorize returns the confidence category of a ranking score; nil is Unknown.
func Categorize(rankingScore *float64) Category {
	switch {
	case rankingScore == nil:
		return CategoryUnknown
	case *rankingScore >= 0.8:
		return CategoryVeryHigh
	case *rankingScore >= 0.6:
		return CategoryHigh
	case *rankingScore >= 0.4:
		return CategoryMedium
	case *rankingScore >= 0.2:
		return CategoryLow
	default:
		return CategoryVeryLow
	}
}

// SplitName splits a job name of the form <protein>_<protein> at its first underscore. The second id is "unknown"
// when the name has no underscore.
func SplitName(name string) (string, string) {
	first, second, ok := strings.Cut(name, "_")
	if !ok || second == "" {
		return name, "unknown"
	}
	return first, second
}

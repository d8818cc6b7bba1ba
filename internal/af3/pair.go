package af3

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// stopCodon is stripped from sequences before they are paired; translated ORF collections often end records with it.
const stopCodon = "*"

// Pairing is the outcome of pairing the bait with one prey record.
type Pairing struct {
	// Name is "<bait>_<prey>", the job name of the pair.
	Name   string
	Target string
	// Lengths are the bait and prey lengths.
	Lengths []int
	// Skipped is set when the target already existed and overwriting was not requested.
	Skipped bool
	Err     error
}

// PairOptions controls PairAll.
type PairOptions struct {
	Overwrite bool
}

// PairAll writes one two-chain ColabFold FASTA per record of the prey file, each pairing the single record of the bait
// file with that prey, as <destDir>/<bait>_<prey>/<bait>_<prey>.fasta. A prey that cannot be paired is reported in its
// Pairing and does not stop the others; the returned error is only for failures that prevent any pairing.
func PairAll(baitPath, preyPath, destDir string, opts PairOptions) ([]Pairing, error) {
	baits, err := ReadRecordsFile(baitPath)
	if err != nil {
		return nil, err
	}
	if len(baits) != 1 {
		return nil, errors.Errorf("%s must hold exactly one bait record, found %d", baitPath, len(baits))
	}
	bait := baits[0]
	bait.Sequence = strings.ReplaceAll(bait.Sequence, stopCodon, "")
	if bait.Sequence == "" {
		return nil, errors.Errorf("bait %s in %s has an empty sequence", bait.ID, baitPath)
	}

	preys, err := ReadRecordsFile(preyPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "error creating %s", destDir)
	}

	seen := make(map[string]bool, len(preys))
	pairings := make([]Pairing, 0, len(preys))
	for _, prey := range preys {
		name := bait.ID + "_" + prey.ID
		pairing := Pairing{
			Name:   name,
			Target: filepath.Join(destDir, name, name+".fasta"),
		}
		sequence := strings.ReplaceAll(prey.Sequence, stopCodon, "")
		switch {
		case seen[prey.ID]:
			pairing.Err = errors.Errorf("prey %s appears more than once in %s", prey.ID, preyPath)
		case sequence == "":
			pairing.Err = errors.Errorf("prey %s has an empty sequence", prey.ID)
		default:
			pairing.Lengths = []int{len(bait.Sequence), len(sequence)}
			pairing.Skipped, pairing.Err = pair(&Complex{Name: name, Chains: []string{bait.Sequence, sequence}}, pairing.Target, opts.Overwrite)
		}
		seen[prey.ID] = true
		pairings = append(pairings, pairing)
	}
	return pairings, nil
}

func pair(c *Complex, target string, overwrite bool) (bool, error) {
	if !overwrite {
		if _, err := os.Stat(target); err == nil {
			return true, nil
		}
	}
	return false, c.WriteFile(target)
}

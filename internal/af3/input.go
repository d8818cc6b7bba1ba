package af3

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

const (
	Dialect = "alphafold3"
	Version = 1
)

// Input is an AlphaFold3 fold input. Only protein chains are modelled.
type Input struct {
	Name       string     `json:"name"`
	Sequences  []Sequence `json:"sequences"`
	ModelSeeds []int      `json:"modelSeeds"`
	Dialect    string     `json:"dialect"`
	Version    int        `json:"version"`
}

type Sequence struct {
	Protein *Protein `json:"protein,omitempty"`
}

type Protein struct {
	ID       []string `json:"id"`
	Sequence string   `json:"sequence"`
}

// NewInput builds the fold input for a complex, naming its chains A, B, ... in order.
func NewInput(c *Complex, seeds []int) *Input {
	sequences := make([]Sequence, len(c.Chains))
	for i, chain := range c.Chains {
		sequences[i] = Sequence{Protein: &Protein{ID: []string{ChainID(i)}, Sequence: chain}}
	}
	return &Input{
		Name:       c.Name,
		Sequences:  sequences,
		ModelSeeds: seeds,
		Dialect:    Dialect,
		Version:    Version,
	}
}

// ChainID returns the chain id for the i'th chain: A..Z, then AA, BA, ... as AlphaFold3 does.
func ChainID(i int) string {
	id := ""
	for {
		id += string(rune('A' + i%26))
		i = i/26 - 1
		if i < 0 {
			return id
		}
	}
}

// ProteinLengths returns the length of every protein chain, in order.
func (in *Input) ProteinLengths() []int {
	var lengths []int
	for _, seq := range in.Sequences {
		if seq.Protein != nil {
			lengths = append(lengths, len(seq.Protein.Sequence))
		}
	}
	return lengths
}

func ReadInputFile(path string) (*Input, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", path)
	}
	in := &Input{}
	if err := json.Unmarshal(content, in); err != nil {
		return nil, errors.Wrapf(err, "error parsing %s", path)
	}
	return in, nil
}

// WriteFile writes the input as indented JSON.
func (in *Input) WriteFile(path string) error {
	content, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	if err := os.WriteFile(path, append(content, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "error writing %s", path)
	}
	return nil
}

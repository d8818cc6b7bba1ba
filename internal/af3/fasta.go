package af3

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ChainSeparator separates the chains of a complex in a ColabFold FASTA record.
const ChainSeparator = ":"

// Complex is a protein complex as written for ColabFold: one FASTA record whose sequence holds every chain, separated
// by ChainSeparator.
type Complex struct {
	// Name is the record id, the first word of the header.
	Name   string
	Chains []string
}

// ReadComplexFile reads a two-chain complex from a FASTA file.
func ReadComplexFile(path string) (*Complex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s", path)
	}
	defer f.Close()
	c, err := ReadComplex(f)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", path)
	}
	return c, nil
}

// ReadComplex reads a FASTA stream holding exactly one record whose sequence is exactly two chains.
func ReadComplex(r io.Reader) (*Complex, error) {
	records, err := ReadRecords(r)
	if err != nil {
		return nil, err
	}
	switch {
	case len(records) == 0:
		return nil, errors.New("no FASTA record found")
	case len(records) > 1:
		return nil, errors.New("expected a single FASTA record, found more")
	}
	name, sequence := records[0].ID, records[0].Sequence
	if !strings.Contains(sequence, ChainSeparator) {
		return nil, errors.Errorf("no %q separator found in the sequence of %s", ChainSeparator, name)
	}
	chains := strings.Split(sequence, ChainSeparator)
	if len(chains) != 2 {
		return nil, errors.Errorf("expected exactly 2 chains in %s, found %d", name, len(chains))
	}
	for i, chain := range chains {
		if chain == "" {
			return nil, errors.Errorf("chain %d of %s is empty", i+1, name)
		}
	}
	return &Complex{Name: name, Chains: chains}, nil
}

// Record is one FASTA record.
type Record struct {
	// ID is the first word of the header.
	ID       string
	Sequence string
}

// ReadRecordsFile reads every record of a FASTA file.
func ReadRecordsFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s", path)
	}
	defer f.Close()
	records, err := ReadRecords(f)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", path)
	}
	return records, nil
}

// ReadRecords reads every record of a FASTA stream. Sequence lines are joined with whitespace removed; blank lines and
// ';' comments are ignored.
func ReadRecords(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var records []Record
	var seq strings.Builder
	flush := func() {
		if len(records) > 0 {
			records[len(records)-1].Sequence = seq.String()
		}
		seq.Reset()
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, ";"):
			continue
		case strings.HasPrefix(line, ">"):
			flush()
			fields := strings.Fields(line[1:])
			if len(fields) == 0 {
				return nil, errors.New("FASTA record has an empty header")
			}
			records = append(records, Record{ID: fields[0]})
		case len(records) == 0:
			return nil, errors.Errorf("sequence data before the first header: %q", line)
		default:
			seq.WriteString(strings.Join(strings.Fields(line), ""))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return records, nil
}

// WriteFile writes c as a single ColabFold FASTA record, creating the parent directory.
func (c *Complex) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "error creating %s", filepath.Dir(path))
	}
	content := ">" + c.Name + "\n" + strings.Join(c.Chains, ChainSeparator) + "\n"
	return errors.Wrapf(os.WriteFile(path, []byte(content), 0o644), "error writing %s", path)
}

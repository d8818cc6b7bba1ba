package predictor

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Kind selects the prediction tool a batch runs.
type Kind string

const (
	AlphaFold3 Kind = "alphafold3"
	ColabFold  Kind = "colabfold"
)

// Profile holds the defaults for one tool: how its jobs are found, how its markers are named and how it is invoked.
type Profile struct {
	Kind Kind
	// MarkerPrefix names the job's marker files, e.g. "af3.done".
	MarkerPrefix string
	// InputPattern selects job inputs relative to the inputs directory.
	InputPattern string
	// StageInput, if set, is the file name the input is copied to in a scratch input directory. The tool then also
	// writes to a scratch output directory that is copied into the job's output directory on success.
	StageInput string
	// Command is the tool's argv, each element a text/template.
	Command []string
	// Requires names the Config paths the tool cannot run without, whatever command it is given.
	Requires []string
}

var profiles = map[Kind]Profile{
	AlphaFold3: {
		Kind:         AlphaFold3,
		MarkerPrefix: "af3",
		InputPattern: "*.json",
		StageInput:   "fold_input.json",
		Command: []string{
			"apptainer", "exec", "--nv",
			"--bind", "{{ .InputDir }}:/root/af_input",
			"--bind", "{{ .OutputDir }}:/root/af_output",
			"--bind", `{{ if not .ModelDir }}{{ fail "tool.modelDir must be set" }}{{ end }}{{ .ModelDir }}:/root/models`,
			"--bind", `{{ if not .DatabaseDir }}{{ fail "tool.databaseDir must be set" }}{{ end }}{{ .DatabaseDir }}:/root/public_databases`,
			`{{ if not .Image }}{{ fail "tool.image must be set" }}{{ end }}{{ .Image }}`,
			"python", "/app/alphafold/run_alphafold.py",
			"--json_path=/root/af_input/{{ .InputFile }}",
			"--model_dir=/root/models",
			"--db_dir=/root/public_databases",
			"--output_dir=/root/af_output",
		},
		Requires: []string{"ModelDir", "DatabaseDir"},
	},
	ColabFold: {
		Kind:         ColabFold,
		MarkerPrefix: "colab",
		InputPattern: "**/*.fasta",
		Command: []string{
			"colabfold_batch", "{{ .Input }}", "{{ .OutputDir }}",
			"--model-type", "alphafold2_multimer_v3",
		},
	},
}

// ProfileFor returns the built-in profile for kind.
func ProfileFor(kind Kind) (Profile, error) {
	profile, ok := profiles[kind]
	if !ok {
		return Profile{}, errors.Errorf("unknown tool %q; valid tools are %s", kind, strings.Join(KindNames(), ", "))
	}
	profile.Command = slices.Clone(profile.Command)
	return profile, nil
}

// KindNames returns the names of every supported tool, sorted.
func KindNames() []string {
	names := make([]string, 0, len(profiles))
	for _, kind := range maps.Keys(profiles) {
		names = append(names, string(kind))
	}
	slices.Sort(names)
	return names
}

func (k Kind) String() string {
	return string(k)
}

// UnmarshalText implements encoding.TextUnmarshaler so that tool kinds are validated when config is decoded.
func (k *Kind) UnmarshalText(text []byte) error {
	kind := Kind(strings.ToLower(strings.TrimSpace(string(text))))
	switch kind {
	case "af3":
		kind = AlphaFold3
	case "colab":
		kind = ColabFold
	}
	if _, ok := profiles[kind]; !ok {
		return errors.Errorf("unknown tool %q; valid tools are %s", string(text), strings.Join(KindNames(), ", "))
	}
	*k = kind
	return nil
}

package predictor

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/armadaproject/foldbatch/internal/batch"
	"github.com/armadaproject/foldbatch/internal/common/armadacontext"
	"github.com/armadaproject/foldbatch/internal/common/logging"
)

// workspace is where one invocation of the tool reads and writes. root is empty when the tool works directly on the
// job's input and output directory.
type workspace struct {
	invocation invocation
	root       string
}

func (p *ExecPredictor) stage(job batch.Job) (*workspace, error) {
	ws := &workspace{
		invocation: invocation{
			Name:        job.Name,
			Input:       job.Input,
			InputFile:   filepath.Base(job.Input),
			InputDir:    filepath.Dir(job.Input),
			OutputDir:   job.OutputDir,
			ModelDir:    p.config.ModelDir,
			DatabaseDir: p.config.DatabaseDir,
			Image:       p.config.Image,
		},
	}
	if p.config.StageInput == "" {
		return ws, nil
	}

	root, err := afero.TempDir(p.fs, p.config.ScratchDir, "foldbatch-"+job.Name+"-")
	if err != nil {
		return nil, errors.Wrapf(err, "error creating scratch directory for %s", job.Name)
	}
	ws.root = root
	inputDir := filepath.Join(root, "input")
	outputDir := filepath.Join(root, "output")
	for _, dir := range []string{inputDir, outputDir} {
		if err := p.fs.MkdirAll(dir, 0o755); err != nil {
			_ = p.fs.RemoveAll(root)
			return nil, errors.Wrapf(err, "error creating scratch directory %s", dir)
		}
	}
	staged := filepath.Join(inputDir, p.config.StageInput)
	if err := copyFile(p.fs, job.Input, staged); err != nil {
		_ = p.fs.RemoveAll(root)
		return nil, err
	}

	ws.invocation.Input = staged
	ws.invocation.InputFile = p.config.StageInput
	ws.invocation.InputDir = inputDir
	ws.invocation.OutputDir = outputDir
	return ws, nil
}

func (ws *workspace) remove(ctx *armadacontext.Context, fs afero.Fs) {
	if ws.root == "" {
		return
	}
	if err := fs.RemoveAll(ws.root); err != nil {
		logging.WithStacktrace(ctx.Log, err).Warnf("Failed to remove scratch directory %s", ws.root)
	}
}

// copyTree copies the contents of src into dst, merging with anything already in dst.
func copyTree(fs afero.Fs, src, dst string) error {
	return afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fs.MkdirAll(target, 0o755)
		}
		return copyFile(fs, path, target)
	})
}

func copyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return errors.Wrapf(err, "error opening %s", src)
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "error creating %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, "error copying %s to %s", src, dst)
	}
	return errors.Wrapf(out.Close(), "error writing %s", dst)
}

//go:build mage

package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

var Gotestsum string

var LocalBin = filepath.Join(os.Getenv("PWD"), "/bin")

func makeLocalBin() error {
	if _, err := os.Stat(LocalBin); os.IsNotExist(err) {
		err = os.MkdirAll(LocalBin, os.ModePerm)
		if err != nil {
			return err
		}
	}
	return nil
}

// Gotestsum downloads gotestsum locally if necessary
func gotestsum() error {
	mg.Deps(makeLocalBin)
	Gotestsum = filepath.Join(LocalBin, "/gotestsum")

	if _, err := os.Stat(Gotestsum); os.IsNotExist(err) {
		fmt.Println(Gotestsum)
		cmd := exec.Command("go", "install", "gotest.tools/gotestsum@v1.8.2")
		cmd.Env = append(os.Environ(), "GOBIN="+LocalBin)
		return cmd.Run()
	}
	return nil
}

// Tests is a mage target that runs the tests and generates coverage reports.
func Tests() error {
	mg.Deps(gotestsum)
	if err := os.MkdirAll("test_reports", os.ModePerm); err != nil {
		return err
	}
	if err := runtest("internal_coverage.xml", "internal.txt", "./internal/..."); err != nil {
		return err
	}
	return runtest("cmd_coverage.xml", "cmd.txt", "./cmd/...")
}

func runtest(coverageFileName, outputFileName string, directories ...string) error {
	args := []string{"--", "-v", "-coverprofile", filepath.Join("test_reports", coverageFileName)}
	args = append(args, directories...)

	cmd := exec.Command(Gotestsum, args...)
	file, err := os.Create(filepath.Join("test_reports", outputFileName))
	if err != nil {
		return err
	}
	defer file.Close()

	cmd.Stdout = io.MultiWriter(os.Stdout, file)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

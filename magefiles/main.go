//go:build mage

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/pkg/errors"
)

const buildPackage = "github.com/armadaproject/foldbatch/internal/foldbatch/build"

// Check dependent tools are present and the correct version.
func CheckDeps() error {
	checks := []struct {
		name  string
		check func() error
	}{
		{"go", goCheck},
		{"golangci-lint", golangciLintCheck},
	}
	failures := false
	for _, check := range checks {
		fmt.Printf("Checking %s... ", check.name)
		if err := check.check(); err != nil {
			fmt.Printf("FAILED\nReason: %v\n", err)
			failures = true
		} else {
			fmt.Println("PASSED")
		}
	}
	if failures {
		return errors.New("check(s) failed.")
	}
	return nil
}

// Build builds foldbatch into ./bin, stamping the version from git.
func Build() error {
	mg.Deps(goCheck, makeLocalBin)
	ldflags := []string{
		"-X", buildPackage + ".ReleaseVersion=" + releaseVersion(),
		"-X", buildPackage + ".GitCommit=" + gitCommit(),
		"-X", buildPackage + ".BuildTime=" + time.Now().UTC().Format(time.RFC3339),
	}
	return goRun("build", "-o", binaryWithExt(LocalBin+"/foldbatch"),
		"-ldflags", strings.Join(ldflags, " "), "./cmd/foldbatch")
}

// Cleans build and test output.
func Clean() {
	fmt.Println("Cleaning...")
	for _, path := range []string{"bin", "test_reports"} {
		os.RemoveAll(path)
	}
}

func releaseVersion() string {
	if version := os.Getenv("FOLDBATCH_VERSION"); version != "" {
		return version
	}
	version, err := gitOutput("describe", "--tags", "--always", "--dirty")
	if err != nil {
		return "UNKNOWN_VERSION"
	}
	return version
}

func gitCommit() string {
	commit, err := gitOutput("rev-parse", "HEAD")
	if err != nil {
		return "UNKNOWN_GITCOMMIT"
	}
	return commit
}

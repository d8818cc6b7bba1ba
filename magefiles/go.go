//go:build mage

package main

import (
	"strings"

	semver "github.com/Masterminds/semver/v3"
	"github.com/magefile/mage/sh"
	"github.com/pkg/errors"
)

const GO_VERSION_CONSTRAINT = ">= 1.21.0"

func goBinary() string {
	return binaryWithExt("go")
}

func goOutput(args ...string) (string, error) {
	return sh.Output(goBinary(), args...)
}

func goRun(args ...string) error {
	return sh.RunV(goBinary(), args...)
}

// Extract the version of go from the output of "go version".
func goVersion() (*semver.Version, error) {
	output, err := goOutput("version")
	if err != nil {
		return nil, errors.Errorf("error running version cmd: %v", err)
	}
	fields := strings.Fields(output)
	if len(fields) < 3 {
		return nil, errors.Errorf("unexpected version cmd output: %s", output)
	}
	version, err := semver.NewVersion(strings.TrimPrefix(fields[2], "go"))
	if err != nil {
		return nil, errors.Errorf("error parsing version: %v", err)
	}
	return version, nil
}

func goCheck() error {
	version, err := goVersion()
	if err != nil {
		return errors.Errorf("error getting version: %v", err)
	}
	constraint, err := semver.NewConstraint(GO_VERSION_CONSTRAINT)
	if err != nil {
		return errors.Errorf("error parsing constraint: %v", err)
	}
	if !constraint.Check(version) {
		return errors.Errorf("found version %v but it failed constraint %v", version, constraint)
	}
	return nil
}

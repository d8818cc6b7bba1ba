//go:build mage

package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/magefile/mage/sh"
)

func binaryWithExt(name string) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("%s.exe", name)
	}
	return name
}

func gitOutput(args ...string) (string, error) {
	output, err := sh.Output("git", args...)
	return strings.TrimSpace(output), err
}

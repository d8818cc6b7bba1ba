//go:build !unix

package predictor

import "os/exec"

// killProcessGroupOnCancel keeps exec's default of killing only the tool itself.
func killProcessGroupOnCancel(*exec.Cmd) {}

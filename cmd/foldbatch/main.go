package main

import (
	"os"

	"github.com/armadaproject/foldbatch/cmd/foldbatch/cmd"
	"github.com/armadaproject/foldbatch/internal/common"
)

func main() {
	common.ConfigureCommandLineLogging()
	err := cmd.RootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

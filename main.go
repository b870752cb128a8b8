package main

import (
	"os"

	"github.com/firefly-engineering/mythic-ctl/cmd"
	"github.com/firefly-engineering/mythic-ctl/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}

package main

import (
	"os"

	"github.com/AmmannChristian/go-restauth/internal/cliconfig"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		log := cliconfig.Logger(os.Stderr, false)
		log.Error().Err(err).Msg("restauth")
		os.Exit(1)
	}
}

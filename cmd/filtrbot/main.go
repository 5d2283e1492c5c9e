package main

import (
	"os"

	"github.com/m3rciful/filtrbot/cmd/filtrbot/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/rustyeddy/ammbt/cmd/ammbt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

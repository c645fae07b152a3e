package main

import (
	"os"

	"github.com/hearthguard-systems/hearthguard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/gamewiki/issuestore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

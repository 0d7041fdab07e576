package main

import (
	"os"

	"github.com/ariel-frischer/bumpkit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

package main

import (
	"os"

	"github.com/dshills/lyon/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}

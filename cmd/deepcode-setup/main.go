package main

import (
	"os"

	"github.com/deepcode-ai/deepcode/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}

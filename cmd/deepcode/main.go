// Command deepcode runs the DeepCode agent CLI with the given arguments.
package main

import (
	"os"

	"github.com/deepcode-ai/deepcode/internal/launcher"
)

func main() {
	os.Exit(launcher.Main("deepcode", nil, os.Args[1:]))
}

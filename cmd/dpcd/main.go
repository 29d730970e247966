// Command dpcd is the short alias for deepcode. With no arguments it opens
// the interactive UI.
package main

import (
	"os"

	"github.com/deepcode-ai/deepcode/internal/launcher"
)

func main() {
	os.Exit(launcher.Main("dpcd", []string{"ui"}, os.Args[1:]))
}

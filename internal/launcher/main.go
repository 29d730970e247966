package launcher

import (
	"context"
	"os"

	"github.com/deepcode-ai/deepcode/internal/logs"
	"github.com/deepcode-ai/deepcode/internal/paths"
)

// Main builds Options from the process environment and runs the shim.
// Signals are handled by the forwarder, so ctx is never cancelled here.
func Main(name string, defaultArgs []string, args []string) int {
	home, err := paths.DefaultHome()
	if err != nil {
		home = paths.NewHome(paths.HomeDirName)
	}
	return Run(context.Background(), Options{
		Name:        name,
		DefaultArgs: defaultArgs,
		Home:        home,
		Stderr:      os.Stderr,
		Logger:      logs.NewLogger(os.Stderr, logs.DebugFromEnv()),
	}, args)
}

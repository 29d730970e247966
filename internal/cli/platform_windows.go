//go:build windows

package cli

import (
	"fmt"
	goruntime "runtime"

	"golang.org/x/sys/windows"
)

func platformDetail() string {
	v := windows.RtlGetVersion()
	if v == nil {
		return goruntime.GOOS + "/" + goruntime.GOARCH
	}
	return fmt.Sprintf("windows %d.%d.%d %s", v.MajorVersion, v.MinorVersion, v.BuildNumber, goruntime.GOARCH)
}

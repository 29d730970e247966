//go:build !windows

package cli

import (
	goruntime "runtime"
	"strings"

	"golang.org/x/sys/unix"
)

func platformDetail() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return goruntime.GOOS + "/" + goruntime.GOARCH
	}
	parts := []string{
		unix.ByteSliceToString(u.Sysname[:]),
		unix.ByteSliceToString(u.Release[:]),
		unix.ByteSliceToString(u.Machine[:]),
	}
	return strings.Join(parts, " ")
}

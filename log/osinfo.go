package log

import (
	"fmt"
	"io"
	"runtime"

	"github.com/shirou/gopsutil/host"
)

// PrintOSInfo writes a one-line platform summary to wtr, used by the
// replay CLI's -version output alongside the build version.
func PrintOSInfo(wtr io.Writer) {
	if platform, _, version, err := host.PlatformInformation(); err == nil {
		fmt.Fprintf(wtr, "OS:\t\t%s %s (%s %s)\n", runtime.GOOS, runtime.GOARCH, platform, version)
	} else {
		fmt.Fprintf(wtr, "OS:\t\tERROR %v\n", err)
	}
}

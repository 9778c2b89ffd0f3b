package cmd

import (
	"fmt"
	"runtime"
)

// Version information (injected at build time via -ldflags)
// These default values indicate a development build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func versionTemplate() string {
	return fmt.Sprintf(`evaluate version {{.Version}}
  Git Commit: %s
  Build Date: %s
  Go Version: %s
  OS/Arch:    %s/%s
`, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

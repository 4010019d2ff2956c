// Package version carries build identity, injected via ldflags:
//
//	-X github.com/uiguuna/uiguuna/internal/version.Version=v1.2.3
//	-X github.com/uiguuna/uiguuna/internal/version.BuildDate=2026-08-31T00:00:00Z
package version

import "runtime"

const AppName = "uiguuna"

var (
	Version   = "dev"
	BuildDate = ""
	GoVersion = runtime.Version()
)

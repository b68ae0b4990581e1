// Package buildinfo carries version metadata set at link time, e.g.
//
//	go build -ldflags "-X ispnet/internal/buildinfo.Version=v0.3.1 -X ispnet/internal/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import "runtime"

var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

func Info() map[string]string {
	return map[string]string{
		"version":   Version,
		"commit":    Commit,
		"builtAt":   BuiltAt,
		"goVersion": runtime.Version(),
	}
}

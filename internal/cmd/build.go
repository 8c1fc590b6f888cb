package cmd

import (
	"fmt"
	goruntime "runtime"
	"runtime/debug"
)

const shaShort = 7

// BuildInfo is injected by the build pipeline.
type BuildInfo struct {
	Version   string
	CommitSHA string
}

// versionTemplate returns the Cobra version template string including
// commit SHA, Go version, and OS/arch.
func versionTemplate(b BuildInfo) string {
	v := "{{.Name}} {{.Version}}"
	if len(b.CommitSHA) >= shaShort {
		v += " (" + b.CommitSHA[:shaShort] + ")"
	}
	v += fmt.Sprintf(" %s %s/%s\n", goruntime.Version(), goruntime.GOOS, goruntime.GOARCH)
	return v
}

// normalizeBuildInfo backfills version and commit from the binary's
// embedded build info when the pipeline did not inject them. Container
// images are built from a copied tree without VCS metadata, so "dev"
// is the expected fallback there.
func normalizeBuildInfo(b BuildInfo) BuildInfo {
	if info, ok := debug.ReadBuildInfo(); ok {
		if b.Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			b.Version = info.Main.Version
		}
		if b.CommitSHA == "" {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					b.CommitSHA = s.Value
				}
			}
		}
	}
	if b.Version == "" {
		b.Version = "dev"
	}
	return b
}

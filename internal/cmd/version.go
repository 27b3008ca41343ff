package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
)

// BuildInfo carries the values stamped in with -ldflags at release time.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
}

// Resolve fills a missing commit from the VCS stamp of the running binary.
func (b BuildInfo) Resolve() BuildInfo {
	if b.Version == "" {
		b.Version = "dev"
	}
	if b.Commit != "" {
		return b
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				b.Commit = setting.Value[:7]
			}
		}
	}
	return b
}

func (b BuildInfo) String() string {
	switch {
	case b.Commit == "" && b.Date == "":
		return b.Version
	case b.Commit == "":
		return fmt.Sprintf("%s (%s)", b.Version, b.Date)
	case b.Date == "":
		return fmt.Sprintf("%s (%s)", b.Version, b.Commit)
	default:
		return fmt.Sprintf("%s (%s, %s)", b.Version, b.Commit, b.Date)
	}
}

type VersionCmd struct{}

func (v *VersionCmd) Run(ctx *Context) error {
	if ctx.JSONOutput {
		return json.NewEncoder(ctx.Out).Encode(struct {
			BuildInfo
			Go string `json:"go"`
		}{ctx.Build, runtime.Version()})
	}
	_, err := fmt.Fprintf(ctx.Out, "usajobsfn %s %s\n", ctx.Build, runtime.Version())
	return err
}

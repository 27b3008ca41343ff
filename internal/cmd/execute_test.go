package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	t.Setenv("USAJOBSFN_CONFIG", path)
	t.Setenv("USAJOBSFN_JSON", "")
	t.Setenv("USAJOBSFN_VERBOSE", "")
	t.Setenv("USAJOBSFN_COLOR", "never")
	return path
}

func TestExecuteTokenize(t *testing.T) {
	isolateEnv(t)
	var out, errOut bytes.Buffer

	code := Execute([]string{"tokenize", `nurse "social worker"`}, &out, &errOut, BuildInfo{Version: "1.0.0"})
	if code != 0 {
		t.Fatalf("Execute() = %d, stderr %q", code, errOut.String())
	}
	if out.String() != "nurse\nsocial worker\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestExecuteBrokenConfigIsAWarning(t *testing.T) {
	path := isolateEnv(t)
	if err := os.WriteFile(path, []byte("{ not json5"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	var out, errOut bytes.Buffer

	code := Execute([]string{"--json", "tokenize", "analyst"}, &out, &errOut, BuildInfo{Version: "1.0.0"})
	if code != 0 {
		t.Fatalf("Execute() = %d, stderr %q", code, errOut.String())
	}
	if strings.TrimSpace(out.String()) != `["analyst"]` {
		t.Fatalf("unexpected output: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "config:") {
		t.Fatalf("expected config warning, got %q", errOut.String())
	}
}

func TestExecuteFailures(t *testing.T) {
	isolateEnv(t)
	cases := map[string][]string{
		"unknown command":    {"frobnicate"},
		"malformed keywords": {"tokenize", `"open`},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			if code := Execute(args, &out, &errOut, BuildInfo{}); code != 1 {
				t.Fatalf("Execute() = %d, want 1", code)
			}
			if errOut.Len() == 0 {
				t.Fatalf("expected an error message on stderr")
			}
		})
	}
}

func TestVersionCmd(t *testing.T) {
	build := BuildInfo{Version: "1.2.3", Commit: "abc1234"}

	var out bytes.Buffer
	if err := (&VersionCmd{}).Run(&Context{Out: &out, Build: build}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := "usajobsfn 1.2.3 (abc1234) " + runtime.Version() + "\n"
	if out.String() != want {
		t.Fatalf("Run() output = %q, want %q", out.String(), want)
	}

	out.Reset()
	if err := (&VersionCmd{}).Run(&Context{Out: &out, Build: build, JSONOutput: true}); err != nil {
		t.Fatalf("Run() json error = %v", err)
	}
	var decoded map[string]string
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["version"] != "1.2.3" || decoded["commit"] != "abc1234" || decoded["go"] != runtime.Version() {
		t.Fatalf("unexpected json: %v", decoded)
	}
	if _, ok := decoded["date"]; ok {
		t.Fatalf("empty date should be omitted: %v", decoded)
	}
}

func TestBuildInfoString(t *testing.T) {
	cases := []struct {
		build BuildInfo
		want  string
	}{
		{BuildInfo{Version: "1.0.0"}, "1.0.0"},
		{BuildInfo{Version: "1.0.0", Date: "2024-10-01"}, "1.0.0 (2024-10-01)"},
		{BuildInfo{Version: "1.0.0", Commit: "abc1234"}, "1.0.0 (abc1234)"},
		{BuildInfo{Version: "1.0.0", Commit: "abc1234", Date: "2024-10-01"}, "1.0.0 (abc1234, 2024-10-01)"},
	}
	for _, tc := range cases {
		if got := tc.build.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestBuildInfoResolveKeepsStampedCommit(t *testing.T) {
	got := BuildInfo{Commit: "deadbee"}.Resolve()
	if got.Version != "dev" || got.Commit != "deadbee" {
		t.Fatalf("Resolve() = %+v", got)
	}
}

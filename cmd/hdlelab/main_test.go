package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hdlelab/internal/driver"
)

const fifoDesign = `dialect = "sv"

[[module]]
name = "fifo"
params = [
  { name = "T", kind = "type" },
  { name = "DEPTH", kind = "value" },
]

[[instance]]
name = "u_a"
module = "fifo"
pos = ["byte", "16"]

[[instance]]
name = "u_b"
module = "fifo"
pos = ["byte"]
named = [{ param = "DEPTH", value = "16" }]

[[instance]]
name = "u_c"
module = "fifo"
pos = ["word", "4"]
`

func writeDesign(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write design: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd, cleanup := newRootCmd()
	defer cleanup()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--color", "off"}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCheckCleanDesign(t *testing.T) {
	path := writeDesign(t, "fifo.toml", fifoDesign)
	out, _, err := execute(t, "check", "--format", "short", path)
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	if out != "" {
		t.Fatalf("expected no diagnostics, got:\n%s", out)
	}
}

func TestCheckReportsErrors(t *testing.T) {
	path := writeDesign(t, "bad.toml", fifoDesign+`
[[instance]]
name = "u_ghost"
module = "ghost"
`)
	out, _, err := execute(t, "check", "--format", "short", path)
	if !errors.Is(err, errHasErrors) {
		t.Fatalf("expected errHasErrors, got %v", err)
	}
	if !strings.Contains(out, "ELB2001") || !strings.Contains(out, "unknown module `ghost`") {
		t.Fatalf("missing ELB2001 in output:\n%s", out)
	}
}

func TestCheckJSON(t *testing.T) {
	path := writeDesign(t, "bad.toml", fifoDesign+`
[[instance]]
name = "u_many"
module = "fifo"
pos = ["a", "b", "c"]
`)
	out, _, err := execute(t, "check", "--format", "json", "--with-notes", path)
	if !errors.Is(err, errHasErrors) {
		t.Fatalf("expected errHasErrors, got %v", err)
	}
	var decoded struct {
		Diagnostics []struct {
			Code  string `json:"code"`
			Notes []struct {
				Message string `json:"message"`
			} `json:"notes"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if len(decoded.Diagnostics) != 1 || decoded.Diagnostics[0].Code != "ELB2002" {
		t.Fatalf("unexpected diagnostics: %+v", decoded.Diagnostics)
	}
	if len(decoded.Diagnostics[0].Notes) != 1 {
		t.Fatalf("expected the declaration note, got %+v", decoded.Diagnostics[0].Notes)
	}
}

func TestCheckReadsStdin(t *testing.T) {
	out, _, err := executeWithInput(t, fifoDesign, "envs", "--jobs", "1", "-")
	if err != nil {
		t.Fatalf("envs from stdin failed: %v", err)
	}
	if !strings.Contains(out, "  u_a: fifo #(type T = byte, DEPTH = 16) [env 2]\n") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	yamlDesign := "modules:\n  - name: leaf\n    params: [{ name: W }]\ninstances:\n  - name: u0\n    module: leaf\n    named: [{ param: X, value: \"1\" }]\n"
	out, _, err = executeWithInput(t, yamlDesign, "check", "--format", "short", "--stdin-format", "yaml", "-")
	if !errors.Is(err, errHasErrors) {
		t.Fatalf("expected errHasErrors, got %v", err)
	}
	if !strings.Contains(out, "ELB2003") || !strings.Contains(out, "stdin.yaml") {
		t.Fatalf("missing ELB2003 on stdin.yaml:\n%s", out)
	}
}

func TestCheckMinSeverity(t *testing.T) {
	path := writeDesign(t, "fifo.toml", fifoDesign+"\n[[package]]\nname = \"p\"\n")
	out, _, err := execute(t, "check", "--format", "short", "--verbose-names", path)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "info SCP3002") {
		t.Fatalf("expected define trace at default severity:\n%s", out)
	}
	out, _, err = execute(t, "check", "--format", "short", "--verbose-names", "--min-severity", "warning", path)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if out != "" {
		t.Fatalf("info diagnostics should be hidden:\n%s", out)
	}
	if _, _, err = execute(t, "check", "--min-severity", "loud", path); err == nil {
		t.Fatal("expected error for unknown severity")
	}
}

func TestCheckUnknownFormat(t *testing.T) {
	path := writeDesign(t, "fifo.toml", fifoDesign)
	_, _, err := execute(t, "check", "--format", "xml", path)
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestEnvsPrintsTable(t *testing.T) {
	path := writeDesign(t, "fifo.toml", fifoDesign)
	out, _, err := execute(t, "envs", "--jobs", "1", path)
	if err != nil {
		t.Fatalf("envs failed: %v", err)
	}
	want := []string{
		"  u_a: fifo #(type T = byte, DEPTH = 16) [env 2]",
		"  u_b: fifo #(type T = byte, DEPTH = 16) [env 2]",
		"  u_c: fifo #(type T = word, DEPTH = 4) [env 3]",
		"  1: #()",
		"  2: #(type T = byte, DEPTH = 16)",
		"  3: #(type T = word, DEPTH = 4)",
	}
	for _, line := range want {
		if !strings.Contains(out, line+"\n") {
			t.Fatalf("missing %q in output:\n%s", line, out)
		}
	}
}

func TestEnvsEmitSnapshot(t *testing.T) {
	path := writeDesign(t, "fifo.toml", fifoDesign)
	snapPath := filepath.Join(t.TempDir(), "envs.mp")
	if _, _, err := execute(t, "envs", "--emit", snapPath, path); err != nil {
		t.Fatalf("envs failed: %v", err)
	}
	snap, err := driver.ReadSnapshot(snapPath)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if len(snap.Envs) != 3 || len(snap.Instances) != 3 {
		t.Fatalf("unexpected snapshot: %d envs, %d instances", len(snap.Envs), len(snap.Instances))
	}
	if snap.Instances[0].Env != snap.Instances[1].Env {
		t.Fatalf("u_a and u_b should share an environment: %+v", snap.Instances)
	}
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	var v versionJSON
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if v.Tag == "" {
		t.Fatal("empty version tag")
	}
}

func TestBadColorMode(t *testing.T) {
	cmd, cleanup := newRootCmd()
	defer cleanup()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--color", "sometimes", "version"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown color mode")
	}
}

package e2e

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildGlossaBinary builds the glossa binary in the specified directory and returns its path.
func buildGlossaBinary(t *testing.T, dir string) string {
	t.Helper()
	bin := filepath.Join(dir, "glossa.exe")
	// Tests run from tests/e2e.
	buildCmd := exec.Command("go", "build", "-o", bin, "../../cmd/glossa")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build glossa: %v\n%s", err, string(out))
	}
	return bin
}

// run executes name in dir, feeding stdin when non-nil, and returns stdout.
func run(t *testing.T, dir string, stdin []byte, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Command %s %v failed in %s: %v\nstdout: %s\nstderr: %s",
			name, args, dir, err, stdout.String(), stderr.String())
	}
	return stdout.String()
}

// runFail executes name expecting a non-zero exit and returns the combined output.
func runFail(t *testing.T, dir string, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("Command %s %v succeeded, expected failure:\n%s", name, args, out)
	}
	return strings.TrimSpace(string(out))
}

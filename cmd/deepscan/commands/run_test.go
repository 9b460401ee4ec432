package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/latticeforge/deepscan/cmd/deepscan/commands"
)

func TestRunCommand_JSONOutputForRealProject(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "src/main.py", "def main():\n    if True:\n        print('hi')\n\nmain()\n")

	cmd := commands.NewRunCommand()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{root, "--format", "json", "--silent"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if out.Len() == 0 {
		t.Fatal("expected JSON report on stdout, got nothing")
	}
}

func TestRunCommand_YAMLOutputForRealProject(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "src/main.py", "def main():\n    if True:\n        print('hi')\n\nmain()\n")

	cmd := commands.NewRunCommand()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{root, "--format", "yaml", "--silent"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if out.Len() == 0 {
		t.Fatal("expected YAML report on stdout, got nothing")
	}
}

func TestRunCommand_TextFormatDefault(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	cmd := commands.NewRunCommand()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{root, "--no-color", "--silent"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if out.Len() == 0 {
		t.Fatal("expected a rendered scorecard table, got nothing")
	}
}

func TestRunCommand_RejectsUnknownConfigKeys(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgPath := filepath.Join(root, "deepscan.yaml")

	if err := os.WriteFile(cfgPath, []byte("not_a_real_option: true\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cmd := commands.NewRunCommand()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{root, "--config", cfgPath, "--silent"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for a config file with an unrecognized key")
	}
}

func TestRunCommand_MetricsAddrServesWithoutError(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "src/main.py", "def main():\n    print('hi')\n\nmain()\n")

	cmd := commands.NewRunCommand()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{root, "--format", "json", "--silent", "--metrics-addr", "127.0.0.1:0"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if out.Len() == 0 {
		t.Fatal("expected JSON report on stdout, got nothing")
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()

	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

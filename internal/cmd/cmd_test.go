package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func resetFlags() {
	runWatch = false
	runState = ""
	runTask = ""
	viper.Reset()
}

const validWorkflow = `
workflow:
  name: demo
groups:
  - id: main
    children:
      - id: hello
        run: "true"
      - id: nested
        children:
          - id: inner
            run: "true"
`

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "flow" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "flow")
	}

	expectedCmds := []string{"run", "validate", "show"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	t.Run("accepts a valid manifest", func(t *testing.T) {
		resetFlags()
		path := writeFile(t, "flow.yaml", validWorkflow)

		output, err := executeCommand(rootCmd, "validate", path)
		if err != nil {
			t.Fatalf("validate failed: %v", err)
		}
		if !strings.Contains(output, "valid") {
			t.Errorf("expected 'valid' in output, got %q", output)
		}
	})

	t.Run("rejects a broken manifest", func(t *testing.T) {
		resetFlags()
		path := writeFile(t, "flow.yaml", `
workflow:
  name: demo
groups:
  - id: main
    children:
      - id: orphan
`)

		if _, err := executeCommand(rootCmd, "validate", path); err == nil {
			t.Fatal("expected validation to fail")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		resetFlags()
		if _, err := executeCommand(rootCmd, "validate", "does-not-exist.yaml"); err == nil {
			t.Fatal("expected error for missing manifest")
		}
	})
}

func TestShowCommand(t *testing.T) {
	resetFlags()
	path := writeFile(t, "flow.yaml", validWorkflow)

	output, err := executeCommand(rootCmd, "show", path)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}

	for _, want := range []string{"workflow: demo", "main/", "hello", "nested/", "inner"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestRunCommand(t *testing.T) {
	t.Run("runs a workflow to completion", func(t *testing.T) {
		resetFlags()
		path := writeFile(t, "flow.yaml", validWorkflow)

		output, err := executeCommand(rootCmd, "run", path)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if !strings.Contains(output, "workflow demo completed") {
			t.Errorf("expected completion message, got %q", output)
		}
	})

	t.Run("failure surfaces the task error", func(t *testing.T) {
		resetFlags()
		path := writeFile(t, "flow.yaml", `
workflow:
  name: demo
groups:
  - id: main
    children:
      - id: broken
        run: "exit 7"
`)

		_, err := executeCommand(rootCmd, "run", path)
		if err == nil {
			t.Fatal("expected run to fail")
		}
		if !strings.Contains(err.Error(), "status 7") {
			t.Errorf("expected exit status in error, got %v", err)
		}
	})

	t.Run("state file is written on success", func(t *testing.T) {
		resetFlags()
		path := writeFile(t, "flow.yaml", validWorkflow)
		statePath := filepath.Join(t.TempDir(), "state.json")

		runState = statePath
		defer resetFlags()

		if _, err := executeCommand(rootCmd, "run", path); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		data, err := os.ReadFile(statePath)
		if err != nil {
			t.Fatalf("state file not written: %v", err)
		}
		var state map[string]json.RawMessage
		if err := json.Unmarshal(data, &state); err != nil {
			t.Fatalf("state file is not valid JSON: %v", err)
		}
		if _, ok := state["main"]; !ok {
			t.Error("expected 'main' group in state snapshot")
		}
	})

	t.Run("state file is written on failure too", func(t *testing.T) {
		resetFlags()
		path := writeFile(t, "flow.yaml", `
workflow:
  name: demo
groups:
  - id: main
    children:
      - id: broken
        run: "false"
`)
		statePath := filepath.Join(t.TempDir(), "state.json")

		runState = statePath
		defer resetFlags()

		if _, err := executeCommand(rootCmd, "run", path); err == nil {
			t.Fatal("expected run to fail")
		}
		if _, err := os.Stat(statePath); err != nil {
			t.Errorf("expected state file despite failure: %v", err)
		}
	})

	t.Run("single task by id", func(t *testing.T) {
		resetFlags()
		path := writeFile(t, "flow.yaml", validWorkflow)

		runTask = "hello"
		defer resetFlags()

		if _, err := executeCommand(rootCmd, "run", path); err != nil {
			t.Fatalf("run --task failed: %v", err)
		}
	})

	t.Run("unknown task id is an error", func(t *testing.T) {
		resetFlags()
		path := writeFile(t, "flow.yaml", validWorkflow)

		runTask = "nope"
		defer resetFlags()

		_, err := executeCommand(rootCmd, "run", path)
		if err == nil {
			t.Fatal("expected unknown task to fail")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not-found error, got %v", err)
		}
	})
}

package manifest

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/thedjpetersen/flow-like-water/internal/errors"
	"github.com/thedjpetersen/flow-like-water/internal/flow"
)

// CommandRunner executes a shell command and returns its stdout and exit
// status. A non-nil error means the command could not run at all; a command
// that ran and exited non-zero returns its status with a nil error.
type CommandRunner func(ctx context.Context, command string) (stdout string, exitCode int, err error)

// ShellRunner is the default CommandRunner. It executes commands through
// `sh -c` and honors context cancellation.
func ShellRunner(ctx context.Context, command string) (string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), exitErr.ExitCode(), nil
		}
		return "", -1, fmt.Errorf("running command: %w", err)
	}
	return stdout.String(), 0, nil
}

// BuildConfig controls how manifest specs become runnable tasks.
type BuildConfig struct {
	// DefaultRetries applies to tasks that do not set retries.
	DefaultRetries int
	// DefaultWait applies to tasks that do not set wait_ms.
	DefaultWait time.Duration
	// Runner executes task and condition commands. Nil means ShellRunner.
	Runner CommandRunner
}

// Build turns the manifest's group specs into runnable task groups.
// The manifest must have been validated first.
func (m *Manifest) Build(cfg BuildConfig) ([]*flow.Group, error) {
	runner := cfg.Runner
	if runner == nil {
		runner = ShellRunner
	}

	groups := make([]*flow.Group, 0, len(m.Groups))
	for _, spec := range m.Groups {
		g, err := flow.NewGroup(spec.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "building group %s", spec.ID)
		}
		if err := buildChildren(g, spec.Children, cfg, runner); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func buildChildren(g *flow.Group, children []NodeSpec, cfg BuildConfig, runner CommandRunner) error {
	for i := range children {
		c := &children[i]

		if c.IsGroup() {
			sub, err := flow.NewGroup(c.ID)
			if err != nil {
				return errors.Wrapf(err, "building group %s", c.ID)
			}
			if err := buildChildren(sub, c.Children, cfg, runner); err != nil {
				return err
			}
			g.AddChild(sub)
			continue
		}

		task, err := buildTask(c, cfg, runner)
		if err != nil {
			return errors.Wrapf(err, "building task %s", c.ID)
		}
		g.AddChild(task)
	}
	return nil
}

func buildTask(spec *NodeSpec, cfg BuildConfig, runner CommandRunner) (*flow.Task, error) {
	retries := cfg.DefaultRetries
	if spec.Retries != nil {
		retries = *spec.Retries
	}
	wait := cfg.DefaultWait
	if spec.WaitMs != nil {
		wait = time.Duration(*spec.WaitMs) * time.Millisecond
	}

	tc := flow.TaskConfig{
		ID:       spec.ID,
		Execute:  executeCommand(runner, spec.Run),
		Retries:  retries,
		WaitTime: wait,
	}
	if spec.Condition != "" {
		tc.Condition = conditionCommand(runner, spec.Condition)
	}
	return flow.NewTask(tc)
}

func executeCommand(runner CommandRunner, command string) flow.ExecuteFunc {
	return func(ctx context.Context) (string, error) {
		out, code, err := runner(ctx, command)
		if err != nil {
			return "", err
		}
		if code != 0 {
			return "", fmt.Errorf("command exited with status %d", code)
		}
		return ParseNext(out), nil
	}
}

func conditionCommand(runner CommandRunner, command string) flow.ConditionFunc {
	return func(ctx context.Context) (bool, error) {
		_, code, err := runner(ctx, command)
		if err != nil {
			return false, err
		}
		return code == 0, nil
	}
}

// ParseNext extracts a branch target from command output. A command requests
// a jump by printing `next: <id>` as the last non-empty line of its stdout.
// Output without the directive yields an empty target.
func ParseNext(stdout string) string {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if target, ok := strings.CutPrefix(last, "next:"); ok {
		return strings.TrimSpace(target)
	}
	return ""
}

package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/thedjpetersen/flow-like-water/internal/errors"
	"github.com/thedjpetersen/flow-like-water/internal/event"
	"github.com/thedjpetersen/flow-like-water/internal/flow"
)

func newTask(t *testing.T, cfg flow.TaskConfig) *flow.Task {
	t.Helper()
	task, err := flow.NewTask(cfg)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	return task
}

func newGroup(t *testing.T, id string, children ...flow.Node) *flow.Group {
	t.Helper()
	g, err := flow.NewGroup(id)
	if err != nil {
		t.Fatalf("NewGroup failed: %v", err)
	}
	for _, c := range children {
		g.AddChild(c)
	}
	return g
}

func succeeding(t *testing.T, id string) *flow.Task {
	t.Helper()
	return newTask(t, flow.TaskConfig{ID: id, Execute: func(ctx context.Context) (string, error) {
		return "", nil
	}})
}

func TestOrchestrator_GroupRegistry(t *testing.T) {
	t.Run("add get remove", func(t *testing.T) {
		o := New()
		g := newGroup(t, "ci")
		o.AddGroup(g)

		got, ok := o.Group("ci")
		if !ok || got != g {
			t.Error("Expected to retrieve the registered group")
		}

		if !o.RemoveGroup("ci") {
			t.Error("Expected RemoveGroup to report success")
		}
		if _, ok := o.Group("ci"); ok {
			t.Error("Expected group to be absent after removal")
		}
		if o.RemoveGroup("ci") {
			t.Error("Expected RemoveGroup to report failure for a removed id")
		}
	})

	t.Run("preserves registration order", func(t *testing.T) {
		o := New()
		o.AddGroup(newGroup(t, "first"))
		o.AddGroup(newGroup(t, "second"))
		o.AddGroup(newGroup(t, "third"))

		groups := o.Groups()
		if len(groups) != 3 {
			t.Fatalf("Expected 3 groups, got %d", len(groups))
		}
		for i, want := range []string{"first", "second", "third"} {
			if groups[i].ID() != want {
				t.Errorf("Expected group %q at position %d, got %q", want, i, groups[i].ID())
			}
		}
	})

	t.Run("re-adding replaces in place", func(t *testing.T) {
		o := New()
		o.AddGroup(newGroup(t, "a"))
		o.AddGroup(newGroup(t, "b"))

		replacement := newGroup(t, "a", succeeding(t, "t"))
		o.AddGroup(replacement)

		groups := o.Groups()
		if len(groups) != 2 || groups[0] != replacement {
			t.Error("Expected replacement to keep its position")
		}
	})
}

func TestOrchestrator_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("runs all root groups in order", func(t *testing.T) {
		o := New()
		var order []string
		record := func(id string) *flow.Task {
			return newTask(t, flow.TaskConfig{ID: id, Execute: func(ctx context.Context) (string, error) {
				order = append(order, id)
				return "", nil
			}})
		}

		a := record("a")
		b := record("b")
		o.AddGroup(newGroup(t, "g1", a))
		o.AddGroup(newGroup(t, "g2", b))

		if err := o.Run(ctx); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(order) != 2 || order[0] != "a" || order[1] != "b" {
			t.Errorf("Unexpected execution order: %v", order)
		}
		if a.State() != flow.StateCompleted || b.State() != flow.StateCompleted {
			t.Error("Expected both tasks to complete")
		}
	})

	t.Run("walks nested groups depth-first in insertion order", func(t *testing.T) {
		o := New()
		var order []string
		record := func(id string) *flow.Task {
			return newTask(t, flow.TaskConfig{ID: id, Execute: func(ctx context.Context) (string, error) {
				order = append(order, id)
				return "", nil
			}})
		}

		inner := newGroup(t, "inner", record("b"), record("c"))
		root := newGroup(t, "root", record("a"), inner, record("d"))
		o.AddGroup(root)

		if err := o.Run(ctx); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		want := []string{"a", "b", "c", "d"}
		if len(order) != len(want) {
			t.Fatalf("Expected %d executions, got %v", len(want), order)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("Expected %q at position %d, got %q", want[i], i, order[i])
			}
		}
	})

	t.Run("fail-fast aborts the whole forest", func(t *testing.T) {
		o := New()
		boom := errors.New("boom")

		failing := newTask(t, flow.TaskConfig{ID: "bad", Execute: func(ctx context.Context) (string, error) {
			return "", boom
		}})
		neverRun := newTask(t, flow.TaskConfig{ID: "never", Execute: func(ctx context.Context) (string, error) {
			t.Error("Task in a later group should never start after a failure")
			return "", nil
		}})

		o.AddGroup(newGroup(t, "g1", failing))
		o.AddGroup(newGroup(t, "g2", neverRun))

		err := o.Run(ctx)
		if err != boom {
			t.Errorf("Expected the task's error unchanged, got %v", err)
		}
		if neverRun.State() != flow.StateNotStarted {
			t.Errorf("Expected later task to stay not_started, got %q", neverRun.State())
		}
	})

	t.Run("retries exhausted surfaces the final error", func(t *testing.T) {
		o := New()
		boom := errors.New("always failing")
		attempts := 0
		failing := newTask(t, flow.TaskConfig{
			ID: "bad",
			Execute: func(ctx context.Context) (string, error) {
				attempts++
				return "", boom
			},
			Retries: 2,
		})
		o.AddGroup(newGroup(t, "g", failing))

		if err := o.Run(ctx); err != boom {
			t.Errorf("Expected final error unchanged, got %v", err)
		}
		if attempts != 3 {
			t.Errorf("Expected 3 attempts for retries=2, got %d", attempts)
		}
		if failing.State() != flow.StateFailed {
			t.Errorf("Expected state failed, got %q", failing.State())
		}
	})
}

func TestOrchestrator_Branching(t *testing.T) {
	ctx := context.Background()

	t.Run("skips non-matching siblings until the target", func(t *testing.T) {
		o := New()

		branching := newTask(t, flow.TaskConfig{ID: "a", Execute: func(ctx context.Context) (string, error) {
			return "b", nil
		}})
		skipped := newTask(t, flow.TaskConfig{ID: "x", Execute: func(ctx context.Context) (string, error) {
			t.Error("Skipped task's execute should never be invoked")
			return "", nil
		}})
		target := succeeding(t, "b")
		after := succeeding(t, "c")

		o.AddGroup(newGroup(t, "g", branching, skipped, target, after))

		if err := o.Run(ctx); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if skipped.State() != flow.StateSkipped {
			t.Errorf("Expected skipped state, got %q", skipped.State())
		}
		if target.State() != flow.StateCompleted {
			t.Errorf("Expected branch target to complete, got %q", target.State())
		}
		if after.State() != flow.StateCompleted {
			t.Errorf("Branch pointer should be cleared after the target, got %q", after.State())
		}
	})

	t.Run("branch target spans group boundaries", func(t *testing.T) {
		o := New()

		branching := newTask(t, flow.TaskConfig{ID: "a", Execute: func(ctx context.Context) (string, error) {
			return "target", nil
		}})
		skippedInNext := newTask(t, flow.TaskConfig{ID: "y", Execute: func(ctx context.Context) (string, error) {
			t.Error("Task in the next group should be skipped by the pending branch")
			return "", nil
		}})
		target := succeeding(t, "target")

		o.AddGroup(newGroup(t, "g1", branching))
		o.AddGroup(newGroup(t, "g2", skippedInNext, target))

		if err := o.Run(ctx); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if skippedInNext.State() != flow.StateSkipped {
			t.Errorf("Expected skip across groups, got %q", skippedInNext.State())
		}
		if target.State() != flow.StateCompleted {
			t.Errorf("Expected target to run, got %q", target.State())
		}
	})

	t.Run("matched target may arm a new branch", func(t *testing.T) {
		o := New()

		first := newTask(t, flow.TaskConfig{ID: "a", Execute: func(ctx context.Context) (string, error) {
			return "b", nil
		}})
		second := newTask(t, flow.TaskConfig{ID: "b", Execute: func(ctx context.Context) (string, error) {
			return "d", nil
		}})
		skipped := succeeding(t, "c")
		final := succeeding(t, "d")

		o.AddGroup(newGroup(t, "g", first, second, skipped, final))

		if err := o.Run(ctx); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if skipped.State() != flow.StateSkipped {
			t.Errorf("Expected c to be skipped by the re-armed branch, got %q", skipped.State())
		}
		if final.State() != flow.StateCompleted {
			t.Errorf("Expected d to complete, got %q", final.State())
		}
	})

	t.Run("pending branch pointer is scoped to one run", func(t *testing.T) {
		o := New()

		// "a" branches to a target that never appears, so everything after it
		// is skipped. A later Run (after Reset) must start clean.
		branching := newTask(t, flow.TaskConfig{ID: "a", Execute: func(ctx context.Context) (string, error) {
			return "nowhere", nil
		}})
		skipped := succeeding(t, "x")
		o.AddGroup(newGroup(t, "g", branching, skipped))

		if err := o.Run(ctx); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if skipped.State() != flow.StateSkipped {
			t.Fatalf("Expected x skipped on first run, got %q", skipped.State())
		}

		o.Reset()
		branchless := succeeding(t, "x")
		g, _ := o.Group("g")
		g.RemoveChild("a")
		g.AddChild(branchless)

		if err := o.Run(ctx); err != nil {
			t.Fatalf("Second run failed: %v", err)
		}
		if branchless.State() != flow.StateCompleted {
			t.Errorf("Stale branch pointer leaked into the second run: %q", branchless.State())
		}
	})
}

func TestOrchestrator_RunTask(t *testing.T) {
	ctx := context.Background()

	t.Run("executes a direct child of a root group", func(t *testing.T) {
		o := New()
		executed := false
		task := newTask(t, flow.TaskConfig{ID: "build", Execute: func(ctx context.Context) (string, error) {
			executed = true
			return "", nil
		}})
		o.AddGroup(newGroup(t, "ci", task))

		if err := o.RunTask(ctx, "build"); err != nil {
			t.Fatalf("RunTask failed: %v", err)
		}
		if !executed {
			t.Error("Expected the task to execute")
		}
	})

	t.Run("does not search nested groups", func(t *testing.T) {
		o := New()
		nested := succeeding(t, "deep")
		inner := newGroup(t, "inner", nested)
		o.AddGroup(newGroup(t, "root", inner))

		err := o.RunTask(ctx, "deep")
		if !errors.Is(err, errors.ErrTaskNotFound) {
			t.Errorf("Expected ErrTaskNotFound for a nested task, got %v", err)
		}
		if nested.State() != flow.StateNotStarted {
			t.Errorf("Nested task should not run, got %q", nested.State())
		}
	})

	t.Run("ignores a group with a matching id", func(t *testing.T) {
		o := New()
		o.AddGroup(newGroup(t, "root", newGroup(t, "build")))

		if err := o.RunTask(ctx, "build"); !errors.Is(err, errors.ErrTaskNotFound) {
			t.Errorf("Expected ErrTaskNotFound when the id names a group, got %v", err)
		}
	})

	t.Run("returns not found for unknown ids", func(t *testing.T) {
		o := New()
		o.AddGroup(newGroup(t, "ci", succeeding(t, "build")))

		if err := o.RunTask(ctx, "missing"); !errors.Is(err, errors.ErrTaskNotFound) {
			t.Errorf("Expected ErrTaskNotFound, got %v", err)
		}
	})
}

func TestOrchestrator_Events(t *testing.T) {
	ctx := context.Background()

	t.Run("emits lifecycle events in order", func(t *testing.T) {
		o := New()
		o.AddGroup(newGroup(t, "ci", succeeding(t, "build")))

		var types []string
		o.SubscribeAll(func(e event.Event) {
			types = append(types, e.EventType())
		})

		if err := o.Run(ctx); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		want := []string{
			event.TypeTaskStarted,
			event.TypeTaskCompleted,
			event.TypeGroupCompleted,
			event.TypeRunCompleted,
		}
		if len(types) != len(want) {
			t.Fatalf("Expected %d events, got %v", len(want), types)
		}
		for i := range want {
			if types[i] != want[i] {
				t.Errorf("Expected %q at position %d, got %q", want[i], i, types[i])
			}
		}
	})

	t.Run("completed event carries attempts and branch target", func(t *testing.T) {
		o := New()
		calls := 0
		flaky := newTask(t, flow.TaskConfig{
			ID: "flaky",
			Execute: func(ctx context.Context) (string, error) {
				calls++
				if calls < 2 {
					return "", errors.New("transient")
				}
				return "jump", nil
			},
			Retries: 3,
		})
		o.AddGroup(newGroup(t, "g", flaky, succeeding(t, "jump")))

		var completed []event.TaskCompletedEvent
		o.Subscribe(event.TypeTaskCompleted, func(e event.Event) {
			completed = append(completed, e.(event.TaskCompletedEvent))
		})

		if err := o.Run(ctx); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(completed) != 2 {
			t.Fatalf("Expected 2 completed events, got %d", len(completed))
		}
		if completed[0].Attempts != 2 {
			t.Errorf("Expected 2 attempts recorded, got %d", completed[0].Attempts)
		}
		if completed[0].Next != "jump" {
			t.Errorf("Expected branch target 'jump' on the event, got %q", completed[0].Next)
		}
	})

	t.Run("skip path emits task.skipped", func(t *testing.T) {
		o := New()
		branching := newTask(t, flow.TaskConfig{ID: "a", Execute: func(ctx context.Context) (string, error) {
			return "c", nil
		}})
		o.AddGroup(newGroup(t, "g", branching, succeeding(t, "b"), succeeding(t, "c")))

		var skips []event.TaskSkippedEvent
		o.Subscribe(event.TypeTaskSkipped, func(e event.Event) {
			skips = append(skips, e.(event.TaskSkippedEvent))
		})

		if err := o.Run(ctx); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(skips) != 1 {
			t.Fatalf("Expected 1 skip event, got %d", len(skips))
		}
		if skips[0].TaskID != "b" || skips[0].Expected != "c" {
			t.Errorf("Unexpected skip payload: %+v", skips[0])
		}
	})

	t.Run("failed run emits run.completed with the error", func(t *testing.T) {
		o := New()
		o.AddGroup(newGroup(t, "g", newTask(t, flow.TaskConfig{ID: "bad", Execute: func(ctx context.Context) (string, error) {
			return "", errors.New("boom")
		}})))

		var runEvents []event.RunCompletedEvent
		o.Subscribe(event.TypeRunCompleted, func(e event.Event) {
			runEvents = append(runEvents, e.(event.RunCompletedEvent))
		})

		if err := o.Run(ctx); err == nil {
			t.Fatal("Expected Run to fail")
		}
		if len(runEvents) != 1 {
			t.Fatalf("Expected 1 run.completed event, got %d", len(runEvents))
		}
		if runEvents[0].Success {
			t.Error("Expected Success=false")
		}
		if runEvents[0].Error != "boom" {
			t.Errorf("Expected error text 'boom', got %q", runEvents[0].Error)
		}
	})
}

func TestOrchestrator_Serialization(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot reflects run state", func(t *testing.T) {
		o := New()
		o.AddGroup(newGroup(t, "ci", succeeding(t, "build"), succeeding(t, "test")))

		if err := o.Run(ctx); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		snap := o.Snapshot()
		ci, ok := snap["ci"]
		if !ok {
			t.Fatal("Expected 'ci' in the snapshot")
		}
		if ci.State != flow.StateCompleted {
			t.Errorf("Expected group state completed, got %q", ci.State)
		}
		if len(ci.Children) != 2 {
			t.Errorf("Expected 2 children, got %d", len(ci.Children))
		}
	})

	t.Run("serialized state is valid JSON", func(t *testing.T) {
		o := New()
		o.AddGroup(newGroup(t, "ci", succeeding(t, "build")))

		data, err := o.SerializedState()
		if err != nil {
			t.Fatalf("SerializedState failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Expected valid JSON: %v", err)
		}
		if _, ok := decoded["ci"]; !ok {
			t.Error("Expected 'ci' key in serialized state")
		}
	})
}

func TestOrchestrator_Reset(t *testing.T) {
	ctx := context.Background()

	o := New()
	inner := newGroup(t, "inner", succeeding(t, "deep"))
	o.AddGroup(newGroup(t, "root", succeeding(t, "top"), inner))

	if err := o.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	o.Reset()

	snap := o.Snapshot()
	if snap["root"].State != flow.StateNotStarted {
		t.Errorf("Expected root group not_started after reset, got %q", snap["root"].State)
	}
	if snap["root"].Children["inner"].Children["deep"].State != flow.StateNotStarted {
		t.Error("Expected nested task to reset")
	}
}

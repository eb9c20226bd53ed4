// Package taskflow implements a minimal dependency-ordered task runner,
// reconstructed from the teacher's pipeline-engine idiom: named tasks
// declare their dependencies, Flow runs each task once its dependencies
// have succeeded, and a context value lets a caller skip named steps
// without touching the graph itself. Used by cmd/epcisconvert's watch
// mode to run a "convert" task and then a "log-result" task as a single
// named pipeline per file instead of one hand-written function.
package taskflow

import (
	"context"
	"fmt"
)

// skipStepsKeyType is unexported so SkipStepsKey is the only valid key
// for the "which steps to skip" context value, avoiding collisions with
// other packages' context keys.
type skipStepsKeyType struct{}

// SkipStepsKey is the context key a caller sets to []string, naming
// tasks that should be treated as already-satisfied no-ops rather than
// run.
var SkipStepsKey = skipStepsKeyType{}

type task struct {
	name string
	fn   func() error
	deps []string
}

// Flow is a named set of tasks ordered by their declared dependencies.
// Not safe for concurrent AddTask/Run calls; build the whole graph
// before calling Run.
type Flow struct {
	name  string
	tasks []task
}

// NewFlow returns an empty Flow identified by name (used only for error
// messages and future observability, not for behavior).
func NewFlow(name string) *Flow {
	return &Flow{name: name}
}

// AddTask registers a task that runs fn once every task named in deps
// has completed successfully.
func (f *Flow) AddTask(name string, fn func() error, deps ...string) {
	f.tasks = append(f.tasks, task{name: name, fn: fn, deps: deps})
}

// Run executes every task in dependency order, stopping at the first
// failure. Tasks named in the SkipStepsKey context value are marked
// done without running, so anything depending on them still proceeds.
// Run returns an error immediately if ctx is already done.
func (f *Flow) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("taskflow %q: %w", f.name, err)
	}

	skip := map[string]bool{}
	if v, ok := ctx.Value(SkipStepsKey).([]string); ok {
		for _, name := range v {
			skip[name] = true
		}
	}

	done := map[string]bool{}
	remaining := make([]task, len(f.tasks))
	copy(remaining, f.tasks)

	for len(remaining) > 0 {
		progressed := false
		next := remaining[:0]

		for _, t := range remaining {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("taskflow %q: %w", f.name, err)
			}
			if !depsSatisfied(t.deps, done) {
				next = append(next, t)
				continue
			}

			if skip[t.name] {
				done[t.name] = true
				progressed = true
				continue
			}

			if err := t.fn(); err != nil {
				return fmt.Errorf("taskflow %q: task %q: %w", f.name, t.name, err)
			}
			done[t.name] = true
			progressed = true
		}

		remaining = next
		if !progressed {
			return fmt.Errorf("taskflow %q: unresolved task dependency among %v", f.name, taskNames(remaining))
		}
	}

	return nil
}

func depsSatisfied(deps []string, done map[string]bool) bool {
	for _, d := range deps {
		if !done[d] {
			return false
		}
	}
	return true
}

func taskNames(tasks []task) []string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.name
	}
	return names
}

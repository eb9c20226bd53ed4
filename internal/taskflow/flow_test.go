package taskflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowRunsTasksInDependencyOrder(t *testing.T) {
	var executed []string

	f := NewFlow("convert-file")
	f.AddTask("prescan", func() error {
		executed = append(executed, "prescan")
		return nil
	})
	f.AddTask("convert", func() error {
		executed = append(executed, "convert")
		return nil
	}, "prescan")

	require.NoError(t, f.Run(context.Background()))
	assert.Equal(t, []string{"prescan", "convert"}, executed)
}

func TestFlowStopsAtFirstFailure(t *testing.T) {
	wantErr := errors.New("prescan failed")
	ran := false

	f := NewFlow("convert-file")
	f.AddTask("prescan", func() error { return wantErr })
	f.AddTask("convert", func() error {
		ran = true
		return nil
	}, "prescan")

	err := f.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.False(t, ran, "convert must not run once prescan failed")
}

func TestFlowRejectsAlreadyCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFlow("convert-file")
	f.AddTask("prescan", func() error { return nil })

	require.Error(t, f.Run(ctx))
}

func TestFlowSkipsOneStepButRunsDownstreamTasks(t *testing.T) {
	var executed []string

	f := NewFlow("convert-file")
	f.AddTask("prescan", func() error { executed = append(executed, "prescan"); return nil })
	f.AddTask("auditlog", func() error { executed = append(executed, "auditlog"); return nil }, "prescan")
	f.AddTask("write-output", func() error { executed = append(executed, "write-output"); return nil }, "auditlog")

	ctx := context.WithValue(context.Background(), SkipStepsKey, []string{"auditlog"})
	require.NoError(t, f.Run(ctx))

	assert.Equal(t, []string{"prescan", "write-output"}, executed)
}

func TestFlowSkipsMultipleSteps(t *testing.T) {
	var executed []string

	f := NewFlow("convert-file")
	f.AddTask("a", func() error { executed = append(executed, "a"); return nil })
	f.AddTask("b", func() error { executed = append(executed, "b"); return nil }, "a")
	f.AddTask("c", func() error { executed = append(executed, "c"); return nil }, "b")
	f.AddTask("d", func() error { executed = append(executed, "d"); return nil }, "c")

	ctx := context.WithValue(context.Background(), SkipStepsKey, []string{"b", "c"})
	require.NoError(t, f.Run(ctx))

	assert.Equal(t, []string{"a", "d"}, executed)
}

func TestFlowWithNoSkippedStepsRunsEverything(t *testing.T) {
	var executed []string

	f := NewFlow("convert-file")
	f.AddTask("prescan", func() error { executed = append(executed, "prescan"); return nil })
	f.AddTask("convert", func() error { executed = append(executed, "convert"); return nil }, "prescan")

	require.NoError(t, f.Run(context.Background()))
	assert.Len(t, executed, 2)
}

func TestFlowReportsUnresolvedDependency(t *testing.T) {
	f := NewFlow("convert-file")
	f.AddTask("convert", func() error { return nil }, "missing-step")

	err := f.Run(context.Background())
	require.Error(t, err)
}

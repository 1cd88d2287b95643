package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schlarpc/nixos-scaleway/pkg/builder"
)

func testOptions() builder.Options {
	return builder.DefaultOptions()
}

func updateModel(t *testing.T, m BuildModel, msg tea.Msg) (BuildModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	model, ok := updated.(BuildModel)
	require.True(t, ok)
	return model, cmd
}

func TestProgressEventsAccumulate(t *testing.T) {
	m := NewBuildModel(nil, testOptions())

	m, cmd := updateModel(t, m, buildProgressMsg(builder.NewProgressEvent(builder.StageProvision, "Provisioning build server...", 10)))
	require.Len(t, m.events, 1)
	assert.Equal(t, builder.StageProvision, m.events[0].Stage)
	// The model re-arms the progress listener after every event.
	assert.NotNil(t, cmd)
}

func TestCompleteDrainsPendingEvents(t *testing.T) {
	m := NewBuildModel(nil, testOptions())
	m.progressChan <- builder.NewProgressEvent(builder.StageSnapshot, "Snapshotting volume...", 80)
	m.progressChan <- builder.NewProgressEvent(builder.StageComplete, "Build complete", 100)
	close(m.progressChan)

	result := &builder.Result{Success: true, ImageName: "nixos-2026-08-24T10:30:00"}
	m, cmd := updateModel(t, m, buildCompleteMsg{result: result})

	assert.True(t, m.done)
	assert.Same(t, result, m.Result())
	require.Len(t, m.events, 2)
	assert.Equal(t, builder.StageComplete, m.events[1].Stage)

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
	} {
		m := NewBuildModel(nil, testOptions())
		m, cmd := updateModel(t, m, key)

		assert.True(t, m.quitting)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestWindowSizeClampsProgressBar(t *testing.T) {
	m := NewBuildModel(nil, testOptions())

	m, _ = updateModel(t, m, tea.WindowSizeMsg{Width: 200, Height: 50})
	assert.Equal(t, 60, m.progressBar.Width)

	m, _ = updateModel(t, m, tea.WindowSizeMsg{Width: 50, Height: 50})
	assert.Equal(t, 40, m.progressBar.Width)
}

func TestStartBuildRelaysResult(t *testing.T) {
	emitted := []builder.ProgressEvent{
		builder.NewProgressEvent(builder.StageValidate, "Validating build options...", 2),
		builder.NewProgressEventWithDetail(builder.StageBootstrap, "Running bootstrap...", "+ parted", 40),
	}
	build := func(_ context.Context, _ builder.Options, progress builder.ProgressCallback) (*builder.Result, error) {
		for _, e := range emitted {
			progress(e)
		}
		return &builder.Result{Success: true, ImageName: "nixos-test"}, nil
	}

	m := NewBuildModel(build, testOptions())
	msg := m.startBuild()()

	complete, ok := msg.(buildCompleteMsg)
	require.True(t, ok)
	assert.True(t, complete.result.Success)

	// The build already closed the channel, so completion drains both events.
	m, _ = updateModel(t, m, complete)
	require.Len(t, m.events, 2)
	assert.Equal(t, "+ parted", m.events[1].Detail)
}

func TestWaitForProgress(t *testing.T) {
	m := NewBuildModel(nil, testOptions())
	event := builder.NewProgressEvent(builder.StageBoot, "Starting server...", 15)
	m.progressChan <- event

	msg := m.waitForProgress()()
	progressMsg, ok := msg.(buildProgressMsg)
	require.True(t, ok)
	assert.Equal(t, event.Message, progressMsg.Message)

	close(m.progressChan)
	assert.Nil(t, m.waitForProgress()())
}

func TestViewRendersEventLog(t *testing.T) {
	m := NewBuildModel(nil, testOptions())
	m, _ = updateModel(t, m, buildProgressMsg(builder.NewProgressEvent(builder.StageProvision, "Provisioning build server...", 10)))
	m, _ = updateModel(t, m, buildProgressMsg(builder.NewProgressEventWithDetail(builder.StageConnect, "Connecting over SSH...", "root@51.15.0.1", 30)))

	view := m.View()
	assert.Contains(t, view, "Provisioning build server...")
	assert.Contains(t, view, "Connecting over SSH...")
	assert.Contains(t, view, "root@51.15.0.1")
	assert.Contains(t, view, "Press Ctrl+C to cancel")
}

func TestViewAfterCompletion(t *testing.T) {
	m := NewBuildModel(nil, testOptions())
	close(m.progressChan)
	m, _ = updateModel(t, m, buildCompleteMsg{result: &builder.Result{Success: true, ImageName: "nixos-test"}})

	view := m.View()
	assert.Contains(t, view, "Image nixos-test is ready")
	assert.NotContains(t, view, "Press Ctrl+C")
}

func TestViewAfterFailure(t *testing.T) {
	m := NewBuildModel(nil, testOptions())
	close(m.progressChan)
	m, _ = updateModel(t, m, buildCompleteMsg{result: &builder.Result{Success: false, Error: errors.New("boom")}})

	view := m.View()
	assert.Contains(t, view, "Build failed")
}

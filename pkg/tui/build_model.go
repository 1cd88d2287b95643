package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/schlarpc/nixos-scaleway/pkg/builder"
)

// buildProgressMsg wraps a builder.ProgressEvent for Bubble Tea.
type buildProgressMsg builder.ProgressEvent

// buildCompleteMsg is sent when the build finishes.
type buildCompleteMsg struct {
	result *builder.Result
}

// BuildFunc runs an image build and reports progress along the way.
// builder.Builder.Build satisfies it.
type BuildFunc func(ctx context.Context, opts builder.Options, progress builder.ProgressCallback) (*builder.Result, error)

// BuildModel is a Bubble Tea model for image build progress.
type BuildModel struct {
	build BuildFunc
	opts  builder.Options

	spinner      spinner.Model
	progressBar  progress.Model
	events       []builder.ProgressEvent
	progressChan chan builder.ProgressEvent
	result       *builder.Result
	done         bool
	quitting     bool

	width  int
	height int
}

// NewBuildModel creates the progress model around a build function.
func NewBuildModel(build BuildFunc, opts builder.Options) BuildModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return BuildModel{
		build:        build,
		opts:         opts,
		spinner:      s,
		progressBar:  p,
		events:       make([]builder.ProgressEvent, 0),
		progressChan: make(chan builder.ProgressEvent, 100),
	}
}

// Result returns the build result once the model has finished.
func (m BuildModel) Result() *builder.Result {
	return m.result
}

func (m BuildModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.startBuild(),
		m.waitForProgress(),
	)
}

func (m BuildModel) startBuild() tea.Cmd {
	return func() tea.Msg {
		progressCallback := func(e builder.ProgressEvent) {
			m.progressChan <- e
		}

		ctx := context.Background()
		result, _ := m.build(ctx, m.opts, progressCallback)

		// The channel is closed before the completion message is sent,
		// so the Update drain below always terminates.
		close(m.progressChan)

		return buildCompleteMsg{result: result}
	}
}

func (m BuildModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.progressChan
		if !ok {
			return nil // Channel closed
		}
		return buildProgressMsg(event)
	}
}

func (m BuildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = min(msg.Width-10, 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd

	case buildProgressMsg:
		m.events = append(m.events, builder.ProgressEvent(msg))
		// Continue listening for more progress events
		return m, tea.Batch(
			m.waitForProgress(),
			m.progressBar.SetPercent(float64(msg.Percent)/100.0),
		)

	case buildCompleteMsg:
		// Pick up whatever the in-flight listener hasn't relayed yet so
		// the final view shows the full event log.
		for event := range m.progressChan {
			m.events = append(m.events, event)
		}
		m.done = true
		m.result = msg.result
		return m, tea.Quit
	}

	return m, nil
}

func (m BuildModel) View() string {
	if m.quitting && !m.done {
		return "\n  Cancelling...\n"
	}

	var s strings.Builder

	header := TitleStyle.Render(fmt.Sprintf(" Building NixOS image (%s, %s) ", m.opts.Zone, m.opts.InstanceType))
	s.WriteString("\n")
	s.WriteString(header)
	s.WriteString("\n\n")

	// Progress bar
	if len(m.events) > 0 {
		lastEvent := m.events[len(m.events)-1]
		percent := lastEvent.Percent
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}

		barView := m.progressBar.ViewAs(float64(percent) / 100.0)
		s.WriteString(progressBarStyle.Render(barView))
		s.WriteString(fmt.Sprintf(" %d%%", percent))
		s.WriteString("\n\n")
	}

	// Event log
	for i, event := range m.events {
		isLast := i == len(m.events)-1 && !m.done

		icon := "  "
		msgStyle := DimStyle

		if event.IsError {
			icon = ErrorStyle.Render("  ")
			msgStyle = ErrorStyle
		} else if event.Stage == builder.StageComplete {
			icon = SuccessStyle.Render("  ")
			msgStyle = SuccessStyle
		} else if isLast {
			icon = ActiveStyle.Render("  ")
			msgStyle = lipgloss.NewStyle()
		} else {
			icon = SuccessStyle.Render("  ")
		}

		s.WriteString(icon)
		s.WriteString(msgStyle.Render(event.Message))
		s.WriteString("\n")

		// Show detail for the active step or errors
		if event.Detail != "" && (isLast || event.IsError) {
			s.WriteString("     ")
			s.WriteString(detailStyle.Render(event.Detail))
			s.WriteString("\n")
		}
	}

	// Spinner if still building
	if !m.done && len(m.events) > 0 {
		s.WriteString("\n")
		s.WriteString("  ")
		s.WriteString(m.spinner.View())
		s.WriteString(" Working...")
		s.WriteString("\n")
	}

	// Footer
	s.WriteString("\n")
	switch {
	case m.done && m.result != nil && m.result.Success:
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("  Image %s is ready", m.result.ImageName)))
	case m.done:
		s.WriteString(ErrorStyle.Render("  Build failed"))
	default:
		s.WriteString(DimStyle.Render("  Press Ctrl+C to cancel"))
	}
	s.WriteString("\n")

	return s.String()
}

// Run drives the model to completion on the attached terminal.
func Run(build BuildFunc, opts builder.Options) (*builder.Result, error) {
	model := NewBuildModel(build, opts)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, fmt.Errorf("progress display failed: %w", err)
	}
	finished, ok := final.(BuildModel)
	if !ok {
		return nil, fmt.Errorf("unexpected final model %T", final)
	}
	if finished.result == nil {
		return nil, fmt.Errorf("build cancelled")
	}
	return finished.result, nil
}

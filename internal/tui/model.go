package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/andy/docket/internal/domain"
	"github.com/andy/docket/internal/logger"
	"github.com/andy/docket/internal/service"
)

// Deps is what the UI needs from the app
type Deps struct {
	Timer   Engine
	Reports service.ReportService
	Matters []*domain.Matter
	Logger  logger.Logger
}

// Model is the root Bubble Tea model
type Model struct {
	timer  *TimerModel
	width  int
	height int

	// Error state
	err error
}

// New creates a new root model
func New(ctx context.Context, d Deps) Model {
	return Model{timer: NewTimerModel(ctx, d)}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return m.timer.Init()
}

// Update implements tea.Model - handles global keys and routes the rest to the timer screen
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.timer.Close()
			return m, tea.Quit
		}
		if !m.timer.IsCapturingInput() && key.Matches(msg, DefaultKeyMap.Quit) {
			m.timer.Close()
			return m, tea.Quit
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil
	}

	_, cmd := m.timer.Update(msg)
	return m, cmd
}

// View implements tea.Model - renders header + timer screen + footer
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := headerStyle.Render("docket - Timer")

	footer := footerStyle.Render("[1-9] Switch  [P]ause  [R]esume  [S]top  [F] Refresh  [Q]uit")
	if m.timer.IsCapturingInput() {
		footer = footerStyle.Render("[Enter] Save  [Esc] Cancel")
	}

	content := m.timer.View()

	errorDisplay := ""
	if m.err != nil {
		errorDisplay = lipgloss.NewStyle().
			Foreground(errorColor).
			Render(fmt.Sprintf("\nError: %s", m.err.Error()))
	}

	// Divider line between header and content
	innerWidth := m.width - 6 // account for border (2) + padding (4)
	if innerWidth < 20 {
		innerWidth = 20
	}
	dividerWidth := innerWidth - 12
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	divider := lipgloss.NewStyle().Foreground(borderColor).Render(
		strings.Repeat("─", dividerWidth),
	)

	body := fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s\n%s", header, divider, content, errorDisplay, divider, footer)

	// Wrap in border, sized to terminal
	frame := appBorderStyle.
		Width(innerWidth).
		Height(m.height - 4) // leave room for border top/bottom
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame.Render(body))
}

// Run starts the TUI
func Run(ctx context.Context, d Deps) error {
	p := tea.NewProgram(New(ctx, d), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/andy/docket/internal/billing"
	"github.com/andy/docket/internal/domain"
	"github.com/andy/docket/internal/logger"
	"github.com/andy/docket/internal/service"
)

// Engine is the part of the timer engine the UI drives
type Engine interface {
	Snapshot() service.TimerSnapshot
	Subscribe() (<-chan service.TimerSnapshot, func())
	Refresh(ctx context.Context) error
	Start(ctx context.Context, ref domain.MatterRef) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop() error
	QuickSwitch(ctx context.Context, next domain.MatterRef) error
	SubmitQuickAction(ctx context.Context, notes string) (*domain.TimeEntry, error)
	CancelQuickAction()
}

// waitForSnapshot blocks until the engine publishes again
func waitForSnapshot(ch <-chan service.TimerSnapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg{snap: snap}
	}
}

func loadTodayCmd(ctx context.Context, reports service.ReportService, at time.Time) tea.Cmd {
	if reports == nil {
		return nil
	}
	return func() tea.Msg {
		summary, err := reports.GetDailySummary(ctx, at.Local())
		return todayLoadedMsg{summary: summary, err: err}
	}
}

// TimerModel shows the live timer, the matter list and the notes prompt
type TimerModel struct {
	ctx     context.Context
	engine  Engine
	reports service.ReportService
	log     logger.Logger

	updates     <-chan service.TimerSnapshot
	unsubscribe func()

	snap    service.TimerSnapshot
	matters []*domain.Matter
	cursor  int
	notes   textarea.Model
	today   *service.DailySummary

	err       error
	statusMsg string
}

// NewTimerModel creates a TimerModel subscribed to the engine
func NewTimerModel(ctx context.Context, d Deps) *TimerModel {
	log := d.Logger
	if log == nil {
		log = logger.NewNop()
	}

	ta := textarea.New()
	ta.Placeholder = "What did you work on? (enter to save, esc to cancel)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetHeight(3)
	ta.SetWidth(60)

	updates, unsubscribe := d.Timer.Subscribe()
	m := &TimerModel{
		ctx:         ctx,
		engine:      d.Timer,
		reports:     d.Reports,
		log:         log,
		updates:     updates,
		unsubscribe: unsubscribe,
		matters:     d.Matters,
		notes:       ta,
	}
	m.applySnapshot(d.Timer.Snapshot())
	return m
}

// IsCapturingInput returns true while the notes prompt is open
func (m *TimerModel) IsCapturingInput() bool {
	return m.snap.QuickSwitch.Pending
}

// Close stops listening to the engine
func (m *TimerModel) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Init waits for snapshots and loads today's entries
func (m *TimerModel) Init() tea.Cmd {
	return tea.Batch(
		waitForSnapshot(m.updates),
		loadTodayCmd(m.ctx, m.reports, m.snap.At),
	)
}

// Update handles key events and engine snapshots
func (m *TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.applySnapshot(msg.snap)
		return m, waitForSnapshot(m.updates)

	case actionDoneMsg:
		m.applySnapshot(m.engine.Snapshot())
		if msg.err != nil {
			m.err = msg.err
			m.log.Debug("timer action failed", logger.String("action", msg.action), logger.Error(msg.err))
		}
		if msg.closed != nil {
			end := *msg.closed.EndAt
			m.statusMsg = fmt.Sprintf("Saved %s: %s, %s",
				msg.closed.MatterName,
				billing.FormatBillableHours(msg.closed.BillableHours(end)),
				billing.FormatMoney(msg.closed.Amount(end)))
			return m, loadTodayCmd(m.ctx, m.reports, m.snap.At)
		}
		if msg.action == "submit" && msg.err == nil && m.snap.Entry != nil {
			m.statusMsg = "Started " + m.snap.Label
		}
		return m, nil

	case todayLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.today = msg.summary
		return m, nil

	case tea.WindowSizeMsg:
		width := msg.Width - 16
		if width < 20 {
			width = 20
		}
		m.notes.SetWidth(width)
		return m, nil

	case tea.KeyMsg:
		if m.snap.QuickSwitch.Pending {
			return m.updatePrompt(msg)
		}
		return m.updateTimer(msg)
	}

	return m, nil
}

func (m *TimerModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, DefaultKeyMap.Submit):
		if m.snap.Busy {
			return m, nil
		}
		m.err = nil
		notes := strings.TrimSpace(m.notes.Value())
		return m, m.submit(notes)

	case key.Matches(msg, DefaultKeyMap.Cancel):
		m.engine.CancelQuickAction()
		m.applySnapshot(m.engine.Snapshot())
		return m, nil
	}

	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return m, cmd
}

func (m *TimerModel) updateTimer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	m.statusMsg = ""

	switch {
	case key.Matches(msg, DefaultKeyMap.Pause):
		if m.snap.IsRunning {
			return m, m.run("pause", m.engine.Pause)
		}
		return m, nil

	case key.Matches(msg, DefaultKeyMap.Resume):
		if m.snap.IsPaused {
			return m, m.run("resume", m.engine.Resume)
		}
		return m, nil

	case key.Matches(msg, DefaultKeyMap.Stop):
		if m.snap.Entry == nil {
			return m, nil
		}
		if err := m.engine.Stop(); err != nil {
			m.err = err
		}
		m.applySnapshot(m.engine.Snapshot())
		return m, nil

	case key.Matches(msg, DefaultKeyMap.Refresh):
		return m, tea.Batch(
			m.run("refresh", m.engine.Refresh),
			loadTodayCmd(m.ctx, m.reports, m.snap.At),
		)

	case key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(m.matters)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, DefaultKeyMap.Select):
		return m, m.switchTo(m.cursor)
	}

	// 1-9 quick switch
	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		idx := int(s[0] - '1')
		if idx < len(m.matters) {
			m.cursor = idx
			return m, m.switchTo(idx)
		}
	}

	return m, nil
}

// switchTo starts or switches to the matter at idx. The engine opens the
// notes prompt when there is an entry to close first.
func (m *TimerModel) switchTo(idx int) tea.Cmd {
	if idx < 0 || idx >= len(m.matters) || m.snap.Busy {
		return nil
	}
	ref := m.matters[idx].Ref()
	return m.run("switch", func(ctx context.Context) error {
		return m.engine.QuickSwitch(ctx, ref)
	})
}

func (m *TimerModel) submit(notes string) tea.Cmd {
	return func() tea.Msg {
		closed, err := m.engine.SubmitQuickAction(m.ctx, notes)
		return actionDoneMsg{action: "submit", closed: closed, err: err}
	}
}

func (m *TimerModel) run(action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(m.ctx)}
	}
}

// applySnapshot stores snap and opens or closes the notes prompt to match
func (m *TimerModel) applySnapshot(snap service.TimerSnapshot) {
	wasPending := m.snap.QuickSwitch.Pending
	m.snap = snap

	switch {
	case snap.QuickSwitch.Pending && !wasPending:
		m.notes.Reset()
		m.notes.Focus()
	case !snap.QuickSwitch.Pending && wasPending:
		m.notes.Blur()
		m.notes.Reset()
	}
}

// View renders the timer screen
func (m *TimerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Timer"))
	b.WriteString("\n\n")
	b.WriteString(m.viewTimer())

	if m.snap.QuickSwitch.Pending {
		b.WriteString("\n")
		b.WriteString(m.viewPrompt())
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render("✓ " + m.statusMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.viewMatters())
	b.WriteString("\n")
	b.WriteString(m.viewToday())
	return b.String()
}

func (m *TimerModel) viewTimer() string {
	snap := m.snap
	if snap.Entry == nil {
		return timerIdleStyle.Render("IDLE") + "  " + subtitleStyle.Render("pick a matter below to start") + "\n"
	}

	state := timerRunningStyle.Render("RUNNING")
	if snap.IsPaused {
		state = timerPausedStyle.Render("PAUSED")
	}
	if snap.Busy {
		state += subtitleStyle.Render("  saving...")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n", state, snap.Label)
	fmt.Fprintf(&b, "  %s\n\n", timerClockStyle.Render(billing.FormatDuration(snap.ElapsedSeconds)))
	fmt.Fprintf(&b, "Billable: %s @ %s/hr = %s\n",
		billing.FormatBillableHours(snap.BillableHours),
		billing.FormatMoney(snap.Entry.HourlyRate),
		timerValueStyle.Render(billing.FormatMoney(snap.Amount)))
	fmt.Fprintf(&b, "Started: %s\n", snap.Entry.StartAt.Local().Format("Mon 15:04"))
	return b.String()
}

func (m *TimerModel) viewPrompt() string {
	q := m.snap.QuickSwitch

	var b strings.Builder
	fmt.Fprintf(&b, "Notes for %s", q.StoppedEntryLabel)
	if q.NextMatter != nil {
		fmt.Fprintf(&b, ", then start %s", q.NextMatter.Name)
	}
	b.WriteString("\n")
	b.WriteString(m.notes.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter save • esc cancel"))
	return promptStyle.Render(b.String()) + "\n"
}

func (m *TimerModel) viewMatters() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Matters"))
	b.WriteString("\n")

	if len(m.matters) == 0 {
		b.WriteString("No matters yet. Add one with: docket matters add <name> --client <client>\n")
		return b.String()
	}

	var current string
	if m.snap.Entry != nil {
		current = m.snap.Entry.MatterID
	}

	for i, matter := range m.matters {
		shortcut := "   "
		if i < 9 {
			shortcut = fmt.Sprintf("[%d]", i+1)
		}
		line := fmt.Sprintf("%s %s (%s/hr)", shortcut,
			truncateStr(matter.Label(), 50),
			billing.FormatMoney(matter.Ref().HourlyRate))

		switch {
		case i == m.cursor && !m.snap.QuickSwitch.Pending:
			line = selectedStyle.Render(line)
		case matter.ID == current:
			line = currentStyle.Render(line + " ●")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *TimerModel) viewToday() string {
	if m.today == nil || len(m.today.Entries) == 0 {
		return ""
	}
	return subtitleStyle.Render(fmt.Sprintf("Today: %d entries, %s, %s",
		len(m.today.Entries),
		billing.FormatBillableHours(m.today.BillableHours),
		billing.FormatMoney(m.today.TotalValue))) + "\n"
}

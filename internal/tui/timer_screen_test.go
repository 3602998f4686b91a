package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/andy/docket/internal/domain"
	"github.com/andy/docket/internal/service"
)

type fakeEngine struct {
	snap    service.TimerSnapshot
	updates chan service.TimerSnapshot

	calls      []string
	switchedTo string
	notes      string
	submitErr  error
	closed     *domain.TimeEntry
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{updates: make(chan service.TimerSnapshot, 1)}
}

func (f *fakeEngine) Snapshot() service.TimerSnapshot { return f.snap }

func (f *fakeEngine) Subscribe() (<-chan service.TimerSnapshot, func()) {
	return f.updates, func() { f.calls = append(f.calls, "unsubscribe") }
}

func (f *fakeEngine) Refresh(ctx context.Context) error {
	f.calls = append(f.calls, "refresh")
	return nil
}

func (f *fakeEngine) Start(ctx context.Context, ref domain.MatterRef) error {
	f.calls = append(f.calls, "start")
	return nil
}

func (f *fakeEngine) Pause(ctx context.Context) error {
	f.calls = append(f.calls, "pause")
	return nil
}

func (f *fakeEngine) Resume(ctx context.Context) error {
	f.calls = append(f.calls, "resume")
	return nil
}

func (f *fakeEngine) Stop() error {
	f.calls = append(f.calls, "stop")
	f.snap.QuickSwitch = domain.QuickSwitchState{Pending: true, StoppedEntryLabel: f.snap.Label}
	return nil
}

func (f *fakeEngine) QuickSwitch(ctx context.Context, next domain.MatterRef) error {
	f.calls = append(f.calls, "switch")
	f.switchedTo = next.ID
	return nil
}

func (f *fakeEngine) SubmitQuickAction(ctx context.Context, notes string) (*domain.TimeEntry, error) {
	f.calls = append(f.calls, "submit")
	f.notes = notes
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.snap = service.TimerSnapshot{State: domain.TimerStateIdle, At: f.snap.At}
	return f.closed, nil
}

func (f *fakeEngine) CancelQuickAction() {
	f.calls = append(f.calls, "cancel")
	f.snap.QuickSwitch = domain.QuickSwitchState{}
}

func (f *fakeEngine) called(name string) bool {
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

var testNow = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func runningSnapshot() service.TimerSnapshot {
	entry := &domain.TimeEntry{
		ID:         "entry-1",
		UserID:     "user-1",
		MatterID:   "matter-1",
		ClientID:   "client-1",
		MatterName: "Merger",
		HourlyRate: 300,
		StartAt:    testNow.Add(-12 * time.Minute),
	}
	return service.TimerSnapshot{
		Entry:          entry,
		State:          domain.TimerStateRunning,
		Label:          "Acme / Merger",
		ElapsedSeconds: 720,
		IsRunning:      true,
		BillableHours:  0.2,
		Amount:         60,
		At:             testNow,
	}
}

func testMatters() []*domain.Matter {
	client := &domain.Client{ID: "client-1", Name: "Acme", HourlyRate: 300}
	rate := 450.0
	return []*domain.Matter{
		{ID: "matter-1", ClientID: "client-1", Name: "Merger", Client: client},
		{ID: "matter-2", ClientID: "client-1", Name: "Litigation", HourlyRate: &rate, Client: client},
	}
}

func newTestModel(t *testing.T, engine *fakeEngine) *TimerModel {
	t.Helper()
	return NewTimerModel(context.Background(), Deps{
		Timer:   engine,
		Matters: testMatters(),
	})
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and runs the returned command once, feeding its message
// back. Text typed into the prompt only returns cursor commands, which are
// not run.
func press(t *testing.T, m *TimerModel, s string) {
	t.Helper()
	typing := m.IsCapturingInput() && s != "enter" && s != "esc"
	_, cmd := m.Update(keyMsg(s))
	if cmd == nil || typing {
		return
	}
	if msg, ok := cmd().(actionDoneMsg); ok {
		m.Update(msg)
	}
}

func TestTimerModel_PauseAndResume(t *testing.T) {
	engine := newFakeEngine()
	engine.snap = runningSnapshot()
	m := newTestModel(t, engine)

	press(t, m, "r") // not paused
	if engine.called("resume") {
		t.Fatal("resume should be ignored while running")
	}

	press(t, m, "p")
	if !engine.called("pause") {
		t.Fatal("expected pause")
	}

	engine.snap.IsRunning = false
	engine.snap.IsPaused = true
	m.Update(snapshotMsg{snap: engine.snap})

	press(t, m, "r")
	if !engine.called("resume") {
		t.Fatal("expected resume")
	}
}

func TestTimerModel_StopOpensPromptAndSubmitsNotes(t *testing.T) {
	engine := newFakeEngine()
	engine.snap = runningSnapshot()
	end := testNow
	closed := *engine.snap.Entry
	closed.EndAt = &end
	engine.closed = &closed
	m := newTestModel(t, engine)

	press(t, m, "s")
	if !m.IsCapturingInput() {
		t.Fatal("expected the notes prompt to open")
	}
	if !strings.Contains(m.View(), "Notes for Acme / Merger") {
		t.Errorf("prompt not rendered:\n%s", m.View())
	}

	// keys go to the prompt, not the timer
	press(t, m, "p")
	if engine.called("pause") {
		t.Fatal("pause should not fire while the prompt is open")
	}

	press(t, m, "rev")
	press(t, m, "enter")

	if !engine.called("submit") {
		t.Fatal("expected submit")
	}
	if engine.notes != "prev" {
		t.Errorf("notes = %q, want %q", engine.notes, "prev")
	}
	if m.IsCapturingInput() {
		t.Error("prompt should close after a successful submit")
	}
	if !strings.Contains(m.statusMsg, "0.2 hr (12 min)") || !strings.Contains(m.statusMsg, "$60.00") {
		t.Errorf("status = %q", m.statusMsg)
	}
}

func TestTimerModel_FailedSubmitKeepsPrompt(t *testing.T) {
	engine := newFakeEngine()
	engine.snap = runningSnapshot()
	engine.submitErr = errors.New("network down")
	m := newTestModel(t, engine)

	press(t, m, "s")
	press(t, m, "enter")

	if !m.IsCapturingInput() {
		t.Fatal("prompt should stay open after a failed submit")
	}
	if m.err == nil || !strings.Contains(m.View(), "network down") {
		t.Errorf("expected the error to be shown, got %v", m.err)
	}
}

func TestTimerModel_EscCancelsPrompt(t *testing.T) {
	engine := newFakeEngine()
	engine.snap = runningSnapshot()
	m := newTestModel(t, engine)

	press(t, m, "s")
	press(t, m, "esc")

	if !engine.called("cancel") {
		t.Fatal("expected cancel")
	}
	if m.IsCapturingInput() {
		t.Error("prompt should be closed")
	}
	if engine.called("submit") {
		t.Error("cancel must not write")
	}
}

func TestTimerModel_NumberKeySwitchesMatter(t *testing.T) {
	engine := newFakeEngine()
	engine.snap = runningSnapshot()
	m := newTestModel(t, engine)

	press(t, m, "2")
	if engine.switchedTo != "matter-2" {
		t.Errorf("switched to %q, want matter-2", engine.switchedTo)
	}

	press(t, m, "9") // out of range
	if engine.switchedTo != "matter-2" {
		t.Errorf("out-of-range key switched to %q", engine.switchedTo)
	}
}

func TestTimerModel_CursorSelect(t *testing.T) {
	engine := newFakeEngine()
	engine.snap = service.TimerSnapshot{State: domain.TimerStateIdle, At: testNow}
	m := newTestModel(t, engine)

	press(t, m, "j")
	press(t, m, "j") // clamps at the end
	press(t, m, "enter")

	if engine.switchedTo != "matter-2" {
		t.Errorf("switched to %q, want matter-2", engine.switchedTo)
	}
}

func TestTimerModel_PromptFollowsEngine(t *testing.T) {
	engine := newFakeEngine()
	engine.snap = runningSnapshot()
	m := newTestModel(t, engine)

	// another surface opened the prompt
	snap := runningSnapshot()
	snap.QuickSwitch = domain.QuickSwitchState{Pending: true, StoppedEntryLabel: "Acme / Merger"}
	_, cmd := m.Update(snapshotMsg{snap: snap})
	if cmd == nil {
		t.Fatal("expected to keep waiting for snapshots")
	}
	if !m.IsCapturingInput() {
		t.Fatal("expected prompt")
	}

	// the entry went away
	m.Update(snapshotMsg{snap: service.TimerSnapshot{State: domain.TimerStateIdle, At: testNow}})
	if m.IsCapturingInput() {
		t.Error("prompt should close when the engine clears it")
	}
	if !strings.Contains(m.View(), "IDLE") {
		t.Errorf("expected idle view:\n%s", m.View())
	}
}

func TestTimerModel_ViewShowsBilling(t *testing.T) {
	engine := newFakeEngine()
	engine.snap = runningSnapshot()
	m := newTestModel(t, engine)

	view := m.View()
	for _, want := range []string{"RUNNING", "Acme / Merger", "00:12:00", "0.2 hr (12 min)", "$60.00", "$450.00/hr"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_QuitBlockedWhilePromptOpen(t *testing.T) {
	engine := newFakeEngine()
	engine.snap = runningSnapshot()
	root := New(context.Background(), Deps{Timer: engine, Matters: testMatters()})

	_, cmd := root.timer.Update(keyMsg("s"))
	_ = cmd

	root.Update(keyMsg("q"))
	if !strings.Contains(root.timer.notes.Value(), "q") {
		t.Fatal("q should type into the prompt, not quit")
	}

	_, cmd = root.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("ctrl+c should always quit")
	}
	if !engine.called("unsubscribe") {
		t.Error("quitting should unsubscribe from the engine")
	}
}

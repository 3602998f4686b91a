package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/andy/docket/internal/db"
	"github.com/andy/docket/internal/domain"
)

type fixture struct {
	clients *ClientRepo
	matters *MatterRepo
	entries *EntryRepo
	matter  *domain.Matter
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"), "test-key")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.RunMigrations(); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	f := &fixture{
		clients: NewClientRepo(database),
		matters: NewMatterRepo(database),
		entries: NewEntryRepo(database),
		now:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	f.entries.now = func() time.Time { return f.now }

	ctx := context.Background()
	client := domain.NewClient("Acme Corp", 300)
	if err := f.clients.Create(ctx, client); err != nil {
		t.Fatalf("create client: %v", err)
	}
	f.matter = domain.NewMatter(client.ID, "Merger Review", nil)
	if err := f.matters.Create(ctx, f.matter); err != nil {
		t.Fatalf("create matter: %v", err)
	}
	return f
}

func (f *fixture) newEntry(user string) domain.NewEntry {
	return domain.NewEntry{
		UserID:     user,
		MatterID:   f.matter.ID,
		ClientID:   f.matter.ClientID,
		HourlyRate: 300,
		StartAt:    f.now,
	}
}

func TestClientRepoLookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	byName, err := f.clients.GetByName(ctx, "Acme Corp")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	byID, err := f.clients.GetByID(ctx, byName.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if diff := cmp.Diff(byName, byID); diff != "" {
		t.Fatalf("lookups disagree (-name +id):\n%s", diff)
	}

	if _, err := f.clients.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	dup := domain.NewClient("Acme Corp", 100)
	if err := f.clients.Create(ctx, dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for duplicate name, got %v", err)
	}
}

func TestMatterRepoPopulatesClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rate := 450.0
	other := domain.NewMatter(f.matter.ClientID, "Patent Filing", &rate)
	if err := f.matters.Create(ctx, other); err != nil {
		t.Fatalf("create matter: %v", err)
	}

	got, err := f.matters.GetByID(ctx, f.matter.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Client == nil || got.Client.Name != "Acme Corp" {
		t.Fatalf("client not populated: %+v", got.Client)
	}
	if ref := got.Ref(); ref.HourlyRate != 300 {
		t.Fatalf("Ref().HourlyRate = %v, want client default 300", ref.HourlyRate)
	}

	list, err := f.matters.List(ctx, f.matter.ClientID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List returned %d matters, want 2", len(list))
	}
	// ordered by name
	if list[0].Name != "Merger Review" || list[1].Ref().HourlyRate != 450 {
		t.Fatalf("unexpected list: %s, %s", list[0].Name, list[1].Name)
	}
}

func TestFindActiveEntryIdle(t *testing.T) {
	f := newFixture(t)

	got, err := f.entries.FindActiveEntry(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil entry, got %+v", got)
	}

	if _, err := f.entries.FindActiveEntry(context.Background(), ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestCreateEntryRejectsSecondActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.entries.CreateEntry(ctx, f.newEntry("u1"))
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if first.MatterName != "Merger Review" || !first.IsActive() {
		t.Fatalf("unexpected entry: %+v", first)
	}

	if _, err := f.entries.CreateEntry(ctx, f.newEntry("u1")); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// other users are independent
	if _, err := f.entries.CreateEntry(ctx, f.newEntry("u2")); err != nil {
		t.Fatalf("CreateEntry for another user: %v", err)
	}

	active, err := f.entries.FindActiveEntry(ctx, "u1")
	if err != nil {
		t.Fatalf("FindActiveEntry: %v", err)
	}
	if active.ID != first.ID {
		t.Fatalf("active entry = %s, want %s", active.ID, first.ID)
	}
}

func TestCreateEntryUnknownMatterIsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n := f.newEntry("u1")
	n.MatterID = "no-such-matter"
	_, err := f.entries.CreateEntry(ctx, n)
	if !errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected validation error, got %v (kind %s)", err, domain.ErrorKind(err))
	}

	active, err := f.entries.FindActiveEntry(ctx, "u1")
	if err != nil || active != nil {
		t.Fatalf("expected no active entry, got %+v, %v", active, err)
	}
}

func TestUpdateEntryPauseResumeStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.entries.CreateEntry(ctx, f.newEntry("u1"))
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	pausedAt := f.now.Add(100 * time.Second)
	paused, err := f.entries.UpdateEntry(ctx, entry.ID, domain.EntryPatch{PausedAt: &pausedAt})
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !paused.IsPaused() || !paused.PausedAt.Equal(pausedAt) {
		t.Fatalf("expected paused at %v, got %+v", pausedAt, paused.PausedAt)
	}

	total := int64(60)
	resumed, err := f.entries.UpdateEntry(ctx, entry.ID, domain.EntryPatch{ClearPausedAt: true, TotalPausedSeconds: &total})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.IsPaused() || resumed.TotalPausedSeconds != 60 {
		t.Fatalf("unexpected resumed entry: %+v", resumed)
	}

	end := f.now.Add(460 * time.Second)
	notes := "reviewed disclosure schedules"
	f.now = end
	closed, err := f.entries.UpdateEntry(ctx, entry.ID, domain.EntryPatch{EndAt: &end, Notes: &notes})
	if err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := &domain.TimeEntry{
		ID:                 entry.ID,
		UserID:             "u1",
		MatterID:           f.matter.ID,
		ClientID:           f.matter.ClientID,
		MatterName:         "Merger Review",
		HourlyRate:         300,
		StartAt:            entry.StartAt,
		EndAt:              &end,
		TotalPausedSeconds: 60,
		Notes:              notes,
	}
	if diff := cmp.Diff(want, closed, cmpopts.IgnoreFields(domain.TimeEntry{}, "CreatedAt", "UpdatedAt")); diff != "" {
		t.Fatalf("closed entry mismatch (-want +got):\n%s", diff)
	}
	if got := closed.ElapsedSeconds(end.Add(time.Hour)); got != 400 {
		t.Fatalf("ElapsedSeconds = %d, want 400", got)
	}

	// closed entries are never modified again
	later := end.Add(time.Minute)
	if _, err := f.entries.UpdateEntry(ctx, entry.ID, domain.EntryPatch{EndAt: &later}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict updating a closed entry, got %v", err)
	}

	active, err := f.entries.FindActiveEntry(ctx, "u1")
	if err != nil || active != nil {
		t.Fatalf("expected idle after stop, got %+v, %v", active, err)
	}

	list, err := f.entries.ListClosed(ctx, "u1", f.now.Add(-24*time.Hour), f.now.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListClosed: %v", err)
	}
	if len(list) != 1 || list[0].ID != entry.ID {
		t.Fatalf("ListClosed = %+v", list)
	}
}

func TestUpdateEntryMissing(t *testing.T) {
	f := newFixture(t)
	end := f.now
	if _, err := f.entries.UpdateEntry(context.Background(), "nope", domain.EntryPatch{EndAt: &end}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"Acme / Merger", "acme/merger", true},
		{"  Acme   /  Merger ", "ACME / MERGER", true},
		{"Big Case", "big case", true},
		{"Acme / Merger", "Acme / Litigation", false},
	}

	for _, tt := range tests {
		if got := normalize(tt.a) == normalize(tt.b); got != tt.same {
			t.Errorf("normalize(%q) == normalize(%q) = %v, want %v", tt.a, tt.b, got, tt.same)
		}
	}
}

func TestIsIDPrefix(t *testing.T) {
	id := "3f2a9c1e-7b44-4a51-9d0e-1c2b3a4d5e6f"

	if !isIDPrefix(id, "3f2a9c1e") {
		t.Error("eight-character prefix should match")
	}
	if isIDPrefix(id, "3f2a") {
		t.Error("short prefixes are too ambiguous to match")
	}
	if isIDPrefix(id, "deadbeef") {
		t.Error("unrelated prefix matched")
	}
	if got := shortID(id); got != "3f2a9c1e" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID of a short id = %q", got)
	}
}

func TestReadNotes(t *testing.T) {
	var out bytes.Buffer

	notes, err := readNotes(strings.NewReader("  reviewed the draft SPA \n"), &out, "Acme / Merger")
	if err != nil {
		t.Fatalf("readNotes failed: %v", err)
	}
	if notes != "reviewed the draft SPA" {
		t.Errorf("notes = %q", notes)
	}
	if !strings.Contains(out.String(), "Notes for Acme / Merger") {
		t.Errorf("prompt = %q", out.String())
	}

	// EOF without a newline still returns what was typed
	notes, err = readNotes(strings.NewReader("call"), &out, "x")
	if err != nil || notes != "call" {
		t.Errorf("readNotes at EOF = %q, %v", notes, err)
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate([]string{"2024-03-04"})
	if err != nil {
		t.Fatalf("parseDate failed: %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.March || got.Day() != 4 || got.Location() != time.Local {
		t.Errorf("parseDate = %s", got)
	}

	if _, err := parseDate([]string{"03/04/2024"}); err == nil {
		t.Error("expected an error for a non-ISO date")
	}

	if got, err := parseDate(nil); err != nil || time.Since(got) > time.Minute {
		t.Errorf("parseDate(nil) = %s, %v", got, err)
	}
}

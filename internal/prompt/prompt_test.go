package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBuildSubstitutesPlaceholders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.txt")
	tmpl := "Today is {date}.\n\nPlan:\n{plan}\n\nReport:\n{status_report}\n\nMemory:\n{memory}\n"
	if err := os.WriteFile(path, []byte(tmpl), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Build(path, Values{
		Date:         time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Plan:         "[P1] thesis_ch3",
		StatusReport: "talked about the dentist",
		Memory:       "user prefers mornings",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, want := range []string{
		"Today is 2026-03-14.",
		"[P1] thesis_ch3",
		"talked about the dentist",
		"user prefers mornings",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "{") {
		t.Errorf("prompt has unsubstituted placeholder:\n%s", got)
	}
}

func TestBuildEmptyValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.txt")
	if err := os.WriteFile(path, []byte("plan: {plan} memory: {memory}"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Build(path, Values{Date: time.Now()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if want := "plan:  memory: "; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildMissingTemplate(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "nope.txt"), Values{Date: time.Now()})
	if err == nil {
		t.Fatal("expected error for missing template file")
	}
}

package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gitmarkprojects/claude-work-agent/internal/llm"
)

func testReporter(t *testing.T, mock *llm.MockClient) *Reporter {
	t.Helper()
	dir := t.TempDir()
	return &Reporter{
		LLM:              mock,
		ReportPath:       filepath.Join(dir, "status_report.txt"),
		ArchivePath:      filepath.Join(dir, "archive_status.txt"),
		LongTermPath:     filepath.Join(dir, "lt_memory.txt"),
		MaxReportLines:   100,
		RotateLines:      10,
		SummarizeAtWords: 1000,
	}
}

func TestSummarizeConversationAppendsBlock(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "Discussed thesis chapter 3 progress."}}
	r := testReporter(t, mock)

	got, err := r.SummarizeConversation(context.Background(), "user: hello\nassistant: hi")
	if err != nil {
		t.Fatalf("SummarizeConversation: %v", err)
	}
	if got != mock.Response.Content {
		t.Errorf("summary = %q, want %q", got, mock.Response.Content)
	}

	report := r.Report()
	if !strings.Contains(report, "--- Summary from ") {
		t.Errorf("report missing summary header: %q", report)
	}
	if !strings.Contains(report, mock.Response.Content) {
		t.Errorf("report missing summary body: %q", report)
	}
	if len(mock.Calls) != 1 {
		t.Errorf("LLM calls = %d, want 1", len(mock.Calls))
	}
}

func TestSummarizeConversationLLMFailure(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("provider down")}
	r := testReporter(t, mock)

	if _, err := r.SummarizeConversation(context.Background(), "text"); err == nil {
		t.Fatal("expected error from failed LLM call")
	}
	if r.Report() != "" {
		t.Errorf("report written despite LLM failure: %q", r.Report())
	}
}

func TestRotationMovesOldestLinesToArchive(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "new summary"}}
	r := testReporter(t, mock)
	r.MaxReportLines = 5
	r.RotateLines = 3

	var sb strings.Builder
	for i := 0; i < 8; i++ {
		sb.WriteString("line\n")
	}
	if err := os.WriteFile(r.ReportPath, []byte(sb.String()), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := r.SummarizeConversation(context.Background(), "text"); err != nil {
		t.Fatalf("SummarizeConversation: %v", err)
	}

	archive, err := os.ReadFile(r.ArchivePath)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if got := strings.Count(string(archive), "line\n"); got != 3 {
		t.Errorf("archived lines = %d, want 3", got)
	}

	report := r.Report()
	if got := strings.Count(report, "line\n"); got != 5 {
		t.Errorf("report old lines = %d, want 5", got)
	}
	if !strings.Contains(report, "new summary") {
		t.Errorf("report missing fresh summary: %q", report)
	}
}

func TestNoRotationBelowThreshold(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "summary"}}
	r := testReporter(t, mock)
	r.MaxReportLines = 100

	if err := os.WriteFile(r.ReportPath, []byte("line\nline\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.SummarizeConversation(context.Background(), "text"); err != nil {
		t.Fatalf("SummarizeConversation: %v", err)
	}
	if _, err := os.Stat(r.ArchivePath); !os.IsNotExist(err) {
		t.Error("archive created although report was under the line limit")
	}
}

func TestLongTermConsolidation(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "condensed history"}}
	r := testReporter(t, mock)
	r.SummarizeAtWords = 10

	words := strings.Repeat("word ", 20)
	if err := os.WriteFile(r.ArchivePath, []byte(words+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := r.consolidateLongTerm(context.Background()); err != nil {
		t.Fatalf("consolidateLongTerm: %v", err)
	}

	lt := r.LongTerm()
	if !strings.Contains(lt, "--- Long Term Memory Summary ") {
		t.Errorf("long-term memory missing header: %q", lt)
	}
	if !strings.Contains(lt, "condensed history") {
		t.Errorf("long-term memory missing body: %q", lt)
	}

	archive, err := os.ReadFile(r.ArchivePath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(archive), processedMarker) {
		t.Error("archive not marked processed after consolidation")
	}
}

func TestConsolidationSkipsProcessedText(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "should not be called"}}
	r := testReporter(t, mock)
	r.SummarizeAtWords = 10

	// Plenty of words, but all before the marker; the short tail stays put.
	content := strings.Repeat("old ", 50) + "\n" + processedMarker + "\nfresh tail\n"
	if err := os.WriteFile(r.ArchivePath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := r.consolidateLongTerm(context.Background()); err != nil {
		t.Fatalf("consolidateLongTerm: %v", err)
	}
	if len(mock.Calls) != 0 {
		t.Errorf("LLM called %d times for already-processed archive", len(mock.Calls))
	}
	if r.LongTerm() != "" {
		t.Error("long-term memory written although tail was below threshold")
	}
}

func TestConsolidationUsesOnlyUnprocessedTail(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "tail summary"}}
	r := testReporter(t, mock)
	r.SummarizeAtWords = 5

	content := "ancient text here\n" + processedMarker + "\n" + strings.Repeat("recent ", 10) + "\n"
	if err := os.WriteFile(r.ArchivePath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := r.consolidateLongTerm(context.Background()); err != nil {
		t.Fatalf("consolidateLongTerm: %v", err)
	}
	if len(mock.Calls) != 1 {
		t.Fatalf("LLM calls = %d, want 1", len(mock.Calls))
	}
	if strings.Contains(mock.Calls[0], "ancient") {
		t.Error("prompt included text from before the processed marker")
	}
	if !strings.Contains(mock.Calls[0], "recent") {
		t.Error("prompt missing unprocessed tail text")
	}
}

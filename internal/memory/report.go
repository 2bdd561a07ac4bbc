// Package memory maintains the rolling status report and its long-term
// consolidation: conversation summaries append to a report file, old report
// lines rotate into an archive, and once enough unprocessed archive text
// accumulates it is condensed into a single long-term memory document.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gitmarkprojects/claude-work-agent/internal/config"
	"github.com/gitmarkprojects/claude-work-agent/internal/llm"
)

// processedMarker separates archive text that has already been consolidated
// into long-term memory from text still waiting.
const processedMarker = "[[MEMORY_PROCESSED]]"

const stampLayout = "20060102_150405"

// Reporter owns the status report, archive, and long-term memory files.
type Reporter struct {
	LLM llm.Client

	ReportPath   string
	ArchivePath  string
	LongTermPath string

	MaxReportLines   int // rotation trigger
	RotateLines      int // lines moved per rotation
	SummarizeAtWords int // long-term consolidation trigger
}

// New creates a Reporter from config.
func New(client llm.Client, cfg config.MemoryConfig) *Reporter {
	return &Reporter{
		LLM:              client,
		ReportPath:       cfg.StatusReportPath,
		ArchivePath:      cfg.ArchiveStatusPath,
		LongTermPath:     cfg.LongTermPath,
		MaxReportLines:   cfg.MaxReportLines,
		RotateLines:      cfg.RotateLines,
		SummarizeAtWords: cfg.SummarizeAtWords,
	}
}

// SummarizeConversation asks the LLM for a summary of the chat text, rotates
// the report if it has grown too large, and appends the summary as a new
// timestamped block. Returns the summary text.
func (r *Reporter) SummarizeConversation(ctx context.Context, chatText string) (string, error) {
	resp, err := r.LLM.Complete(ctx, llm.SummaryPrompt(chatText))
	if err != nil {
		return "", fmt.Errorf("summarize conversation: %w", err)
	}

	if err := r.rotateReport(ctx); err != nil {
		// Rotation problems shouldn't lose the fresh summary.
		log.Printf("memory: rotate report: %v", err)
	}

	header := fmt.Sprintf("--- Summary from %s ---", time.Now().Format(stampLayout))
	if err := appendBlock(r.ReportPath, header, resp.Content); err != nil {
		return "", fmt.Errorf("append summary: %w", err)
	}
	return resp.Content, nil
}

// Report returns the current status report text. Missing file is empty.
func (r *Reporter) Report() string {
	data, err := os.ReadFile(r.ReportPath)
	if err != nil {
		return ""
	}
	return string(data)
}

// LongTerm returns the long-term memory text. Missing file is empty.
func (r *Reporter) LongTerm() string {
	data, err := os.ReadFile(r.LongTermPath)
	if err != nil {
		return ""
	}
	return string(data)
}

// rotateReport moves the oldest report lines into the archive when the
// report exceeds MaxReportLines, then consolidates long-term memory if
// enough unprocessed archive text has built up.
func (r *Reporter) rotateReport(ctx context.Context) error {
	data, err := os.ReadFile(r.ReportPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	lines := strings.SplitAfter(string(data), "\n")
	// SplitAfter leaves a trailing empty element when the file ends in \n.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) <= r.MaxReportLines {
		return nil
	}

	rotated := strings.Join(lines[:r.RotateLines], "")
	remainder := strings.Join(lines[r.RotateLines:], "")

	f, err := os.OpenFile(r.ArchivePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	if _, err := f.WriteString(rotated); err != nil {
		f.Close()
		return fmt.Errorf("append archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	if err := os.WriteFile(r.ReportPath, []byte(remainder), 0644); err != nil {
		return fmt.Errorf("rewrite report: %w", err)
	}

	return r.consolidateLongTerm(ctx)
}

// consolidateLongTerm summarizes the unprocessed tail of the archive into
// the long-term memory file and marks the archive as processed. The tail is
// everything after the last processed marker; below the word threshold it is
// left to accumulate.
func (r *Reporter) consolidateLongTerm(ctx context.Context) error {
	data, err := os.ReadFile(r.ArchivePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}

	content := string(data)
	tail := content
	if idx := strings.LastIndex(content, processedMarker); idx >= 0 {
		tail = content[idx+len(processedMarker):]
	}
	tail = strings.TrimSpace(tail)

	if len(strings.Fields(tail)) < r.SummarizeAtWords {
		return nil
	}

	resp, err := r.LLM.Complete(ctx, llm.LongTermPrompt(tail))
	if err != nil {
		return fmt.Errorf("consolidate long-term memory: %w", err)
	}

	header := fmt.Sprintf("--- Long Term Memory Summary %s ---", time.Now().Format(stampLayout))
	doc := fmt.Sprintf("\n%s\n%s\n", header, resp.Content)
	// Overwrite: long-term memory is a single living document, not a log.
	if err := os.WriteFile(r.LongTermPath, []byte(doc), 0644); err != nil {
		return fmt.Errorf("write long-term memory: %w", err)
	}

	f, err := os.OpenFile(r.ArchivePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString("\n" + processedMarker + "\n"); err != nil {
		return fmt.Errorf("mark archive processed: %w", err)
	}
	return nil
}

// appendBlock appends a timestamped block to a file, creating it if needed.
func appendBlock(path, header, body string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "\n%s\n%s\n", header, body); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	return nil
}

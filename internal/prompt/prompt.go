// Package prompt renders the assistant's system prompt from a template file.
package prompt

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gitmarkprojects/claude-work-agent/internal/task"
)

// Values fills the template placeholders: {date}, {plan}, {status_report},
// and {memory}.
type Values struct {
	Date         time.Time
	Plan         string // current task briefing
	StatusReport string // rolling conversation summaries
	Memory       string // long-term memory document
}

// Build reads the system prompt template at path and substitutes the
// placeholders. The template file is required; a missing file is an error
// because the assistant has no persona without it.
func Build(path string, v Values) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system prompt %s: %w", path, err)
	}

	r := strings.NewReplacer(
		"{date}", task.FormatDate(v.Date),
		"{plan}", v.Plan,
		"{status_report}", v.StatusReport,
		"{memory}", v.Memory,
	)
	return r.Replace(string(data)), nil
}

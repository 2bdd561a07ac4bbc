package llm

import (
	"fmt"
	"strings"
	"time"
)

// TaskCommandPrompt builds the task-extraction prompt: the active-task
// digest, the command syntax contract, and the conversation to analyze.
// The response is expected to be newline-separated command lines; callers
// must tolerate prose or malformed lines mixed in.
func TaskCommandPrompt(taskDigest []string, conversation []string, today time.Time) string {
	digest := strings.Join(taskDigest, "\n")
	if digest == "" {
		digest = "No existing tasks"
	}

	todayISO := today.Format("2006-01-02")

	return fmt.Sprintf(`You are the task management module. Analyze this conversation and output commands:

EXISTING TASKS:
%s

COMMAND SYNTAX:
1. NEW TASKS:
   NEW|priority|description|note|next_date
   - priority: 1-5 (1 = highest)
   - description: clear task description
   - note: brief context/reason
   - next_date: YYYY-MM-DD (today+7 if missing)

2. UPDATE TASKS:
   PRIORITY|id|new_priority
   DATE|id|YYYY-MM-DD
   NOTE|id|new_note
   BOOST|id (refresh last interaction)
   DONE|id

RULES:
- One command per line
- No pipes in text fields
- Use BOOST for mentions without changes
- Empty fields use "none"
- ASCII only
- Default next_date: today+7 days
- Maximum 50 active tasks; oldest low-priority tasks auto-archived when exceeded

EXAMPLE CONVERSATION:
"I need to finish my thesis chapter today. Also, cancel the dentist appointment."

EXAMPLE OUTPUT:
PRIORITY|thesis_ch3|1
DATE|thesis_ch3|%s
DONE|dentist_apt

CONVERSATION:
%s

OUTPUT COMMANDS:`, digest, todayISO, strings.Join(conversation, "\n"))
}

// SummaryPrompt builds the conversation-summary prompt used when a chat is
// finished or rotated into the archive.
func SummaryPrompt(chatText string) string {
	return fmt.Sprintf(`# extract important points from this conversation that future-me should remember:

- significant decisions or changes
- new insights or realizations
- relevant background information
- open questions or uncertainties
- useful tools or concepts mentioned
- anything that gives helpful context for future conversations

# ignore routine tasks, pleasantries, or tangential discussions unless they reveal important context.

# format as clear, concise bullets using '-->' for direct implications or follow-ups.
write 3-5 points for shorter conversations, more for longer ones.

keep it simple - just capture what feels relevant for maintaining continuity.

[[[%s]]]`, chatText)
}

// LongTermPrompt builds the long-term memory consolidation prompt, run over
// the unprocessed tail of the status archive.
func LongTermPrompt(archived string) string {
	return fmt.Sprintf(`analyze these memories chronologically, focusing on:
1. concrete decisions and commitments made
2. evolving patterns in our work and thinking
3. key technical or strategic insights gained
4. outstanding questions or concerns

structure your response as a narrative that emphasizes connections between elements rather than just listing points. particularly note any shifts in approach or understanding.

limit response to 1500 words, prioritizing both depth and breadth.

%s`, archived)
}

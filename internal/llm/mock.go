package llm

import "context"

// MockClient is a test double for the LLM Client interface.
type MockClient struct {
	Response *Response
	Err      error
	Calls    []string // records prompts sent to Complete
	Chats    []string // records system prompts sent to Chat
}

// Complete records the call and returns the mock response.
func (m *MockClient) Complete(ctx context.Context, prompt string) (*Response, error) {
	m.Calls = append(m.Calls, prompt)
	return m.Response, m.Err
}

// Chat records the call and returns the mock response.
func (m *MockClient) Chat(ctx context.Context, system string, turns []Message) (*Response, error) {
	m.Chats = append(m.Chats, system)
	return m.Response, m.Err
}

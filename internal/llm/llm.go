package llm

import "context"

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role
	Content string
}

type Options struct {
	MaxTokens   int
	Temperature float64
}

// TextGenerator completes a chat conversation. Implementations return an error
// for empty completions so callers can treat "no text" like any other failure.
type TextGenerator interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

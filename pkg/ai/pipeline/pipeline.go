package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"mediagrid-be/internal/notifier"
	"mediagrid-be/internal/pkg/logger"
	"mediagrid-be/pkg/llm"
)

// Sender identifies who produced a transcript message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one turn in the transcript shown to the user.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	IsLoading bool      `json:"is_loading,omitempty"`
	Error     bool      `json:"error,omitempty"`
}

const (
	greetingNormal = "Hello! I'm MediaGrid AI. Ask me anything about the platform, or just chat."
	greetingDemo   = "Hi! I'm MediaGrid AI running in demo mode. No AI credential is configured, so my replies are canned. You can still try out the chat!"

	apologyMessage = "I apologize, but I encountered an issue processing your request. Please try again later."
)

// Pipeline owns one linear chat transcript against the inference
// endpoint. It is the exclusive owner of the transcript and of the
// conversation history mirror; the UI only ever reads snapshots.
// One instance per chat screen; discarded when the screen goes away.
type Pipeline struct {
	strategy ResponseStrategy
	demoMode bool
	notifier notifier.Notifier
	logger   logger.ILogger
	owner    string

	mu       sync.Mutex
	messages []Message
	history  []llm.Message
	typing   bool
}

// New seeds the transcript with a greeting chosen by configuration:
// a normal greeting when a credential is present, a demo-mode greeting
// flagged as an error (plus a one-time warning toast) when it is not.
func New(owner string, strategy ResponseStrategy, demoMode bool, notify notifier.Notifier, log logger.ILogger) *Pipeline {
	p := &Pipeline{
		strategy: strategy,
		demoMode: demoMode,
		notifier: notify,
		logger:   log,
		owner:    owner,
	}

	greeting := Message{
		ID:        fmt.Sprintf("%d", time.Now().UnixMilli()),
		Sender:    SenderAI,
		Timestamp: time.Now(),
	}
	if demoMode {
		greeting.Content = greetingDemo
		greeting.Error = true
		if notify != nil {
			notify.Notify(owner, notifier.Toast{
				Level:   notifier.LevelWarning,
				Title:   "AI demo mode",
				Message: "No AI credential is configured. Chat responses are canned demo replies.",
			})
		}
	} else {
		greeting.Content = greetingNormal
	}
	p.messages = []Message{greeting}

	return p
}

// DemoMode reports whether the pipeline was constructed without a credential.
func (p *Pipeline) DemoMode() bool { return p.demoMode }

// Typing reports whether a response is pending.
func (p *Pipeline) Typing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.typing
}

// Transcript returns a snapshot of the ordered messages.
func (p *Pipeline) Transcript() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages...)
}

// History returns a snapshot of the {role, content} mirror.
func (p *Pipeline) History() []llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.Message(nil), p.history...)
}

// Send submits one user turn. Whitespace-only input is silently ignored:
// no message, no typing toggle, no error. Otherwise the user message is
// appended immediately, the typing indicator is raised, and the strategy
// produces the assistant turn. Failures append a flagged apology message
// and raise a toast; the pipeline always returns to an accepting state.
func (p *Pipeline) Send(ctx context.Context, input string) (*Message, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, nil
	}

	userMsg := Message{
		ID:        fmt.Sprintf("%d", time.Now().UnixMilli()),
		Content:   trimmed,
		Sender:    SenderUser,
		Timestamp: time.Now(),
	}

	p.mu.Lock()
	p.messages = append(p.messages, userMsg)
	p.typing = true
	historySnapshot := append([]llm.Message(nil), p.history...)
	p.mu.Unlock()

	reply, err := p.strategy.Reply(ctx, historySnapshot, trimmed)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.typing = false

	// The user turn joins the history either way; a failed or demo
	// exchange contributes no assistant turn to the context.
	p.history = append(p.history, llm.Message{Role: "user", Content: trimmed})

	if err != nil {
		p.logger.Error("AIPipeline", "Remote inference call failed", map[string]interface{}{
			"error": err.Error(),
		})
		aiMsg := Message{
			ID:        fmt.Sprintf("error-%d", time.Now().UnixMilli()),
			Content:   apologyMessage,
			Sender:    SenderAI,
			Timestamp: time.Now(),
			Error:     true,
		}
		p.messages = append(p.messages, aiMsg)
		if p.notifier != nil {
			p.notifier.Notify(p.owner, notifier.Toast{
				Level:   notifier.LevelError,
				Title:   "AI Error",
				Message: apologyMessage,
			})
		}
		return &aiMsg, nil
	}

	aiMsg := Message{
		ID:        reply.ID,
		Content:   reply.Content,
		Sender:    SenderAI,
		Timestamp: reply.Created,
		Error:     reply.Error,
	}
	p.messages = append(p.messages, aiMsg)

	if reply.IncludeInHistory {
		p.history = append(p.history, llm.Message{Role: "assistant", Content: reply.Content})
	}

	return &aiMsg, nil
}

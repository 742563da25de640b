package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"mediagrid-be/pkg/llm"
)

// systemPrompt establishes the assistant persona and the thinking-marker
// contract honored by stripThinking below.
const systemPrompt = "You are MediaGrid AI, a helpful assistant for the MediaGrid social media platform. " +
	"You provide concise, accurate, and helpful responses. If you need to think through a complex problem, " +
	"enclose your thinking process in <think> tags like this: <think>your thinking process here</think> " +
	"followed by your final response. Only the content after the </think> tag will be shown to the user."

const (
	demoDelayMin = 1000 * time.Millisecond
	demoDelayMax = 2000 * time.Millisecond
)

// demoResponses are the fixed canned replies used when no API credential
// is configured. One is picked uniformly at random per message.
var demoResponses = [5]string{
	"I'm running in demo mode right now, so I can't generate a real answer. Configure an AI credential to unlock full responses.",
	"Demo mode here! A real AI reply would appear in this spot once an API token is set up.",
	"Without an AI credential configured I can only send canned replies like this one. Sorry about that!",
	"That's a great question, but in demo mode I don't actually reach the AI service. Add a token to get real answers.",
	"This is a placeholder demo response. Connect the AI service to chat for real.",
}

// Reply is one assistant turn produced by a strategy.
type Reply struct {
	Content string
	ID      string
	Created time.Time
	Error   bool

	// IncludeInHistory reports whether the assistant turn should join
	// the conversation history sent on the next remote call. Demo
	// replies are canned and deliberately stay out of the context.
	IncludeInHistory bool
}

// ResponseStrategy produces the assistant's reply to one user turn.
// Selected once at pipeline construction based on configuration.
type ResponseStrategy interface {
	Reply(ctx context.Context, history []llm.Message, input string) (*Reply, error)
}

// RemoteStrategy calls the inference endpoint with the system prompt,
// the accumulated history and the new user turn.
type RemoteStrategy struct {
	provider    llm.LLMProvider
	temperature float64
	maxTokens   int
}

func NewRemoteStrategy(provider llm.LLMProvider, temperature float64, maxTokens int) *RemoteStrategy {
	return &RemoteStrategy{
		provider:    provider,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (s *RemoteStrategy) Reply(ctx context.Context, history []llm.Message, input string) (*Reply, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: input})

	completion, err := s.provider.Chat(ctx, messages,
		llm.WithTemperature(s.temperature),
		llm.WithMaxTokens(s.maxTokens),
	)
	if err != nil {
		return nil, err
	}

	id := completion.ID
	if id == "" {
		id = fmt.Sprintf("hf-%d", time.Now().UnixMilli())
	}
	created := time.Now()
	if completion.Created > 0 {
		created = time.Unix(completion.Created, 0)
	}

	return &Reply{
		Content:          stripThinking(completion.Text),
		ID:               id,
		Created:          created,
		IncludeInHistory: true,
	}, nil
}

// DemoStrategy replies with a canned string after a randomized delay,
// simulating inference latency without any remote call.
type DemoStrategy struct{}

func NewDemoStrategy() *DemoStrategy {
	return &DemoStrategy{}
}

func (s *DemoStrategy) Reply(ctx context.Context, history []llm.Message, input string) (*Reply, error) {
	delay := demoDelayMin + time.Duration(rand.Int63n(int64(demoDelayMax-demoDelayMin)))
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(delay):
	}

	return &Reply{
		Content: demoResponses[rand.Intn(len(demoResponses))],
		ID:      fmt.Sprintf("demo-%d", time.Now().UnixMilli()),
		Created: time.Now(),
		Error:   true,
	}, nil
}

// stripThinking removes a leading thinking section: everything up to and
// including the closing </think> marker is dropped and the remainder
// trimmed. Without a closing marker (or with nothing after it) the full
// text is used verbatim.
func stripThinking(text string) string {
	const closing = "</think>"
	if i := strings.Index(text, closing); i >= 0 {
		if rest := strings.TrimSpace(text[i+len(closing):]); rest != "" {
			return rest
		}
	}
	return text
}

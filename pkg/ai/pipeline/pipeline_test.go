package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"mediagrid-be/internal/notifier"
	"mediagrid-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type stubStrategy struct {
	reply *Reply
	err   error

	gotHistory []llm.Message
	gotInput   string
}

func (s *stubStrategy) Reply(ctx context.Context, history []llm.Message, input string) (*Reply, error) {
	s.gotHistory = append([]llm.Message(nil), history...)
	s.gotInput = input
	if s.err != nil {
		return nil, s.err
	}
	return s.reply, nil
}

type toastRecorder struct {
	toasts []notifier.Toast
}

func (r *toastRecorder) Notify(target string, toast notifier.Toast) {
	r.toasts = append(r.toasts, toast)
}

func okReply(content string) *Reply {
	return &Reply{Content: content, ID: "r1", Created: time.Now(), IncludeInHistory: true}
}

func TestNewSeedsGreeting(t *testing.T) {
	p := New("u1", &stubStrategy{reply: okReply("hi")}, false, nil, nopLogger{})

	msgs := p.Transcript()
	require.Len(t, msgs, 1)
	assert.Equal(t, SenderAI, msgs[0].Sender)
	assert.False(t, msgs[0].Error)
	assert.False(t, p.DemoMode())
	assert.Empty(t, p.History())
}

func TestNewDemoGreetingFlaggedWithToast(t *testing.T) {
	rec := &toastRecorder{}
	p := New("u1", NewDemoStrategy(), true, rec, nopLogger{})

	msgs := p.Transcript()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Error)
	assert.True(t, p.DemoMode())

	require.Len(t, rec.toasts, 1)
	assert.Equal(t, notifier.LevelWarning, rec.toasts[0].Level)
}

func TestSendWhitespaceIsNoOp(t *testing.T) {
	strategy := &stubStrategy{reply: okReply("hi")}
	p := New("u1", strategy, false, nil, nopLogger{})

	msg, err := p.Send(context.Background(), "   \n\t ")
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Len(t, p.Transcript(), 1)
	assert.Empty(t, strategy.gotInput)
	assert.False(t, p.Typing())
}

func TestSendAppendsBothTurns(t *testing.T) {
	strategy := &stubStrategy{reply: okReply("echo")}
	p := New("u1", strategy, false, nil, nopLogger{})

	msg, err := p.Send(context.Background(), "  hello  ")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "echo", msg.Content)
	assert.Equal(t, SenderAI, msg.Sender)

	msgs := p.Transcript()
	require.Len(t, msgs, 3)
	assert.Equal(t, SenderUser, msgs[1].Sender)
	assert.Equal(t, "hello", msgs[1].Content)

	history := p.History()
	require.Len(t, history, 2)
	assert.Equal(t, llm.Message{Role: "user", Content: "hello"}, history[0])
	assert.Equal(t, llm.Message{Role: "assistant", Content: "echo"}, history[1])

	assert.Equal(t, "hello", strategy.gotInput)
	assert.False(t, p.Typing())
}

func TestSendPassesAccumulatedHistory(t *testing.T) {
	strategy := &stubStrategy{reply: okReply("one")}
	p := New("u1", strategy, false, nil, nopLogger{})

	_, err := p.Send(context.Background(), "first")
	require.NoError(t, err)

	strategy.reply = okReply("two")
	_, err = p.Send(context.Background(), "second")
	require.NoError(t, err)

	require.Len(t, strategy.gotHistory, 2)
	assert.Equal(t, "first", strategy.gotHistory[0].Content)
	assert.Equal(t, "one", strategy.gotHistory[1].Content)
}

func TestSendFailureAppendsApology(t *testing.T) {
	strategy := &stubStrategy{err: errors.New("boom")}
	rec := &toastRecorder{}
	p := New("u1", strategy, false, rec, nopLogger{})

	msg, err := p.Send(context.Background(), "hello")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.True(t, msg.Error)
	assert.Equal(t, apologyMessage, msg.Content)

	// The user turn joins the history, the failed exchange does not.
	history := p.History()
	require.Len(t, history, 1)
	assert.Equal(t, "user", history[0].Role)

	require.Len(t, rec.toasts, 1)
	assert.Equal(t, notifier.LevelError, rec.toasts[0].Level)

	// The pipeline keeps accepting input afterwards.
	strategy.err = nil
	strategy.reply = okReply("back")
	msg, err = p.Send(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, "back", msg.Content)
}

func TestDemoReplyStaysOutOfHistory(t *testing.T) {
	p := New("u1", NewDemoStrategy(), true, nil, nopLogger{})

	msg, err := p.Send(context.Background(), "anything")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.True(t, msg.Error)
	assert.Contains(t, demoResponses[:], msg.Content)

	history := p.History()
	require.Len(t, history, 1)
	assert.Equal(t, "user", history[0].Role)
}

func TestDemoStrategyDelayBounds(t *testing.T) {
	s := NewDemoStrategy()

	start := time.Now()
	reply, err := s.Reply(context.Background(), nil, "hi")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, reply.Error)
	assert.False(t, reply.IncludeInHistory)
	assert.GreaterOrEqual(t, elapsed, demoDelayMin)
	assert.Less(t, elapsed, demoDelayMax+500*time.Millisecond)
}

func TestDemoStrategyHonorsContextCancel(t *testing.T) {
	s := NewDemoStrategy()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.Reply(ctx, nil, "hi")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStripThinking(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"marker with answer", "<think>working...</think>  The answer is 4.", "The answer is 4."},
		{"no marker", "Just a plain reply.", "Just a plain reply."},
		{"marker with empty remainder", "<think>only thoughts</think>   ", "<think>only thoughts</think>   "},
		{"unclosed marker", "<think>never closed", "<think>never closed"},
		{"closing marker only", "</think>after", "after"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripThinking(tc.in))
		})
	}
}

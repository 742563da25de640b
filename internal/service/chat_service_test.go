package service

import (
	"context"
	"testing"

	"mediagrid-be/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDemoChatService() IChatService {
	return NewChatService(memory.NewPipelineRepository(), nil, true, 0.7, 500, nil, nopLogger{})
}

func TestStartChatSeedsDemoGreeting(t *testing.T) {
	svc := newDemoChatService()

	res, err := svc.StartChat(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, res.ChatID)
	assert.True(t, res.DemoMode)
	require.Len(t, res.Messages, 1)
	assert.True(t, res.Messages[0].Error)
}

func TestSendMessageDemoRoundTrip(t *testing.T) {
	svc := newDemoChatService()
	started, err := svc.StartChat(context.Background(), "alice")
	require.NoError(t, err)

	res, err := svc.SendMessage(context.Background(), "alice", started.ChatID, "hello")
	require.NoError(t, err)
	require.NotNil(t, res.Message)
	assert.True(t, res.Message.Error)
	assert.False(t, res.Typing)

	transcript, err := svc.GetTranscript(context.Background(), "alice", started.ChatID)
	require.NoError(t, err)
	assert.Len(t, transcript.Messages, 3)
}

func TestChatScopedToOwner(t *testing.T) {
	svc := newDemoChatService()
	started, err := svc.StartChat(context.Background(), "alice")
	require.NoError(t, err)

	_, err = svc.GetTranscript(context.Background(), "bob", started.ChatID)
	assert.Error(t, err)
}

func TestEndChatDropsTranscript(t *testing.T) {
	svc := newDemoChatService()
	started, err := svc.StartChat(context.Background(), "alice")
	require.NoError(t, err)

	svc.EndChat("alice", started.ChatID)

	_, err = svc.GetTranscript(context.Background(), "alice", started.ChatID)
	assert.Error(t, err)
}

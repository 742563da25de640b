package service

import (
	"context"

	"mediagrid-be/internal/dto"
	"mediagrid-be/internal/notifier"
	"mediagrid-be/internal/pkg/logger"
	"mediagrid-be/internal/repository/memory"
	"mediagrid-be/pkg/ai/pipeline"
	"mediagrid-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatService interface {
	StartChat(ctx context.Context, ownerUID string) (*dto.ChatSessionResponse, error)
	SendMessage(ctx context.Context, ownerUID, chatID, content string) (*dto.ChatMessageResponse, error)
	GetTranscript(ctx context.Context, ownerUID, chatID string) (*dto.ChatTranscriptResponse, error)
	EndChat(ownerUID, chatID string)
}

type chatService struct {
	pipelines   *memory.PipelineRepository
	provider    llm.LLMProvider
	demoMode    bool
	temperature float64
	maxTokens   int
	notifier    notifier.Notifier
	logger      logger.ILogger
}

// NewChatService selects the response strategy once: a nil provider
// means no credential is configured and every chat runs in demo mode.
func NewChatService(
	pipelines *memory.PipelineRepository,
	provider llm.LLMProvider,
	demoMode bool,
	temperature float64,
	maxTokens int,
	notify notifier.Notifier,
	log logger.ILogger,
) IChatService {
	return &chatService{
		pipelines:   pipelines,
		provider:    provider,
		demoMode:    demoMode,
		temperature: temperature,
		maxTokens:   maxTokens,
		notifier:    notify,
		logger:      log,
	}
}

func (s *chatService) StartChat(ctx context.Context, ownerUID string) (*dto.ChatSessionResponse, error) {
	var strategy pipeline.ResponseStrategy
	if s.demoMode {
		strategy = pipeline.NewDemoStrategy()
	} else {
		strategy = pipeline.NewRemoteStrategy(s.provider, s.temperature, s.maxTokens)
	}

	chatID := uuid.New().String()
	p := pipeline.New(ownerUID, strategy, s.demoMode, s.notifier, s.logger)
	s.pipelines.Save(pipelineKey(ownerUID, chatID), p)

	return &dto.ChatSessionResponse{
		ChatID:   chatID,
		DemoMode: p.DemoMode(),
		Messages: p.Transcript(),
	}, nil
}

func (s *chatService) SendMessage(ctx context.Context, ownerUID, chatID, content string) (*dto.ChatMessageResponse, error) {
	p, err := s.pipeline(ownerUID, chatID)
	if err != nil {
		return nil, err
	}

	msg, err := p.Send(ctx, content)
	if err != nil {
		return nil, err
	}

	return &dto.ChatMessageResponse{Message: msg, Typing: p.Typing()}, nil
}

func (s *chatService) GetTranscript(ctx context.Context, ownerUID, chatID string) (*dto.ChatTranscriptResponse, error) {
	p, err := s.pipeline(ownerUID, chatID)
	if err != nil {
		return nil, err
	}

	return &dto.ChatTranscriptResponse{
		ChatID:   chatID,
		DemoMode: p.DemoMode(),
		Typing:   p.Typing(),
		Messages: p.Transcript(),
	}, nil
}

func (s *chatService) EndChat(ownerUID, chatID string) {
	s.pipelines.Delete(pipelineKey(ownerUID, chatID))
}

func (s *chatService) pipeline(ownerUID, chatID string) (*pipeline.Pipeline, error) {
	p, found := s.pipelines.Get(pipelineKey(ownerUID, chatID))
	if !found {
		return nil, fiber.NewError(fiber.StatusNotFound, "Chat session not found")
	}
	return p, nil
}

// pipelineKey scopes chats to their owner so one user cannot read
// another's transcript by guessing ids.
func pipelineKey(ownerUID, chatID string) string {
	return ownerUID + "/" + chatID
}

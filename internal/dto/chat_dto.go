package dto

import "mediagrid-be/pkg/ai/pipeline"

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type ChatSessionResponse struct {
	ChatID   string             `json:"chat_id"`
	DemoMode bool               `json:"demo_mode"`
	Messages []pipeline.Message `json:"messages"`
}

type ChatTranscriptResponse struct {
	ChatID   string             `json:"chat_id"`
	DemoMode bool               `json:"demo_mode"`
	Typing   bool               `json:"typing"`
	Messages []pipeline.Message `json:"messages"`
}

type ChatMessageResponse struct {
	Message *pipeline.Message `json:"message,omitempty"`
	Typing  bool              `json:"typing"`
}

package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/techideas/interview/backend/internal/config"
	"github.com/techideas/interview/backend/internal/model/chat"
	"github.com/techideas/interview/backend/internal/model/interview"
	"github.com/techideas/interview/backend/internal/model/profile"
)

// Service is the conversational responder: it turns a profile, the running
// dialogue, and the latest user message into a model completion.
type Service struct {
	chatModel model.ChatModel
	profiles  profile.Store
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService builds the responder from the configured chat model.
func NewService(ctx context.Context, profiles profile.Store, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		profiles:  profiles,
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// StreamingEnabled indicates whether token streaming is configured.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// GenerateResponse produces a complete assistant message for the session.
// meta is the interview identity when the session is gated by one; nil
// otherwise.
func (s *Service) GenerateResponse(ctx context.Context, sessionID string, prof *profile.Profile, messages []chat.Message, userMessage string, meta *interview.SessionMetadata) (*schema.Message, error) {
	input := s.buildChainInput(prof, messages, userMessage, meta)

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to run responder chain: %w", err)
	}

	log.Printf("[ai] generated response for session=%s, profile=%s, length=%d", sessionID, prof.ID, len(response.Content))
	return response, nil
}

// StreamResponse streams assistant message chunks via the configured chain.
func (s *Service) StreamResponse(ctx context.Context, prof *profile.Profile, messages []chat.Message, userMessage string, meta *interview.SessionMetadata) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	input := s.buildChainInput(prof, messages, userMessage, meta)

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to stream responder output: %w", err)
	}

	return stream, nil
}

func (s *Service) buildChainInput(prof *profile.Profile, messages []chat.Message, userMessage string, meta *interview.SessionMetadata) map[string]any {
	return map[string]any{
		"system":  BuildSystemPrompt(prof, meta),
		"history": s.buildHistoryMessages(messages),
		"query":   userMessage,
	}
}

func (s *Service) buildHistoryMessages(messages []chat.Message) []*schema.Message {
	const historyLimit = 10

	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case "user":
			history = append(history, schema.UserMessage(msg.Content))
		case "assistant":
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}

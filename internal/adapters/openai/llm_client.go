package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/eventinfo"
	"github.com/mikey/shortlist-watcher/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// EventExtractor asks an OpenAI chat model for interview details
type EventExtractor struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	location      *time.Location
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewEventExtractor creates a new OpenAI-backed extractor
func NewEventExtractor(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	location *time.Location,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *EventExtractor {
	return &EventExtractor{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		location:      location,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// ExtractEvent sends the email text to the model and decodes its answer
func (c *EventExtractor) ExtractEvent(ctx context.Context, text string) (*core.EventDetails, error) {
	prompt := eventinfo.Prompt(c.textProcessor.ProcessText(text, c.maxBodySize))

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: eventinfo.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	c.logger.Debug("OpenAI event extraction completed",
		zap.String("model", c.modelName),
		zap.String("id", resp.ID))

	return eventinfo.ParseResponse(resp.Choices[0].Message.Content, c.location)
}

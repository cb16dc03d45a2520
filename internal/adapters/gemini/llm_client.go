package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/eventinfo"
	"github.com/mikey/shortlist-watcher/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// EventExtractor asks a Gemini model for interview details
type EventExtractor struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	location      *time.Location
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewEventExtractor creates a new Gemini-backed extractor
func NewEventExtractor(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	location *time.Location,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*EventExtractor, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(eventinfo.SystemPrompt))

	return &EventExtractor{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		location:      location,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *EventExtractor) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ExtractEvent sends the email text to the model and decodes its answer
func (c *EventExtractor) ExtractEvent(ctx context.Context, text string) (*core.EventDetails, error) {
	prompt := eventinfo.Prompt(c.textProcessor.ProcessText(text, c.maxBodySize))

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}

	c.logger.Debug("Gemini event extraction completed", zap.String("model", c.modelName))
	return eventinfo.ParseResponse(sb.String(), c.location)
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/PullRequestInc/go-gpt3"

	"github.com/groqchat/groqchat/internal/config"
	"github.com/groqchat/groqchat/internal/model/chat"
)

// ErrEmptyTranscript is returned when a completion is requested without
// any messages to send.
var ErrEmptyTranscript = errors.New("transcript is empty")

// completionClient is the slice of the provider client the gateway needs.
type completionClient interface {
	ChatCompletion(ctx context.Context, request gpt3.ChatCompletionRequest) (*gpt3.ChatCompletionResponse, error)
}

// Gateway issues one synchronous completion request per chat turn against
// Groq's OpenAI-compatible API. Success and failure are its only outcomes:
// there is no retry, backoff, or circuit breaking.
type Gateway struct {
	client      completionClient
	model       string
	temperature float32
}

// NewGateway builds the provider client from configuration.
func NewGateway(cfg config.GroqConfig) *Gateway {
	opts := []gpt3.ClientOption{gpt3.WithBaseURL(cfg.BaseURL)}
	if cfg.Timeout > 0 {
		opts = append(opts, gpt3.WithTimeout(cfg.Timeout))
	}

	return &Gateway{
		client:      gpt3.NewClient(cfg.APIKey, opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// Complete forwards the transcript to the provider and returns the
// generated reply. An empty model falls back to the configured default.
func (g *Gateway) Complete(ctx context.Context, transcript []chat.Message, model string) (string, error) {
	if len(transcript) == 0 {
		return "", ErrEmptyTranscript
	}
	if model == "" {
		model = g.model
	}

	messages := make([]gpt3.ChatCompletionRequestMessage, 0, len(transcript))
	for _, msg := range transcript {
		messages = append(messages, gpt3.ChatCompletionRequestMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	temperature := g.temperature
	response, err := g.client.ChatCompletion(ctx, gpt3.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices for model %s", model)
	}

	reply := response.Choices[0].Message.Content
	log.Printf("[gateway] completion ok model=%s tokens=%d", model, response.Usage.TotalTokens)
	return reply, nil
}

// Model 返回默认的模型标识。
func (g *Gateway) Model() string {
	return g.model
}

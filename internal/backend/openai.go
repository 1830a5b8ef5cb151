package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/Rorical/RoriChat/internal/models"
)

// DefaultOpenAIBaseURL points at OpenRouter, which serves every model in
// DefaultRoutes behind one OpenAI-compatible API.
const DefaultOpenAIBaseURL = "https://openrouter.ai/api/v1"

// DefaultRoutes maps each model to its upstream model name.
var DefaultRoutes = map[models.ModelID]string{
	models.OpenLlama:        "openlm-research/open_llama_3b",
	models.Mistral:          "mistralai/mistral-7b-instruct:free",
	models.DeepseekLlama70B: "deepseek/deepseek-r1-distill-llama-70b:free",
	models.GeminiFlash:      "google/gemini-flash-1.5",
}

// OpenAIBackend sends each message as a single-turn chat completion to an
// OpenAI-compatible API.
type OpenAIBackend struct {
	client  *openai.Client
	baseURL string
	routes  map[models.ModelID]string
}

func NewOpenAIBackend(apiKey, baseURL string, routes map[models.ModelID]string) *OpenAIBackend {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	clientConfig.BaseURL = baseURL

	merged := make(map[models.ModelID]string, len(DefaultRoutes))
	for id, name := range DefaultRoutes {
		merged[id] = name
	}
	for id, name := range routes {
		if name != "" {
			merged[id] = name
		}
	}

	return &OpenAIBackend{
		client:  openai.NewClientWithConfig(clientConfig),
		baseURL: baseURL,
		routes:  merged,
	}
}

// Route returns the upstream model name for id.
func (b *OpenAIBackend) Route(id models.ModelID) (string, bool) {
	name, ok := b.routes[id]
	return name, ok
}

func (b *OpenAIBackend) Send(ctx context.Context, req Request) (Reply, error) {
	upstream, ok := b.Route(req.Model)
	if !ok {
		return Reply{}, &RequestError{Endpoint: b.baseURL, Err: fmt.Errorf("model %q has no upstream route", req.Model)}
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: upstream,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Message},
		},
		User: req.SessionID,
	})
	if err != nil {
		reqErr := &RequestError{Endpoint: b.baseURL, Err: err}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			reqErr.StatusCode = apiErr.HTTPStatusCode
		}
		var httpErr *openai.RequestError
		if errors.As(err, &httpErr) {
			reqErr.StatusCode = httpErr.HTTPStatusCode
		}
		return Reply{}, reqErr
	}

	if len(resp.Choices) == 0 {
		return Reply{}, nil
	}
	return TextReply(resp.Choices[0].Message.Content), nil
}

package llm

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	ProviderOpenAI = "openai"

	DefaultOpenAIBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenAIModel   = "meta-llama/llama-3-8b-instruct"
)

var ErrNoChoicesReturned = errors.New("no choices returned")

// chatCompletions is the slice of the SDK the adapter needs.
type chatCompletions interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	chat  chatCompletions
	model string
}

// NewOpenAI returns ErrNotConfigured when apiKey is empty.
func NewOpenAI(apiKey, baseURL, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	)
	return &OpenAI{chat: &client.Chat.Completions, model: model}, nil
}

func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = o.model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(float64(*req.Temperature))
	}
	if req.TopP != nil {
		params.TopP = openai.Float(float64(*req.TopP))
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := o.chat.New(ctx, params)
	if err != nil {
		return "", wrap(ProviderOpenAI, start, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", wrap(ProviderOpenAI, start, &Error{Provider: ProviderOpenAI, Kind: KindUnknown, Err: ErrNoChoicesReturned})
	}
	observeSuccess(ProviderOpenAI, start)
	return resp.Choices[0].Message.Content, nil
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

// OpenAIRuntime implements Runtime on the OpenAI chat completions API.
type OpenAIRuntime struct {
	client openai.Client
	opts   RuntimeOptions
	logger zerolog.Logger
}

// NewOpenAIRuntime creates an OpenAI-backed runtime.
func NewOpenAIRuntime(opts RuntimeOptions, logger zerolog.Logger) *OpenAIRuntime {
	return &OpenAIRuntime{
		client: openai.NewClient(option.WithAPIKey(opts.APIKey)),
		opts:   opts,
		logger: logger,
	}
}

// Start performs one-time initialization.
func (r *OpenAIRuntime) Start(ctx context.Context) error {
	r.logger.Info().Str("model", r.opts.Model).Msg("OpenAI runtime ready")
	return nil
}

// RunTurn executes one agent turn with a bounded tool loop, mirroring the
// Anthropic runtime's event emission.
func (r *OpenAIRuntime) RunTurn(ctx context.Context, req TurnRequest) ([]Event, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(buildSystemPrompt(req.ContextSummary)),
		openai.UserMessage(req.Input),
	}

	toolDef := openai.ChatCompletionToolParam{
		Type: "function",
		Function: openai.FunctionDefinitionParam{
			Name:        fetchSchemaToolName,
			Description: openai.String(fetchSchemaToolDescription),
			Parameters:  openai.FunctionParameters(fetchSchemaToolSchema),
		},
	}

	events := []Event{}

	for turn := 0; turn < maxToolTurns; turn++ {
		params := openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(r.opts.Model),
			Messages: messages,
			Tools:    []openai.ChatCompletionToolParam{toolDef},
		}
		if r.opts.MaxTokens > 0 {
			params.MaxTokens = openai.Int(int64(r.opts.MaxTokens))
		}
		if r.opts.Temperature > 0 {
			params.Temperature = openai.Float(r.opts.Temperature)
		}

		response, err := r.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("openai call failed: %w", err)
		}
		if len(response.Choices) == 0 {
			return nil, fmt.Errorf("no response choices returned")
		}

		choice := response.Choices[0]

		if len(choice.Message.ToolCalls) == 0 {
			events = append(events, Event{Kind: EventOutput, Payload: choice.Message.Content})
			return events, nil
		}

		if choice.Message.Content != "" {
			events = append(events, Event{Kind: EventThinking, Payload: choice.Message.Content})
		}

		messages = append(messages, choice.Message.ToParam())

		for _, tc := range choice.Message.ToolCalls {
			var input map[string]any
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
				return nil, fmt.Errorf("failed to parse tool arguments: %w", err)
			}

			events = append(events, Event{Kind: EventToolCall, Payload: map[string]any{
				"name":  tc.Function.Name,
				"input": input,
			}})

			rawURL, _ := input["url"].(string)
			result := req.Probe.FetchSchema(ctx, rawURL)
			events = append(events, Event{Kind: EventToolResult, Payload: result})

			resultJSON, err := json.Marshal(result)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool result: %w", err)
			}
			messages = append(messages, openai.ToolMessage(string(resultJSON), tc.ID))
		}
	}

	return nil, fmt.Errorf("maximum tool turns (%d) exceeded", maxToolTurns)
}

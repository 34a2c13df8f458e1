package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

// AnthropicRuntime implements Runtime on Anthropic Claude.
type AnthropicRuntime struct {
	client anthropic.Client
	opts   RuntimeOptions
	logger zerolog.Logger
}

// NewAnthropicRuntime creates an Anthropic-backed runtime.
func NewAnthropicRuntime(opts RuntimeOptions, logger zerolog.Logger) *AnthropicRuntime {
	return &AnthropicRuntime{
		client: anthropic.NewClient(option.WithAPIKey(opts.APIKey)),
		opts:   opts,
		logger: logger,
	}
}

// Start performs one-time initialization.
func (r *AnthropicRuntime) Start(ctx context.Context) error {
	r.logger.Info().Str("model", r.opts.Model).Msg("Anthropic runtime ready")
	return nil
}

// RunTurn executes one agent turn with a bounded tool loop, emitting an
// event per thinking step, tool call, and tool result, and exactly one
// output event carrying the final text.
func (r *AnthropicRuntime) RunTurn(ctx context.Context, req TurnRequest) ([]Event, error) {
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Input)),
	}

	toolParam := anthropic.ToolParam{
		Name:        fetchSchemaToolName,
		Description: anthropic.String(fetchSchemaToolDescription),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: fetchSchemaToolSchema["properties"],
			Required:   []string{"url"},
		},
	}

	maxTokens := r.opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	events := []Event{}

	for turn := 0; turn < maxToolTurns; turn++ {
		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(r.opts.Model),
			Messages:  messages,
			MaxTokens: int64(maxTokens),
			System: []anthropic.TextBlockParam{
				{Text: buildSystemPrompt(req.ContextSummary)},
			},
			Tools: []anthropic.ToolUnionParam{{OfTool: &toolParam}},
		}
		if r.opts.Temperature > 0 {
			params.Temperature = anthropic.Float(r.opts.Temperature)
		}

		response, err := r.client.Messages.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("anthropic call failed: %w", err)
		}

		text := ""
		toolUses := []anthropic.ToolUseBlock{}
		for _, block := range response.Content {
			switch b := block.AsAny().(type) {
			case anthropic.TextBlock:
				text += b.Text
			case anthropic.ToolUseBlock:
				toolUses = append(toolUses, b)
			}
		}

		if len(toolUses) == 0 {
			events = append(events, Event{Kind: EventOutput, Payload: text})
			return events, nil
		}

		if text != "" {
			events = append(events, Event{Kind: EventThinking, Payload: text})
		}

		assistantBlocks := []anthropic.ContentBlockParamUnion{}
		if text != "" {
			assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(text))
		}
		resultBlocks := []anthropic.ContentBlockParamUnion{}

		for _, use := range toolUses {
			var input map[string]any
			if err := json.Unmarshal([]byte(use.JSON.Input.Raw()), &input); err != nil {
				return nil, fmt.Errorf("failed to parse tool input: %w", err)
			}
			assistantBlocks = append(assistantBlocks, anthropic.NewToolUseBlock(use.ID, input, use.Name))

			events = append(events, Event{Kind: EventToolCall, Payload: map[string]any{
				"name":  use.Name,
				"input": input,
			}})

			rawURL, _ := input["url"].(string)
			result := req.Probe.FetchSchema(ctx, rawURL)
			events = append(events, Event{Kind: EventToolResult, Payload: result})

			resultJSON, err := json.Marshal(result)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool result: %w", err)
			}
			resultBlocks = append(resultBlocks, anthropic.NewToolResultBlock(use.ID, string(resultJSON), !result.OK && result.Error != ""))
		}

		messages = append(messages,
			anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: assistantBlocks,
			},
			anthropic.NewUserMessage(resultBlocks...),
		)
	}

	return nil, fmt.Errorf("maximum tool turns (%d) exceeded", maxToolTurns)
}

package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Runtime drives one agent turn and yields the ordered event log the
// orchestrator extracts the reply from.
type Runtime interface {
	// Start performs one-time runtime initialization at process startup.
	Start(ctx context.Context) error

	// RunTurn executes a full agent turn, including any tool invocations,
	// and returns the run's event log in emission order.
	RunTurn(ctx context.Context, req TurnRequest) ([]Event, error)
}

// NewRuntime creates a provider-backed runtime from options.
func NewRuntime(opts RuntimeOptions, logger zerolog.Logger) (Runtime, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	switch opts.Provider {
	case "anthropic":
		return NewAnthropicRuntime(opts, logger), nil
	case "openai":
		return NewOpenAIRuntime(opts, logger), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", opts.Provider)
	}
}

// fetchSchemaToolName is the model-visible name of the schema probe.
const fetchSchemaToolName = "fetch_schema"

const fetchSchemaToolDescription = "Probe a URL for its request schema. " +
	"Issues a POST with an empty JSON body and returns the HTTP status and " +
	"parsed response body. Payment-required (402) responses are normal " +
	"probe outcomes, not failures."

// fetchSchemaToolSchema is the JSON Schema of the probe's input.
var fetchSchemaToolSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"url": map[string]any{
			"type":        "string",
			"description": "Absolute URL to probe",
		},
	},
	"required": []string{"url"},
}

// maxToolTurns bounds the tool loop inside one agent turn.
const maxToolTurns = 8

const systemPromptTemplate = `You are a helpful assistant answering one user at a time.

When the user asks about an endpoint's request format, use the %s tool and
base your answer on its result.

Current session state:

%s`

func buildSystemPrompt(contextSummary string) string {
	return fmt.Sprintf(systemPromptTemplate, fetchSchemaToolName, contextSummary)
}

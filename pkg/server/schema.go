package server

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// chatRequestSchema validates the POST body before the core is invoked.
const chatRequestSchema = `{
	"type": "object",
	"properties": {
		"message": {"type": "string", "minLength": 1},
		"sessionId": {"type": "string"}
	},
	"required": ["message"],
	"additionalProperties": false
}`

func compileChatSchema() (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(chatRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat request schema: %w", err)
	}
	return schema, nil
}

// validateChatRequest returns human-readable violations, empty when valid.
func (s *Server) validateChatRequest(body []byte) ([]string, error) {
	result, err := s.chatSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations, nil
}

// chatSchemaMetadata is the static description served on GET without
// invoking the core: field names, types, and requiredness.
var chatSchemaMetadata = map[string]any{
	"name":        "chat",
	"description": "Run one conversational agent turn",
	"input": map[string]any{
		"fields": []map[string]any{
			{"name": "message", "type": "string", "required": true},
			{"name": "sessionId", "type": "string", "required": false},
		},
	},
	"output": map[string]any{
		"fields": []map[string]any{
			{"name": "sessionId", "type": "string", "required": true},
			{"name": "response", "type": "string", "required": true},
			{"name": "totalRequests", "type": "number", "required": true},
		},
	},
}

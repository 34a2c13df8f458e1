package agent

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FallbackReply is returned whenever no output event exists or its payload
// cannot be decoded. RunTurn always produces a response string.
const FallbackReply = "I could not process that request."

// replyFields are probed in priority order on structured payloads.
var replyFields = []string{"content", "message", "text"}

// ExtractReply scans the event log from the end toward the start and
// decodes the first output event it finds. A missing output event or an
// undecodable payload resolves to FallbackReply, never an error.
func ExtractReply(events []Event) string {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind != EventOutput {
			continue
		}
		if reply, ok := decodePayload(events[i].Payload, 0); ok {
			return reply
		}
		return FallbackReply
	}
	return FallbackReply
}

// decodePayload is the total decoding function over payload variants:
// plain text, JSON-encoded text (recursed one level), scalars, and
// structured objects carrying a known reply field. Anything else falls
// back to best-effort serialization.
func decodePayload(payload any, depth int) (string, bool) {
	switch v := payload.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if depth < 1 && (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) {
			var parsed any
			if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
				return decodePayload(parsed, depth+1)
			}
		}
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	case map[string]any:
		for _, field := range replyFields {
			if s, ok := v[field].(string); ok && s != "" {
				return s, true
			}
		}
		return serialize(v)
	case nil:
		return "", false
	default:
		return serialize(v)
	}
}

func serialize(payload any) (string, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

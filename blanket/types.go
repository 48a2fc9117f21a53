package blanket

import (
	"encoding/json"
	"fmt"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single chat message in the unified format.
type Message struct {
	Role    Role
	Content string
}

// SystemMessage creates a system message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// UserMessage creates a user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// AsMap returns the message as an OpenAI-style role/content map.
func (m Message) AsMap() map[string]interface{} {
	return map[string]interface{}{"role": string(m.Role), "content": m.Content}
}

// NormalizeMessages converts a loosely typed message list into canonical
// Messages. Each element may be a Message, a map[string]string, or a
// map[string]interface{} carrying "role" and "content" keys; the two forms
// are interchangeable anywhere a message sequence is expected.
func NormalizeMessages(in []interface{}) ([]Message, error) {
	out := make([]Message, 0, len(in))
	for i, item := range in {
		switch v := item.(type) {
		case Message:
			out = append(out, v)
		case map[string]string:
			out = append(out, Message{Role: Role(v["role"]), Content: v["content"]})
		case map[string]interface{}:
			role, _ := v["role"].(string)
			content, _ := v["content"].(string)
			out = append(out, Message{Role: Role(role), Content: content})
		default:
			return nil, &ConfigurationError{SDKError: SDKError{
				Message: fmt.Sprintf("message %d: unsupported type %T (want Message or role/content map)", i, item),
			}}
		}
	}
	return out, nil
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Usage holds token counts reported by the provider. Raw keeps the
// provider-native usage object for fields the unified shape does not cover.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Raw              map[string]interface{}
}

// Response is the unified response from any provider.
type Response struct {
	// Content is the concatenated assistant text.
	Content string
	// Model is the model identifier echoed by the provider, or the
	// requested model when the provider does not echo one.
	Model string
	// ID is the provider-assigned response identifier, when present.
	ID string
	// Usage is nil when the provider reported no token counts.
	Usage *Usage
	// FinishReason is the provider-native finish signal ("stop",
	// "end_turn", "STOP", ...), empty when none was reported.
	FinishReason string
	// Raw is the decoded provider-native response body, passed through
	// unmodified for escape-hatch access.
	Raw map[string]interface{}
	// ToolCalls holds tool invocations requested by the model, in order.
	ToolCalls []ToolCall
}

// StreamChunk is one increment of a streaming response.
type StreamChunk struct {
	// Content is the text delta for this increment.
	Content string
	// FinishReason is set on the terminal chunk when the provider signals
	// completion.
	FinishReason string
	// Err carries a mid-stream failure. After a chunk with a non-nil Err
	// the channel is closed and no further chunks arrive.
	Err error
}

package llmbridge

import (
	"context"
	"encoding/json"
	"strings"
)

// Role identifies who produced a message. The agent core only ever sends
// user and assistant messages; the system prompt travels separately on the
// request.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType is the discriminator tag for ContentBlock.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockImage      BlockType = "image"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ImageSource holds base64-encoded image content.
type ImageSource struct {
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// ContentBlock is a tagged union representing one part of a message.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// BlockText.
	Text string `json:"text,omitempty"`

	// BlockImage.
	Source *ImageSource `json:"source,omitempty"`

	// BlockToolUse.
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// BlockToolResult.
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// TextBlock creates a text ContentBlock.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ImageBlock creates an image ContentBlock from base64 data.
func ImageBlock(mediaType, data string) ContentBlock {
	if mediaType == "" {
		mediaType = "image/png"
	}
	return ContentBlock{Type: BlockImage, Source: &ImageSource{MediaType: mediaType, Data: data}}
}

// ToolUseBlock creates a tool_use ContentBlock.
func ToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock creates a tool_result ContentBlock referencing a tool_use id.
func ToolResultBlock(toolUseID, content string) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content}
}

// Message is the fundamental unit of conversation.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// UserMessage creates a user Message with a single text block.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// AssistantMessage creates an assistant Message with a single text block.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: []ContentBlock{TextBlock(text)}}
}

// Text returns the concatenation of all text blocks in the message.
func (m Message) Text() string {
	var sb strings.Builder
	for _, b := range m.Content {
		if b.Type == BlockText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// ToolUses returns the tool_use blocks in content order.
func (m Message) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, b := range m.Content {
		if b.Type == BlockToolUse {
			uses = append(uses, b)
		}
	}
	return uses
}

// EstimatedSize is the character contribution of the message to the context
// window estimate: plain string length for single-text messages, serialized
// structure length otherwise.
func (m Message) EstimatedSize() int {
	if len(m.Content) == 1 && m.Content[0].Type == BlockText {
		return len(m.Content[0].Text)
	}
	raw, err := json.Marshal(m.Content)
	if err != nil {
		return len(m.Text())
	}
	return len(raw)
}

// ToolSpec is a serializable tool descriptor advertised to the backend.
type ToolSpec struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// Request is the per-iteration payload sent to the inference endpoint.
type Request struct {
	Model       string     `json:"model"`
	MaxTokens   int        `json:"max_tokens"`
	Temperature float64    `json:"temperature"`
	System      string     `json:"system"`
	Tools       []ToolSpec `json:"tools,omitempty"`
	Messages    []Message  `json:"messages"`
}

// StopReason describes why generation stopped.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
)

// Usage tracks token consumption for one response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add returns the sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}

// Response is the backend's answer to one Request.
type Response struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []ContentBlock `json:"content"`
	StopReason StopReason     `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// Text returns the concatenated text blocks of the response.
func (r Response) Text() string {
	return Message{Content: r.Content}.Text()
}

// ToolUses returns the tool_use blocks of the response in order.
func (r Response) ToolUses() []ContentBlock {
	return Message{Content: r.Content}.ToolUses()
}

// AsMessage wraps the raw response content in an assistant message, preserving
// both text and tool_use blocks verbatim.
func (r Response) AsMessage() Message {
	return Message{Role: RoleAssistant, Content: r.Content}
}

// Backend is the single inference endpoint the agent loop talks to. Complete
// blocks for the duration of the call; ctx cancellation interrupts an
// in-flight request and surfaces as an *AbortError.
type Backend interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

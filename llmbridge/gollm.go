package llmbridge

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/teilomillet/gollm"
)

// GollmBackend implements Backend on top of the gollm SDK. It translates the
// request contract into a gollm prompt, classifies SDK failures into the
// bridge error hierarchy, and recovers tool calls the SDK returns embedded in
// the response text.
type GollmBackend struct {
	provider string
	llm      gollm.LLM
}

// NewGollmBackend creates a backend for the given provider. An empty apiKey
// defers to gollm's environment variable lookup.
func NewGollmBackend(provider, apiKey, model string) (*GollmBackend, error) {
	opts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxRetries(0), // retries are layered on by RetryBackend
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if apiKey != "" {
		opts = append(opts, gollm.SetAPIKey(apiKey))
	}

	llm, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, &ConfigurationError{BridgeError{
			Message: "failed to initialize " + provider + " backend",
			Cause:   err,
		}}
	}
	return &GollmBackend{provider: provider, llm: llm}, nil
}

// NewGollmBackendFromLLM wraps an existing gollm.LLM instance.
func NewGollmBackendFromLLM(provider string, llm gollm.LLM) *GollmBackend {
	return &GollmBackend{provider: provider, llm: llm}
}

// Complete sends one blocking request to the provider.
func (b *GollmBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapContextErr(err)
	}

	prompt := b.translateRequest(req)
	b.applyRequestOptions(req)

	text, err := b.llm.Generate(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, WrapContextErr(ctxErr)
		}
		return nil, b.translateError(err)
	}

	return b.buildResponse(req, text), nil
}

// translateRequest converts a Request into a gollm Prompt. gollm prompts are
// single-shot, so the message history is flattened with role markers.
func (b *GollmBackend) translateRequest(req Request) *gollm.Prompt {
	var parts []string
	for _, msg := range req.Messages {
		text := msg.Text()
		for _, block := range msg.Content {
			if block.Type == BlockToolResult {
				if text != "" {
					text += "\n"
				}
				text += "[Tool Result " + block.ToolUseID + "]: " + block.Content
			}
		}
		if text == "" {
			continue
		}
		if msg.Role == RoleAssistant {
			parts = append(parts, "[Assistant]: "+text)
		} else {
			parts = append(parts, text)
		}
	}

	promptText := strings.Join(parts, "\n")
	if promptText == "" {
		promptText = "Hello"
	}

	promptOpts := []gollm.PromptOption{}
	if req.System != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(req.System, gollm.CacheTypeEphemeral))
	}
	if req.MaxTokens > 0 {
		promptOpts = append(promptOpts, gollm.WithMaxLength(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		tools := make([]gollm.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, gollm.Tool{
				Type: "function",
				Function: gollm.Function{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.InputSchema,
				},
			})
		}
		promptOpts = append(promptOpts, gollm.WithTools(tools))
		promptOpts = append(promptOpts, gollm.WithToolChoice("auto"))
	}

	return gollm.NewPrompt(promptText, promptOpts...)
}

// applyRequestOptions applies per-request parameters to the underlying LLM.
func (b *GollmBackend) applyRequestOptions(req Request) {
	if req.Model != "" {
		b.llm.SetOption("model", req.Model)
	}
	if req.MaxTokens > 0 {
		b.llm.SetOption("max_tokens", req.MaxTokens)
	}
	b.llm.SetOption("temperature", req.Temperature)
}

// buildResponse constructs a Response from the generated text, splitting out
// any embedded tool call JSON into tool_use blocks.
func (b *GollmBackend) buildResponse(req Request, text string) *Response {
	var content []ContentBlock

	toolUses := b.parseToolUses(text)
	cleaned := b.stripToolUseJSON(text, toolUses)
	if cleaned != "" {
		content = append(content, TextBlock(cleaned))
	}
	content = append(content, toolUses...)
	if len(content) == 0 {
		content = []ContentBlock{TextBlock(text)}
	}

	stop := StopEndTurn
	if len(toolUses) > 0 {
		stop = StopToolUse
	}

	return &Response{
		ID:         "resp_" + uuid.New().String()[:8],
		Model:      req.Model,
		Content:    content,
		StopReason: stop,
		Usage: Usage{
			// gollm does not expose provider usage; estimate from text size.
			InputTokens:  estimateRequestTokens(req),
			OutputTokens: len(text) / 4,
		},
	}
}

// parseToolUses recovers tool calls gollm returns embedded as JSON in the
// response text.
func (b *GollmBackend) parseToolUses(text string) []ContentBlock {
	start := strings.Index(text, `[{"name"`)
	if start == -1 {
		return nil
	}

	var rawCalls []struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(text[start:]), &rawCalls); err != nil {
		return nil
	}

	var uses []ContentBlock
	for _, rc := range rawCalls {
		uses = append(uses, ToolUseBlock("toolu_"+uuid.New().String()[:8], rc.Name, rc.Arguments))
	}
	return uses
}

// stripToolUseJSON removes the parsed tool call JSON from the text.
func (b *GollmBackend) stripToolUseJSON(text string, uses []ContentBlock) string {
	if len(uses) == 0 {
		return strings.TrimSpace(text)
	}
	if idx := strings.Index(text, `[{"name"`); idx != -1 {
		return strings.TrimSpace(text[:idx])
	}
	return strings.TrimSpace(text)
}

// translateError classifies a gollm error into the bridge error hierarchy.
func (b *GollmBackend) translateError(err error) error {
	msg := err.Error()
	lower := strings.ToLower(msg)

	pe := ProviderError{
		BridgeError: BridgeError{Message: msg, Cause: err},
		Provider:    b.provider,
	}

	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key"):
		pe.StatusCode = 401
		return &AuthenticationError{pe}
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		pe.StatusCode = 429
		pe.Retryable = true
		return &RateLimitError{pe}
	case strings.Contains(lower, "context length") || strings.Contains(lower, "too many tokens"):
		pe.StatusCode = 413
		return &ContextLengthError{pe}
	case strings.Contains(lower, "500") || strings.Contains(lower, "502") || strings.Contains(lower, "503") || strings.Contains(lower, "internal server"):
		pe.StatusCode = 500
		pe.Retryable = true
		return &ServerError{pe}
	case strings.Contains(lower, "connection") || strings.Contains(lower, "no such host") || strings.Contains(lower, "timeout"):
		return &NetworkError{BridgeError{Message: msg, Cause: err}}
	default:
		pe.Retryable = true
		return &pe
	}
}

// estimateRequestTokens roughly counts request tokens from message sizes.
func estimateRequestTokens(req Request) int {
	total := len(req.System)
	for _, msg := range req.Messages {
		total += msg.EstimatedSize()
	}
	return total / 4
}

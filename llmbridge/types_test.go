package llmbridge

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMessageTextConcatenatesTextBlocks(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: []ContentBlock{
		TextBlock("Let me check. "),
		ToolUseBlock("toolu_1", "read_file", []byte(`{"path":"main.go"}`)),
		TextBlock("One moment."),
	}}

	if got := msg.Text(); got != "Let me check. One moment." {
		t.Errorf("unexpected text: %q", got)
	}
	if uses := msg.ToolUses(); len(uses) != 1 || uses[0].Name != "read_file" {
		t.Errorf("unexpected tool uses: %+v", uses)
	}
}

func TestEstimatedSize(t *testing.T) {
	plain := UserMessage("hello world")
	if plain.EstimatedSize() != len("hello world") {
		t.Errorf("single-text messages count their raw length, got %d", plain.EstimatedSize())
	}

	multi := Message{Role: RoleAssistant, Content: []ContentBlock{
		TextBlock("hi"),
		ToolUseBlock("toolu_1", "list_files", []byte(`{}`)),
	}}
	raw, _ := json.Marshal(multi.Content)
	if multi.EstimatedSize() != len(raw) {
		t.Errorf("multi-block messages count their serialized length: got %d, want %d",
			multi.EstimatedSize(), len(raw))
	}
	if multi.EstimatedSize() <= len("hi") {
		t.Error("serialized size should exceed the visible text")
	}
}

func TestResponseAsMessagePreservesBlocks(t *testing.T) {
	resp := Response{
		ID: "resp_1",
		Content: []ContentBlock{
			TextBlock("I'll write the file."),
			ToolUseBlock("toolu_1", "write_to_file", []byte(`{"path":"a.txt","content":"x"}`)),
		},
		StopReason: StopToolUse,
	}

	msg := resp.AsMessage()
	if msg.Role != RoleAssistant {
		t.Errorf("expected assistant role, got %s", msg.Role)
	}
	if len(msg.Content) != 2 {
		t.Fatalf("blocks must survive verbatim, got %d", len(msg.Content))
	}
	if msg.Content[1].ID != "toolu_1" || string(msg.Content[1].Input) != `{"path":"a.txt","content":"x"}` {
		t.Errorf("tool_use block altered: %+v", msg.Content[1])
	}
}

func TestImageBlockDefaultsMediaType(t *testing.T) {
	block := ImageBlock("", "aGVsbG8=")
	if block.Source == nil || block.Source.MediaType != "image/png" {
		t.Errorf("empty media type should default to image/png: %+v", block.Source)
	}
}

func TestUsageAdd(t *testing.T) {
	total := Usage{InputTokens: 100, OutputTokens: 20}.Add(Usage{InputTokens: 50, OutputTokens: 5})
	if total.InputTokens != 150 || total.OutputTokens != 25 {
		t.Errorf("unexpected sum: %+v", total)
	}
}

func TestContentBlockJSONOmitsUnusedFields(t *testing.T) {
	raw, err := json.Marshal(TextBlock("hi"))
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"tool_use_id", "source", "input"} {
		if strings.Contains(string(raw), field) {
			t.Errorf("text block serialization leaks %q: %s", field, raw)
		}
	}
}

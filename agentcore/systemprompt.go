package agentcore

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/ThomasWDev/aibuddy-desktop-sub002/toolbox"
	"github.com/ThomasWDev/aibuddy-desktop-sub002/workspace"
)

// BuildSystemPrompt assembles the system prompt from the base instructions,
// the workspace context, and the tool descriptions.
func BuildSystemPrompt(ws *workspace.Local) string {
	var sb strings.Builder

	sb.WriteString(basePrompt)
	sb.WriteString("\n\n# Environment\n\n")
	fmt.Fprintf(&sb, "Workspace folder: %s\n", ws.Root())
	fmt.Fprintf(&sb, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	sb.WriteString("\n# Available Tools\n\n")
	for _, spec := range toolbox.Catalog() {
		fmt.Fprintf(&sb, "## %s\n%s\n\n", spec.Name, spec.Description)
	}

	return sb.String()
}

const basePrompt = `You are a coding assistant working inside the user's workspace folder. You accomplish tasks by reading and writing files, listing and searching the workspace, and running shell commands, iterating until the task is done.

# Working Rules

- All file paths are resolved against the workspace folder. You cannot access anything outside it.
- Read files before modifying them.
- After writing a file, verify the change by reading it back or running a relevant command.
- When the task cannot proceed without more information, use ask_followup_question.
- When the task is finished, use attempt_completion with a summary of what you did. Do not ask a question and declare completion in the same turn.
- Tool errors are reported back to you as text beginning with "Error:". Read the message and adjust your approach instead of repeating the same call.`

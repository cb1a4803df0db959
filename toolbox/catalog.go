// Package toolbox defines the capability catalog advertised to the backend
// and the executor that dispatches tool invocations to local side effects.
//
// The catalog and the dispatch are intentionally separate: the catalog stays
// a serializable list sent verbatim with every request, while the executor is
// free to evolve. Adding a capability means adding one descriptor here plus
// one dispatch case in the executor.
package toolbox

import "github.com/ThomasWDev/aibuddy-desktop-sub002/llmbridge"

// Tool names. Every Invocation.Name must match one of these.
const (
	ToolReadFile          = "read_file"
	ToolWriteToFile       = "write_to_file"
	ToolListFiles         = "list_files"
	ToolSearchFiles       = "search_files"
	ToolExecuteCommand    = "execute_command"
	ToolAskFollowup       = "ask_followup_question"
	ToolAttemptCompletion = "attempt_completion"
)

var catalog = []llmbridge.ToolSpec{
	{
		Name:        ToolReadFile,
		Description: "Read the contents of a file. The path is resolved against the workspace folder.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the file to read, relative to the workspace folder.",
				},
			},
			"required": []string{"path"},
		},
	},
	{
		Name:        ToolWriteToFile,
		Description: "Write content to a file, creating it and any parent directories if needed. Overwrites existing content.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the file to write, relative to the workspace folder.",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "The full content to write.",
				},
			},
			"required": []string{"path", "content"},
		},
	},
	{
		Name:        ToolListFiles,
		Description: "List the contents of a directory, flat or as a depth-bounded recursive tree. Entries are tagged file or directory.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Directory to list. Defaults to the workspace folder.",
				},
				"recursive": map[string]interface{}{
					"type":        "boolean",
					"description": "Recurse into subdirectories (depth-bounded). Default: false.",
				},
			},
		},
	},
	{
		Name:        ToolSearchFiles,
		Description: "Find files whose paths match a glob-style pattern (* matches any characters) within the workspace.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"pattern": map[string]interface{}{
					"type":        "string",
					"description": "Glob-style pattern, e.g. \"*.ts\" or \"src/*test*\".",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Directory to search. Defaults to the workspace folder.",
				},
			},
			"required": []string{"pattern"},
		},
	},
	{
		Name:        ToolExecuteCommand,
		Description: "Execute a shell command in the workspace folder. Returns the exit code and combined output.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"command": map[string]interface{}{
					"type":        "string",
					"description": "The command to run.",
				},
				"cwd": map[string]interface{}{
					"type":        "string",
					"description": "Working directory override, inside the workspace. Defaults to the workspace folder.",
				},
				"timeout_seconds": map[string]interface{}{
					"type":        "integer",
					"description": "Execution timeout in seconds. Default: 60.",
				},
			},
			"required": []string{"command"},
		},
	},
	{
		Name:        ToolAskFollowup,
		Description: "Ask the user a clarifying question when the task cannot proceed without more information. Ends the current run.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "The question to ask the user.",
				},
			},
			"required": []string{"question"},
		},
	},
	{
		Name:        ToolAttemptCompletion,
		Description: "Signal that the task is complete. Provide a summary of what was done and optionally a command the user can run to verify the result.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"result": map[string]interface{}{
					"type":        "string",
					"description": "Summary of the completed work.",
				},
				"command": map[string]interface{}{
					"type":        "string",
					"description": "Optional command the user can run to see the result.",
				},
			},
			"required": []string{"result"},
		},
	},
}

// Catalog returns the immutable tool descriptor list sent with every backend
// request. Callers receive a copy; the descriptors themselves never change.
func Catalog() []llmbridge.ToolSpec {
	specs := make([]llmbridge.ToolSpec, len(catalog))
	copy(specs, catalog)
	return specs
}

// IsCataloged reports whether name is a known tool.
func IsCataloged(name string) bool {
	for _, spec := range catalog {
		if spec.Name == name {
			return true
		}
	}
	return false
}

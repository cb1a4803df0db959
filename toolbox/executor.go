package toolbox

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ThomasWDev/aibuddy-desktop-sub002/workspace"
)

// ResultKind tags how the loop controller should treat a tool result.
type ResultKind string

const (
	// ResultOrdinary feeds back into the conversation and the loop continues.
	ResultOrdinary ResultKind = "ordinary"
	// ResultFollowUp ends the run, handing a question back to the user.
	ResultFollowUp ResultKind = "followup"
	// ResultComplete ends the run with a task summary.
	ResultComplete ResultKind = "complete"
)

// Sentinel payload prefixes kept in transcript text so the model sees the
// same shapes it was prompted with. Control flow uses Result.Kind, never
// these strings.
const (
	followupPrefix = "[FOLLOWUP_QUESTION]: "
	completePrefix = "[TASK_COMPLETE]: "
)

// Invocation is a structured tool request parsed from a backend response.
// It is consumed exactly once and never mutated.
type Invocation struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// Result is the outcome of executing one invocation. Text always carries the
// transcript payload; Question, Summary, and Command are populated for the
// terminating kinds.
type Result struct {
	Kind     ResultKind `json:"kind"`
	Text     string     `json:"text"`
	Question string     `json:"question,omitempty"`
	Summary  string     `json:"summary,omitempty"`
	Command  string     `json:"command,omitempty"`
}

// IsError reports whether the result text carries an error marker.
func (r Result) IsError() bool {
	return strings.HasPrefix(r.Text, "Error:")
}

// Executor dispatches invocations to local side effects. It never returns an
// error past its own boundary: every failure becomes a Result whose text
// begins with "Error:", so the loop always has something to feed back to the
// model.
type Executor struct {
	ws     *workspace.Local
	logger *zap.Logger
}

// NewExecutor creates an executor over the given workspace adapter. A nil
// logger disables logging.
func NewExecutor(ws *workspace.Local, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{ws: ws, logger: logger}
}

// Execute runs one invocation. ctx cancellation is observed by command
// execution; file operations are short enough to run to completion.
func (e *Executor) Execute(ctx context.Context, inv Invocation) Result {
	e.logger.Debug("execute tool", zap.String("tool", inv.Name), zap.String("id", inv.ID))

	var result Result
	switch inv.Name {
	case ToolReadFile:
		result = e.readFile(inv)
	case ToolWriteToFile:
		result = e.writeToFile(inv)
	case ToolListFiles:
		result = e.listFiles(inv)
	case ToolSearchFiles:
		result = e.searchFiles(inv)
	case ToolExecuteCommand:
		result = e.executeCommand(ctx, inv)
	case ToolAskFollowup:
		result = e.askFollowup(inv)
	case ToolAttemptCompletion:
		result = e.attemptCompletion(inv)
	default:
		result = errorResult("unknown tool %q", inv.Name)
	}

	if result.IsError() {
		e.logger.Debug("tool failed", zap.String("tool", inv.Name), zap.String("result", result.Text))
	}
	return result
}

func (e *Executor) readFile(inv Invocation) Result {
	args, err := parseInput(inv.Input)
	if err != nil {
		return errorResult("%v", err)
	}
	path, ok := stringArg(args, "path")
	if !ok || path == "" {
		return errorResult("read_file requires a path")
	}
	content, err := e.ws.ReadFile(path)
	if err != nil {
		return errorResult("%v", err)
	}
	return Result{Kind: ResultOrdinary, Text: content}
}

func (e *Executor) writeToFile(inv Invocation) Result {
	args, err := parseInput(inv.Input)
	if err != nil {
		return errorResult("%v", err)
	}
	path, ok := stringArg(args, "path")
	if !ok || path == "" {
		return errorResult("write_to_file requires a path")
	}
	content, ok := stringArg(args, "content")
	if !ok {
		return errorResult("write_to_file requires content")
	}
	if err := e.ws.WriteFile(path, content); err != nil {
		return errorResult("%v", err)
	}
	return Result{Kind: ResultOrdinary, Text: fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path)}
}

func (e *Executor) listFiles(inv Invocation) Result {
	args, err := parseInput(inv.Input)
	if err != nil {
		return errorResult("%v", err)
	}
	path, _ := stringArg(args, "path")
	recursive, _ := boolArg(args, "recursive")

	depth := 1
	if recursive {
		depth = workspace.DefaultTreeDepth
	}
	entries, err := e.ws.ListTree(path, depth)
	if err != nil {
		return errorResult("%v", err)
	}
	if len(entries) == 0 {
		return Result{Kind: ResultOrdinary, Text: "Directory is empty."}
	}

	var sb strings.Builder
	for _, entry := range entries {
		tag := "[file]"
		if entry.IsDir {
			tag = "[dir] "
		}
		fmt.Fprintf(&sb, "%s %s\n", tag, entry.Path)
	}
	return Result{Kind: ResultOrdinary, Text: strings.TrimRight(sb.String(), "\n")}
}

func (e *Executor) searchFiles(inv Invocation) Result {
	args, err := parseInput(inv.Input)
	if err != nil {
		return errorResult("%v", err)
	}
	pattern, ok := stringArg(args, "pattern")
	if !ok || pattern == "" {
		return errorResult("search_files requires a pattern")
	}
	dir, _ := stringArg(args, "path")

	matcher, err := compileGlob(pattern)
	if err != nil {
		return errorResult("invalid pattern %q: %v", pattern, err)
	}

	paths, err := e.snapshot(dir)
	if err != nil {
		return errorResult("%v", err)
	}

	var matches []string
	for _, p := range paths {
		if matcher.MatchString(p) || matcher.MatchString(filepath.Base(p)) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return Result{Kind: ResultOrdinary, Text: "No matches found."}
	}
	return Result{Kind: ResultOrdinary, Text: strings.Join(matches, "\n")}
}

func (e *Executor) snapshot(dir string) ([]string, error) {
	if dir == "" {
		return e.ws.Snapshot(workspace.DefaultTreeDepth)
	}
	entries, err := e.ws.ListTree(dir, workspace.DefaultTreeDepth)
	if err != nil {
		return nil, err
	}
	// Prefix with the searched directory so matches use the same path shape
	// as a whole-workspace search.
	var paths []string
	for _, entry := range entries {
		if !entry.IsDir {
			paths = append(paths, filepath.Join(dir, entry.Path))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (e *Executor) executeCommand(ctx context.Context, inv Invocation) Result {
	args, err := parseInput(inv.Input)
	if err != nil {
		return errorResult("%v", err)
	}
	command, ok := stringArg(args, "command")
	if !ok || command == "" {
		return errorResult("execute_command requires a command")
	}
	cwd, _ := stringArg(args, "cwd")

	timeout := workspace.DefaultCommandTimeout
	if secs, ok := intArg(args, "timeout_seconds"); ok && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	result, err := e.ws.Run(ctx, command, cwd, timeout)
	if err != nil {
		return errorResult("%v", err)
	}

	text := fmt.Sprintf("Exit code: %d\n\nOutput:\n%s", result.ExitCode, result.Output)
	if result.TimedOut {
		text += fmt.Sprintf("\n\n[Command timed out after %s and was terminated. Partial output is shown above.]", timeout)
	}
	return Result{Kind: ResultOrdinary, Text: text}
}

func (e *Executor) askFollowup(inv Invocation) Result {
	args, err := parseInput(inv.Input)
	if err != nil {
		return errorResult("%v", err)
	}
	question, ok := stringArg(args, "question")
	if !ok || question == "" {
		return errorResult("ask_followup_question requires a question")
	}
	return Result{
		Kind:     ResultFollowUp,
		Text:     followupPrefix + question,
		Question: question,
	}
}

func (e *Executor) attemptCompletion(inv Invocation) Result {
	args, err := parseInput(inv.Input)
	if err != nil {
		return errorResult("%v", err)
	}
	summary, ok := stringArg(args, "result")
	if !ok || summary == "" {
		return errorResult("attempt_completion requires a result summary")
	}
	command, _ := stringArg(args, "command")

	text := completePrefix + summary
	if command != "" {
		text += "\n\nSuggested command: " + command
	}
	return Result{
		Kind:    ResultComplete,
		Text:    text,
		Summary: summary,
		Command: command,
	}
}

// compileGlob converts a glob-style pattern (* as wildcard) into an anchored
// regexp. Patterns are tried against both the full snapshot path and the base
// name, so "*.go" and "main.go" both find nested files.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(pattern)
	expr := "^" + strings.ReplaceAll(quoted, `\*`, ".*") + "$"
	return regexp.Compile(expr)
}

func errorResult(format string, args ...interface{}) Result {
	return Result{Kind: ResultOrdinary, Text: "Error: " + fmt.Sprintf(format, args...)}
}

// parseInput unmarshals invocation input into a map for argument access.
func parseInput(raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid tool input: %w", err)
	}
	return args, nil
}

func stringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func boolArg(args map[string]interface{}, key string) (bool, bool) {
	v, ok := args[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

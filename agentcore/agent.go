package agentcore

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ThomasWDev/aibuddy-desktop-sub002/llmbridge"
	"github.com/ThomasWDev/aibuddy-desktop-sub002/toolbox"
	"github.com/ThomasWDev/aibuddy-desktop-sub002/workspace"
)

// State is the externally visible lifecycle state of an agent.
type State string

const (
	StateIdle                 State = "idle"
	StateRunning              State = "running"
	StateCompleted            State = "completed"
	StateAborted              State = "aborted"
	StateError                State = "error"
	StateMaxIterationsReached State = "max_iterations_reached"
)

// ErrTaskRunning is returned when StartTask or SendMessage is called while a
// task is already in flight. Callers queue or reject at their discretion;
// messages are never silently merged into a running task.
var ErrTaskRunning = errors.New("a task is already running on this agent")

// Config holds per-agent settings.
type Config struct {
	Model         string
	MaxTokens     int
	Temperature   float64
	MaxIterations int
	EventBuffer   int
}

// DefaultConfig returns the default agent configuration.
func DefaultConfig() Config {
	return Config{
		Model:         "claude-sonnet-4-5",
		MaxTokens:     4096,
		Temperature:   0,
		MaxIterations: 50,
		EventBuffer:   256,
	}
}

// Agent drives the conversational loop for one hosting session: call the
// backend, dispatch tool invocations, append results, decide continuation.
// Instances are created by New and scoped to their session; there is no
// process-wide agent.
type Agent struct {
	backend  llmbridge.Backend
	ws       *workspace.Local
	executor *toolbox.Executor
	config   Config
	emitter  *Emitter
	logger   *zap.Logger
	reducer  *Reducer

	mu           sync.Mutex
	state        State
	conversation *Conversation
	currentTask  string
	taskID       string
	cancelRun    context.CancelFunc
	aborted      bool
}

// New creates an agent over the given backend and workspace adapter.
// A nil config uses DefaultConfig; a nil logger disables logging.
func New(backend llmbridge.Backend, ws *workspace.Local, config *Config, logger *zap.Logger) *Agent {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		backend:      backend,
		ws:           ws,
		executor:     toolbox.NewExecutor(ws, logger),
		config:       cfg,
		emitter:      NewEmitter(cfg.EventBuffer),
		logger:       logger,
		reducer:      NewReducer(),
		state:        StateIdle,
		conversation: NewConversation(),
	}
}

// SetReducer replaces the context window reducer (e.g. to swap in an exact
// token estimator). Only valid while no task is running.
func (a *Agent) SetReducer(r *Reducer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if r != nil && a.state != StateRunning {
		a.reducer = r
	}
}

// Events returns the lifecycle event channel for the host application.
func (a *Agent) Events() <-chan Event {
	return a.emitter.Events()
}

// State returns the current lifecycle state.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// IsRunning reports whether a task is in flight.
func (a *Agent) IsRunning() bool {
	return a.State() == StateRunning
}

// CurrentTask returns the text of the task in flight, or "" when idle.
func (a *Agent) CurrentTask() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentTask
}

// Usage returns the cumulative token usage across all iterations.
func (a *Agent) Usage() llmbridge.Usage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conversation.Usage()
}

// History returns a copy of the conversation history.
func (a *Agent) History() []llmbridge.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conversation.Messages()
}

// Close releases the event channel. The agent must be idle.
func (a *Agent) Close() {
	a.emitter.Close()
}

// StartTask begins a fresh task from the given text and optional images,
// discarding any previous conversation. It blocks until the run reaches a
// terminal state. Starting while a task is running fails fast with
// ErrTaskRunning.
func (a *Agent) StartTask(ctx context.Context, text string, images ...llmbridge.ImageSource) error {
	content := []llmbridge.ContentBlock{llmbridge.TextBlock(text)}
	for _, img := range images {
		content = append(content, llmbridge.ImageBlock(img.MediaType, img.Data))
	}
	msg := llmbridge.Message{Role: llmbridge.RoleUser, Content: content}

	if err := a.beginRun(ctx, text, msg, true); err != nil {
		return err
	}
	return a.runLoop(ctx)
}

// SendMessage appends a user message to the existing conversation and starts
// a fresh task over it. While a task is actively running it is rejected, not
// queued.
func (a *Agent) SendMessage(ctx context.Context, text string) error {
	if err := a.beginRun(ctx, text, llmbridge.UserMessage(text), false); err != nil {
		return err
	}
	return a.runLoop(ctx)
}

// Abort signals the running task to stop. It is cooperative: the loop
// observes it at the top of every iteration, and the run context interrupts
// in-flight backend calls and command execution. Idempotent; a no-op when
// nothing is running.
func (a *Agent) Abort() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateRunning {
		return
	}
	a.aborted = true
	if a.cancelRun != nil {
		a.cancelRun()
	}
}

// beginRun transitions Idle -> Running and installs the run state.
func (a *Agent) beginRun(ctx context.Context, text string, msg llmbridge.Message, fresh bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateRunning {
		return ErrTaskRunning
	}
	if fresh {
		a.conversation = NewConversation()
	}
	a.conversation.Append(msg)
	a.state = StateRunning
	a.aborted = false
	a.currentTask = text
	a.taskID = uuid.New().String()

	a.emitter.Emit(a.taskID, EventTaskStarted, map[string]interface{}{
		"task": text,
	})
	a.logger.Info("task started", zap.String("task_id", a.taskID))
	return nil
}

// finishRun clears the run state and records the terminal state.
func (a *Agent) finishRun(state State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = state
	a.currentTask = ""
	if a.cancelRun != nil {
		a.cancelRun()
		a.cancelRun = nil
	}
}

func (a *Agent) isAborted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.aborted
}

func (a *Agent) emit(kind EventKind, data map[string]interface{}) {
	a.mu.Lock()
	taskID := a.taskID
	a.mu.Unlock()
	a.emitter.Emit(taskID, kind, data)
}

// runLoop drives iterations until a terminal outcome. Exactly one backend
// call or one tool execution is outstanding at any instant; steps run
// strictly sequentially.
func (a *Agent) runLoop(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancelRun = cancel
	a.mu.Unlock()

	systemPrompt := BuildSystemPrompt(a.ws)
	catalog := toolbox.Catalog()

	for iteration := 0; iteration < a.config.MaxIterations; iteration++ {
		// Abort is checked at the top of every iteration, not only before
		// the network call.
		if a.isAborted() || runCtx.Err() != nil {
			a.finishRun(StateAborted)
			a.emit(EventTaskAborted, nil)
			return nil
		}

		a.mu.Lock()
		messages := a.reducer.Reduce(systemPrompt, a.conversation.Messages())
		a.mu.Unlock()

		resp, err := a.backend.Complete(runCtx, llmbridge.Request{
			Model:       a.config.Model,
			MaxTokens:   a.config.MaxTokens,
			Temperature: a.config.Temperature,
			System:      systemPrompt,
			Tools:       catalog,
			Messages:    messages,
		})
		if err != nil {
			if llmbridge.IsAbort(err) || a.isAborted() {
				a.finishRun(StateAborted)
				a.emit(EventTaskAborted, nil)
				return nil
			}
			a.finishRun(StateError)
			a.emit(EventError, map[string]interface{}{"error": err.Error()})
			a.logger.Error("backend call failed", zap.Error(err))
			return err
		}

		// The raw assistant response is appended verbatim, preserving both
		// text and tool_use blocks for inspection and replay.
		a.mu.Lock()
		a.conversation.Append(resp.AsMessage())
		a.conversation.AddUsage(resp.Usage)
		a.mu.Unlock()

		if text := resp.Text(); text != "" {
			a.emit(EventMessage, map[string]interface{}{"text": text})
		}

		uses := resp.ToolUses()
		terminal := a.dispatchTools(runCtx, uses)
		if terminal != nil {
			switch terminal.Kind {
			case toolbox.ResultFollowUp:
				a.finishRun(StateCompleted)
				a.emit(EventFollowupQuestion, map[string]interface{}{
					"question": terminal.Question,
				})
			case toolbox.ResultComplete:
				a.finishRun(StateCompleted)
				data := map[string]interface{}{"summary": terminal.Summary}
				if terminal.Command != "" {
					data["command"] = terminal.Command
				}
				a.emit(EventTaskComplete, data)
			}
			return nil
		}

		if len(uses) == 0 && resp.StopReason == llmbridge.StopEndTurn {
			a.finishRun(StateCompleted)
			a.emit(EventTaskComplete, map[string]interface{}{
				"summary": resp.Text(),
			})
			return nil
		}
	}

	// Hard termination bound: even a backend that never signals completion
	// cannot run a 51st iteration. This is informational, not a failure.
	a.finishRun(StateMaxIterationsReached)
	a.emit(EventMaxIterationsReached, map[string]interface{}{
		"iterations": a.config.MaxIterations,
	})
	a.logger.Warn("iteration bound reached", zap.Int("iterations", a.config.MaxIterations))
	return nil
}

// dispatchTools executes invocations strictly in the order received. Each
// result is appended as a user-role message before the next invocation is
// dispatched, but a later invocation never sees an earlier one's result
// until the next backend round-trip. Returns the first terminating result,
// if any; dispatch stops there.
func (a *Agent) dispatchTools(ctx context.Context, uses []llmbridge.ContentBlock) *toolbox.Result {
	for _, use := range uses {
		a.emit(EventToolUse, map[string]interface{}{
			"id":   use.ID,
			"name": use.Name,
		})

		result := a.executor.Execute(ctx, toolbox.Invocation{
			ID:    use.ID,
			Name:  use.Name,
			Input: use.Input,
		})

		a.mu.Lock()
		a.conversation.Append(llmbridge.Message{
			Role:    llmbridge.RoleUser,
			Content: []llmbridge.ContentBlock{llmbridge.ToolResultBlock(use.ID, result.Text)},
		})
		a.mu.Unlock()

		a.emit(EventToolResult, map[string]interface{}{
			"id":       use.ID,
			"name":     use.Name,
			"result":   result.Text,
			"is_error": result.IsError(),
		})

		if result.Kind != toolbox.ResultOrdinary {
			return &result
		}
	}
	return nil
}

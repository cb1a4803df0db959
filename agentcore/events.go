package agentcore

import (
	"sync"
	"time"
)

// EventKind identifies the type of lifecycle event.
type EventKind string

const (
	EventTaskStarted          EventKind = "taskStarted"
	EventMessage              EventKind = "message"
	EventToolUse              EventKind = "toolUse"
	EventToolResult           EventKind = "toolResult"
	EventFollowupQuestion     EventKind = "followupQuestion"
	EventTaskComplete         EventKind = "taskComplete"
	EventTaskAborted          EventKind = "taskAborted"
	EventMaxIterationsReached EventKind = "maxIterationsReached"
	EventError                EventKind = "error"
)

// Event is a typed lifecycle event emitted by the agent loop.
type Event struct {
	Kind      EventKind              `json:"kind"`
	Timestamp time.Time              `json:"timestamp"`
	TaskID    string                 `json:"task_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Emitter delivers events to the host application via a buffered channel.
// Consumers must treat taskAborted as expected, error as unexpected, and
// maxIterationsReached as informational.
type Emitter struct {
	ch     chan Event
	closed bool
	mu     sync.Mutex
}

// NewEmitter creates an Emitter with the given buffer size.
func NewEmitter(bufferSize int) *Emitter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Emitter{ch: make(chan Event, bufferSize)}
}

// Emit sends an event. Events are dropped rather than blocking the loop when
// the buffer is full or the emitter is closed.
func (e *Emitter) Emit(taskID string, kind EventKind, data map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	event := Event{
		Kind:      kind,
		Timestamp: time.Now(),
		TaskID:    taskID,
		Data:      data,
	}
	select {
	case e.ch <- event:
	default:
	}
}

// Events returns the read-only event channel.
func (e *Emitter) Events() <-chan Event {
	return e.ch
}

// Close closes the event channel. Safe to call multiple times.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}

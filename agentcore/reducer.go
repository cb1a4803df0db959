package agentcore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/ThomasWDev/aibuddy-desktop-sub002/llmbridge"
)

// TokenEstimator converts message text into an estimated token count.
// Estimation strategy is pluggable: the default heuristic trades precision
// for never calling a tokenizer mid-loop, while TiktokenEstimator gives
// exact counts for deployments that need them.
type TokenEstimator interface {
	Estimate(text string) int
}

// HeuristicEstimator estimates tokens as character count divided by a fixed
// ratio.
type HeuristicEstimator struct {
	CharsPerToken float64
}

// DefaultCharsPerToken is the heuristic ratio applied when none is set.
const DefaultCharsPerToken = 3.5

func (e HeuristicEstimator) Estimate(text string) int {
	ratio := e.CharsPerToken
	if ratio <= 0 {
		ratio = DefaultCharsPerToken
	}
	return int(float64(len(text)) / ratio)
}

// TiktokenEstimator counts tokens with a real BPE encoding.
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenEstimator creates an estimator for the named encoding
// (e.g. "cl100k_base").
func NewTiktokenEstimator(encoding string) (*TiktokenEstimator, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenEstimator{enc: enc}, nil
}

func (e *TiktokenEstimator) Estimate(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

// NewEstimator returns the estimation strategy for a settings name:
// "heuristic" (also the default for an empty name) or "tiktoken".
func NewEstimator(name string) (TokenEstimator, error) {
	switch name {
	case "", "heuristic":
		return HeuristicEstimator{}, nil
	case "tiktoken":
		return NewTiktokenEstimator("cl100k_base")
	default:
		return nil, fmt.Errorf("unknown token estimator %q", name)
	}
}

// Default reducer limits.
const (
	DefaultTokenBudget = 40000
	// MinRetainedMessages is the hard floor: the two most recent turns are
	// never dropped.
	MinRetainedMessages = 2
)

// Reducer bounds the outbound conversation size before each backend call by
// evicting the oldest messages.
type Reducer struct {
	Budget      int
	MinMessages int
	Estimator   TokenEstimator
}

// NewReducer returns a reducer with the default budget, floor, and heuristic
// estimator.
func NewReducer() *Reducer {
	return &Reducer{
		Budget:      DefaultTokenBudget,
		MinMessages: MinRetainedMessages,
		Estimator:   HeuristicEstimator{},
	}
}

// Reduce returns the longest suffix of messages whose estimated token count,
// plus the system prompt's contribution counted once, fits the budget. The
// payloads are concatenated and estimated as one text, so per-message rounding
// never undercounts the total. Each pass strictly decreases the message count
// while over budget, and the result never has fewer than MinMessages messages
// (unless the input already did).
func (r *Reducer) Reduce(systemPrompt string, messages []llmbridge.Message) []llmbridge.Message {
	if len(messages) == 0 {
		return messages
	}
	est := r.Estimator
	if est == nil {
		est = HeuristicEstimator{}
	}

	// Message payloads go in front so the candidate suffix is always one
	// slice of the combined text, with the system prompt counted once at the
	// tail.
	var sb strings.Builder
	offsets := make([]int, len(messages))
	for i, msg := range messages {
		offsets[i] = sb.Len()
		sb.WriteString(messagePayload(msg))
	}
	sb.WriteString(systemPrompt)
	combined := sb.String()

	start := 0
	for len(messages)-start > r.MinMessages && est.Estimate(combined[offsets[start]:]) > r.Budget {
		start++
	}
	return messages[start:]
}

// messagePayload is the text the estimator sees for one message: the plain
// string for single-text messages, the serialized structure otherwise.
func messagePayload(msg llmbridge.Message) string {
	if len(msg.Content) == 1 && msg.Content[0].Type == llmbridge.BlockText {
		return msg.Content[0].Text
	}
	raw, err := json.Marshal(msg.Content)
	if err != nil {
		return msg.Text()
	}
	return string(raw)
}

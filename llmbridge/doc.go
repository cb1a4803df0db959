// Package llmbridge defines the contract between the agent core and the
// inference backend.
//
// The wire shapes mirror the Messages-style API: a request carries a model
// identifier, a system prompt, the advertised tool catalog, and the reduced
// message history; a response carries an ordered list of content blocks
// (text and tool_use), a stop reason, and token usage.
//
// One concrete implementation is provided, GollmBackend, which adapts the
// contract onto the gollm SDK. Hosts that need a different transport
// implement the Backend interface directly; the agent core only ever sees
// Backend.
package llmbridge

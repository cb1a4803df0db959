// Package agentcore implements the agentic execution core of the AIBuddy
// desktop coding assistant: a bounded conversational loop that alternates
// between calling the inference backend and executing local tools inside a
// sandboxed workspace.
//
// # Architecture
//
//   - Agent: the loop controller. Owns the conversation, drives iterations,
//     dispatches tool invocations in order, and emits lifecycle events.
//   - Conversation: append-only message history plus cumulative token usage.
//   - Reducer: bounds the outbound conversation size before each backend
//     call, with a pluggable token estimation strategy.
//   - Emitter: buffered, typed event stream for the host application.
//
// The loop is cooperative, not multi-threaded: exactly one backend call or
// one tool execution is outstanding at any instant. Abort is observed at the
// top of every iteration and the run context is threaded through both the
// network call and tool execution, so in-flight work is interrupted too.
//
// # Quick Start
//
//	backend, _ := llmbridge.NewGollmBackend("anthropic", cfg.APIKey, cfg.Model)
//	ws := workspace.NewLocal(cfg.Workspace, logger)
//	agent := agentcore.New(backend, ws, nil, logger)
//	defer agent.Close()
//
//	if est, err := agentcore.NewEstimator(cfg.Estimator); err == nil {
//	    agent.SetReducer(&agentcore.Reducer{
//	        Budget:      agentcore.DefaultTokenBudget,
//	        MinMessages: agentcore.MinRetainedMessages,
//	        Estimator:   est,
//	    })
//	}
//
//	go func() {
//	    for event := range agent.Events() {
//	        fmt.Printf("[%s] %v\n", event.Kind, event.Data)
//	    }
//	}()
//
//	if err := agent.StartTask(ctx, "Add a README to this project"); err != nil {
//	    log.Fatal(err)
//	}
package agentcore

package agents

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Middleware wraps an Agent with cross-cutting behavior (logging, recovery).
// Apply via Registry.Use.
type Middleware func(Agent) Agent

// WithLogging returns a middleware that logs start, end, duration, and errors
// of every invocation.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Agent) Agent {
		return &loggingAgent{agentBase: agentBase{next: next}, logger: logger}
	}
}

// WithRecovery returns a middleware that recovers panics from the agent
// function and returns them as *ExecutionError. The Registry already does
// this by default (WithRecoverPanics); use the middleware form when agents
// are invoked directly, outside a Registry.
func WithRecovery() Middleware {
	return func(next Agent) Agent {
		return &recoveryAgent{agentBase{next: next}}
	}
}

// agentBase delegates Metadata to the wrapped Agent; used by middleware wrappers.
type agentBase struct{ next Agent }

func (b *agentBase) Metadata() Metadata { return b.next.Metadata() }

type loggingAgent struct {
	agentBase
	logger *slog.Logger
}

func (m *loggingAgent) Invoke(ctx context.Context, argsJSON []byte) (json.RawMessage, error) {
	name := m.next.Metadata().Name
	m.logger.Info("agent start", "agent", name)
	start := time.Now()
	res, err := m.next.Invoke(ctx, argsJSON)
	dur := time.Since(start)
	if err != nil {
		m.logger.Error("agent error", "agent", name, "duration", dur, "error", err)
		return nil, err
	}
	m.logger.Info("agent end", "agent", name, "duration", dur)
	return res, nil
}

type recoveryAgent struct{ agentBase }

func (r *recoveryAgent) Invoke(ctx context.Context, argsJSON []byte) (res json.RawMessage, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = &ExecutionError{Agent: r.next.Metadata().Name, Err: &panicError{p: p}}
		}
	}()
	return r.next.Invoke(ctx, argsJSON)
}

// applyMiddlewares wraps a in mws, first middleware outermost.
func applyMiddlewares(a Agent, mws []Middleware) Agent {
	for i := len(mws) - 1; i >= 0; i-- {
		a = mws[i](a)
	}
	return a
}

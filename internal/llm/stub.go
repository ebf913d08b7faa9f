package llm

import (
	"context"
	"sync"
)

// Stub is a deterministic Generator for tests and offline development.
type Stub struct {
	// Reply returns the text for a request. Nil echoes Response.
	Reply    func(req Request) (string, error)
	Response string
	Err      error

	mu    sync.Mutex
	calls []Request
}

func (s *Stub) Generate(ctx context.Context, req Request) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Reply != nil {
		return s.Reply(req)
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Response, nil
}

// Calls returns a copy of every request seen so far.
func (s *Stub) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.calls))
	copy(out, s.calls)
	return out
}

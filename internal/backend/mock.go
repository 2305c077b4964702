package backend

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockTurn is a single scripted response from Mock.
type MockTurn struct {
	Text  string        // Text to return
	Delay time.Duration // Optional delay before responding (for supersession tests)
	Error error         // Return this error instead of responding
}

// MockRequest records one Generate call.
type MockRequest struct {
	Prompt      string
	UseTemplate bool
}

// Mock is a scripted backend for testing.
// It returns responses in order and records every request for verification.
type Mock struct {
	name      string
	turns     []MockTurn
	turnIndex int
	Requests  []MockRequest
	closed    bool
	mu        sync.Mutex
}

func NewMock(name string) *Mock {
	return &Mock{name: name}
}

func (m *Mock) Name() string {
	return m.name
}

// AddTurn adds a response turn and returns the mock for chaining.
func (m *Mock) AddTurn(t MockTurn) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, t)
	return m
}

// AddTextResponse is a convenience method to add a simple text response.
func (m *Mock) AddTextResponse(text string) *Mock {
	return m.AddTurn(MockTurn{Text: text})
}

// AddError adds a turn that returns an error.
func (m *Mock) AddError(err error) *Mock {
	return m.AddTurn(MockTurn{Error: err})
}

// Reset clears recorded requests and rewinds the script.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turnIndex = 0
	m.Requests = nil
}

// CurrentTurn returns the index of the next scripted turn.
func (m *Mock) CurrentTurn() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turnIndex
}

// Recorded returns a copy of the recorded requests.
func (m *Mock) Recorded() []MockRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockRequest(nil), m.Requests...)
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Mock) Generate(ctx context.Context, prompt string, useTemplate bool) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, MockRequest{Prompt: prompt, UseTemplate: useTemplate})
	if m.turnIndex >= len(m.turns) {
		m.mu.Unlock()
		return "", fmt.Errorf("mock backend: no more turns configured (expected turn %d, have %d)", m.turnIndex, len(m.turns))
	}
	turn := m.turns[m.turnIndex]
	m.turnIndex++
	m.mu.Unlock()

	if turn.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(turn.Delay):
		}
	}
	if turn.Error != nil {
		return "", turn.Error
	}
	return turn.Text, nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

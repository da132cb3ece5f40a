// Package testutil provides shared testing mocks for the dispatch collaborators: backends,
// the preprocessor and the forward client.
package testutil

import (
	"context"
	"net/http"
	"sync"

	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

// MockBackend is a configurable backend. It echoes the message with a prefix unless a reply,
// an error or a panic trigger is configured.
type MockBackend struct {
	mu sync.RWMutex

	info  types.BackendInfo
	label string

	// Behavior control
	reply        string
	completeErr  error
	panicMessage string

	// Call tracking
	completeCalled int
	lastMessage    string
}

// NewMockBackend creates a mock backend that answers "re: <message>"
func NewMockBackend(name string, backendType types.BackendType, model string) *MockBackend {
	return &MockBackend{
		info:  types.BackendInfo{Name: name, Type: backendType, Model: model},
		label: name,
	}
}

// WithLabel sets the name used in error messages
func (m *MockBackend) WithLabel(label string) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.label = label
	return m
}

// WithReply makes Complete return reply for every message
func (m *MockBackend) WithReply(reply string) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = reply
	return m
}

// WithError makes Complete fail
func (m *MockBackend) WithError(err error) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeErr = err
	return m
}

// WithPanicOn makes Complete panic when it receives message
func (m *MockBackend) WithPanicOn(message string) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicMessage = message
	return m
}

// Info implements dispatch.Backend
func (m *MockBackend) Info() types.BackendInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.info
}

// Label implements dispatch.Backend
func (m *MockBackend) Label() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.label
}

// Complete implements dispatch.Backend
func (m *MockBackend) Complete(_ context.Context, message string) (string, error) {
	m.mu.Lock()
	m.completeCalled++
	m.lastMessage = message
	reply, err, panicOn := m.reply, m.completeErr, m.panicMessage
	m.mu.Unlock()

	if panicOn != "" && message == panicOn {
		panic("mock backend: " + message)
	}
	if err != nil {
		return "", err
	}
	if reply != "" {
		return reply, nil
	}
	return "re: " + message, nil
}

// CompleteCalls returns how many times Complete ran and the last message it saw
func (m *MockBackend) CompleteCalls() (int, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.completeCalled, m.lastMessage
}

// MockPreprocessor returns a fixed output or error and records its inputs
type MockPreprocessor struct {
	mu     sync.Mutex
	Output []byte
	Err    error
	inputs [][]byte
}

// Process implements dispatch.Preprocessor
func (m *MockPreprocessor) Process(_ context.Context, input []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, append([]byte(nil), input...))
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Output, nil
}

// Inputs returns a copy of every payload passed to Process
func (m *MockPreprocessor) Inputs() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.inputs...)
}

// MockForwarder answers with a fixed status and body. A zero Status means 200.
type MockForwarder struct {
	mu       sync.Mutex
	Status   int
	Body     []byte
	Err      error
	payloads [][]byte
}

// Forward implements dispatch.Forwarder
func (m *MockForwarder) Forward(_ context.Context, payload []byte) (int, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, append([]byte(nil), payload...))
	if m.Err != nil {
		return 0, nil, m.Err
	}
	status := m.Status
	if status == 0 {
		status = http.StatusOK
	}
	return status, m.Body, nil
}

// Payloads returns a copy of every payload passed to Forward
func (m *MockForwarder) Payloads() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.payloads...)
}

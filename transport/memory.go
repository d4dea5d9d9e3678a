package transport

import "sync"

// Memory is an in-process Transport that records every write.
type Memory struct {
	mu      sync.Mutex
	text    string
	history []string
	closed  bool
}

// NewMemory creates an empty in-memory transport.
func NewMemory() *Memory {
	return &Memory{}
}

// Put replaces the buffer content.
func (m *Memory) Put(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.text = text
	m.history = append(m.history, text)
	return nil
}

// Get returns the buffer content.
func (m *Memory) Get() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrClosed
	}
	return m.text, nil
}

// History returns a copy of every text written so far, oldest first.
func (m *Memory) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.history))
	copy(out, m.history)
	return out
}

// Close marks the transport closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

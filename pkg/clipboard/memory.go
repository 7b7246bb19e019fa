package clipboard

import "sync"

// MemoryPasteboard is a process-local clipboard used on headless hosts and
// in tests.
type MemoryPasteboard struct {
	mu    sync.Mutex
	items map[string][]byte
	err   error
}

func NewMemoryPasteboard() *MemoryPasteboard {
	return &MemoryPasteboard{items: map[string][]byte{}}
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (m *MemoryPasteboard) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *MemoryPasteboard) ReadBuffer(format string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.items[format]
	if !ok {
		return nil, ErrFormatUnavailable
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryPasteboard) ReadText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return string(m.items[FormatText]), nil
}

func (m *MemoryPasteboard) Write(items map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items = make(map[string][]byte, len(items))
	for format, data := range items {
		m.items[format] = append([]byte(nil), data...)
	}
	return nil
}

// SetText replaces the clipboard with plain text, as another application
// copying text would.
func (m *MemoryPasteboard) SetText(text string) {
	m.mu.Lock()
	m.items = map[string][]byte{FormatText: []byte(text)}
	m.mu.Unlock()
}

func (m *MemoryPasteboard) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items = map[string][]byte{}
	return nil
}

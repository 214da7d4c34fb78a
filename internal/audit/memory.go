package audit

import (
	"context"
	"sync"
)

// MemorySink keeps lines in memory. Used by tests and as a throwaway sink in
// dev setups without a writable log location.
type MemorySink struct {
	mu    sync.Mutex
	lines []string
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Record(_ context.Context, line string) error {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
	return nil
}

func (s *MemorySink) Filter(_ context.Context, substrings []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, line := range s.lines {
		if matchesAny(line, substrings) {
			out = append(out, line)
		}
	}
	return out, nil
}

// Lines returns a copy of everything recorded so far.
func (s *MemorySink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

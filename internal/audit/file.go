package audit

import (
	"bufio"
	"context"
	"os"
	"sync"
)

// FileSink appends lines to a single log file. A mutex serializes writers in
// this process; the file is opened O_APPEND so separate processes interleave
// whole lines.
type FileSink struct {
	mu   sync.Mutex
	path string
}

func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	return &FileSink{path: path}, nil
}

func (s *FileSink) Record(_ context.Context, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	_, err = f.WriteString(line + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *FileSink) Filter(_ context.Context, substrings []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if matchesAny(sc.Text(), substrings) {
			out = append(out, sc.Text())
		}
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

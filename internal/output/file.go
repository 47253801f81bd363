package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink renders reports to a file. The format is inferred from the
// extension when opts.Format is empty.
type FileSink struct {
	path string
	opts Options
	file *os.File
	mu   sync.Mutex
}

func NewFileSink(path string, opts Options) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}

	if opts.Format == "" {
		f, err := FormatFromPath(path)
		if err != nil {
			return nil, err
		}
		opts.Format = f
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &FileSink{path: path, opts: opts, file: f}, nil
}

func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) Write(rep Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Render(s.file, rep, s.opts)
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

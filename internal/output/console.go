package output

import (
	"io"
	"os"
	"sync"
)

type flusher interface {
	Flush() error
}

func flushIfPossible(w io.Writer) error {
	f, ok := w.(flusher)
	if !ok {
		return nil
	}
	return f.Flush()
}

// ConsoleSink renders reports to a stream, stdout by default.
type ConsoleSink struct {
	writer io.Writer
	opts   Options
	mu     sync.Mutex
}

func NewConsoleSink(w io.Writer, opts Options) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if opts.Format == "" {
		opts.Format = FormatText
	}
	return &ConsoleSink{writer: w, opts: opts}
}

func (s *ConsoleSink) Write(rep Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := Render(s.writer, rep, s.opts); err != nil {
		return err
	}
	return flushIfPossible(s.writer)
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return flushIfPossible(s.writer)
}

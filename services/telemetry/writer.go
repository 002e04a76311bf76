package telemetry

import (
	"io"
	"sync"
)

// WriterSink writes "topic payload\n" lines, for serial links.
type WriterSink struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte
}

func NewWriterSink(w io.Writer) *WriterSink { return &WriterSink{w: w} }

func (s *WriterSink) Send(topic string, payload []byte, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf[:0], topic...)
	s.buf = append(s.buf, ' ')
	s.buf = append(s.buf, payload...)
	s.buf = append(s.buf, '\n')
	_, err := s.w.Write(s.buf)
	return err
}

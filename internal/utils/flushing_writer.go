package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// FlushingWriter serializes report writes and flushes the destination after each one when it
// buffers, so report lines interleave cleanly with log output on a terminal.
type FlushingWriter struct {
	mutex       sync.Mutex
	destination io.Writer
}

// NewFlushingWriter wraps destination. A nil destination yields nil and an existing FlushingWriter
// is returned as is.
func NewFlushingWriter(destination io.Writer) io.Writer {
	switch typed := destination.(type) {
	case nil:
		return nil
	case *FlushingWriter:
		return typed
	default:
		return &FlushingWriter{destination: destination}
	}
}

// Write writes data and flushes a buffering destination.
func (writer *FlushingWriter) Write(data []byte) (int, error) {
	if writer == nil || writer.destination == nil {
		return 0, nil
	}

	writer.mutex.Lock()
	defer writer.mutex.Unlock()

	written, writeError := writer.destination.Write(data)
	if writeError != nil {
		return written, writeError
	}
	if buffered, buffers := writer.destination.(flusher); buffers {
		return written, buffered.Flush()
	}
	return written, nil
}

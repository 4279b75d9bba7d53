package logger

import (
	"errors"
	"io"
	"sync"
)

// asyncWriter fans complete log lines out to every sink from a single
// background goroutine so handlers never block on slow disks.
type asyncWriter struct {
	queue    chan []byte
	flushReq chan chan error
	done     chan struct{}

	mu     sync.Mutex
	closed bool
	sinks  []io.Writer
}

func newAsyncWriter(sinks []io.Writer, queueSize int) *asyncWriter {
	if queueSize <= 0 {
		queueSize = 1024
	}
	w := &asyncWriter{
		queue:    make(chan []byte, queueSize),
		flushReq: make(chan chan error, 1),
		done:     make(chan struct{}),
		sinks:    sinks,
	}
	go w.loop()
	return w
}

// Write enqueues one line. When the queue is full the write happens
// synchronously so log records are never dropped.
func (w *asyncWriter) Write(line []byte) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return w.writeAll(line)
	}

	buf := make([]byte, len(line))
	copy(buf, line)
	select {
	case w.queue <- buf:
		return nil
	default:
		return w.writeAll(buf)
	}
}

// Flush waits until every queued line has been written out.
func (w *asyncWriter) Flush() error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return nil
	}
	reply := make(chan error, 1)
	select {
	case w.flushReq <- reply:
		return <-reply
	case <-w.done:
		return nil
	}
}

// Close drains remaining lines and stops the background goroutine.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.queue)
	<-w.done
	return nil
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				return
			}
			_ = w.writeAll(line)
		case reply := <-w.flushReq:
			reply <- w.drain()
		}
	}
}

func (w *asyncWriter) drain() error {
	var errs []error
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				return errors.Join(errs...)
			}
			if err := w.writeAll(line); err != nil {
				errs = append(errs, err)
			}
		default:
			return errors.Join(errs...)
		}
	}
}

func (w *asyncWriter) writeAll(line []byte) error {
	var errs []error
	for _, sink := range w.sinks {
		if _, err := sink.Write(line); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

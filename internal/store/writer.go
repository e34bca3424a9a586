package store

import (
	"context"
	"sync"
)

const defaultBufferSize = 256

type opKind int

const (
	opSelection opKind = iota
	opOverride
)

type prefOp struct {
	kind     opKind
	topic    string
	encoding string
}

// AsyncWriter applies preference updates off the UI goroutine through a
// buffered channel. Writes are best-effort: if the buffer is full the
// update is dropped rather than blocking the UI.
type AsyncWriter struct {
	store Store
	ch    chan prefOp
	wg    sync.WaitGroup
	done  chan struct{}
}

// NewAsyncWriter starts the background writer.
func NewAsyncWriter(store Store) *AsyncWriter {
	w := &AsyncWriter{
		store: store,
		ch:    make(chan prefOp, defaultBufferSize),
		done:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// RecordSelection queues a selection-history bump. Non-blocking.
func (w *AsyncWriter) RecordSelection(topic string) bool {
	return w.enqueue(prefOp{kind: opSelection, topic: topic})
}

// SetEncodingOverride queues an override write. Non-blocking.
func (w *AsyncWriter) SetEncodingOverride(topic, encoding string) bool {
	return w.enqueue(prefOp{kind: opOverride, topic: topic, encoding: encoding})
}

func (w *AsyncWriter) enqueue(op prefOp) bool {
	select {
	case w.ch <- op:
		return true
	default:
		// Buffer full, drop update
		return false
	}
}

func (w *AsyncWriter) run() {
	defer w.wg.Done()
	for {
		select {
		case op, ok := <-w.ch:
			if !ok {
				return
			}
			w.apply(op)
		case <-w.done:
			// Drain remaining updates
			for {
				select {
				case op, ok := <-w.ch:
					if !ok {
						return
					}
					w.apply(op)
				default:
					return
				}
			}
		}
	}
}

func (w *AsyncWriter) apply(op prefOp) {
	// Best effort, ignore errors
	switch op.kind {
	case opSelection:
		_ = w.store.RecordSelection(context.Background(), op.topic)
	case opOverride:
		_ = w.store.SetEncodingOverride(context.Background(), op.topic, op.encoding)
	}
}

// Close drains the buffer, stops the writer, and closes the underlying
// store. The writer owns the store handle once constructed.
func (w *AsyncWriter) Close() error {
	close(w.done)
	close(w.ch)
	w.wg.Wait()
	return w.store.Close()
}

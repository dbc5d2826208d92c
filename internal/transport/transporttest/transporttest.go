// Package transporttest provides an in-memory transport for tests.
package transporttest

import (
	"sync"
)

// Recorder keeps every message it is sent.
type Recorder struct {
	mu     sync.Mutex
	msgs   [][]byte
	closed bool

	// Err, when set, is returned by Send and the message is dropped.
	Err error
}

func (r *Recorder) Send(msg []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	cp := make([]byte, len(msg))
	copy(cp, msg)
	r.msgs = append(r.msgs, cp)
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Messages returns a copy of everything sent so far.
func (r *Recorder) Messages() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Reset forgets recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

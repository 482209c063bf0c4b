package tensor

import (
	"sync"
	"sync/atomic"
)

// storage is a reference-counted data buffer shared by tensors that alias the
// same memory (a tensor and its Detach views). The buffer is returned to its
// backend when the last reference is released.
type storage struct {
	backend  Backend
	buf      Buffer
	refCount atomic.Int32
	mu       sync.Mutex // For safe deallocation
}

// newStorage wraps buf with refCount = 1.
func newStorage(b Backend, buf Buffer) *storage {
	s := &storage{
		backend: b,
		buf:     buf,
	}
	s.refCount.Store(1)
	return s
}

// addRef increments the reference count (for Detach).
func (s *storage) addRef() {
	s.refCount.Add(1)
}

// release decrements the reference count and frees the buffer if it reaches 0.
func (s *storage) release() {
	if s.refCount.Add(-1) != 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf != nil {
		s.backend.Free(s.buf)
		s.buf = nil
	}
}

// buffer returns the live buffer, or nil once freed.
func (s *storage) buffer() Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf
}

// resources are the buffers one tensor owns: a reference on its data storage and
// its private gradient buffer. They are released explicitly via Tensor.Release or
// by the runtime cleanup attached when the tensor was created.
type resources struct {
	data     *storage
	grad     Buffer
	released bool
	mu       sync.Mutex
}

func (r *resources) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	if r.grad != nil {
		r.data.backend.Free(r.grad)
		r.grad = nil
	}
	r.data.release()
}

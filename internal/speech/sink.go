package speech

import (
	"context"
	"sync"
)

// BufferSink holds the most recently played audio so the HTTP layer can
// hand it to the browser for actual playback.
type BufferSink struct {
	mu   sync.Mutex
	last []byte
}

func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (s *BufferSink) Play(ctx context.Context, audio []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = make([]byte, len(audio))
	copy(s.last, audio)
	return nil
}

// Last returns the most recently played audio, or nil.
func (s *BufferSink) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	out := make([]byte, len(s.last))
	copy(out, s.last)
	return out
}

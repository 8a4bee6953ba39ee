package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrNoActiveStream = errors.New("no active media stream")
	ErrNoRecording    = errors.New("no recording in progress")
	ErrSynthesis      = errors.New("speech synthesis failed")
	ErrTranscription  = errors.New("transcription failed")
)

// Synthesizer turns text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcriber turns encoded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Sink is where synthesized speech is played. Play blocks until playback
// is done.
type Sink interface {
	Play(ctx context.Context, audio []byte) error
}

// Adapter mediates between interview intents (speak, record, transcribe)
// and the audio services. One adapter instance is owned by exactly one
// interview run; it is constructed at session start and released on
// teardown rather than shared through globals.
type Adapter struct {
	mu        sync.Mutex
	speaking  bool
	capturing bool
	released  bool
	chunks    [][]byte

	synth  Synthesizer
	stt    Transcriber
	sink   Sink
	cache  *Cache
	logger *zap.Logger
}

func NewAdapter(synth Synthesizer, stt Transcriber, sink Sink, cache *Cache, logger *zap.Logger) *Adapter {
	return &Adapter{
		synth:  synth,
		stt:    stt,
		sink:   sink,
		cache:  cache,
		logger: logger,
	}
}

// Speak synthesizes and plays the text. A call while a previous one is
// still playing is a no-op: it neither queues nor interrupts. The first
// return value reports whether this call actually spoke.
func (a *Adapter) Speak(ctx context.Context, text string) (bool, error) {
	a.mu.Lock()
	if a.speaking || a.released {
		a.mu.Unlock()
		return false, nil
	}
	a.speaking = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.speaking = false
		a.mu.Unlock()
	}()

	audio, ok := a.cache.Get(ctx, text)
	if !ok {
		var err error
		audio, err = a.synth.Synthesize(ctx, text)
		if err != nil {
			a.logger.Error("Failed to synthesize speech", zap.Error(err))
			return false, pkgerrors.Wrap(ErrSynthesis, err.Error())
		}
		a.cache.Set(ctx, text, audio)
	}

	if err := a.sink.Play(ctx, audio); err != nil {
		a.logger.Error("Failed to play synthesized speech", zap.Error(err))
		return false, pkgerrors.Wrap(ErrSynthesis, err.Error())
	}
	return true, nil
}

// StartCapture begins buffering encoded chunks from the given live stream.
func (a *Adapter) StartCapture(streamID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released || streamID == "" {
		return ErrNoActiveStream
	}
	a.capturing = true
	a.chunks = a.chunks[:0]
	return nil
}

// AppendChunk buffers one encoded audio chunk. Empty chunks are dropped,
// matching the recorder's dataavailable behavior.
func (a *Adapter) AppendChunk(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.capturing {
		return ErrNoRecording
	}
	if len(data) == 0 {
		return nil
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	a.chunks = append(a.chunks, buf)
	return nil
}

// StopCapture finalizes the buffer and returns the full recording as one
// base64-encoded blob.
func (a *Adapter) StopCapture() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.capturing {
		return "", ErrNoRecording
	}
	a.capturing = false

	var size int
	for _, chunk := range a.chunks {
		size += len(chunk)
	}
	blob := make([]byte, 0, size)
	for _, chunk := range a.chunks {
		blob = append(blob, chunk...)
	}
	a.chunks = nil

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Transcribe sends the full recording for speech-to-text in one shot; no
// streaming, resampling or voice-activity detection happens here.
func (a *Adapter) Transcribe(ctx context.Context, encodedAudio string) (string, error) {
	audio, err := base64.StdEncoding.DecodeString(encodedAudio)
	if err != nil {
		return "", pkgerrors.Wrap(ErrTranscription, err.Error())
	}

	text, err := a.stt.Transcribe(ctx, audio, "answer.webm")
	if err != nil {
		a.logger.Error("Failed to transcribe recording", zap.Error(err))
		return "", pkgerrors.Wrap(ErrTranscription, err.Error())
	}
	return text, nil
}

// Sink exposes the playback sink wired at construction.
func (a *Adapter) Sink() Sink {
	return a.sink
}

// Release tears the adapter down: any in-flight recording is halted and
// its buffer dropped. Safe to call multiple times and from any state.
func (a *Adapter) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.released = true
	a.capturing = false
	a.chunks = nil
}

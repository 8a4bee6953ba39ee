package speech

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSynth struct {
	audio   []byte
	fail    bool
	blockCh chan struct{}
	entered chan struct{}
}

func (s *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.entered != nil {
		close(s.entered)
		s.entered = nil
	}
	if s.blockCh != nil {
		<-s.blockCh
	}
	if s.fail {
		return nil, errors.New("synthesis unavailable")
	}
	return s.audio, nil
}

type fakeStt struct {
	text     string
	fail     bool
	gotAudio []byte
	gotName  string
}

func (s *fakeStt) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	s.gotAudio = audio
	s.gotName = filename
	if s.fail {
		return "", errors.New("transcription unavailable")
	}
	return s.text, nil
}

func newTestAdapter(synth *fakeSynth, stt *fakeStt) (*Adapter, *BufferSink) {
	sink := NewBufferSink()
	return NewAdapter(synth, stt, sink, nil, zap.NewNop()), sink
}

func TestSpeakSynthesizesAndPlays(t *testing.T) {
	synth := &fakeSynth{audio: []byte("mp3-bytes")}
	adapter, sink := newTestAdapter(synth, &fakeStt{})

	spoke, err := adapter.Speak(context.Background(), "What is a B-tree?")
	require.NoError(t, err)
	assert.True(t, spoke)
	assert.Equal(t, []byte("mp3-bytes"), sink.Last())
}

func TestSpeakWhileSpeakingIsNoOp(t *testing.T) {
	synth := &fakeSynth{
		audio:   []byte("mp3-bytes"),
		blockCh: make(chan struct{}),
		entered: make(chan struct{}),
	}
	adapter, _ := newTestAdapter(synth, &fakeStt{})

	entered := synth.entered
	done := make(chan struct{})
	go func() {
		defer close(done)
		adapter.Speak(context.Background(), "first")
	}()
	<-entered

	spoke, err := adapter.Speak(context.Background(), "second")
	assert.NoError(t, err)
	assert.False(t, spoke)

	close(synth.blockCh)
	<-done
}

func TestSpeakAfterReleaseIsNoOp(t *testing.T) {
	adapter, sink := newTestAdapter(&fakeSynth{audio: []byte("x")}, &fakeStt{})
	adapter.Release()

	spoke, err := adapter.Speak(context.Background(), "anything")
	assert.NoError(t, err)
	assert.False(t, spoke)
	assert.Nil(t, sink.Last())
}

func TestSpeakSynthesisFailure(t *testing.T) {
	adapter, _ := newTestAdapter(&fakeSynth{fail: true}, &fakeStt{})

	spoke, err := adapter.Speak(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrSynthesis)
	assert.False(t, spoke)

	// The failure clears the speaking flag; the next attempt proceeds.
	_, err = adapter.Speak(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrSynthesis)
}

func TestCaptureFlow(t *testing.T) {
	adapter, _ := newTestAdapter(&fakeSynth{}, &fakeStt{})

	require.NoError(t, adapter.StartCapture("stream-1"))
	require.NoError(t, adapter.AppendChunk([]byte("abc")))
	require.NoError(t, adapter.AppendChunk(nil)) // empty chunks are dropped
	require.NoError(t, adapter.AppendChunk([]byte("def")))

	blob, err := adapter.StopCapture()
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("abcdef")), blob)

	// The buffer is consumed; a second stop has nothing to finalize.
	_, err = adapter.StopCapture()
	assert.ErrorIs(t, err, ErrNoRecording)
}

func TestStartCaptureRequiresStream(t *testing.T) {
	adapter, _ := newTestAdapter(&fakeSynth{}, &fakeStt{})
	assert.ErrorIs(t, adapter.StartCapture(""), ErrNoActiveStream)
}

func TestAppendChunkWithoutRecording(t *testing.T) {
	adapter, _ := newTestAdapter(&fakeSynth{}, &fakeStt{})
	assert.ErrorIs(t, adapter.AppendChunk([]byte("abc")), ErrNoRecording)
}

func TestStopCaptureWithoutRecording(t *testing.T) {
	adapter, _ := newTestAdapter(&fakeSynth{}, &fakeStt{})
	_, err := adapter.StopCapture()
	assert.ErrorIs(t, err, ErrNoRecording)
}

func TestTranscribe(t *testing.T) {
	stt := &fakeStt{text: "I would shard by user id."}
	adapter, _ := newTestAdapter(&fakeSynth{}, stt)

	encoded := base64.StdEncoding.EncodeToString([]byte("webm-bytes"))
	text, err := adapter.Transcribe(context.Background(), encoded)
	require.NoError(t, err)
	assert.Equal(t, "I would shard by user id.", text)
	assert.Equal(t, []byte("webm-bytes"), stt.gotAudio)
	assert.Equal(t, "answer.webm", stt.gotName)
}

func TestTranscribeRejectsBadEncoding(t *testing.T) {
	adapter, _ := newTestAdapter(&fakeSynth{}, &fakeStt{})
	_, err := adapter.Transcribe(context.Background(), "not base64 !!!")
	assert.ErrorIs(t, err, ErrTranscription)
}

func TestReleaseHaltsRecordingAndIsIdempotent(t *testing.T) {
	adapter, _ := newTestAdapter(&fakeSynth{}, &fakeStt{})

	require.NoError(t, adapter.StartCapture("stream-1"))
	require.NoError(t, adapter.AppendChunk([]byte("abc")))

	adapter.Release()
	adapter.Release()

	_, err := adapter.StopCapture()
	assert.ErrorIs(t, err, ErrNoRecording)
	assert.ErrorIs(t, adapter.StartCapture("stream-2"), ErrNoActiveStream)
}

package ports

import (
	"context"
	"io"

	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions. Probe verifies the
// capture device/toolchain is usable without starting a capture.
type AudioCapture interface {
	Probe(cfg AudioConfig) error
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// StreamConfig describes the streaming channel settings.
type StreamConfig struct {
	SampleRate int
	Channels   int
	// QueueSize bounds the outbound audio frame queue. When full the
	// oldest frame is dropped.
	QueueSize int
}

// VoiceStream is an active bidirectional channel to the recognition
// backend.
type VoiceStream interface {
	// SendAudio enqueues one raw PCM frame for transmission. It never
	// blocks on a saturated channel; frames are dropped oldest-first.
	SendAudio(frame []byte) error
	StartRecording() error
	StopRecording() error
	Events() <-chan domain.ChannelEvent
	Wait() error
	Close() error
}

// VoiceDialer opens streaming channel connections.
type VoiceDialer interface {
	Dial(ctx context.Context, cfg StreamConfig) (VoiceStream, error)
}

// EventSink receives backend state/events for the UI.
type EventSink interface {
	RecorderStateChanged(state domain.RecorderState)
	TranscriptionReceived(result domain.TranscriptionResult)
	MacroExecuted(match domain.VoiceMatchResult)
	ConnectionChanged(status domain.ConnectionStatus)
	AudioLevel(level float64)
	VoiceError(code domain.ErrorCode, detail string)
	MetricsUpdated(sample domain.SystemMetrics)
}

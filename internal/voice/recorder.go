package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
	"github.com/ImOrenge/voicemacropro-sub000/internal/ports"
)

var (
	ErrAlreadyRecording = errors.New("recording is already active")
	ErrNotInitialized   = errors.New("voice channel is not initialized")
	ErrDisposed         = errors.New("voice channel is disposed")
)

// Config controls recorder behavior.
type Config struct {
	Audio  ports.AudioConfig
	Stream ports.StreamConfig
	// FrameBytes is the size of one outbound PCM frame; 100 ms at
	// 24 kHz/16-bit/mono is 4800 bytes.
	FrameBytes int
}

// Recorder owns one microphone capture stream and one persistent
// streaming connection and bridges between them.
//
// Lifecycle: uninitialized -> initialized -> recording -> stopped
// (capture halted, connection still open) -> disposed. There is no
// auto-reconnect; a dropped connection surfaces as a connection event
// and the caller re-initializes explicitly.
type Recorder struct {
	capture ports.AudioCapture
	dialer  ports.VoiceDialer
	events  ports.EventSink
	log     *zap.Logger
	cfg     Config

	mu       sync.Mutex
	state    domain.RecorderState
	stream   ports.VoiceStream
	active   ports.AudioSession
	cancel   context.CancelFunc
	pumpDone chan struct{}

	statsMu sync.Mutex
	stats   domain.VoiceSession
}

func NewRecorder(
	capture ports.AudioCapture,
	dialer ports.VoiceDialer,
	events ports.EventSink,
	log *zap.Logger,
	cfg Config,
) *Recorder {
	if cfg.FrameBytes <= 0 {
		cfg.FrameBytes = 4800
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		capture: capture,
		dialer:  dialer,
		events:  events,
		log:     log,
		cfg:     cfg,
		state:   domain.RecorderUninitialized,
	}
}

// Initialize opens the streaming connection and verifies the capture
// device. Both must succeed; a partial failure tears down whatever was
// acquired and the recorder stays uninitialized.
func (r *Recorder) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case domain.RecorderDisposed:
		return ErrDisposed
	case domain.RecorderUninitialized:
	default:
		return nil
	}

	stream, err := r.dialer.Dial(ctx, r.cfg.Stream)
	if err != nil {
		r.events.VoiceError(domain.ErrorCodeChannel, err.Error())
		return fmt.Errorf("voice channel handshake failed: %w", err)
	}

	if err := r.capture.Probe(r.cfg.Audio); err != nil {
		_ = stream.Close()
		r.events.VoiceError(domain.ErrorCodeAudioStart, err.Error())
		return fmt.Errorf("audio device acquisition failed: %w", err)
	}

	r.stream = stream
	go r.consumeEvents(stream)

	r.setStateLocked(domain.RecorderInitialized)
	return nil
}

// Start begins pushing microphone frames over the channel.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case domain.RecorderUninitialized:
		return ErrNotInitialized
	case domain.RecorderDisposed:
		return ErrDisposed
	case domain.RecorderRecording:
		return ErrAlreadyRecording
	}

	if err := r.stream.StartRecording(); err != nil {
		r.events.VoiceError(domain.ErrorCodeChannel, err.Error())
		return err
	}

	captureCtx, cancel := context.WithCancel(ctx)
	session, err := r.capture.Start(captureCtx, r.cfg.Audio)
	if err != nil {
		cancel()
		r.events.VoiceError(domain.ErrorCodeAudioStart, err.Error())
		return fmt.Errorf("failed to start audio capture: %w", err)
	}

	r.statsMu.Lock()
	r.stats = domain.VoiceSession{ID: uuid.New(), StartedAt: time.Now()}
	r.statsMu.Unlock()

	r.active = session
	r.cancel = cancel
	r.pumpDone = make(chan struct{})
	go r.pump(session, r.stream, r.pumpDone)

	r.setStateLocked(domain.RecorderRecording)
	return nil
}

// Stop halts capture and tells the backend to stop recognition. The
// connection stays open. Stopping while not recording is a no-op.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != domain.RecorderRecording {
		return nil
	}

	if err := r.stream.StopRecording(); err != nil {
		r.events.VoiceError(domain.ErrorCodeChannel, err.Error())
	}
	if err := r.active.Stop(); err != nil {
		r.events.VoiceError(domain.ErrorCodeAudioStop, "failed to stop audio capture cleanly")
	}
	r.cancel()

	select {
	case <-r.pumpDone:
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
	}

	r.active = nil
	r.cancel = nil
	r.setStateLocked(domain.RecorderStopped)
	return nil
}

// Dispose tears down both the capture stream and the connection.
func (r *Recorder) Dispose() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == domain.RecorderDisposed {
		return nil
	}

	if r.active != nil {
		_ = r.active.Stop()
		r.active = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.stream != nil {
		_ = r.stream.Close()
		r.stream = nil
	}

	r.setStateLocked(domain.RecorderDisposed)
	return nil
}

// State reports the current lifecycle state.
func (r *Recorder) State() domain.RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Stats snapshots the current session counters.
func (r *Recorder) Stats() domain.VoiceSession {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

func (r *Recorder) setStateLocked(state domain.RecorderState) {
	r.state = state
	r.events.RecorderStateChanged(state)
}

// pump reads fixed-size PCM frames from the capture session, reports
// the amplitude level for UI metering, and forwards each frame over
// the channel.
func (r *Recorder) pump(session ports.AudioSession, stream ports.VoiceStream, done chan struct{}) {
	defer close(done)

	frame := make([]byte, r.cfg.FrameBytes)
	for {
		n, err := io.ReadFull(session, frame)
		if n > 0 {
			r.events.AudioLevel(Level(frame[:n]))
			if sendErr := stream.SendAudio(frame[:n]); sendErr != nil {
				r.events.VoiceError(domain.ErrorCodeAudioStream, fmt.Sprintf("failed to stream audio: %v", sendErr))
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				r.events.VoiceError(domain.ErrorCodeAudioStream, fmt.Sprintf("audio capture error: %v", err))
			}
			return
		}
	}
}

// consumeEvents dispatches inbound channel events to the UI sink and
// updates session counters. It runs for the connection lifetime.
func (r *Recorder) consumeEvents(stream ports.VoiceStream) {
	for event := range stream.Events() {
		switch event.Type {
		case domain.EventTranscription:
			if event.Transcription == nil {
				continue
			}
			r.recordTranscription(*event.Transcription)
			r.events.TranscriptionReceived(*event.Transcription)

		case domain.EventMacroExecuted:
			if event.Match == nil {
				continue
			}
			r.recordExecution(*event.Match)
			r.events.MacroExecuted(*event.Match)

		case domain.EventRecognitionError:
			r.events.VoiceError(domain.ErrorCodeRecognition, event.ErrorText)

		case domain.EventConnectionStatus:
			if event.Connection == nil {
				continue
			}
			r.events.ConnectionChanged(*event.Connection)
		}
	}

	if err := stream.Wait(); err != nil {
		r.log.Warn("voice channel closed with error", zap.Error(err))
	}
}

func (r *Recorder) recordTranscription(result domain.TranscriptionResult) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	if r.stats.StartedAt.IsZero() {
		return
	}
	r.stats.TranscriptionCount++
	n := float64(r.stats.TranscriptionCount)
	r.stats.AvgConfidence += (result.Confidence - r.stats.AvgConfidence) / n
}

func (r *Recorder) recordExecution(match domain.VoiceMatchResult) {
	if !match.Executed {
		return
	}

	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	if r.stats.StartedAt.IsZero() {
		return
	}
	r.stats.ExecutedCount++
}

package voice

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
	"github.com/ImOrenge/voicemacropro-sub000/internal/ports"
)

type fakeAudioSession struct {
	mu      sync.Mutex
	data    []byte
	stopped bool
}

func (s *fakeAudioSession) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.data)
	s.data = s.data[n:]
	return n, nil
}

func (s *fakeAudioSession) Close() error { return s.Stop() }

func (s *fakeAudioSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

type fakeAudioCapture struct {
	probeErr error
	startErr error
	sessions []ports.AudioSession

	mu     sync.Mutex
	starts int
}

func (c *fakeAudioCapture) Probe(cfg ports.AudioConfig) error {
	return c.probeErr
}

func (c *fakeAudioCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	if c.startErr != nil {
		return nil, c.startErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.starts >= len(c.sessions) {
		return nil, errors.New("no more fake sessions")
	}
	session := c.sessions[c.starts]
	c.starts++
	return session, nil
}

type fakeStream struct {
	events chan domain.ChannelEvent

	mu       sync.Mutex
	frames   [][]byte
	controls []string
	closed   bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan domain.ChannelEvent, 16)}
}

func (s *fakeStream) SendAudio(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, append([]byte(nil), frame...))
	return nil
}

func (s *fakeStream) StartRecording() error { return s.control("start_recording") }
func (s *fakeStream) StopRecording() error  { return s.control("stop_recording") }

func (s *fakeStream) control(event string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls = append(s.controls, event)
	return nil
}

func (s *fakeStream) Events() <-chan domain.ChannelEvent { return s.events }
func (s *fakeStream) Wait() error                        { return nil }

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

func (s *fakeStream) sentFrames() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.frames...)
}

func (s *fakeStream) sentControls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.controls...)
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeDialer struct {
	stream *fakeStream
	err    error
}

func (d *fakeDialer) Dial(ctx context.Context, cfg ports.StreamConfig) (ports.VoiceStream, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

type fakeSink struct {
	mu             sync.Mutex
	states         []domain.RecorderState
	levels         []float64
	transcriptions []domain.TranscriptionResult
	matches        []domain.VoiceMatchResult
	connections    []domain.ConnectionStatus
	errorCodes     []domain.ErrorCode
}

func (s *fakeSink) RecorderStateChanged(state domain.RecorderState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
}

func (s *fakeSink) TranscriptionReceived(result domain.TranscriptionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcriptions = append(s.transcriptions, result)
}

func (s *fakeSink) MacroExecuted(match domain.VoiceMatchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, match)
}

func (s *fakeSink) ConnectionChanged(status domain.ConnectionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections = append(s.connections, status)
}

func (s *fakeSink) AudioLevel(level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = append(s.levels, level)
}

func (s *fakeSink) VoiceError(code domain.ErrorCode, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorCodes = append(s.errorCodes, code)
}

func (s *fakeSink) MetricsUpdated(sample domain.SystemMetrics) {}

func (s *fakeSink) transcriptionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transcriptions)
}

func (s *fakeSink) lastErrorCode() domain.ErrorCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errorCodes) == 0 {
		return ""
	}
	return s.errorCodes[len(s.errorCodes)-1]
}

func newTestRecorder(capture *fakeAudioCapture, dialer *fakeDialer, sink *fakeSink, frameBytes int) *Recorder {
	return NewRecorder(capture, dialer, sink, nil, Config{FrameBytes: frameBytes})
}

func TestRecorderInitializeDialFailure(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	recorder := newTestRecorder(
		&fakeAudioCapture{},
		&fakeDialer{err: errors.New("backend down")},
		sink,
		4,
	)

	if err := recorder.Initialize(context.Background()); err == nil {
		t.Fatalf("expected dial failure")
	}
	if got := recorder.State(); got != domain.RecorderUninitialized {
		t.Fatalf("expected uninitialized after failed init, got %s", got)
	}
	if sink.lastErrorCode() != domain.ErrorCodeChannel {
		t.Fatalf("expected channel error reported, got %s", sink.lastErrorCode())
	}
}

func TestRecorderInitializeProbeFailureTearsDownStream(t *testing.T) {
	t.Parallel()

	stream := newFakeStream()
	sink := &fakeSink{}
	recorder := newTestRecorder(
		&fakeAudioCapture{probeErr: errors.New("no microphone")},
		&fakeDialer{stream: stream},
		sink,
		4,
	)

	if err := recorder.Initialize(context.Background()); err == nil {
		t.Fatalf("expected probe failure")
	}
	if got := recorder.State(); got != domain.RecorderUninitialized {
		t.Fatalf("expected uninitialized after failed init, got %s", got)
	}
	if !stream.isClosed() {
		t.Fatalf("expected stream torn down after probe failure")
	}
	if sink.lastErrorCode() != domain.ErrorCodeAudioStart {
		t.Fatalf("expected audio_start error, got %s", sink.lastErrorCode())
	}
}

func TestRecorderStartStopLifecycle(t *testing.T) {
	t.Parallel()

	stream := newFakeStream()
	audioSession := &fakeAudioSession{data: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	capture := &fakeAudioCapture{sessions: []ports.AudioSession{audioSession}}
	sink := &fakeSink{}
	recorder := newTestRecorder(capture, &fakeDialer{stream: stream}, sink, 4)

	if err := recorder.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if got := recorder.State(); got != domain.RecorderInitialized {
		t.Fatalf("expected initialized, got %s", got)
	}

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if got := recorder.State(); got != domain.RecorderRecording {
		t.Fatalf("expected recording, got %s", got)
	}

	if err := recorder.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if got := recorder.State(); got != domain.RecorderStopped {
		t.Fatalf("expected stopped, got %s", got)
	}

	frames := stream.sentFrames()
	if len(frames) != 2 || len(frames[0]) != 4 {
		t.Fatalf("expected two 4-byte frames, got %d frames", len(frames))
	}

	controls := stream.sentControls()
	if len(controls) != 2 || controls[0] != "start_recording" || controls[1] != "stop_recording" {
		t.Fatalf("unexpected control sequence: %v", controls)
	}

	if stream.isClosed() {
		t.Fatalf("connection must stay open after stop")
	}

	sink.mu.Lock()
	levels := len(sink.levels)
	sink.mu.Unlock()
	if levels == 0 {
		t.Fatalf("expected audio level events during pump")
	}
}

func TestRecorderStopWhileNotRecordingIsNoOp(t *testing.T) {
	t.Parallel()

	stream := newFakeStream()
	sink := &fakeSink{}
	recorder := newTestRecorder(&fakeAudioCapture{}, &fakeDialer{stream: stream}, sink, 4)

	if err := recorder.Stop(context.Background()); err != nil {
		t.Fatalf("stop on fresh recorder must not fail: %v", err)
	}
	if got := recorder.State(); got != domain.RecorderUninitialized {
		t.Fatalf("state changed by no-op stop: %s", got)
	}

	if err := recorder.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if err := recorder.Stop(context.Background()); err != nil {
		t.Fatalf("stop while initialized must not fail: %v", err)
	}
	if got := recorder.State(); got != domain.RecorderInitialized {
		t.Fatalf("state changed by no-op stop: %s", got)
	}
	if controls := stream.sentControls(); len(controls) != 0 {
		t.Fatalf("no-op stop must not contact the backend: %v", controls)
	}
}

func TestRecorderStartRequiresInitialize(t *testing.T) {
	t.Parallel()

	recorder := newTestRecorder(&fakeAudioCapture{}, &fakeDialer{stream: newFakeStream()}, &fakeSink{}, 4)
	if err := recorder.Start(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestRecorderStartTwiceFails(t *testing.T) {
	t.Parallel()

	stream := newFakeStream()
	// A session that never returns EOF keeps the pump alive.
	blocking := &fakeAudioSession{data: make([]byte, 1<<20)}
	capture := &fakeAudioCapture{sessions: []ports.AudioSession{blocking}}
	recorder := newTestRecorder(capture, &fakeDialer{stream: stream}, &fakeSink{}, 4)

	if err := recorder.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := recorder.Start(context.Background()); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}

	_ = recorder.Stop(context.Background())
}

func TestRecorderSessionStatsTrackEvents(t *testing.T) {
	t.Parallel()

	stream := newFakeStream()
	audioSession := &fakeAudioSession{data: []byte{1, 2, 3, 4}}
	capture := &fakeAudioCapture{sessions: []ports.AudioSession{audioSession}}
	sink := &fakeSink{}
	recorder := newTestRecorder(capture, &fakeDialer{stream: stream}, sink, 4)

	if err := recorder.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	stream.events <- domain.ChannelEvent{
		Type:          domain.EventTranscription,
		Transcription: &domain.TranscriptionResult{Type: "final", Text: "attack", Confidence: 0.8},
	}
	stream.events <- domain.ChannelEvent{
		Type:          domain.EventTranscription,
		Transcription: &domain.TranscriptionResult{Type: "final", Text: "heal", Confidence: 0.6},
	}
	stream.events <- domain.ChannelEvent{
		Type:  domain.EventMacroExecuted,
		Match: &domain.VoiceMatchResult{MacroID: 1, MacroName: "Attack", Executed: true},
	}
	stream.events <- domain.ChannelEvent{
		Type:  domain.EventMacroExecuted,
		Match: &domain.VoiceMatchResult{MacroID: 2, MacroName: "Heal", Executed: false},
	}

	waitFor(t, func() bool { return sink.transcriptionCount() == 2 })

	stats := recorder.Stats()
	if stats.TranscriptionCount != 2 {
		t.Fatalf("expected 2 transcriptions, got %d", stats.TranscriptionCount)
	}
	if stats.AvgConfidence < 0.69 || stats.AvgConfidence > 0.71 {
		t.Fatalf("expected running average near 0.7, got %f", stats.AvgConfidence)
	}

	waitFor(t, func() bool { return recorder.Stats().ExecutedCount == 1 })
	if stats := recorder.Stats(); stats.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("expected session to carry an id")
	}

	_ = recorder.Stop(context.Background())
}

func TestRecorderDispose(t *testing.T) {
	t.Parallel()

	stream := newFakeStream()
	recorder := newTestRecorder(&fakeAudioCapture{}, &fakeDialer{stream: stream}, &fakeSink{}, 4)

	if err := recorder.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if err := recorder.Dispose(); err != nil {
		t.Fatalf("dispose failed: %v", err)
	}
	if got := recorder.State(); got != domain.RecorderDisposed {
		t.Fatalf("expected disposed, got %s", got)
	}
	if !stream.isClosed() {
		t.Fatalf("expected stream closed on dispose")
	}

	if err := recorder.Dispose(); err != nil {
		t.Fatalf("dispose must be idempotent: %v", err)
	}
	if err := recorder.Start(context.Background()); !errors.Is(err, ErrDisposed) {
		t.Fatalf("expected ErrDisposed, got %v", err)
	}
	if err := recorder.Initialize(context.Background()); !errors.Is(err, ErrDisposed) {
		t.Fatalf("expected ErrDisposed on re-init, got %v", err)
	}
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

package voice

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
	"github.com/ImOrenge/voicemacropro-sub000/internal/ports"
)

// ChannelConfig controls how the streaming channel is dialed.
type ChannelConfig struct {
	// BaseURL is the backend HTTP root; it is rewritten to ws/wss.
	BaseURL string
	// Path is the websocket endpoint path.
	Path string
}

// Dialer implements ports.VoiceDialer over a gorilla websocket.
type Dialer struct {
	cfg ChannelConfig
	log *zap.Logger
}

func NewDialer(cfg ChannelConfig, log *zap.Logger) *Dialer {
	if cfg.Path == "" {
		cfg.Path = "/ws/voice"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dialer{cfg: cfg, log: log}
}

func (d *Dialer) Dial(ctx context.Context, cfg ports.StreamConfig) (ports.VoiceStream, error) {
	wsURL, err := buildChannelURL(d.cfg.BaseURL, d.cfg.Path, cfg)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to voice channel: %w", err)
	}

	queueSize := cfg.QueueSize
	if queueSize < 8 {
		queueSize = 32
	}

	session := &channelSession{
		conn:     conn,
		events:   make(chan domain.ChannelEvent, 64),
		control:  make(chan outboundMessage, 8),
		frames:   make(chan outboundMessage, queueSize),
		sendDone: make(chan struct{}),
		done:     make(chan struct{}),
		log:      d.log,
	}

	session.wg.Add(2)
	go session.readLoop()
	go session.writeLoop()
	go func() {
		session.wg.Wait()
		close(session.events)
		close(session.done)
		_ = conn.Close()
	}()

	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	return session, nil
}

// outboundMessage is the wire shape of every client-to-backend event.
type outboundMessage struct {
	Event string `json:"event"`
	Audio string `json:"audio,omitempty"`
}

type channelSession struct {
	conn *websocket.Conn

	events   chan domain.ChannelEvent
	control  chan outboundMessage
	frames   chan outboundMessage
	sendDone chan struct{}
	done     chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeSendOnce sync.Once
	closeOnce     sync.Once
	sendMu        sync.RWMutex
	sendClosed    bool

	dropped atomic.Uint64

	log *zap.Logger
}

// SendAudio enqueues one raw PCM frame, base64-encoded, as an
// audio_chunk event. A saturated queue sheds the oldest frame instead
// of blocking the capture thread.
func (s *channelSession) SendAudio(frame []byte) error {
	if len(frame) == 0 {
		return nil
	}

	s.sendMu.RLock()
	closed := s.sendClosed
	s.sendMu.RUnlock()
	if closed {
		return errors.New("audio stream is already closed")
	}

	msg := outboundMessage{
		Event: "audio_chunk",
		Audio: base64.StdEncoding.EncodeToString(frame),
	}

	for {
		select {
		case s.frames <- msg:
			return nil
		case <-s.done:
			if err := s.waitErr(); err != nil {
				return err
			}
			return errors.New("channel closed")
		default:
		}

		select {
		case <-s.frames:
			dropped := s.dropped.Add(1)
			s.log.Debug("audio frame dropped", zap.Uint64("total_dropped", dropped))
		default:
		}
	}
}

func (s *channelSession) StartRecording() error {
	return s.sendControl(outboundMessage{Event: "start_recording"})
}

func (s *channelSession) StopRecording() error {
	return s.sendControl(outboundMessage{Event: "stop_recording"})
}

func (s *channelSession) sendControl(msg outboundMessage) error {
	s.sendMu.RLock()
	closed := s.sendClosed
	s.sendMu.RUnlock()
	if closed {
		return errors.New("channel send side is closed")
	}

	select {
	case s.control <- msg:
		return nil
	case <-s.done:
		if err := s.waitErr(); err != nil {
			return err
		}
		return errors.New("channel closed")
	}
}

// Dropped reports how many audio frames have been shed under
// backpressure since the session opened.
func (s *channelSession) Dropped() uint64 {
	return s.dropped.Load()
}

// CloseSend stops accepting outbound messages; pending control
// messages are still flushed before the write loop exits.
func (s *channelSession) CloseSend() error {
	s.closeSendOnce.Do(func() {
		s.sendMu.Lock()
		s.sendClosed = true
		s.sendMu.Unlock()
		close(s.sendDone)
	})
	return nil
}

func (s *channelSession) Events() <-chan domain.ChannelEvent {
	return s.events
}

func (s *channelSession) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *channelSession) Close() error {
	s.closeOnce.Do(func() {
		_ = s.CloseSend()
		_ = s.conn.Close()
	})
	<-s.done
	return s.waitErr()
}

func (s *channelSession) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *channelSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *channelSession) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case msg := <-s.control:
			if err := s.writeMessage(msg); err != nil {
				return
			}
		case msg := <-s.frames:
			if err := s.writeMessage(msg); err != nil {
				return
			}
		case <-s.sendDone:
			// Flush pending control messages so stop_recording
			// still reaches the backend.
			for {
				select {
				case msg := <-s.control:
					if err := s.writeMessage(msg); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (s *channelSession) writeMessage(msg outboundMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		s.setErr(fmt.Errorf("failed to encode %s event: %w", msg.Event, err))
		return err
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.setErr(fmt.Errorf("failed to send %s event: %w", msg.Event, err))
		return err
	}
	return nil
}

func (s *channelSession) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.emit(domain.ChannelEvent{
				Type:       domain.EventConnectionStatus,
				Connection: &domain.ConnectionStatus{Connected: false, Message: "connection closed"},
			})
			s.setErr(fmt.Errorf("failed to read channel event: %w", err))
			return
		}

		event, ok := decodeEvent(payload)
		if !ok {
			continue
		}
		s.emit(event)
	}
}

func (s *channelSession) emit(event domain.ChannelEvent) {
	select {
	case s.events <- event:
	case <-s.done:
	default:
	}
}

// inboundMessage is the superset of fields across all backend events.
type inboundMessage struct {
	Event      string  `json:"event"`
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Timestamp  float64 `json:"timestamp"`
	MacroID    int     `json:"macro_id"`
	MacroName  string  `json:"macro_name"`
	Success    bool    `json:"success"`
	Error      string  `json:"error"`
	Status     string  `json:"status"`
	Message    string  `json:"message"`
}

// decodeEvent maps one inbound payload to a typed channel event.
// Malformed payloads and unknown event names are skipped.
func decodeEvent(payload []byte) (domain.ChannelEvent, bool) {
	var msg inboundMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return domain.ChannelEvent{}, false
	}

	switch domain.ChannelEventType(msg.Event) {
	case domain.EventTranscription:
		if strings.TrimSpace(msg.Text) == "" {
			return domain.ChannelEvent{}, false
		}
		ts := time.Now()
		if msg.Timestamp > 0 {
			sec := int64(msg.Timestamp)
			ts = time.Unix(sec, int64((msg.Timestamp-float64(sec))*1e9))
		}
		return domain.ChannelEvent{
			Type: domain.EventTranscription,
			Transcription: &domain.TranscriptionResult{
				Type:       msg.Type,
				Text:       strings.TrimSpace(msg.Text),
				Confidence: msg.Confidence,
				Timestamp:  ts,
			},
		}, true

	case domain.EventMacroExecuted:
		return domain.ChannelEvent{
			Type: domain.EventMacroExecuted,
			Match: &domain.VoiceMatchResult{
				MacroID:    msg.MacroID,
				MacroName:  msg.MacroName,
				Confidence: msg.Confidence,
				Executed:   msg.Success,
				Error:      msg.Error,
			},
		}, true

	case domain.EventRecognitionError:
		text := strings.TrimSpace(msg.Error)
		if text == "" {
			text = "backend reported an unknown recognition error"
		}
		return domain.ChannelEvent{Type: domain.EventRecognitionError, ErrorText: text}, true

	case domain.EventConnectionStatus:
		return domain.ChannelEvent{
			Type: domain.EventConnectionStatus,
			Connection: &domain.ConnectionStatus{
				Connected: strings.EqualFold(msg.Status, "connected"),
				Message:   msg.Message,
			},
		}, true

	default:
		return domain.ChannelEvent{}, false
	}
}

func buildChannelURL(baseURL string, path string, cfg ports.StreamConfig) (string, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = "http://localhost:5000"
	}

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	channelURL, err := url.Parse(base + path)
	if err != nil {
		return "", fmt.Errorf("invalid voice channel URL: %w", err)
	}

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 24000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}

	query := channelURL.Query()
	query.Set("sample_rate", fmt.Sprintf("%d", cfg.SampleRate))
	query.Set("channels", fmt.Sprintf("%d", cfg.Channels))
	query.Set("encoding", "linear16")
	channelURL.RawQuery = query.Encode()
	return channelURL.String(), nil
}

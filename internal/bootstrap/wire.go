package bootstrap

import (
	"os"

	"go.uber.org/zap"

	"github.com/ImOrenge/voicemacropro-sub000/internal/api"
	"github.com/ImOrenge/voicemacropro-sub000/internal/audio"
	"github.com/ImOrenge/voicemacropro-sub000/internal/config"
	"github.com/ImOrenge/voicemacropro-sub000/internal/dashboard"
	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
	"github.com/ImOrenge/voicemacropro-sub000/internal/logger"
	"github.com/ImOrenge/voicemacropro-sub000/internal/logging"
	"github.com/ImOrenge/voicemacropro-sub000/internal/metrics"
	"github.com/ImOrenge/voicemacropro-sub000/internal/ports"
	"github.com/ImOrenge/voicemacropro-sub000/internal/voice"
)

// Services is the assembled runtime graph.
type Services struct {
	Config    config.Config
	Console   *zap.Logger
	Logs      *logging.Sink
	API       *api.Client
	Recorder  *voice.Recorder
	Metrics   *metrics.Poller
	Dashboard *dashboard.Service
}

// Build wires all backend dependencies for the current runtime.
func Build(events ports.EventSink) (Services, error) {
	configPath := os.Getenv("VMP_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return Services{}, err
	}

	console, err := logger.New(cfg.Logging.ConsoleLevel)
	if err != nil {
		return Services{}, err
	}

	sink := logging.NewSink(
		cfg.Logging.Dir,
		cfg.Logging.MaxEntries,
		domain.ParseLogLevel(cfg.Logging.MinLevel),
		console,
	)

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, console)

	dialer := voice.NewDialer(voice.ChannelConfig{
		BaseURL: cfg.API.BaseURL,
		Path:    cfg.Voice.ChannelPath,
	}, console)

	recorder := voice.NewRecorder(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		dialer,
		events,
		console,
		voice.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			Stream: ports.StreamConfig{
				SampleRate: cfg.Audio.SampleRate,
				Channels:   cfg.Audio.Channels,
				QueueSize:  cfg.Voice.QueueSize,
			},
			FrameBytes: cfg.FrameBytes(),
		},
	)

	poller := metrics.NewPoller(metrics.NewSystemSampler(), events, cfg.Metrics.Interval)

	return Services{
		Config:    cfg,
		Console:   console,
		Logs:      sink,
		API:       client,
		Recorder:  recorder,
		Metrics:   poller,
		Dashboard: dashboard.NewService(client, client, recorder, poller),
	}, nil
}

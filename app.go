package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/ImOrenge/voicemacropro-sub000/internal/api"
	"github.com/ImOrenge/voicemacropro-sub000/internal/bootstrap"
	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
)

const (
	eventTranscription = "vmp:transcription"
	eventMacroExecuted = "vmp:macro_executed"
	eventVoiceError    = "vmp:voice_error"
	eventConnection    = "vmp:connection"
	eventAudioLevel    = "vmp:audio_level"
	eventRecorder      = "vmp:recorder"
	eventLog           = "vmp:log"
	eventMetrics       = "vmp:metrics"
	eventError         = "vmp:error"
)

// App is the Wails application root. It implements ports.EventSink and
// logging.Observer, forwarding every backend event to the frontend.
type App struct {
	ctx context.Context

	services        bootstrap.Services
	stopBackground  context.CancelFunc
	unsubscribeLogs func()
	bootErr         error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.VoiceError(domain.ErrorCodeStartup, err.Error())
		return
	}
	a.services = services
	a.unsubscribeLogs = services.Logs.Subscribe(a)

	background, cancel := context.WithCancel(context.Background())
	a.stopBackground = cancel
	go services.Metrics.Run(background)

	services.Logs.Info("VoiceMacroPro client started")
}

func (a *App) shutdown(ctx context.Context) {
	if a.services.Recorder != nil {
		_ = a.services.Recorder.Dispose()
	}
	if a.stopBackground != nil {
		a.stopBackground()
	}
	if a.unsubscribeLogs != nil {
		a.unsubscribeLogs()
	}
	if a.services.Logs != nil {
		a.services.Logs.Close()
	}
	if a.services.Console != nil {
		_ = a.services.Console.Sync()
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.services.API == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// reportError logs the failure and raises the uniform error dialog
// event naming the failed action.
func (a *App) reportError(action string, err error) {
	if a.services.Logs != nil {
		a.services.Logs.Errorf("%s failed: %v", action, err)
	}
	a.emit(eventError, map[string]string{
		"action":  action,
		"message": userMessage(err),
	})
}

func userMessage(err error) string {
	if errors.Is(err, api.ErrNotFound) {
		return "The requested item was not found"
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func (a *App) emit(name string, payload any) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, name, payload)
}

// --- ports.EventSink ---

func (a *App) RecorderStateChanged(state domain.RecorderState) {
	a.emit(eventRecorder, map[string]string{"state": string(state)})
}

func (a *App) TranscriptionReceived(result domain.TranscriptionResult) {
	a.emit(eventTranscription, result)
}

func (a *App) MacroExecuted(match domain.VoiceMatchResult) {
	a.emit(eventMacroExecuted, match)
}

func (a *App) ConnectionChanged(status domain.ConnectionStatus) {
	a.emit(eventConnection, status)
}

func (a *App) AudioLevel(level float64) {
	a.emit(eventAudioLevel, map[string]float64{"level": level})
}

func (a *App) VoiceError(code domain.ErrorCode, detail string) {
	if a.services.Logs != nil {
		a.services.Logs.Errorf("voice error (%s): %s", code, detail)
	}
	a.emit(eventVoiceError, map[string]string{
		"code":    string(code),
		"message": detail,
	})
}

func (a *App) MetricsUpdated(sample domain.SystemMetrics) {
	a.emit(eventMetrics, sample)
}

// --- logging.Observer ---

func (a *App) LogAdded(entry domain.LogEntry) {
	a.emit(eventLog, entry)
}

package main

import (
	"os"

	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
)

// InitializeVoice opens the streaming channel and verifies the capture
// device. Idempotent once initialized.
func (a *App) InitializeVoice() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.Recorder.Initialize(a.ctx); err != nil {
		a.reportError("initialize voice channel", err)
		return err
	}
	a.services.Logs.Info("voice channel initialized")
	return nil
}

// StartVoiceRecording tells the backend to start matching and begins
// streaming microphone frames.
func (a *App) StartVoiceRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}

	if err := a.services.API.StartRecognition(a.ctx); err != nil {
		a.reportError("start voice recognition", err)
		return err
	}
	if err := a.services.Recorder.Start(a.ctx); err != nil {
		a.reportError("start voice recording", err)
		return err
	}
	a.services.Logs.Info("voice recording started")
	return nil
}

// StopVoiceRecording halts capture and issues one stop request to the
// backend. Stopping while not recording is a no-op.
func (a *App) StopVoiceRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}

	wasRecording := a.services.Recorder.State() == domain.RecorderRecording
	if err := a.services.Recorder.Stop(a.ctx); err != nil {
		a.reportError("stop voice recording", err)
		return err
	}
	if !wasRecording {
		return nil
	}

	if err := a.services.API.StopRecognition(a.ctx); err != nil {
		// Capture is already stopped; a failed backend stop is
		// reported but does not fail the operation.
		a.reportError("stop voice recognition", err)
	}
	a.services.Logs.Info("voice recording stopped")
	return nil
}

// VoiceState reports the recorder lifecycle state.
func (a *App) VoiceState() string {
	if a.services.Recorder == nil {
		return string(domain.RecorderUninitialized)
	}
	return string(a.services.Recorder.State())
}

// VoiceStats snapshots the current session counters.
func (a *App) VoiceStats() domain.VoiceSession {
	if a.services.Recorder == nil {
		return domain.VoiceSession{}
	}
	return a.services.Recorder.Stats()
}

// TranscribeFile uploads one audio file for a one-shot transcription.
func (a *App) TranscribeFile(path string, language string) (*domain.TranscriptionResult, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		a.reportError("transcribe file", err)
		return nil, err
	}

	result, err := a.services.API.Transcribe(a.ctx, audio, language)
	if err != nil {
		a.reportError("transcribe file", err)
		return nil, err
	}
	return result, nil
}

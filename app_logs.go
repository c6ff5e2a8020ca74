package main

import "github.com/ImOrenge/voicemacropro-sub000/internal/domain"

// LogEntries returns the in-memory log buffer, oldest first.
func (a *App) LogEntries() []domain.LogEntry {
	if a.services.Logs == nil {
		return nil
	}
	return a.services.Logs.Entries()
}

// ClearLogs empties the in-memory buffer. Idempotent.
func (a *App) ClearLogs() {
	if a.services.Logs == nil {
		return
	}
	a.services.Logs.Clear()
}

// ExportLogs writes the current buffer to the given path.
func (a *App) ExportLogs(path string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.Logs.Export(path); err != nil {
		a.reportError("export logs", err)
		return err
	}
	a.services.Logs.Info("logs exported to " + path)
	return nil
}

// SetLogLevel adjusts the minimum level kept by the sink.
func (a *App) SetLogLevel(level string) {
	if a.services.Logs == nil {
		return
	}
	a.services.Logs.SetMinLevel(domain.ParseLogLevel(level))
}

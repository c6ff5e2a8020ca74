package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionType enumerates the kinds of keyboard/mouse actions a macro performs.
type ActionType string

const (
	ActionCombo  ActionType = "combo"
	ActionRapid  ActionType = "rapid"
	ActionHold   ActionType = "hold"
	ActionToggle ActionType = "toggle"
	ActionRepeat ActionType = "repeat"
)

// Macro is a named mapping from a voice command to a key/mouse action.
// The backend owns the authoritative copy; instances here are transient
// per request/response cycle.
type Macro struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	VoiceCommand string         `json:"voice_command"`
	ActionType   ActionType     `json:"action_type"`
	KeySequence  string         `json:"key_sequence"`
	Settings     map[string]any `json:"settings,omitempty"`
	UsageCount   int            `json:"usage_count"`
	SuccessCount int            `json:"success_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Preset groups an ordered set of macros for a context, e.g. one game.
// Macros is populated only when the backend chooses to embed the
// resolved objects.
type Preset struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MacroIDs    []int     `json:"macro_ids"`
	IsFavorite  bool      `json:"is_favorite"`
	IsActive    bool      `json:"is_active"`
	Macros      []Macro   `json:"macros,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CustomScript holds MSL source text. The script body is opaque to the
// client and is round-tripped to the backend for validation/execution.
type CustomScript struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	ScriptText     string    `json:"script_text"`
	Category       string    `json:"category"`
	TargetProgram  string    `json:"target_program"`
	UsageCount     int       `json:"usage_count"`
	AvgExecutionMS float64   `json:"avg_execution_ms"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ScriptValidation is the backend's verdict on a script body.
type ScriptValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// LogLevel orders log severities. Higher values are more severe.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel maps a case-insensitive level name to its ordinal.
// Unrecognized names fall back to LevelInfo.
func ParseLogLevel(name string) LogLevel {
	switch name {
	case "debug", "DEBUG", "Debug":
		return LevelDebug
	case "warning", "WARNING", "Warning", "warn", "WARN":
		return LevelWarning
	case "error", "ERROR", "Error":
		return LevelError
	default:
		return LevelInfo
	}
}

// LogEntry is one record in the in-memory log buffer and the daily file.
type LogEntry struct {
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	MacroID   *int      `json:"macro_id,omitempty"`
}

// TranscriptionResult is one streaming transcription event. Ephemeral;
// never persisted by the client.
type TranscriptionResult struct {
	Type       string    `json:"type"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// VoiceMatchResult reports a backend macro match/execution for one
// recognized command.
type VoiceMatchResult struct {
	MacroID    int     `json:"macro_id"`
	MacroName  string  `json:"macro_name"`
	Confidence float64 `json:"confidence"`
	Executed   bool    `json:"executed"`
	Error      string  `json:"error,omitempty"`
}

// ConnectionStatus describes the streaming channel transport state.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message,omitempty"`
}

// VoiceSession carries per-connection counters for one recording
// session. It lives only for the duration of that session.
type VoiceSession struct {
	ID                 uuid.UUID `json:"id"`
	StartedAt          time.Time `json:"started_at"`
	TranscriptionCount int       `json:"transcription_count"`
	ExecutedCount      int       `json:"executed_count"`
	AvgConfidence      float64   `json:"avg_confidence"`
}

// RecorderState models the voice channel lifecycle.
type RecorderState string

const (
	RecorderUninitialized RecorderState = "uninitialized"
	RecorderInitialized   RecorderState = "initialized"
	RecorderRecording     RecorderState = "recording"
	RecorderStopped       RecorderState = "stopped"
	RecorderDisposed      RecorderState = "disposed"
)

// ErrorCode identifies non-fatal and fatal client-side error sources.
type ErrorCode string

const (
	ErrorCodeStartup     ErrorCode = "startup"
	ErrorCodeAudioStart  ErrorCode = "audio_start"
	ErrorCodeAudioStop   ErrorCode = "audio_stop"
	ErrorCodeAudioStream ErrorCode = "audio_stream"
	ErrorCodeChannel     ErrorCode = "channel"
	ErrorCodeRecognition ErrorCode = "recognition"
)

// ChannelEventType discriminates inbound streaming channel events.
type ChannelEventType string

const (
	EventTranscription    ChannelEventType = "transcription_result"
	EventMacroExecuted    ChannelEventType = "macro_executed"
	EventRecognitionError ChannelEventType = "voice_recognition_error"
	EventConnectionStatus ChannelEventType = "connection_status"
)

// ChannelEvent is one inbound event from the streaming channel. Exactly
// one payload field is set depending on Type.
type ChannelEvent struct {
	Type          ChannelEventType
	Transcription *TranscriptionResult
	Match         *VoiceMatchResult
	Connection    *ConnectionStatus
	ErrorText     string
}

// SystemMetrics is one sample of host resource usage.
type SystemMetrics struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryUsedMB  float64   `json:"memory_used_mb"`
	Goroutines    int       `json:"goroutines"`
	SampledAt     time.Time `json:"sampled_at"`
}

// DashboardSnapshot aggregates the data behind the dashboard screen.
type DashboardSnapshot struct {
	TotalMacros    int           `json:"total_macros"`
	TotalUsage     int           `json:"total_usage"`
	TopMacros      []Macro       `json:"top_macros"`
	BackendHealthy bool          `json:"backend_healthy"`
	Session        VoiceSession  `json:"session"`
	Metrics        SystemMetrics `json:"metrics"`
	GeneratedAt    time.Time     `json:"generated_at"`
}

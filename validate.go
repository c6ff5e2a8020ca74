package main

import (
	"errors"
	"regexp"
	"strings"

	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
)

// voiceCommandPattern allows short spoken phrases: letters, digits and
// single spaces, up to 50 characters.
var voiceCommandPattern = regexp.MustCompile(`^[\p{L}\p{N}]+( [\p{L}\p{N}]+)*$`)

// validateMacro performs the presentational checks done before any
// network call. Business rules stay with the backend.
func validateMacro(m domain.Macro) error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("macro name is required")
	}
	command := strings.TrimSpace(m.VoiceCommand)
	if command == "" {
		return errors.New("voice command is required")
	}
	if len([]rune(command)) > 50 || !voiceCommandPattern.MatchString(command) {
		return errors.New("voice command must be a short phrase of letters and digits")
	}
	if strings.TrimSpace(m.KeySequence) == "" {
		return errors.New("key sequence is required")
	}
	return nil
}

func validatePreset(p domain.Preset) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("preset name is required")
	}
	return nil
}

func validateScript(s domain.CustomScript) error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("script name is required")
	}
	if strings.TrimSpace(s.ScriptText) == "" {
		return errors.New("script body is required")
	}
	return nil
}

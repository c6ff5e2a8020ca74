package main

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
)

func (a *App) ListPresets() ([]domain.Preset, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	presets, err := a.services.API.ListPresets(a.ctx)
	if err != nil {
		a.reportError("load presets", err)
		return nil, err
	}
	return presets, nil
}

func (a *App) GetPreset(id int) (*domain.Preset, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	preset, err := a.services.API.GetPreset(a.ctx, id)
	if err != nil {
		a.reportError("load preset", err)
		return nil, err
	}
	return preset, nil
}

func (a *App) CreatePreset(preset domain.Preset) (*domain.Preset, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	if err := validatePreset(preset); err != nil {
		a.reportError("create preset", err)
		return nil, err
	}
	created, err := a.services.API.CreatePreset(a.ctx, preset)
	if err != nil {
		a.reportError("create preset", err)
		return nil, err
	}
	a.services.Logs.Info("preset created: " + created.Name)
	return created, nil
}

func (a *App) UpdatePreset(preset domain.Preset) (*domain.Preset, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	if err := validatePreset(preset); err != nil {
		a.reportError("update preset", err)
		return nil, err
	}
	updated, err := a.services.API.UpdatePreset(a.ctx, preset)
	if err != nil {
		a.reportError("update preset", err)
		return nil, err
	}
	return updated, nil
}

func (a *App) DeletePreset(id int) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.API.DeletePreset(a.ctx, id); err != nil {
		a.reportError("delete preset", err)
		return err
	}
	return nil
}

// ActivatePreset makes one preset the active macro set.
func (a *App) ActivatePreset(id int) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.API.ActivatePreset(a.ctx, id); err != nil {
		a.reportError("activate preset", err)
		return err
	}
	a.services.Logs.Info(fmt.Sprintf("preset %d activated", id))
	return nil
}

func (a *App) ToggleFavoritePreset(id int) (*domain.Preset, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	preset, err := a.services.API.ToggleFavoritePreset(a.ctx, id)
	if err != nil {
		a.reportError("update preset favorite", err)
		return nil, err
	}
	return preset, nil
}

// ImportPresetFile reads a previously exported preset file and uploads
// it to the backend.
func (a *App) ImportPresetFile(path string) (*domain.Preset, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		a.reportError("import preset", err)
		return nil, err
	}
	var preset domain.Preset
	if err := json.Unmarshal(data, &preset); err != nil {
		a.reportError("import preset", fmt.Errorf("invalid preset file: %w", err))
		return nil, err
	}

	imported, err := a.services.API.ImportPreset(a.ctx, preset)
	if err != nil {
		a.reportError("import preset", err)
		return nil, err
	}
	a.services.Logs.Info("preset imported: " + imported.Name)
	return imported, nil
}

// ExportPresetFile fetches a preset with embedded macros and saves it
// as a JSON file.
func (a *App) ExportPresetFile(id int, path string) error {
	if err := a.requireReady(); err != nil {
		return err
	}

	preset, err := a.services.API.ExportPreset(a.ctx, id)
	if err != nil {
		a.reportError("export preset", err)
		return err
	}

	data, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		a.reportError("export preset", err)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		a.reportError("export preset", err)
		return err
	}
	a.services.Logs.Info("preset exported: " + preset.Name)
	return nil
}

package main

import "github.com/ImOrenge/voicemacropro-sub000/internal/domain"

// ListMacros returns macros filtered by search term and ordered by the
// given sort key.
func (a *App) ListMacros(search, sortBy string) ([]domain.Macro, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	macros, err := a.services.API.ListMacros(a.ctx, search, sortBy)
	if err != nil {
		a.reportError("load macros", err)
		return nil, err
	}
	return macros, nil
}

func (a *App) GetMacro(id int) (*domain.Macro, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	macro, err := a.services.API.GetMacro(a.ctx, id)
	if err != nil {
		a.reportError("load macro", err)
		return nil, err
	}
	return macro, nil
}

func (a *App) CreateMacro(macro domain.Macro) (*domain.Macro, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	if err := validateMacro(macro); err != nil {
		a.reportError("create macro", err)
		return nil, err
	}
	created, err := a.services.API.CreateMacro(a.ctx, macro)
	if err != nil {
		a.reportError("create macro", err)
		return nil, err
	}
	a.services.Logs.Log(domain.LevelInfo, "macro created: "+created.Name, &created.ID)
	return created, nil
}

func (a *App) UpdateMacro(macro domain.Macro) (*domain.Macro, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	if err := validateMacro(macro); err != nil {
		a.reportError("update macro", err)
		return nil, err
	}
	updated, err := a.services.API.UpdateMacro(a.ctx, macro)
	if err != nil {
		a.reportError("update macro", err)
		return nil, err
	}
	a.services.Logs.Log(domain.LevelInfo, "macro updated: "+updated.Name, &updated.ID)
	return updated, nil
}

func (a *App) DeleteMacro(id int) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.API.DeleteMacro(a.ctx, id); err != nil {
		a.reportError("delete macro", err)
		return err
	}
	a.services.Logs.Log(domain.LevelInfo, "macro deleted", &id)
	return nil
}

// CopyMacro duplicates a macro under a new name.
func (a *App) CopyMacro(id int, newName string) (*domain.Macro, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	copied, err := a.services.API.CopyMacro(a.ctx, id, newName)
	if err != nil {
		a.reportError("copy macro", err)
		return nil, err
	}
	return copied, nil
}

// ExecuteMacro triggers immediate backend execution of a macro.
func (a *App) ExecuteMacro(id int) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.API.ExecuteMacro(a.ctx, id); err != nil {
		a.reportError("execute macro", err)
		return err
	}
	a.services.Logs.Log(domain.LevelInfo, "macro executed", &id)
	return nil
}

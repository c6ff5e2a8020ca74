package main

import "github.com/ImOrenge/voicemacropro-sub000/internal/domain"

func (a *App) ListScripts(category string) ([]domain.CustomScript, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	scripts, err := a.services.API.ListScripts(a.ctx, category)
	if err != nil {
		a.reportError("load scripts", err)
		return nil, err
	}
	return scripts, nil
}

func (a *App) GetScript(id int) (*domain.CustomScript, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	script, err := a.services.API.GetScript(a.ctx, id)
	if err != nil {
		a.reportError("load script", err)
		return nil, err
	}
	return script, nil
}

func (a *App) CreateScript(script domain.CustomScript) (*domain.CustomScript, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	if err := validateScript(script); err != nil {
		a.reportError("create script", err)
		return nil, err
	}
	created, err := a.services.API.CreateScript(a.ctx, script)
	if err != nil {
		a.reportError("create script", err)
		return nil, err
	}
	a.services.Logs.Info("script created: " + created.Name)
	return created, nil
}

func (a *App) UpdateScript(script domain.CustomScript) (*domain.CustomScript, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	if err := validateScript(script); err != nil {
		a.reportError("update script", err)
		return nil, err
	}
	updated, err := a.services.API.UpdateScript(a.ctx, script)
	if err != nil {
		a.reportError("update script", err)
		return nil, err
	}
	return updated, nil
}

func (a *App) DeleteScript(id int) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.API.DeleteScript(a.ctx, id); err != nil {
		a.reportError("delete script", err)
		return err
	}
	return nil
}

// ValidateScript sends MSL text to the backend validator. The script
// body is never parsed client-side.
func (a *App) ValidateScript(scriptText string) (*domain.ScriptValidation, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	verdict, err := a.services.API.ValidateScript(a.ctx, scriptText)
	if err != nil {
		a.reportError("validate script", err)
		return nil, err
	}
	return verdict, nil
}

func (a *App) ExecuteScript(id int) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.API.ExecuteScript(a.ctx, id); err != nil {
		a.reportError("execute script", err)
		return err
	}
	a.services.Logs.Info("script executed")
	return nil
}

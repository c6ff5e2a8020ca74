package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
)

// ErrNotFound is returned whenever the backend reports HTTP 404. Every
// method maps 404 the same way; callers decide whether absence is an
// error for their operation.
var ErrNotFound = errors.New("resource not found")

// APIError carries the HTTP status and raw body of a failed backend
// call.
type APIError struct {
	StatusCode int
	Body       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (e envelope) failureMessage() string {
	if e.Error != "" {
		return e.Error
	}
	if e.Message != "" {
		return e.Message
	}
	return "backend reported failure"
}

// Client issues typed REST calls against the recognition backend. One
// shared http.Client is reused for the process lifetime; there is no
// retry, caching, or authentication.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// BaseURL reports the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call performs one request/response cycle: marshal body, issue the
// request, map 404 to ErrNotFound, map other non-2xx (and success=false
// envelopes) to *APIError, and decode the envelope's data into out.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.log.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			Message:    fmt.Sprintf("%s %s returned status %d", method, path, resp.StatusCode),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response envelope: %w", err)
	}
	if !env.Success {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			Message:    env.failureMessage(),
		}
	}

	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// Health checks backend reachability.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/api/health", nil, nil, nil)
}

// --- Macros ---

// ListMacros fetches macros filtered by search term and ordered by the
// given sort key ("name", "usage", "created").
func (c *Client) ListMacros(ctx context.Context, search, sortBy string) ([]domain.Macro, error) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}
	if sortBy != "" {
		query.Set("sort_by", sortBy)
	}

	var macros []domain.Macro
	if err := c.call(ctx, http.MethodGet, "/api/macros", query, nil, &macros); err != nil {
		return nil, err
	}
	return macros, nil
}

func (c *Client) GetMacro(ctx context.Context, id int) (*domain.Macro, error) {
	var macro domain.Macro
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/macros/%d", id), nil, nil, &macro); err != nil {
		return nil, err
	}
	return &macro, nil
}

func (c *Client) CreateMacro(ctx context.Context, macro domain.Macro) (*domain.Macro, error) {
	var created domain.Macro
	if err := c.call(ctx, http.MethodPost, "/api/macros", nil, macro, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateMacro(ctx context.Context, macro domain.Macro) (*domain.Macro, error) {
	var updated domain.Macro
	if err := c.call(ctx, http.MethodPut, fmt.Sprintf("/api/macros/%d", macro.ID), nil, macro, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteMacro(ctx context.Context, id int) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/api/macros/%d", id), nil, nil, nil)
}

// CopyMacro duplicates an existing macro under a new name.
func (c *Client) CopyMacro(ctx context.Context, id int, newName string) (*domain.Macro, error) {
	var copied domain.Macro
	body := map[string]string{"name": newName}
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("/api/macros/%d/copy", id), nil, body, &copied); err != nil {
		return nil, err
	}
	return &copied, nil
}

// ExecuteMacro asks the backend to run a macro immediately.
func (c *Client) ExecuteMacro(ctx context.Context, id int) error {
	return c.call(ctx, http.MethodPost, fmt.Sprintf("/api/macros/%d/execute", id), nil, nil, nil)
}

// --- Presets ---

func (c *Client) ListPresets(ctx context.Context) ([]domain.Preset, error) {
	var presets []domain.Preset
	if err := c.call(ctx, http.MethodGet, "/api/presets", nil, nil, &presets); err != nil {
		return nil, err
	}
	return presets, nil
}

func (c *Client) GetPreset(ctx context.Context, id int) (*domain.Preset, error) {
	var preset domain.Preset
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/presets/%d", id), nil, nil, &preset); err != nil {
		return nil, err
	}
	return &preset, nil
}

func (c *Client) CreatePreset(ctx context.Context, preset domain.Preset) (*domain.Preset, error) {
	var created domain.Preset
	if err := c.call(ctx, http.MethodPost, "/api/presets", nil, preset, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdatePreset(ctx context.Context, preset domain.Preset) (*domain.Preset, error) {
	var updated domain.Preset
	if err := c.call(ctx, http.MethodPut, fmt.Sprintf("/api/presets/%d", preset.ID), nil, preset, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeletePreset(ctx context.Context, id int) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/api/presets/%d", id), nil, nil, nil)
}

// ImportPreset uploads an externally saved preset, macros included.
func (c *Client) ImportPreset(ctx context.Context, preset domain.Preset) (*domain.Preset, error) {
	var imported domain.Preset
	if err := c.call(ctx, http.MethodPost, "/api/presets/import", nil, preset, &imported); err != nil {
		return nil, err
	}
	return &imported, nil
}

// ExportPreset fetches a preset with its macros embedded, suitable for
// saving to a file.
func (c *Client) ExportPreset(ctx context.Context, id int) (*domain.Preset, error) {
	var exported domain.Preset
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/presets/%d/export", id), nil, nil, &exported); err != nil {
		return nil, err
	}
	return &exported, nil
}

// ActivatePreset marks one preset as the active macro set.
func (c *Client) ActivatePreset(ctx context.Context, id int) error {
	return c.call(ctx, http.MethodPost, fmt.Sprintf("/api/presets/%d/activate", id), nil, nil, nil)
}

func (c *Client) ToggleFavoritePreset(ctx context.Context, id int) (*domain.Preset, error) {
	var preset domain.Preset
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("/api/presets/%d/favorite", id), nil, nil, &preset); err != nil {
		return nil, err
	}
	return &preset, nil
}

// --- Custom scripts ---

func (c *Client) ListScripts(ctx context.Context, category string) ([]domain.CustomScript, error) {
	query := url.Values{}
	if category != "" {
		query.Set("category", category)
	}

	var scripts []domain.CustomScript
	if err := c.call(ctx, http.MethodGet, "/api/scripts", query, nil, &scripts); err != nil {
		return nil, err
	}
	return scripts, nil
}

func (c *Client) GetScript(ctx context.Context, id int) (*domain.CustomScript, error) {
	var script domain.CustomScript
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/scripts/%d", id), nil, nil, &script); err != nil {
		return nil, err
	}
	return &script, nil
}

func (c *Client) CreateScript(ctx context.Context, script domain.CustomScript) (*domain.CustomScript, error) {
	var created domain.CustomScript
	if err := c.call(ctx, http.MethodPost, "/api/scripts", nil, script, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateScript(ctx context.Context, script domain.CustomScript) (*domain.CustomScript, error) {
	var updated domain.CustomScript
	if err := c.call(ctx, http.MethodPut, fmt.Sprintf("/api/scripts/%d", script.ID), nil, script, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteScript(ctx context.Context, id int) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/api/scripts/%d", id), nil, nil, nil)
}

// ValidateScript sends opaque MSL text for server-side validation. The
// client never parses the script body.
func (c *Client) ValidateScript(ctx context.Context, scriptText string) (*domain.ScriptValidation, error) {
	var verdict domain.ScriptValidation
	body := map[string]string{"script_text": scriptText}
	if err := c.call(ctx, http.MethodPost, "/api/scripts/validate", nil, body, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

func (c *Client) ExecuteScript(ctx context.Context, id int) error {
	return c.call(ctx, http.MethodPost, fmt.Sprintf("/api/scripts/%d/execute", id), nil, nil, nil)
}

// --- Voice pipeline ---

// Transcribe uploads one complete audio clip for a one-shot Whisper
// transcription.
func (c *Client) Transcribe(ctx context.Context, audio []byte, language string) (*domain.TranscriptionResult, error) {
	body := map[string]string{
		"audio_data": base64.StdEncoding.EncodeToString(audio),
	}
	if language != "" {
		body["language"] = language
	}

	var result domain.TranscriptionResult
	if err := c.call(ctx, http.MethodPost, "/api/whisper/transcribe", nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StartRecognition tells the backend to begin matching transcriptions
// against the active macro set.
func (c *Client) StartRecognition(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/api/voice/start", nil, nil, nil)
}

// StopRecognition halts backend-side matching.
func (c *Client) StopRecognition(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/api/voice/stop", nil, nil, nil)
}

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, nil)
}

func TestListMacrosDecodesEnvelopeData(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/macros" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("sort_by"); got != "name" {
			t.Errorf("unexpected sort_by: %q", got)
		}
		if r.URL.Query().Has("search") {
			t.Errorf("empty search term must not be sent")
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":1,"name":"Attack"}]}`))
	})

	macros, err := client.ListMacros(context.Background(), "", "name")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(macros) != 1 {
		t.Fatalf("expected 1 macro, got %d", len(macros))
	}
	if macros[0].Name != "Attack" || macros[0].ID != 1 {
		t.Fatalf("unexpected macro: %+v", macros[0])
	}
}

func TestGetMacroMapsNotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetMacro(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMacroMapsNotFoundUniformly(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method: %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.DeleteMacro(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServerErrorPreservesStatusAndBody(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("matcher exploded"))
	})

	_, err := client.ListMacros(context.Background(), "", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Body, "matcher exploded") {
		t.Fatalf("expected body preserved, got %q", apiErr.Body)
	}
}

func TestFailureEnvelopePrefersErrorField(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"fallback","error":"duplicate macro name"}`))
	})

	_, err := client.CreateMacro(context.Background(), domain.Macro{Name: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "duplicate macro name" {
		t.Fatalf("unexpected message: %q", apiErr.Message)
	}
	if apiErr.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", apiErr.StatusCode)
	}
}

func TestCreateMacroSendsJSONBody(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("unexpected content type: %q", got)
		}
		var macro domain.Macro
		if err := json.NewDecoder(r.Body).Decode(&macro); err != nil {
			t.Errorf("decode body failed: %v", err)
		}
		if macro.Name != "Heal" || macro.ActionType != domain.ActionCombo {
			t.Errorf("unexpected body: %+v", macro)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":9,"name":"Heal","action_type":"combo"}}`))
	})

	created, err := client.CreateMacro(context.Background(), domain.Macro{
		Name:         "Heal",
		VoiceCommand: "heal me",
		ActionType:   domain.ActionCombo,
		KeySequence:  "h",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID != 9 {
		t.Fatalf("unexpected created macro: %+v", created)
	}
}

func TestNullDataYieldsEmptyResult(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":null}`))
	})

	macros, err := client.ListMacros(context.Background(), "", "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(macros) != 0 {
		t.Fatalf("expected empty list, got %d", len(macros))
	}
}

func TestValidateScriptRoundTrip(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/scripts/validate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body failed: %v", err)
		}
		if body["script_text"] != "W(500) > A" {
			t.Errorf("unexpected script text: %q", body["script_text"])
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"valid":false,"errors":["unknown token"]}}`))
	})

	verdict, err := client.ValidateScript(context.Background(), "W(500) > A")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if verdict.Valid {
		t.Fatalf("expected invalid verdict")
	}
	if len(verdict.Errors) != 1 || verdict.Errors[0] != "unknown token" {
		t.Fatalf("unexpected verdict errors: %v", verdict.Errors)
	}
}

func TestHealthUsesHealthEndpoint(t *testing.T) {
	t.Parallel()

	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("health failed: %v", err)
	}
	if path != "/api/health" {
		t.Fatalf("unexpected path: %s", path)
	}
}

func TestTransportErrorSurfacesImmediately(t *testing.T) {
	t.Parallel()

	client := NewClient("http://127.0.0.1:1", time.Second, nil)
	if err := client.Health(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
}

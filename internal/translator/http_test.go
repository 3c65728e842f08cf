package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystran_NoAPIKey(t *testing.T) {
	svc := NewSystranService("")

	_, err := svc.Translate(context.Background(), ServiceConfig{}, Request{
		Text: "Hello", SourceLang: "en", TargetLang: "fr",
	})
	assert.Error(t, err)
	assert.Error(t, svc.IsAvailable(context.Background()))
}

func TestSystran_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translation/text/translate", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))

		var req struct {
			Text   []string `json:"text"`
			Target string   `json:"target"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"Hello"}, req.Text)

		json.NewEncoder(w).Encode(map[string]any{
			"outputs": []map[string]string{{"output": "Bonjour"}},
		})
	}))
	defer srv.Close()

	svc := &SystranService{apiKey: "test-key", baseURL: srv.URL, client: srv.Client()}

	got, err := svc.Translate(context.Background(), ServiceConfig{}, Request{
		Text: "Hello", SourceLang: "en", TargetLang: "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", got)
}

func TestSystran_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	svc := &SystranService{apiKey: "test-key", baseURL: srv.URL, client: srv.Client()}

	_, err := svc.Translate(context.Background(), ServiceConfig{}, Request{
		Text: "Hello", TargetLang: "fr",
	})
	assert.ErrorContains(t, err, "status 403")
}

func TestMyMemory_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en|uk", r.URL.Query().Get("langpair"))
		json.NewEncoder(w).Encode(map[string]any{
			"responseData":   map[string]string{"translatedText": "Привіт"},
			"responseStatus": 200,
		})
	}))
	defer srv.Close()

	svc := &MyMemoryService{baseURL: srv.URL, client: srv.Client()}

	got, err := svc.Translate(context.Background(), ServiceConfig{}, Request{
		Text: "Hello", SourceLang: "en", TargetLang: "uk",
	})
	require.NoError(t, err)
	assert.Equal(t, "Привіт", got)
}

func TestMyMemory_QuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"responseData":   map[string]string{"translatedText": ""},
			"responseStatus": 429,
		})
	}))
	defer srv.Close()

	svc := &MyMemoryService{baseURL: srv.URL, client: srv.Client()}

	_, err := svc.Translate(context.Background(), ServiceConfig{}, Request{
		Text: "Hello", TargetLang: "uk",
	})
	assert.Error(t, err)
}

func TestOllama_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		assert.Contains(t, req.Prompt, "[PHn] markers")

		json.NewEncoder(w).Encode(map[string]string{
			"response": `"Привіт"`,
		})
	}))
	defer srv.Close()

	svc := NewOllamaService(srv.URL, []string{"llama3.2"})
	svc.client = srv.Client()

	got, err := svc.Translate(context.Background(), ServiceConfig{}, Request{
		Text: "Hello", SourceLang: "en", TargetLang: "uk",
	})
	require.NoError(t, err)
	// Quote wrapping is an LLM artifact and must be stripped.
	assert.Equal(t, "Привіт", got)
}

func TestOllama_ModelOverride(t *testing.T) {
	svc := NewOllamaService("", []string{"a", "b"})
	assert.Equal(t, "custom", svc.pickModel(ServiceConfig{Model: "custom"}))
	assert.Contains(t, []string{"a", "b"}, svc.pickModel(ServiceConfig{}))
}

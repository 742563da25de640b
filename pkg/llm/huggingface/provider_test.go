package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediagrid-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSendsOpenAICompatibleRequest(t *testing.T) {
	var captured struct {
		path   string
		auth   string
		body   map[string]interface{}
		method string
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		captured.method = r.Method
		json.NewDecoder(r.Body).Decode(&captured.body)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "cmpl-1",
			"created": 1700000000,
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "hello back"}},
			},
		})
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("secret-token", srv.URL, "deepseek-ai/DeepSeek-R1-0528")

	completion, err := p.Chat(context.Background(),
		[]llm.Message{{Role: "user", Content: "hello"}},
		llm.WithTemperature(0.7),
		llm.WithMaxTokens(500),
	)
	require.NoError(t, err)

	assert.Equal(t, "hello back", completion.Text)
	assert.Equal(t, "cmpl-1", completion.ID)
	assert.Equal(t, int64(1700000000), completion.Created)

	assert.Equal(t, "POST", captured.method)
	assert.Equal(t, "/chat/completions", captured.path)
	assert.Equal(t, "Bearer secret-token", captured.auth)
	assert.Equal(t, "deepseek-ai/DeepSeek-R1-0528", captured.body["model"])
	assert.Equal(t, 0.7, captured.body["temperature"])
	assert.Equal(t, float64(500), captured.body["max_tokens"])
}

func TestChatNonOKStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("t", srv.URL, "m")
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestChatAPIErrorBodyFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid token"},
		})
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("t", srv.URL, "m")
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestChatEmptyChoicesFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("t", srv.URL, "m")
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty choices")
}

func TestGenerateWrapsPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []llm.Message `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("t", srv.URL, "m")
	completion, err := p.Generate(context.Background(), "a prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", completion.Text)
}

package assistant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiServer(t *testing.T, text string, gotPath, gotBody *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*gotPath = r.URL.Path
		*gotBody = string(body)

		resp := map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role":  "model",
						"parts": []any{map[string]any{"text": text}},
					},
					"finishReason": "STOP",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiGenerateJSON(t *testing.T) {
	var path, body string
	srv := geminiServer(t, `{"explanation":"division by zero"}`, &path, &body)

	gen, err := NewGemini(context.Background(), "test-key", "gemini-test", srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, "gemini-test", gen.Model())

	out, err := New(gen).ExplainError(context.Background(), ExplainErrorInput{
		Code: "print(divide(10, 0))", Language: "python", ErrorMessage: "ZeroDivisionError",
	})
	require.NoError(t, err)
	assert.Equal(t, "division by zero", out.Explanation)

	assert.True(t, strings.HasSuffix(path, "models/gemini-test:generateContent"), path)
	assert.Contains(t, body, "ZeroDivisionError")
	assert.Contains(t, body, "application/json")
}

func TestGeminiEmptyReply(t *testing.T) {
	var path, body string
	srv := geminiServer(t, "", &path, &body)

	gen, err := NewGemini(context.Background(), "test-key", "", srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, gen.Model())

	_, err = gen.GenerateJSON(context.Background(), "prompt", explainErrorSchema)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "", "")
	assert.Error(t, err)
}

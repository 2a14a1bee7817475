package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"google.golang.org/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aetherdebug/aetherdebug/internal/assistant"
	"github.com/aetherdebug/aetherdebug/internal/catalog"
	"github.com/aetherdebug/aetherdebug/internal/debugger"
	"github.com/aetherdebug/aetherdebug/internal/domain"
	"github.com/aetherdebug/aetherdebug/internal/identity"
	"github.com/aetherdebug/aetherdebug/internal/middleware"
	"github.com/aetherdebug/aetherdebug/internal/runner"
	"github.com/aetherdebug/aetherdebug/internal/store"
	"github.com/aetherdebug/aetherdebug/internal/workspace"
)

const testUser = "anon_0123456789abcdef0123456789abcdef"

// stubGenerator answers every prompt with the same JSON document.
type stubGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubGenerator) GenerateJSON(context.Context, string, *genai.Schema) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return `{"explanation":"it broke","suggestedFix":"console.log(1)","code":"console.log('hi')"}`, nil
}

type testEnv struct {
	router   chi.Router
	repo     store.Repository
	sessions *workspace.Manager
	gen      *stubGenerator
}

func newTestEnv(t *testing.T, sessionRunner workspace.Runner, aiLimit func(http.Handler) http.Handler) *testEnv {
	t.Helper()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "aether.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	cat := catalog.Default()
	gen := &stubGenerator{}
	ai := assistant.New(gen)

	dispatcher := runner.NewDispatcher(runner.NewSimulated(), 2)
	dispatcher.Register(domain.JavaScript, runner.NewJavaScript(runner.WithTimeout(2*time.Second)))
	pipeline := debugger.New(dispatcher, ai, repo)
	if sessionRunner == nil {
		sessionRunner = pipeline
	}
	sessions := workspace.NewManager(cat, sessionRunner)

	h := NewHandler(repo, cat, sessions, pipeline, ai, ServerInfo{AIEnabled: true, Model: "test-model"})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := identity.WithIdentity(req.Context(), testUser, req.Header.Get(identity.SessionHeaderName))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h.RegisterRoutes(r, aiLimit)

	return &testEnv{router: r, repo: repo, sessions: sessions, gen: gen}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(identity.SessionHeaderName, "tab-1")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndConfig(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	health := decodeBody[map[string]interface{}](t, w)
	assert.Equal(t, "healthy", health["status"])

	w = env.do(t, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	info := decodeBody[ServerInfo](t, w)
	assert.Equal(t, ServerInfo{AIEnabled: true, Model: "test-model"}, info)
}

func TestListLanguages(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodGet, "/api/languages", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Languages []struct {
			ID   string `json:"id"`
			Live bool   `json:"live"`
		} `json:"languages"`
		Initial string `json:"initial"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.JavaScript, body.Initial)
	require.NotEmpty(t, body.Languages)
	assert.Equal(t, domain.JavaScript, body.Languages[0].ID)
	assert.True(t, body.Languages[0].Live)
	for _, l := range body.Languages[1:] {
		assert.False(t, l.Live, "%s should be simulated by default", l.ID)
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	sess := decodeBody[domain.Session](t, w)
	assert.Equal(t, domain.JavaScript, sess.Language)
	assert.Equal(t, "tab-1", sess.SessionID)

	w = env.do(t, http.MethodPut, "/api/session/code", `{"code":"console.log('hello')"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log('hello')", decodeBody[domain.Session](t, w).Code)

	w = env.do(t, http.MethodPost, "/api/session/run", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Session domain.Session  `json:"session"`
		Report  debugger.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "hello", out.Session.Output)
	assert.Equal(t, "it broke", out.Session.Explanation)
	assert.Equal(t, "console.log(1)\n\nExplanation:\nit broke", out.Session.SuggestedFix)
	assert.False(t, out.Session.IsLoading)
	assert.Equal(t, domain.RunStatusAnalyzed, out.Report.Status)

	w = env.do(t, http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Runs []domain.Run `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, out.Report.RunID, list.Runs[0].ID)

	w = env.do(t, http.MethodGet, "/api/runs/"+out.Report.RunID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", decodeBody[domain.Run](t, w).Output)

	w = env.do(t, http.MethodGet, "/api/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSelectLanguage(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	python, err := catalog.Default().Lookup("python")
	require.NoError(t, err)

	env.do(t, http.MethodPut, "/api/session/code", `{"code":"x"}`)

	w := env.do(t, http.MethodPut, "/api/session/language", `{"language":"python"}`)
	require.Equal(t, http.StatusOK, w.Code)
	sess := decodeBody[domain.Session](t, w)
	assert.Equal(t, "python", sess.Language)
	assert.Equal(t, python.DefaultCode, sess.Code)
	assert.Empty(t, sess.Output)
	assert.Empty(t, sess.Explanation)
	assert.Empty(t, sess.SuggestedFix)

	w = env.do(t, http.MethodPut, "/api/session/language", `{"language":"cobol"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// blockingRunner holds every run until release is closed.
type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRunner) Run(ctx context.Context, _ debugger.Request, _ debugger.Observer) (debugger.Report, error) {
	close(b.started)
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return debugger.Report{Output: "done"}, nil
}

func TestRunSessionConflict(t *testing.T) {
	br := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	env := newTestEnv(t, br, nil)

	errCh := make(chan error, 1)
	go func() {
		_, _, err := env.sessions.Run(context.Background(), testUser, "tab-1", nil)
		errCh <- err
	}()
	<-br.started

	w := env.do(t, http.MethodPost, "/api/session/run", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPut, "/api/session/language", `{"language":"python"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(br.release)
	require.NoError(t, <-errCh)
}

func TestStatelessRun(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodPost, "/api/run", `{"code":"throw new Error('boom')","language":"javascript"}`)
	require.Equal(t, http.StatusOK, w.Code)
	rep := decodeBody[debugger.Report](t, w)
	assert.Contains(t, rep.Output, "EXCEPTION")
	assert.Contains(t, rep.Output, "boom")
	assert.Equal(t, domain.RunStatusExecuted, rep.Status)
	assert.Empty(t, rep.Explanation)
	assert.Zero(t, env.gen.calls)

	w = env.do(t, http.MethodPost, "/api/run", `{"code":"x","language":"cobol"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssistEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodPost, "/api/explain", `{"code":"x","language":"javascript","errorMessage":"boom"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "it broke", decodeBody[assistant.ExplainErrorOutput](t, w).Explanation)

	w = env.do(t, http.MethodPost, "/api/fix", `{"code":"x","language":"javascript"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", decodeBody[assistant.SuggestCodeFixOutput](t, w).SuggestedFix)

	w = env.do(t, http.MethodPost, "/api/generate", `{"description":"say hi","language":"javascript"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log('hi')", decodeBody[assistant.GenerateCodeOutput](t, w).Code)

	w = env.do(t, http.MethodPost, "/api/explain", `{"code":"","language":"javascript"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/explain", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.gen.err = errors.New("upstream down")
	w = env.do(t, http.MethodPost, "/api/explain", `{"code":"x","language":"javascript"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	env.gen.err = assistant.ErrUnavailable
	w = env.do(t, http.MethodPost, "/api/generate", `{"description":"say hi","language":"javascript"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAIRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	env := newTestEnv(t, nil, limiter.Limit(func(r *http.Request) string {
		return identity.UserIDFromContext(r.Context())
	}))

	body := `{"code":"x","language":"javascript"}`
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/explain", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(t, http.MethodPost, "/api/explain", body).Code)

	// Non-AI routes are not throttled.
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/session", "").Code)
}

func TestBodyLimit(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	huge := `{"code":"` + strings.Repeat("a", maxBodyBytes+1) + `"}`
	w := env.do(t, http.MethodPut, "/api/session/code", huge)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "exceeds")
}

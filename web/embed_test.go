package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSPAHandler(t *testing.T) {
	h := SPAHandler()

	cases := []struct {
		path     string
		status   int
		contains string
	}{
		{"/", http.StatusOK, "AetherDebug"},
		{"/app.js", http.StatusOK, "/ws/debug"},
		{"/history/some-run", http.StatusOK, "AetherDebug"},
		{"/api/unknown", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			require.Equal(t, tc.status, w.Code)
			if tc.contains != "" {
				assert.True(t, strings.Contains(w.Body.String(), tc.contains), w.Body.String())
			}
		})
	}
}

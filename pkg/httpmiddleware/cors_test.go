package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsRequest(t *testing.T, handler http.Handler, method, origin string, preflight bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/items", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestCORSNonBrowserRequestUntouched(t *testing.T) {
	handler := CORS(CORSConfig{})(okHandler())

	w := corsRequest(t, handler, http.MethodGet, "", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSActualRequestWildcard(t *testing.T) {
	handler := CORS(CORSConfig{AllowOrigins: []string{"*"}})(okHandler())

	w := corsRequest(t, handler, http.MethodGet, "https://pos.example.com", false)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS(CORSConfig{
		AllowOrigins: []string{"https://pos.example.com"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:       86400,
	})(okHandler())

	w := corsRequest(t, handler, http.MethodOptions, "https://pos.example.com", true)

	require.Equal(t, http.StatusNoContent, w.Code)
	h := w.Header()
	assert.Equal(t, "https://pos.example.com", h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, corsMethods, h.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", h.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", h.Get("Access-Control-Max-Age"))
	assert.Contains(t, h.Values("Vary"), "Origin")
	assert.Contains(t, h.Values("Vary"), "Access-Control-Request-Method")
}

func TestCORSPreflightEchoesRequestedHeaders(t *testing.T) {
	handler := CORS(CORSConfig{AllowOrigins: []string{"*"}})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/items", nil)
	req.Header.Set("Origin", "https://pos.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "X-Terminal-ID")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "X-Terminal-ID", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSDisallowedOrigin(t *testing.T) {
	handler := CORS(CORSConfig{AllowOrigins: []string{"https://pos.example.com"}})(okHandler())

	w := corsRequest(t, handler, http.MethodOptions, "https://evil.example.net", true)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = corsRequest(t, handler, http.MethodGet, "https://evil.example.net", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSOriginMatchIsCaseInsensitive(t *testing.T) {
	handler := CORS(CORSConfig{AllowOrigins: []string{"https://POS.example.com"}})(okHandler())

	w := corsRequest(t, handler, http.MethodGet, "https://pos.example.com", false)

	// Configured spelling is echoed, whatever case the request used.
	assert.Equal(t, "https://POS.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSCredentialsNeverPairWithWildcard(t *testing.T) {
	handler := CORS(CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
	})(okHandler())

	w := corsRequest(t, handler, http.MethodGet, "https://pos.example.com", false)

	h := w.Header()
	assert.Equal(t, "https://pos.example.com", h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", h.Get("Access-Control-Allow-Credentials"))
}

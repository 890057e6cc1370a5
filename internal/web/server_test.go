package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-portfolio/internal/mcp"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/controller"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dao"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/service"
	"github.com/Laisky/laisky-portfolio/internal/web/render"
	"github.com/Laisky/laisky-portfolio/internal/web/session"
	"github.com/Laisky/laisky-portfolio/library/jwt"
	"github.com/Laisky/laisky-portfolio/library/log"
	"github.com/Laisky/laisky-portfolio/library/storage"
)

var (
	ginModeOnce sync.Once
)

func setupGinTestMode() {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})
}

var testAllowedOrigins = []string{"example.com", "100.64.0.0/10"}

func TestAllowCORS(t *testing.T) {
	setupGinTestMode()
	t.Parallel()

	tests := []struct {
		name           string
		method         string
		origin         string
		expectedStatus int
		expectedCORS   bool
		expectedOrigin string
	}{
		{
			name:           "No origin header - should pass through",
			method:         "GET",
			origin:         "",
			expectedStatus: http.StatusOK,
			expectedCORS:   false,
			expectedOrigin: "",
		},
		{
			name:           "Valid subdomain origin - GET request",
			method:         "GET",
			origin:         "https://blog.example.com",
			expectedStatus: http.StatusOK,
			expectedCORS:   true,
			expectedOrigin: "https://blog.example.com",
		},
		{
			name:           "Valid main domain origin - POST request",
			method:         "POST",
			origin:         "https://example.com",
			expectedStatus: http.StatusOK,
			expectedCORS:   true,
			expectedOrigin: "https://example.com",
		},
		{
			name:           "Valid subdomain origin - OPTIONS preflight",
			method:         "OPTIONS",
			origin:         "https://admin.example.com",
			expectedStatus: http.StatusNoContent,
			expectedCORS:   true,
			expectedOrigin: "https://admin.example.com",
		},
		{
			name:           "Invalid origin - OPTIONS preflight",
			method:         "OPTIONS",
			origin:         "https://evil.com",
			expectedStatus: http.StatusForbidden,
			expectedCORS:   false,
			expectedOrigin: "",
		},
		{
			name:           "Invalid origin - GET request",
			method:         "GET",
			origin:         "https://evil.com",
			expectedStatus: http.StatusOK,
			expectedCORS:   false,
			expectedOrigin: "",
		},
		{
			name:           "Allowed domain as prefix of another domain",
			method:         "GET",
			origin:         "https://example.com.evil.com",
			expectedStatus: http.StatusOK,
			expectedCORS:   false,
			expectedOrigin: "",
		},
		{
			name:           "Domain that ends with the allowed name",
			method:         "GET",
			origin:         "https://notexample.com",
			expectedStatus: http.StatusOK,
			expectedCORS:   false,
			expectedOrigin: "",
		},
		{
			name:           "Case insensitive domain matching",
			method:         "GET",
			origin:         "https://Blog.EXAMPLE.COM",
			expectedStatus: http.StatusOK,
			expectedCORS:   true,
			expectedOrigin: "https://Blog.EXAMPLE.COM",
		},
		{
			name:           "Invalid origin with malformed URL",
			method:         "GET",
			origin:         "not-a-valid-url",
			expectedStatus: http.StatusOK,
			expectedCORS:   false,
			expectedOrigin: "",
		},
		{
			name:           "HTTP origin with port",
			method:         "GET",
			origin:         "http://blog.example.com:8080",
			expectedStatus: http.StatusOK,
			expectedCORS:   true,
			expectedOrigin: "http://blog.example.com:8080",
		},
		{
			name:           "IP origin inside allowed range",
			method:         "GET",
			origin:         "https://100.70.1.2",
			expectedStatus: http.StatusOK,
			expectedCORS:   true,
			expectedOrigin: "https://100.70.1.2",
		},
		{
			name:           "IP origin outside allowed range",
			method:         "GET",
			origin:         "https://100.128.0.1",
			expectedStatus: http.StatusOK,
			expectedCORS:   false,
			expectedOrigin: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cors, err := newCORSMiddleware(testAllowedOrigins)
			require.NoError(t, err)
			router := gin.New()
			router.Use(cors)
			router.Any("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, "Status code mismatch")
			if tt.expectedCORS {
				assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"), "CORS origin header mismatch")
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"), "CORS credentials header mismatch")
				assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS, HEAD", w.Header().Get("Access-Control-Allow-Methods"), "CORS methods header mismatch")
				assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Headers"), "CORS headers mismatch")
				assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"), "CORS max age header mismatch")
				assert.Equal(t, "Origin", w.Header().Get("Vary"), "Vary header mismatch")
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"), "CORS origin header should be empty")
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"), "CORS credentials header should be empty")
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"), "CORS methods header should be empty")
			}
		})
	}
}

func TestAllowCORSEdgeCases(t *testing.T) {
	setupGinTestMode()
	t.Parallel()

	newRouter := func(t *testing.T) *gin.Engine {
		cors, err := newCORSMiddleware(testAllowedOrigins)
		require.NoError(t, err)
		router := gin.New()
		router.Use(cors)
		router.Any("/test", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "success"})
		})
		return router
	}

	t.Run("Empty origin with OPTIONS method", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("OPTIONS", "/test", nil)
		w := httptest.NewRecorder()
		newRouter(t).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS, HEAD", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("Origin header with only spaces", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Origin", "   ")
		w := httptest.NewRecorder()
		newRouter(t).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Malformed CIDR is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := newCORSMiddleware([]string{"10.0.0.0/99"})
		require.Error(t, err)
	})

	t.Run("Wildcard prefix is accepted", func(t *testing.T) {
		t.Parallel()

		policy, err := parseOriginPolicy([]string{"*.example.org", " "})
		require.NoError(t, err)
		require.True(t, policy.allow("https://a.example.org"))
		require.True(t, policy.allow("https://example.org"))
		require.False(t, policy.allow("https://example.com"))
	})
}

func TestOriginChecker(t *testing.T) {
	check, err := OriginChecker(testAllowedOrigins)
	require.NoError(t, err)

	newReq := func(origin string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "http://portfolio.test/admin/live", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		return req
	}

	require.True(t, check(newReq("")))
	require.True(t, check(newReq("http://portfolio.test")))
	require.True(t, check(newReq("https://admin.example.com")))
	require.True(t, check(newReq("http://100.64.1.2:3000")))
	require.False(t, check(newReq("https://evil.test")))

	_, err = OriginChecker([]string{"10.0.0.0/99"})
	require.Error(t, err)
}

func TestNewStatusHandler(t *testing.T) {
	setupGinTestMode()
	t.Parallel()

	handler := newStatusHandler()
	router := gin.New()
	router.GET("/status", handler)
	router.HEAD("/status", handler)
	router.OPTIONS("/status", handler)

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(method, "/status", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "GET, HEAD, OPTIONS", w.Header().Get("Allow"))
			if method == http.MethodGet {
				assert.Equal(t, "ok", strings.TrimSpace(w.Body.String()))
			} else {
				assert.Empty(t, w.Body.String())
			}
		})
	}
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	setupGinTestMode()
	ctx := context.Background()

	backend := storage.NewMemory()
	store, err := dao.New(backend, dao.WithSaveDebounce(time.Hour))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })
	store.Start(ctx)
	require.NoError(t, store.WaitReady(ctx))

	svc, err := service.New(store, nil, nil, nil)
	require.NoError(t, err)
	signer, err := jwt.New([]byte("test-secret"))
	require.NoError(t, err)
	sessions, err := session.NewManager(backend, signer, session.WithAdminPassword("pwd"))
	require.NoError(t, err)
	pages, err := render.New("", controller.TemplateFuncs, nil)
	require.NoError(t, err)

	dist := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dist, "index.html"), []byte("<div id=app></div>"), 0o600))
	app, err := NewAdminApp(dist, log.Logger)
	require.NoError(t, err)

	ctl, err := controller.New(svc, sessions, pages, controller.WithAdminApp(app))
	require.NoError(t, err)

	mcpServer, err := mcp.NewServer(svc, nil)
	require.NoError(t, err)

	opts = append([]Option{WithMCP(mcpServer.Handler()), WithAllowedOrigins(testAllowedOrigins)}, opts...)
	srv, err := NewServer(ctl, sessions, opts...)
	require.NoError(t, err)
	return srv
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Result().Cookies(), "probes do not open sessions")

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Result().Cookies())

	// the admin app sits behind the gate
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/app/", nil))
	require.Equal(t, http.StatusFound, w.Code)

	// mcp needs an initialize before anything else
	w = postMCP(srv, "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26",`+
		`"capabilities":{},"clientInfo":{"name":"test","version":"0.0.1"}}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), "laisky-portfolio")
	require.Empty(t, w.Result().Cookies())

	sid := w.Header().Get("Mcp-Session-Id")
	require.NotEmpty(t, sid)
	w = postMCP(srv, sid, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), "list_projects")
}

func postMCP(srv *Server, sessionID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServerRun(t *testing.T) {
	srv := newTestServer(t, WithAddr("127.0.0.1:0"), WithShutdownTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNewServerOptions(t *testing.T) {
	_, err := NewServer(nil, nil)
	require.Error(t, err)

	for _, opt := range []Option{WithAddr(" "), WithShutdownTimeout(0), WithLogger(nil)} {
		require.Error(t, opt(&option{}))
	}
}

package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-portfolio/internal/web/contact"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dao"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/service"
	"github.com/Laisky/laisky-portfolio/internal/web/render"
	"github.com/Laisky/laisky-portfolio/internal/web/session"
	"github.com/Laisky/laisky-portfolio/library/jwt"
	"github.com/Laisky/laisky-portfolio/library/log"
	"github.com/Laisky/laisky-portfolio/library/objstore"
	"github.com/Laisky/laisky-portfolio/library/storage"
	"github.com/Laisky/laisky-portfolio/library/throttle"
)

const testPassword = "hunter2"

type testEnv struct {
	router *gin.Engine
	store  *dao.Store
}

func newTestEnv(t *testing.T, start bool, opts ...Option) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	backend := storage.NewMemory()
	store, err := dao.New(backend, dao.WithSaveDebounce(time.Hour))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })
	if start {
		store.Start(ctx)
		require.NoError(t, store.WaitReady(ctx))
	}

	files, err := objstore.NewLocal(t.TempDir())
	require.NoError(t, err)
	svc, err := service.New(store, files, nil, nil)
	require.NoError(t, err)

	signer, err := jwt.New([]byte("test-secret"))
	require.NoError(t, err)
	sessions, err := session.NewManager(backend, signer, session.WithAdminPassword(testPassword))
	require.NoError(t, err)

	pages, err := render.New("", TemplateFuncs, log.Logger)
	require.NoError(t, err)

	ctl, err := New(svc, sessions, pages, opts...)
	require.NoError(t, err)

	r := gin.New()
	r.Use(sessions.Middleware())
	ctl.Register(r)
	return &testEnv{router: r, store: store}
}

// browser keeps the session cookie between requests
type browser struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func (e *testEnv) browser(t *testing.T) *browser {
	return &browser{t: t, h: e.router}
}

func (b *browser) do(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	b.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	w := httptest.NewRecorder()
	b.h.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, "", nil)
}

func (b *browser) json(method, path, body string) *httptest.ResponseRecorder {
	return b.do(method, path, gin.MIMEJSON, strings.NewReader(body))
}

func (b *browser) form(path string, values url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, path, gin.MIMEPOSTForm, strings.NewReader(values.Encode()))
}

func (b *browser) login() {
	b.t.Helper()
	w := b.form("/admin/login", url.Values{"password": {testPassword}})
	require.Equal(b.t, http.StatusSeeOther, w.Code)
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Data
}

func TestPublicPages(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)
	d := model.NewDefaults()

	w := b.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")
	require.Contains(t, w.Body.String(), d.Profile.Name)

	w = b.get("/projects?category=" + url.QueryEscape(string(model.ProjectCategoryAIML)))
	require.Equal(t, http.StatusOK, w.Code)
	for _, p := range d.Projects {
		if p.Category == model.ProjectCategoryAIML {
			require.Contains(t, w.Body.String(), p.Title)
		} else {
			require.NotContains(t, w.Body.String(), "<h2>"+p.Title+"</h2>")
		}
	}

	w = b.get("/blog?q=pokhara")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "/blog/solo-ride-to-pokhara")
	require.NotContains(t, w.Body.String(), "/blog/journey-to-pathivara")

	w = b.get("/blog/journey-to-pathivara")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "246 views")
	require.Contains(t, w.Body.String(), "Related posts")

	w = b.get("/blog/no-such-post")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), `href="/blog"`)

	w = b.get("/no/such/page")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = b.get("/api/nothing")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":"resource not found"}`, w.Body.String())
}

func TestLoadingPage(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.browser(t).get("/blog")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Loading...")
	require.Contains(t, w.Header().Get("Cache-Control"), "no-store")

	views, err := env.store.PageViews(context.Background())
	require.NoError(t, err)
	require.Zero(t, views, "loading pages are not counted")
}

func TestViewsCountedOncePerSession(t *testing.T) {
	env := newTestEnv(t, true)
	alice, bob := env.browser(t), env.browser(t)

	post := decodeData[model.BlogPost](t, alice.get("/api/blog/journey-to-pathivara"))
	require.Equal(t, 246, post.Views)
	post = decodeData[model.BlogPost](t, alice.get("/api/blog/1"))
	require.Equal(t, 246, post.Views)

	post = decodeData[model.BlogPost](t, bob.get("/api/blog/journey-to-pathivara"))
	require.Equal(t, 247, post.Views)

	alice.get("/")
	alice.get("/projects")
	bob.get("/")
	views, err := env.store.PageViews(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, views)
}

func TestPublicAPI(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)

	projects := decodeData[[]model.Project](t, b.get("/api/projects?category=AI/ML"))
	require.NotEmpty(t, projects)
	for _, p := range projects {
		require.Equal(t, model.ProjectCategoryAIML, p.Category)
	}

	skills := decodeData[[]model.Skill](t, b.get("/api/skills"))
	require.NotEmpty(t, skills)

	profile := decodeData[model.ProfileInfo](t, b.get("/api/profile"))
	require.Equal(t, model.NewDefaults().Profile.Name, profile.Name)

	w := b.get("/api/blog/404")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminGate(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)

	w := b.get("/admin")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, session.LoginPath, w.Header().Get("Location"))

	w = b.json(http.MethodPost, "/admin/projects", `{"title":"x"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = b.get("/admin/login")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Admin login")

	w = b.form("/admin/login", url.Values{"password": {"wrong"}})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid password")

	w = b.json(http.MethodPost, "/admin/login", `{"password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = b.json(http.MethodPost, "/admin/login", `{"password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"msg":"ok"}`, w.Body.String())

	w = b.get("/admin/login")
	require.Equal(t, http.StatusFound, w.Code, "logged in admins skip the form")
	require.Equal(t, "/admin", w.Header().Get("Location"))

	board := decodeData[map[string]any](t, b.get("/admin"))
	require.EqualValues(t, 4, board["publishedProjects"])

	w = b.do(http.MethodPost, "/admin/logout", "", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, session.LoginPath, w.Header().Get("Location"))

	w = b.get("/admin")
	require.Equal(t, http.StatusFound, w.Code)
}

func TestAdminProjectCRUD(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)
	b.login()

	w := b.json(http.MethodPost, "/admin/projects", `{"title":"Test","category":"AI/ML","status":"Published","tags":"go, gin,"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData[model.Project](t, w)
	require.Equal(t, 5, created.ID)
	require.Equal(t, []string{"go", "gin"}, created.Tags)

	w = b.json(http.MethodPost, "/admin/projects", `{"title":"Bad","category":"Cooking"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = b.json(http.MethodPut, "/admin/projects/5", `{"title":"Renamed","category":"AI/ML","status":"Draft"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	edited := decodeData[model.Project](t, w)
	require.Equal(t, "Renamed", edited.Title)
	require.Equal(t, created.Date, edited.Date)

	got := decodeData[map[string]json.RawMessage](t, b.get("/admin/projects/5"))
	require.Contains(t, string(got["draft"]), `"status":"Draft"`)

	listed := decodeData[[]model.Project](t, b.get("/admin/projects?q=renamed"))
	require.Len(t, listed, 1)

	// drafts stay off the public api
	for _, p := range decodeData[[]model.Project](t, b.get("/api/projects")) {
		require.NotEqual(t, 5, p.ID)
	}

	w = b.do(http.MethodDelete, "/admin/projects/5", "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = b.get("/admin/projects/5")
	require.Equal(t, http.StatusNotFound, w.Code)
	w = b.get("/admin/projects/abc")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminBlogAndSkills(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)
	b.login()

	w := b.form("/admin/blog", url.Values{
		"title":    {"Hello World!"},
		"category": {"Travel"},
		"status":   {"Published"},
		"content":  {"# hi"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decodeData[model.BlogPost](t, w)
	require.Equal(t, "hello-world", post.Slug)

	w = b.get("/blog/hello-world")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "hi</h1>")

	w = b.json(http.MethodPost, "/admin/skills", `{"category":"Cloud","items":"GCP, AWS"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	skill := decodeData[model.Skill](t, w)
	require.Equal(t, []string{"GCP", "AWS"}, skill.Items)

	w = b.get("/admin/skills/999")
	require.Equal(t, http.StatusNotFound, w.Code)

	cats := decodeData[map[string][]string](t, b.get("/admin/categories"))
	require.Equal(t, []string{"Draft", "Published"}, cats["statuses"])
}

func TestAdminProfileAndSettings(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)
	b.login()

	profile := decodeData[model.ProfileInfo](t, b.get("/admin/profile"))
	profile.Title = "Staff Engineer"
	body, err := json.Marshal(profile)
	require.NoError(t, err)
	w := b.json(http.MethodPut, "/admin/profile", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = b.get("/")
	require.Contains(t, w.Body.String(), "Staff Engineer")

	settings := decodeData[model.SiteSettings](t, b.get("/admin/settings"))
	body, err = json.Marshal(settings)
	require.NoError(t, err)
	w = b.json(http.MethodPut, "/admin/settings", string(body))
	require.Equal(t, http.StatusOK, w.Code)

	// the seeded CV has no stored file
	w = b.get("/cv/" + profile.CV.FileName)
	require.Equal(t, http.StatusNotFound, w.Code)
	w = b.get("/cv/other.pdf")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminExportAndFlush(t *testing.T) {
	env := newTestEnv(t, true)
	b := env.browser(t)
	b.login()

	w := b.get("/admin/export")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), exportFileName)
	var snap map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Contains(t, snap, "projects")

	w = b.do(http.MethodPost, "/admin/flush", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[map[string]bool](t, w)
	require.False(t, got["pending"])

	msgs := decodeData[[]contact.Message](t, b.get("/admin/messages"))
	require.Empty(t, msgs)
}

func TestContact(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	relaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer relaySrv.Close()

	relay, err := contact.NewRelay(relaySrv.URL, time.Second)
	require.NoError(t, err)
	svc, err := contact.New(contact.WithRelay(relay))
	require.NoError(t, err)

	env := newTestEnv(t, true, WithContact(svc))
	b := env.browser(t)

	w := b.json(http.MethodPost, "/api/contact", `{"name":"A","email":"a@example.com","message":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = b.json(http.MethodPost, "/api/contact", `{"name":"A","email":"nope","message":"hi"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = b.form("/contact", url.Values{"name": {"A"}, "email": {"a@example.com"}, "message": {"hello"}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Message sent!")

	status.Store(http.StatusInternalServerError)
	w = b.form("/contact", url.Values{"name": {"A"}, "email": {"a@example.com"}, "message": {"kept text"}})
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), "There was a problem sending your message.")
	require.Contains(t, w.Body.String(), "kept text", "form values survive a failure")

	w = b.json(http.MethodPost, "/api/contact", `{"name":"A","email":"a@example.com","message":"hi"}`)
	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestContactDisabled(t *testing.T) {
	env := newTestEnv(t, true)
	w := env.browser(t).json(http.MethodPost, "/api/contact", `{"name":"A","email":"a@example.com","message":"hi"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestContactThrottled(t *testing.T) {
	relaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer relaySrv.Close()

	relay, err := contact.NewRelay(relaySrv.URL, time.Second)
	require.NoError(t, err)
	svc, err := contact.New(contact.WithRelay(relay))
	require.NoError(t, err)
	limiter, err := throttle.New(throttle.Config{TotalPerHour: 60, TotalBurst: 10, EachPerHour: 1, EachBurst: 1})
	require.NoError(t, err)

	b := newTestEnv(t, true, WithContact(svc), WithContactThrottle(limiter)).browser(t)

	w := b.json(http.MethodPost, "/api/contact", `{"name":"A","email":"a@example.com","message":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = b.json(http.MethodPost, "/api/contact", `{"name":"A","email":"a@example.com","message":"again"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Contains(t, w.Body.String(), "too many messages")

	w = b.form("/contact", url.Values{"name": {"A"}, "email": {"a@example.com"}, "message": {"form"}})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Contains(t, w.Body.String(), "too many messages")
}

func TestLiveHub(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	store, err := dao.New(storage.NewMemory(), dao.WithSaveDebounce(time.Hour))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	hub, err := NewLiveHub(store, nil, log.Logger)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/live", hub.Serve)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/live", nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	store.SetSkills(nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var change dao.Change
	require.NoError(t, conn.ReadJSON(&change))
	require.Equal(t, dao.CollectionSkills, change.Collection)

	hub.Close()
	_, _, err = conn.ReadMessage()
	require.Error(t, err, "clients are disconnected on close")
	require.Zero(t, hub.Clients())
}

// Package session ties a visitor to server side state through a signed cookie,
// and gates the admin pages behind a password login.
package session

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Laisky/laisky-portfolio/library/jwt"
	"github.com/Laisky/laisky-portfolio/library/log"
	"github.com/Laisky/laisky-portfolio/library/storage"
)

const (
	// CookieName carries the signed session id
	CookieName = "portfolio_session"
	// KeyAuthenticated is "true" once the session logged in as admin
	KeyAuthenticated = "isAuthenticated"
	// LoginPath is where unauthenticated admin page requests are sent
	LoginPath = "/admin/login"

	ginCtxKey  = "portfolio_session"
	defaultTTL = 24 * time.Hour
)

// Session is the server side state of one visitor
type Session struct {
	*storage.Namespace
	ID string
}

// IsAdmin reports whether the session logged in as admin
func (s *Session) IsAdmin(ctx context.Context) bool {
	v, err := s.Get(ctx, KeyAuthenticated)
	return err == nil && v == "true"
}

type option struct {
	ttl           time.Duration
	cookieDomain  string
	secure        bool
	adminPassword string
	logger        logSDK.Logger
}

// Option configures a Manager
type Option func(*option) error

// WithTTL sets how long session keys live, default 24h
func WithTTL(ttl time.Duration) Option {
	return func(o *option) error {
		if ttl <= 0 {
			return errors.Errorf("ttl must be positive, got %s", ttl)
		}
		o.ttl = ttl
		return nil
	}
}

// WithCookieDomain sets the cookie domain
func WithCookieDomain(domain string) Option {
	return func(o *option) error {
		o.cookieDomain = domain
		return nil
	}
}

// WithSecure marks the cookie https only
func WithSecure(secure bool) Option {
	return func(o *option) error {
		o.secure = secure
		return nil
	}
}

// WithAdminPassword sets the admin password. Without it every login fails.
func WithAdminPassword(password string) Option {
	return func(o *option) error {
		o.adminPassword = password
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(logger logSDK.Logger) Option {
	return func(o *option) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// Manager issues session cookies and resolves them to Sessions
type Manager struct {
	opt     *option
	backend storage.Backend
	signer  *jwt.JWT
}

// NewManager creates a Manager storing session state in backend
func NewManager(backend storage.Backend, signer *jwt.JWT, opts ...Option) (*Manager, error) {
	if backend == nil || signer == nil {
		return nil, errors.New("backend and signer are required")
	}

	opt := &option{
		ttl:    defaultTTL,
		logger: log.Logger.Named("session"),
	}
	for _, f := range opts {
		if err := f(opt); err != nil {
			return nil, errors.Wrap(err, "apply option")
		}
	}

	return &Manager{opt: opt, backend: backend, signer: signer}, nil
}

// Open returns the session with id
func (m *Manager) Open(id string) *Session {
	return &Session{
		Namespace: storage.SessionNamespace(m.backend, id, m.opt.ttl),
		ID:        id,
	}
}

// Middleware attaches a Session to every request, starting a new one
// when the cookie is missing or does not verify
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ginCtxKey, m.resolve(c))
		c.Next()
	}
}

func (m *Manager) resolve(c *gin.Context) *Session {
	logger := m.logFromCtx(c)
	if raw, err := c.Cookie(CookieName); err == nil && raw != "" {
		claims, err := m.signer.Parse(raw)
		if err == nil {
			return m.Open(claims.Subject)
		}
		logger.Debug("drop invalid session cookie", zap.Error(err))
	}

	sess := m.Open(uuid.NewString())
	token, err := m.signer.Sign(sess.ID, m.opt.ttl)
	if err != nil {
		// the session still serves this request
		logger.Error("sign session token", zap.Error(err))
		return sess
	}

	// max age 0 leaves it a browser session cookie
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, 0, "/", m.opt.cookieDomain, m.opt.secure, true)
	return sess
}

func (m *Manager) logFromCtx(c *gin.Context) logSDK.Logger {
	if logger := gmw.GetLogger(c); logger != nil {
		return logger.Named("session")
	}
	return m.opt.logger
}

// FromContext returns the Session attached by Middleware, or nil
func FromContext(c *gin.Context) *Session {
	v, ok := c.Get(ginCtxKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}

// RequireAdmin aborts requests whose session is not logged in.
// GET and HEAD are redirected to the login page, other methods get 401.
// The login page itself is always let through.
func (m *Manager) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == LoginPath {
			c.Next()
			return
		}

		if sess := FromContext(c); sess != nil && sess.IsAdmin(c.Request.Context()) {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead:
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrUnauthorized.Error()})
		}
	}
}

// Login marks sess as admin when password matches
func (m *Manager) Login(ctx context.Context, sess *Session, password string) error {
	if sess == nil {
		return errors.New("no session")
	}
	if m.opt.adminPassword == "" {
		m.opt.logger.Warn("admin password not configured, reject login")
		return ErrUnauthorized
	}

	// hash first so the comparison does not leak the length
	got := sha256.Sum256([]byte(password))
	want := sha256.Sum256([]byte(m.opt.adminPassword))
	if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
		return ErrUnauthorized
	}

	if err := sess.Set(ctx, KeyAuthenticated, "true"); err != nil {
		return errors.Wrap(err, "save session")
	}

	m.opt.logger.Info("admin logged in", zap.String("session", sess.ID))
	return nil
}

// Logout clears the admin flag of sess
func (m *Manager) Logout(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	if err := sess.Del(ctx, KeyAuthenticated); err != nil {
		return errors.Wrap(err, "clear session")
	}
	return nil
}

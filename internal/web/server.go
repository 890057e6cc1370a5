// Package web assembles the gin server of the portfolio
package web

import (
	"context"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/controller"
	"github.com/Laisky/laisky-portfolio/internal/web/session"
	"github.com/Laisky/laisky-portfolio/library/log"
)

const (
	defaultAddr            = "localhost:8080"
	defaultShutdownTimeout = 10 * time.Second
	corsAllowMethods       = "GET, POST, PUT, DELETE, OPTIONS, HEAD"
	corsMaxAge             = "86400" // 24 hours
)

type option struct {
	addr            string
	allowedOrigins  []string
	mcp             http.Handler
	shutdownTimeout time.Duration
	logger          logSDK.Logger
}

// Option configures a Server
type Option func(*option) error

// WithAddr sets the listen address
func WithAddr(addr string) Option {
	return func(o *option) error {
		if strings.TrimSpace(addr) == "" {
			return errors.New("addr cannot be empty")
		}
		o.addr = addr
		return nil
	}
}

// WithAllowedOrigins sets the CORS allow list. Entries are domains,
// which also match their subdomains, or CIDR ranges matching IP origins.
func WithAllowedOrigins(origins []string) Option {
	return func(o *option) error {
		o.allowedOrigins = origins
		return nil
	}
}

// WithMCP mounts an MCP handler at /mcp
func WithMCP(h http.Handler) Option {
	return func(o *option) error {
		o.mcp = h
		return nil
	}
}

// WithShutdownTimeout bounds the graceful shutdown
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *option) error {
		if d <= 0 {
			return errors.Errorf("shutdown timeout must be positive, got %s", d)
		}
		o.shutdownTimeout = d
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

// Server is the http server of the site
type Server struct {
	opt    *option
	engine *gin.Engine
}

// NewServer builds the gin engine with every route mounted
func NewServer(ctl *controller.Controller, sessions *session.Manager, opts ...Option) (*Server, error) {
	if ctl == nil || sessions == nil {
		return nil, errors.New("controller and sessions are required")
	}

	opt := &option{
		addr:            defaultAddr,
		shutdownTimeout: defaultShutdownTimeout,
		logger:          log.Logger.Named("web"),
	}
	for _, f := range opts {
		if err := f(opt); err != nil {
			return nil, errors.Wrap(err, "apply option")
		}
	}

	cors, err := newCORSMiddleware(opt.allowedOrigins)
	if err != nil {
		return nil, errors.Wrap(err, "parse allowed origins")
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLogger(opt.logger.Named("gin")),
		),
		cors,
	)

	// routes without a visitor session
	status := newStatusHandler()
	engine.GET("/health", status)
	engine.HEAD("/health", status)
	engine.OPTIONS("/health", status)
	if opt.mcp != nil {
		engine.Any("/mcp", gin.WrapH(opt.mcp))
	}

	engine.Use(sessions.Middleware())
	ctl.Register(engine)

	return &Server{opt: opt, engine: engine}, nil
}

// Handler returns the root handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opt.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opt.logger.Info("listening on http", zap.String("addr", s.opt.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server exit")
	case <-ctx.Done():
	}

	s.opt.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opt.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server exit")
	}
	return nil
}

// newStatusHandler answers liveness probes
func newStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Allow", "GET, HEAD, OPTIONS")
		if c.Request.Method == http.MethodGet {
			c.String(http.StatusOK, "ok")
			return
		}
		c.Status(http.StatusOK)
	}
}

type originPolicy struct {
	domains  []string
	prefixes []netip.Prefix
}

func parseOriginPolicy(allowed []string) (*originPolicy, error) {
	p := &originPolicy{}
	for _, raw := range allowed {
		entry := strings.ToLower(strings.TrimSpace(raw))
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, errors.Wrapf(err, "parse cidr %q", raw)
			}
			p.prefixes = append(p.prefixes, prefix.Masked())
			continue
		}

		entry = strings.TrimPrefix(strings.TrimPrefix(entry, "*"), ".")
		p.domains = append(p.domains, entry)
	}
	return p, nil
}

func (p *originPolicy) allow(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		for _, prefix := range p.prefixes {
			if prefix.Contains(addr) {
				return true
			}
		}
		return false
	}

	for _, domain := range p.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// OriginChecker returns a websocket origin check accepting requests
// without Origin, same host requests and the configured origins.
func OriginChecker(allowed []string) (func(r *http.Request) bool, error) {
	policy, err := parseOriginPolicy(allowed)
	if err != nil {
		return nil, err
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		return policy.allow(origin)
	}, nil
}

// newCORSMiddleware echoes allowed origins with credentials.
// Preflights from other origins are rejected.
func newCORSMiddleware(allowed []string) (gin.HandlerFunc, error) {
	policy, err := parseOriginPolicy(allowed)
	if err != nil {
		return nil, err
	}

	return func(ctx *gin.Context) {
		origin := strings.TrimSpace(ctx.Request.Header.Get("Origin"))
		isPreflight := ctx.Request.Method == http.MethodOptions

		switch {
		case origin == "" && isPreflight && ctx.Request.Header.Get("Origin") == "":
			ctx.Header("Access-Control-Allow-Origin", "*")
			ctx.Header("Access-Control-Allow-Methods", corsAllowMethods)
			ctx.Header("Access-Control-Allow-Headers", "*")
			ctx.Header("Access-Control-Max-Age", corsMaxAge)
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		case origin != "" && policy.allow(origin):
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Access-Control-Allow-Credentials", "true")
			ctx.Header("Access-Control-Allow-Methods", corsAllowMethods)
			ctx.Header("Access-Control-Allow-Headers", "*")
			ctx.Header("Access-Control-Max-Age", corsMaxAge)
			ctx.Header("Vary", "Origin")
			if isPreflight {
				ctx.AbortWithStatus(http.StatusNoContent)
				return
			}
		case origin != "" && isPreflight:
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		ctx.Next()
	}, nil
}

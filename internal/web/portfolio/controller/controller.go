// Package controller serves the portfolio over http: the public pages,
// the public json api and the admin api.
package controller

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-portfolio/internal/web/contact"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/service"
	"github.com/Laisky/laisky-portfolio/internal/web/render"
	"github.com/Laisky/laisky-portfolio/internal/web/session"
	"github.com/Laisky/laisky-portfolio/library/log"
	"github.com/Laisky/laisky-portfolio/library/throttle"
)

var (
	errContactDisabled  = errors.New("contact form is disabled")
	errContactThrottled = errors.New("too many messages, please try again later")
)

// TemplateFuncs are the helpers the page templates rely on
var TemplateFuncs = template.FuncMap{
	"markdown": service.RenderContent,
}

type option struct {
	contact  *contact.Service
	throttle *throttle.Throttle
	live     *LiveHub
	adminApp http.Handler
	logger   logSDK.Logger
}

// Option configures a Controller
type Option func(*option) error

// WithContact enables the contact form
func WithContact(svc *contact.Service) Option {
	return func(o *option) error {
		o.contact = svc
		return nil
	}
}

// WithContactThrottle limits contact submissions per client ip
func WithContactThrottle(t *throttle.Throttle) Option {
	return func(o *option) error {
		o.throttle = t
		return nil
	}
}

// WithLiveHub serves the admin change feed
func WithLiveHub(hub *LiveHub) Option {
	return func(o *option) error {
		o.live = hub
		return nil
	}
}

// WithAdminApp serves the admin single page app under /admin/app/
func WithAdminApp(h http.Handler) Option {
	return func(o *option) error {
		o.adminApp = h
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

// Controller holds the http handlers
type Controller struct {
	opt      *option
	svc      *service.Service
	sessions *session.Manager
	pages    *render.Renderer
}

// New creates a Controller
func New(svc *service.Service, sessions *session.Manager, pages *render.Renderer, opts ...Option) (*Controller, error) {
	if svc == nil || sessions == nil || pages == nil {
		return nil, errors.New("service, sessions and pages are required")
	}

	opt := &option{logger: log.Logger.Named("portfolio_controller")}
	for _, f := range opts {
		if err := f(opt); err != nil {
			return nil, errors.Wrap(err, "apply option")
		}
	}

	return &Controller{opt: opt, svc: svc, sessions: sessions, pages: pages}, nil
}

// Register mounts every route on r. The session middleware must already
// be installed on r.
func (ctl *Controller) Register(r *gin.Engine) {
	pages := r.Group("/", ctl.waitLoaded, ctl.countPageView)
	pages.GET("/", ctl.HomePage)
	pages.GET("/projects", ctl.ProjectsPage)
	pages.GET("/blog", ctl.BlogPage)
	pages.GET("/blog/:slug", ctl.PostPage)
	pages.GET("/contact", ctl.ContactPage)
	pages.POST("/contact", ctl.SubmitContactPage)
	pages.GET("/cv", ctl.CVPage)
	pages.GET("/cv/:name", ctl.CVFile)

	api := r.Group("/api")
	api.GET("/projects", ctl.APIProjects)
	api.GET("/blog", ctl.APIBlogPosts)
	api.GET("/blog/:slug", ctl.APIBlogPost)
	api.GET("/skills", ctl.APISkills)
	api.GET("/profile", ctl.APIProfile)
	api.GET("/settings", ctl.APISettings)
	api.POST("/contact", ctl.APIContact)

	admin := r.Group("/admin", ctl.sessions.RequireAdmin())
	admin.GET("/login", ctl.LoginPage)
	admin.POST("/login", ctl.Login)
	admin.POST("/logout", ctl.Logout)
	admin.GET("", ctl.AdminDashboard)
	admin.GET("/categories", ctl.AdminCategories)

	admin.GET("/projects", ctl.AdminListProjects)
	admin.POST("/projects", ctl.AdminAddProject)
	admin.GET("/projects/:id", ctl.AdminGetProject)
	admin.PUT("/projects/:id", ctl.AdminEditProject)
	admin.DELETE("/projects/:id", ctl.AdminDeleteProject)

	admin.GET("/blog", ctl.AdminListBlogPosts)
	admin.POST("/blog", ctl.AdminAddBlogPost)
	admin.GET("/blog/:id", ctl.AdminGetBlogPost)
	admin.PUT("/blog/:id", ctl.AdminEditBlogPost)
	admin.DELETE("/blog/:id", ctl.AdminDeleteBlogPost)

	admin.GET("/skills", ctl.AdminListSkills)
	admin.POST("/skills", ctl.AdminAddSkill)
	admin.GET("/skills/:id", ctl.AdminGetSkill)
	admin.PUT("/skills/:id", ctl.AdminEditSkill)
	admin.DELETE("/skills/:id", ctl.AdminDeleteSkill)

	admin.GET("/profile", ctl.AdminGetProfile)
	admin.PUT("/profile", ctl.AdminUpdateProfile)
	admin.POST("/profile/cv", ctl.AdminUploadCV)
	admin.DELETE("/profile/cv", ctl.AdminRemoveCV)
	admin.GET("/settings", ctl.AdminGetSettings)
	admin.PUT("/settings", ctl.AdminUpdateSettings)

	admin.GET("/messages", ctl.AdminMessages)
	admin.GET("/export", ctl.AdminExport)
	admin.POST("/flush", ctl.AdminFlush)
	if ctl.opt.live != nil {
		admin.GET("/live", ctl.opt.live.Serve)
	}
	if ctl.opt.adminApp != nil {
		app := gin.WrapH(http.StripPrefix("/admin/app", ctl.opt.adminApp))
		admin.GET("/app/*filepath", app)
		admin.HEAD("/app/*filepath", app)
	}

	r.NoRoute(ctl.NotFoundPage)
}

func (ctl *Controller) logFromCtx(c *gin.Context) logSDK.Logger {
	if logger := gmw.GetLogger(c); logger != nil {
		return logger.Named("portfolio")
	}
	return ctl.opt.logger
}

// statusOf maps a service error to an http status
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, service.ErrNoCV):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidDraft),
		errors.Is(err, service.ErrInvalidCV),
		errors.Is(err, service.ErrInvalidProfile),
		errors.Is(err, contact.ErrInvalidMessage):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, contact.ErrRelayFailed):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrFilesDisabled),
		errors.Is(err, errContactDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, errContactThrottled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as {"error": ...}. Internal errors are logged
// and hidden from the client.
func (ctl *Controller) abortWithError(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	logger := ctl.logFromCtx(c)
	switch {
	case status >= http.StatusInternalServerError && status != http.StatusBadGateway:
		logger.Error("handle request", zap.Error(err))
		msg = http.StatusText(status)
	case status == http.StatusBadGateway:
		logger.Warn("handle request", zap.Error(err))
		msg = contact.ErrRelayFailed.Error()
	default:
		logger.Debug("reject request", zap.Int("status", status), zap.Error(err))
	}

	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (ctl *Controller) badRequest(c *gin.Context, err error) {
	ctl.logFromCtx(c).Debug("bad request", zap.Error(err))
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func paramID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

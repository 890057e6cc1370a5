package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-portfolio/internal/mcp"
	"github.com/Laisky/laisky-portfolio/internal/web"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/controller"
	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/service"
	"github.com/Laisky/laisky-portfolio/internal/web/render"
	"github.com/Laisky/laisky-portfolio/internal/web/session"
	"github.com/Laisky/laisky-portfolio/library/jwt"
	"github.com/Laisky/laisky-portfolio/library/log"
)

const storeCloseTimeout = 10 * time.Second

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `run the portfolio http server`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
		if err := validateAPIConfig(func(key string) any {
			return gconfig.Shared.Get(key)
		}); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := runAPI(ctx); err != nil {
			log.Logger.Panic("run api", zap.Error(err))
		}
	},
}

func init() {
	rootCMD.AddCommand(apiCMD)
}

// runAPI wires every component and serves until ctx is done
func runAPI(ctx context.Context) error {
	logger := log.Logger.Named("api")
	s := gconfig.Shared

	store, backend, err := openStore(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	store.Start(ctx)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), storeCloseTimeout)
		defer cancel()

		// pending edits are written before the backend goes away
		if err := store.Close(closeCtx); err != nil {
			logger.Error("close store", zap.Error(err))
		}
		if err := backend.Close(closeCtx); err != nil {
			logger.Error("close storage backend", zap.Error(err))
		}
	}()

	files, err := openFiles()
	if err != nil {
		return errors.WithStack(err)
	}
	svc, err := service.New(store, files, log.Logger.Named("portfolio"), nil)
	if err != nil {
		return errors.Wrap(err, "new portfolio service")
	}

	signer, err := jwt.New([]byte(s.GetString("settings.secret")))
	if err != nil {
		return errors.Wrap(err, "new jwt")
	}
	sessOpts := []session.Option{
		session.WithAdminPassword(s.GetString("settings.admin.password")),
		session.WithSecure(s.GetBool("settings.session.secure")),
		session.WithLogger(log.Logger.Named("session")),
	}
	if hours := s.GetInt("settings.session.ttl_hours"); hours > 0 {
		sessOpts = append(sessOpts, session.WithTTL(time.Duration(hours)*time.Hour))
	}
	if domain := s.GetString("settings.session.cookie_domain"); domain != "" {
		sessOpts = append(sessOpts, session.WithCookieDomain(domain))
	}
	sessions, err := session.NewManager(backend, signer, sessOpts...)
	if err != nil {
		return errors.Wrap(err, "new session manager")
	}

	pages, err := render.New(s.GetString("settings.web.templates_dir"),
		controller.TemplateFuncs, log.Logger.Named("render"))
	if err != nil {
		return errors.Wrap(err, "load templates")
	}
	if err = pages.Watch(ctx); err != nil {
		// edits need a restart, the loaded templates keep working
		logger.Warn("watch templates", zap.Error(err))
	}

	allowedOrigins := s.GetStringSlice("settings.web.allowed_origins")
	checkOrigin, err := web.OriginChecker(allowedOrigins)
	if err != nil {
		return errors.Wrap(err, "parse allowed origins")
	}
	hub, err := controller.NewLiveHub(store, checkOrigin, log.Logger.Named("live"))
	if err != nil {
		return errors.Wrap(err, "new live hub")
	}
	defer hub.Close()

	ctlOpts := []controller.Option{
		controller.WithLiveHub(hub),
		controller.WithLogger(log.Logger.Named("portfolio_controller")),
	}
	contactSvc, err := openContact(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if contactSvc != nil {
		limiter, err := newContactThrottle()
		if err != nil {
			return errors.WithStack(err)
		}
		ctlOpts = append(ctlOpts,
			controller.WithContact(contactSvc),
			controller.WithContactThrottle(limiter),
		)
	}
	adminApp, err := web.NewAdminApp(s.GetString("settings.web.admin_dist"), log.Logger.Named("admin_app"))
	if err != nil {
		return errors.Wrap(err, "load admin app")
	}
	if adminApp != nil {
		ctlOpts = append(ctlOpts, controller.WithAdminApp(adminApp))
	}

	ctl, err := controller.New(svc, sessions, pages, ctlOpts...)
	if err != nil {
		return errors.Wrap(err, "new controller")
	}

	srvOpts := []web.Option{
		web.WithAddr(s.GetString("listen")),
		web.WithAllowedOrigins(allowedOrigins),
		web.WithLogger(log.Logger.Named("web")),
	}
	if s.GetBool("settings.mcp.enabled") {
		mcpServer, err := mcp.NewServer(svc, log.Logger)
		if err != nil {
			return errors.Wrap(err, "new mcp server")
		}
		logger.Info("mcp enabled", zap.Strings("tools", mcpServer.ToolNames()))
		srvOpts = append(srvOpts, web.WithMCP(mcpServer.Handler()))
	}

	server, err := web.NewServer(ctl, sessions, srvOpts...)
	if err != nil {
		return errors.Wrap(err, "new server")
	}

	return errors.WithStack(server.Run(ctx))
}

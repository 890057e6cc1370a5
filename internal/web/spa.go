package web

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
)

// adminDistEnvKey overrides settings.web.admin_dist
const adminDistEnvKey = "PORTFOLIO_ADMIN_DIST_DIR"

type spaHandler struct {
	root   string
	index  []byte
	logger logSDK.Logger
}

// NewAdminApp serves the admin single page app built into dir.
// Unknown paths without an extension fall back to index.html so the
// client router can resolve them. It returns nil when no build is found.
func NewAdminApp(dir string, logger logSDK.Logger) (http.Handler, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	distDir := locateAdminDist(dir, logger)
	if distDir == "" {
		return nil, nil
	}

	indexPath := filepath.Join(distDir, "index.html")
	indexBytes, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read admin index %q", indexPath)
	}

	return &spaHandler{
		root:   distDir,
		index:  indexBytes,
		logger: logger,
	}, nil
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	requestPath := r.URL.Path
	if strings.Contains(requestPath, "..") {
		h.logger.Warn("reject potential path traversal", zap.String("path", requestPath))
		http.NotFound(w, r)
		return
	}

	clean := strings.TrimPrefix(filepath.Clean("/"+requestPath), "/")
	if clean == "" {
		h.serveIndex(w, r)
		return
	}

	fsPath := filepath.Join(h.root, clean)
	info, err := os.Stat(fsPath)
	if err == nil && !info.IsDir() {
		http.ServeFile(w, r, fsPath)
		return
	}

	// a missing asset is a 404, like plain static hosting
	if strings.Contains(filepath.Base(clean), ".") {
		h.logger.Debug("admin asset not found", zap.String("path", requestPath))
		http.NotFound(w, r)
		return
	}

	h.serveIndex(w, r)
}

func (h *spaHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(h.index); err != nil {
		h.logger.Warn("write admin index", zap.Error(err))
	}
}

func locateAdminDist(configured string, logger logSDK.Logger) string {
	var candidates []string
	if override := strings.TrimSpace(os.Getenv(adminDistEnvKey)); override != "" {
		candidates = append(candidates, override)
	}
	if configured = strings.TrimSpace(configured); configured != "" {
		candidates = append(candidates, configured)
	}
	if exePath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exePath), "admin", "dist"))
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logger.Debug("inspect admin dist", zap.Error(err), zap.String("path", candidate))
			}
			continue
		}
		if info.IsDir() {
			logger.Info("admin assets located", zap.String("path", candidate))
			return candidate
		}
	}

	logger.Info("admin assets not found, admin app disabled", zap.String("env", adminDistEnvKey))
	return ""
}

// Package render executes the html templates of the public site.
//
// Templates are embedded in the binary. When a directory is given they are
// read from it instead, and Watch reloads them whenever a file changes.
package render

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/fsnotify/fsnotify"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
	"github.com/Laisky/laisky-portfolio/library/log"
)

const reloadDebounce = 200 * time.Millisecond

//go:embed templates/*.html
var embedded embed.FS

// Page is what every template receives. Body is the page specific data.
type Page struct {
	Title   string
	Path    string
	Site    model.SiteSettings
	Profile model.ProfileInfo
	Loading bool
	Flash   string
	Error   string
	// Back is the link of the not found page
	Back string
	Year int
	Body any
}

// Renderer holds the parsed templates
type Renderer struct {
	dir    string
	funcs  template.FuncMap
	logger logSDK.Logger

	mu   sync.RWMutex
	tmpl *template.Template
}

// New parses the templates in dir, or the embedded ones when dir is empty
func New(dir string, funcs template.FuncMap, logger logSDK.Logger) (*Renderer, error) {
	if logger == nil {
		logger = log.Logger.Named("render")
	}

	r := &Renderer{dir: dir, funcs: funcs, logger: logger}
	if err := r.Reload(); err != nil {
		return nil, errors.WithStack(err)
	}
	return r, nil
}

func (r *Renderer) source() (fs.FS, error) {
	if r.dir == "" {
		return fs.Sub(embedded, "templates")
	}
	return os.DirFS(r.dir), nil
}

// Reload parses the templates again. On error the previous set stays in use.
func (r *Renderer) Reload() error {
	fsys, err := r.source()
	if err != nil {
		return errors.Wrap(err, "open templates")
	}

	tmpl, err := template.New("").Funcs(r.funcs).ParseFS(fsys, "*.html")
	if err != nil {
		return errors.Wrap(err, "parse templates")
	}

	r.mu.Lock()
	r.tmpl = tmpl
	r.mu.Unlock()
	return nil
}

// Render executes template name into w. Nothing is written when it fails.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	r.mu.RLock()
	tmpl := r.tmpl
	r.mu.RUnlock()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return errors.Wrapf(err, "execute template %q", name)
	}

	_, err := buf.WriteTo(w)
	return errors.Wrap(err, "write page")
}

// Watch reloads the templates after changes in the template directory
// until ctx is done. It returns immediately for embedded templates.
func (r *Renderer) Watch(ctx context.Context) error {
	if r.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "new watcher")
	}
	if err = watcher.Add(r.dir); err != nil {
		_ = watcher.Close()
		return errors.Wrapf(err, "watch %q", r.dir)
	}

	r.logger.Info("watching templates", zap.String("dir", r.dir))
	go r.watchLoop(ctx, watcher)
	return nil
}

func (r *Renderer) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() { _ = watcher.Close() }()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".html") ||
				!event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) {
				continue
			}

			// editors write in bursts
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				if err := r.Reload(); err != nil {
					r.logger.Error("reload templates, keep previous", zap.Error(err))
					return
				}
				r.logger.Info("templates reloaded", zap.String("trigger", event.Name))
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("template watcher", zap.Error(err))
		}
	}
}

// embeddedFiles returns the embedded templates by file name
func embeddedFiles() (map[string][]byte, error) {
	out := map[string][]byte{}
	err := fs.WalkDir(embedded, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := embedded.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.Base(path)] = raw
		return nil
	})
	return out, errors.WithStack(err)
}

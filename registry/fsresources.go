package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/modelctx/mcp-engine-go/mcp"
)

// DirResources exposes the files under a root directory as a resource
// template "<scheme>://{+path}". Reads are served from an in-memory cache
// that is invalidated by filesystem change events, so repeated reads of
// unchanged files never touch the disk.
type DirResources struct {
	root   string
	scheme string
	log    *slog.Logger

	mu    sync.RWMutex
	cache map[string]string // relative path -> contents
}

// DirOption configures NewDirResources.
type DirOption func(*DirResources)

// WithDirScheme overrides the URI scheme (default "file").
func WithDirScheme(scheme string) DirOption {
	return func(d *DirResources) {
		if scheme != "" {
			d.scheme = scheme
		}
	}
}

// WithDirLogger overrides the logger used for watch diagnostics.
func WithDirLogger(l *slog.Logger) DirOption {
	return func(d *DirResources) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDirResources builds a directory-backed resource provider rooted at root.
// The root must exist and be a directory.
func NewDirResources(root string, opts ...DirOption) (*DirResources, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root %q: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", abs)
	}
	d := &DirResources{
		root:   abs,
		scheme: "file",
		log:    slog.Default(),
		cache:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Template returns the registerable resource template for this provider.
func (d *DirResources) Template() ResourceTemplate {
	return ResourceTemplate{
		Name:        d.scheme + "-directory",
		URITemplate: d.scheme + "://{+path}",
		Description: "Files under " + d.root,
		MimeType:    "text/plain",
		Handler:     d.read,
	}
}

func (d *DirResources) read(ctx context.Context, req *ResourceRequest) ([]mcp.ResourceContents, error) {
	rel := path.Clean(req.Var("path"))
	if rel == "." || rel == "" || strings.HasPrefix(rel, "..") || path.IsAbs(rel) {
		return nil, &NotFoundError{Kind: "resource", Name: req.URI}
	}

	d.mu.RLock()
	text, ok := d.cache[rel]
	d.mu.RUnlock()
	if ok {
		return TextResource(req.URI, text), nil
	}

	b, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(rel)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "resource", Name: req.URI}
		}
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	text = string(b)

	d.mu.Lock()
	d.cache[rel] = text
	d.mu.Unlock()
	return TextResource(req.URI, text), nil
}

// Watch starts a filesystem watcher over the root tree and invalidates
// cached contents as files change. It blocks until ctx is canceled or the
// watcher fails. Callers that do not need live invalidation can skip it; the
// cache then grows monotonically for the process lifetime.
func (d *DirResources) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Close()

	err = filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", d.root, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			d.handleEvent(w, ev)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.log.Debug("fswatch.error", slog.String("err", err.Error()))
		}
	}
}

func (d *DirResources) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event) {
	rel, err := filepath.Rel(d.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.Add(ev.Name); err != nil {
				d.log.Debug("fswatch.add.fail", slog.String("dir", ev.Name), slog.String("err", err.Error()))
			}
		}
	}
	if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename|fsnotify.Chmod) != 0 || ev.Op&fsnotify.Create != 0 {
		d.mu.Lock()
		delete(d.cache, rel)
		d.mu.Unlock()
		d.log.Debug("fswatch.invalidate", slog.String("path", rel))
	}
}

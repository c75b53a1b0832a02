// Package report renders the static season site from a dataset.
package report

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/brianbrunner/just2guys/dataset"
	"github.com/brianbrunner/just2guys/records"
	"github.com/brianbrunner/just2guys/rivalry"
	"github.com/brianbrunner/just2guys/storage"
)

//go:embed templates/*.html
var embedded embed.FS

const (
	pageIndex   = "index"
	pageLeague  = "league"
	pageTeam    = "team"
	pageMatchup = "matchup"
	pageManager = "manager"
	pageRivalry = "rivalry"
	pageRecords = "records"
)

var pageNames = []string{pageIndex, pageLeague, pageTeam, pageMatchup, pageManager, pageRivalry, pageRecords}

type Options struct {
	// TemplateDir overrides the embedded templates when set. It must hold
	// layout.html plus one file per page.
	TemplateDir string
	// BasePath prefixes every generated link. Defaults to "/".
	BasePath string
}

type Renderer struct {
	uploader storage.FileUploader
	logger   *slog.Logger
	opts     Options
}

func NewRenderer(uploader storage.FileUploader, logger *slog.Logger, opts Options) *Renderer {
	if opts.BasePath == "" {
		opts.BasePath = "/"
	}
	if !strings.HasSuffix(opts.BasePath, "/") {
		opts.BasePath += "/"
	}
	return &Renderer{uploader: uploader, logger: logger, opts: opts}
}

type artifact struct {
	key  string
	page string
	data any
}

// Render writes every page of the site and returns how many artifacts were
// written. Templates are parsed on each call so edits to TemplateDir show up
// on the next render.
func (r *Renderer) Render(ctx context.Context, ds *dataset.Dataset) (int, error) {
	rivalries := rivalry.Aggregate(ds)
	tables := records.Build(ds, rivalries)

	pages, err := r.parse(ds)
	if err != nil {
		return 0, err
	}

	artifacts := buildArtifacts(ds, rivalries, tables)
	written := 0
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		var buf bytes.Buffer
		if err := pages[a.page].ExecuteTemplate(&buf, "layout.html", a.data); err != nil {
			return written, fmt.Errorf("failed to render %s: %w", a.key, err)
		}
		if _, err := r.uploader.Upload(ctx, a.key, storage.ContentTypeHTML, &buf); err != nil {
			return written, fmt.Errorf("failed to store %s: %w", a.key, err)
		}
		written++
	}

	r.logger.Info("report rendered", slog.Int("artifacts", written))
	return written, nil
}

func (r *Renderer) templateFS() (fs.FS, error) {
	if r.opts.TemplateDir != "" {
		return os.DirFS(r.opts.TemplateDir), nil
	}
	return fs.Sub(embedded, "templates")
}

func (r *Renderer) parse(ds *dataset.Dataset) (map[string]*template.Template, error) {
	fsys, err := r.templateFS()
	if err != nil {
		return nil, fmt.Errorf("failed to open templates: %w", err)
	}
	funcs := r.funcs(ds)

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys, "layout.html", name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

func (r *Renderer) funcs(ds *dataset.Dataset) template.FuncMap {
	base := r.opts.BasePath
	return template.FuncMap{
		"points": func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"optPoints": func(v *float64) string {
			if v == nil {
				return "-"
			}
			return fmt.Sprintf("%.2f", *v)
		},
		"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
		"home": func() string { return base },
		"url": func(kind, key string) string {
			return pageURL(base, kind, key)
		},
		"rivalryURL": func(managerKey, opponentKey string) string {
			return base + rivalryKey(managerKey, opponentKey)
		},
		"cellURL": func(c records.Cell) string {
			if c.Kind == records.KindPlayer || c.Kind == "" {
				return ""
			}
			return pageURL(base, c.Kind, c.Key)
		},
		"teamName": func(key string) string {
			if t, ok := ds.Team(key); ok {
				return t.Name
			}
			return key
		},
		"teamNamePtr": func(key *string) string {
			if key == nil {
				return "BYE"
			}
			if t, ok := ds.Team(*key); ok {
				return t.Name
			}
			return *key
		},
		"managerName": func(key string) string {
			if m, ok := ds.Manager(key); ok {
				return m.Nickname
			}
			return key
		},
		"managersOf": ds.ManagersOf,
	}
}

func pageURL(base, kind, key string) string {
	return base + kind + "s/" + key + ".html"
}

func rivalryKey(managerKey, opponentKey string) string {
	return "rivalries/" + managerKey + "/" + opponentKey + ".html"
}

// Package importer feeds recipe sources (local files, web pages, a Ghost blog
// and a watched drop directory) through AI extraction into the recipe library.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"pantry-planner/internal/app"
	"pantry-planner/internal/clipper"
	"pantry-planner/internal/ghost"
	"pantry-planner/internal/llm"
	"pantry-planner/internal/recipe"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrNoGhost         = errors.New("ghost blog is not configured")
	ErrNothingFound    = errors.New("no recipes found")
)

// Extractor pulls recipe drafts out of free text or a document.
type Extractor interface {
	ExtractRecipes(ctx context.Context, text string) ([]recipe.Draft, error)
	ExtractRecipesFromDocument(ctx context.Context, doc llm.Attachment) ([]recipe.Draft, error)
}

// Sink stores extracted drafts.
type Sink interface {
	ImportDrafts(ctx context.Context, source string, drafts []recipe.Draft) (app.ImportReport, error)
}

// PostSource lists blog posts.
type PostSource interface {
	FetchPosts(ctx context.Context, tag string) ([]ghost.Post, error)
}

// Importer runs imports.
type Importer struct {
	extractor Extractor
	sink      Sink
	clipper   *clipper.Clipper
	posts     PostSource
	logger    *zap.Logger
	debounce  time.Duration
}

// New creates an Importer. posts may be nil when no blog is configured.
func New(extractor Extractor, sink Sink, clip *clipper.Clipper, posts PostSource, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		extractor: extractor,
		sink:      sink,
		clipper:   clip,
		posts:     posts,
		logger:    logger,
		debounce:  time.Second,
	}
}

// Supported reports whether a file name has an importable extension.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".markdown", ".html", ".htm", ".pdf":
		return true
	}
	return false
}

// ImportFiles imports every file matching a doublestar pattern such as
// "recipes/**/*.{md,pdf}". A file that fails is recorded in the report and the
// rest continue; cancellation stops between files.
func (im *Importer) ImportFiles(ctx context.Context, pattern string) (app.ImportReport, error) {
	base, pat := doublestar.SplitPattern(filepath.ToSlash(pattern))
	matches, err := doublestar.Glob(os.DirFS(base), pat, doublestar.WithFilesOnly())
	if err != nil {
		return app.ImportReport{}, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return app.ImportReport{}, fmt.Errorf("%w: nothing matches %q", ErrNothingFound, pattern)
	}

	var report app.ImportReport
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		file := filepath.FromSlash(path.Join(base, m))
		r, err := im.ImportFile(ctx, file)
		report.Merge(r)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failures = append(report.Failures, app.ImportFailure{Source: file, Err: err})
		}
	}
	return report, nil
}

// ImportFile imports the recipes contained in one file.
func (im *Importer) ImportFile(ctx context.Context, file string) (app.ImportReport, error) {
	if !Supported(file) {
		return app.ImportReport{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(file))
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return app.ImportReport{}, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return im.ImportBytes(ctx, file, data)
}

// ImportBytes imports the recipes contained in an in-memory file; name decides
// how the content is read.
func (im *Importer) ImportBytes(ctx context.Context, name string, data []byte) (app.ImportReport, error) {
	var (
		drafts []recipe.Draft
		err    error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".markdown":
		drafts, err = im.extractor.ExtractRecipes(ctx, string(data))
	case ".html", ".htm":
		var page clipper.Page
		if page, err = im.clipper.ConvertString(string(data)); err == nil {
			drafts, err = im.extractor.ExtractRecipes(ctx, pageText(page))
		}
	case ".pdf":
		drafts, err = im.extractor.ExtractRecipesFromDocument(ctx, llm.Attachment{MIMEType: "application/pdf", Data: data})
	default:
		return app.ImportReport{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(name))
	}
	if err != nil {
		return app.ImportReport{}, fmt.Errorf("failed to extract recipes from %s: %w", name, err)
	}

	return im.store(ctx, name, drafts)
}

// ImportURL imports the recipes found on a web page.
func (im *Importer) ImportURL(ctx context.Context, url string) (app.ImportReport, error) {
	page, err := im.clipper.Fetch(ctx, url)
	if err != nil {
		return app.ImportReport{}, err
	}

	drafts, err := im.extractor.ExtractRecipes(ctx, pageText(page))
	if err != nil {
		return app.ImportReport{}, fmt.Errorf("failed to extract recipes from %s: %w", url, err)
	}
	return im.store(ctx, url, drafts)
}

// ImportGhost imports the recipes published on the configured Ghost blog.
// A non-empty tag limits the import to posts carrying it.
func (im *Importer) ImportGhost(ctx context.Context, tag string) (app.ImportReport, error) {
	if im.posts == nil {
		return app.ImportReport{}, ErrNoGhost
	}

	posts, err := im.posts.FetchPosts(ctx, tag)
	if err != nil {
		return app.ImportReport{}, fmt.Errorf("failed to fetch posts: %w", err)
	}
	im.logger.Info("fetched ghost posts", zap.Int("count", len(posts)))

	var report app.ImportReport
	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		page, err := im.clipper.ConvertString(p.HTML)
		if err == nil {
			page.Title = p.Title
			var drafts []recipe.Draft
			if drafts, err = im.extractor.ExtractRecipes(ctx, pageText(page)); err == nil {
				var r app.ImportReport
				r, err = im.store(ctx, p.Title, drafts)
				report.Merge(r)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			im.logger.Warn("failed to import post", zap.String("title", p.Title), zap.Error(err))
			report.Failures = append(report.Failures, app.ImportFailure{Source: p.URL, Name: p.Title, Err: err})
		}
	}
	return report, nil
}

func (im *Importer) store(ctx context.Context, source string, drafts []recipe.Draft) (app.ImportReport, error) {
	if len(drafts) == 0 {
		return app.ImportReport{}, fmt.Errorf("%w in %s", ErrNothingFound, source)
	}
	return im.sink.ImportDrafts(ctx, source, drafts)
}

func pageText(p clipper.Page) string {
	if p.Title == "" || strings.Contains(p.Markdown, p.Title) {
		return p.Markdown
	}
	return "# " + p.Title + "\n\n" + p.Markdown
}

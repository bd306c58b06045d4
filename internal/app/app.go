// Package app wires the termmeta components together: the SQLite backend,
// the request-aware MetaStore, the decorator, the admin form, and the
// taxonomy service, all connected through one hooks registry.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mesh-intelligence/termmeta/internal/admin"
	"github.com/mesh-intelligence/termmeta/internal/decorator"
	"github.com/mesh-intelligence/termmeta/internal/hooks"
	"github.com/mesh-intelligence/termmeta/internal/sqlite"
	"github.com/mesh-intelligence/termmeta/internal/taxonomy"
	"github.com/mesh-intelligence/termmeta/internal/termmeta"
	"github.com/mesh-intelligence/termmeta/pkg/types"
)

// Options configures Open.
type Options struct {
	Config       types.Config
	Taxonomies   []types.Taxonomy
	Layouts      []types.Layout
	CustomizeURL string
	Decorator    decorator.Config
	Logger       *slog.Logger
}

// App is an attached, fully wired termmeta instance.
type App struct {
	Backend   *sqlite.Backend
	Store     *termmeta.Store
	Decorator *decorator.Decorator
	Hooks     *hooks.Registry
	Form      *admin.Form
	Terms     *taxonomy.Service
	Logger    *slog.Logger
}

// Open attaches the backend and wires every component. Missing taxonomies,
// layouts, and decorator defaults fall back to the built-in ones.
func Open(opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	taxonomies := opts.Taxonomies
	if len(taxonomies) == 0 {
		taxonomies = types.DefaultTaxonomies()
	}
	decoratorCfg := opts.Decorator
	if decoratorCfg.Defaults == nil {
		decoratorCfg.Defaults = types.DefaultTermMeta()
	}

	backend := sqlite.NewBackend(sqlite.WithLogger(logger.With("component", "sqlite")))
	if err := backend.Attach(opts.Config); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	metaStore, err := backend.MetaStore()
	if err != nil {
		backend.Detach()
		return nil, err
	}
	termStore, err := backend.Terms()
	if err != nil {
		backend.Detach()
		return nil, err
	}

	reg := hooks.New()
	store := termmeta.NewStore(metaStore, logger.With("component", "termmeta"))
	dec := decorator.New(store, decoratorCfg, logger.With("component", "decorator"))
	reg.AddTermFilter(hooks.DefaultPriority, dec.Decorate)
	reg.AddTermsFilter(hooks.DefaultPriority, dec.DecorateMany)

	form := admin.New(store,
		admin.WithLayouts(opts.Layouts),
		admin.WithCustomizeURL(opts.CustomizeURL),
		admin.WithLogger(logger.With("component", "admin")),
	)
	form.Register(reg, taxonomies)

	return &App{
		Backend:   backend,
		Store:     store,
		Decorator: dec,
		Hooks:     reg,
		Form:      form,
		Terms:     taxonomy.New(termStore, reg, taxonomies, logger.With("component", "taxonomy")),
		Logger:    logger,
	}, nil
}

// Close detaches the backend.
func (a *App) Close() error {
	return a.Backend.Detach()
}

// Package admin renders the term metadata sections of the term edit
// screen and turns submitted edit forms into MetaStore writes.
package admin

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mesh-intelligence/termmeta/internal/formatting"
	"github.com/mesh-intelligence/termmeta/internal/hooks"
	"github.com/mesh-intelligence/termmeta/internal/request"
	"github.com/mesh-intelligence/termmeta/pkg/types"
)

// FormGroup is the key every term metadata input is posted under:
// term-meta[headline], term-meta[layout], and so on.
const FormGroup = "term-meta"

// DefaultCustomizeURL is where the default-layout label links to.
const DefaultCustomizeURL = "/admin/customize"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// FieldName returns the posted input name for field.
func FieldName(field string) string {
	return FormGroup + "[" + field + "]"
}

// Form renders the edit sections and handles term edit and delete events.
type Form struct {
	store        types.MetaStore
	layouts      []types.Layout
	customizeURL string
	logger       *slog.Logger
}

// Option configures a Form.
type Option func(*Form)

// WithLayouts sets the layouts offered by the layout selector.
func WithLayouts(layouts []types.Layout) Option {
	return func(f *Form) {
		if len(layouts) > 0 {
			f.layouts = append([]types.Layout(nil), layouts...)
		}
	}
}

// WithCustomizeURL sets the link target of the default-layout label.
func WithCustomizeURL(u string) Option {
	return func(f *Form) {
		if u != "" {
			f.customizeURL = u
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New returns a Form writing through store.
func New(store types.MetaStore, opts ...Option) *Form {
	f := &Form{
		store:        store,
		layouts:      types.DefaultLayouts(),
		customizeURL: DefaultCustomizeURL,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Layouts returns the layouts offered by the selector.
func (f *Form) Layouts() []types.Layout {
	return append([]types.Layout(nil), f.layouts...)
}

// Register adds both sections to the edit screen of every public taxonomy
// and subscribes the save and delete handlers.
func (f *Form) Register(reg *hooks.Registry, taxonomies []types.Taxonomy) {
	for _, tax := range taxonomies {
		if !tax.Public {
			continue
		}
		reg.AddEditSection(tax.Name, hooks.DefaultPriority, f.RenderArchiveOptions)
		reg.AddEditSection(tax.Name, hooks.DefaultPriority, f.RenderLayoutOptions)
	}
	reg.OnTermEdited(hooks.DefaultPriority, f.HandleEdit)
	reg.OnTermDeleted(hooks.DefaultPriority, f.HandleDelete)
}

type archiveData struct {
	Heading       string
	HeadlineName  string
	Headline      string
	IntroTextName string
	IntroText     string
}

// RenderArchiveOptions writes the headline and intro text inputs, filled
// from term.Meta.
func (f *Form) RenderArchiveOptions(w io.Writer, term *types.Term, taxonomy types.Taxonomy) error {
	data := archiveData{
		Heading:       taxonomy.Label() + " Archive Settings",
		HeadlineName:  FieldName(types.FieldHeadline),
		Headline:      metaValue(term, types.FieldHeadline),
		IntroTextName: FieldName(types.FieldIntroText),
		IntroText:     metaValue(term, types.FieldIntroText),
	}
	if err := templates.ExecuteTemplate(w, "archive_options", data); err != nil {
		return fmt.Errorf("rendering archive options: %w", err)
	}
	return nil
}

type layoutData struct {
	Name         string
	Selected     string
	CustomizeURL string
	Layouts      []types.Layout
}

// RenderLayoutOptions writes the layout radio selector, with the stored
// layout (or the default choice) checked.
func (f *Form) RenderLayoutOptions(w io.Writer, term *types.Term, _ types.Taxonomy) error {
	data := layoutData{
		Name:         FieldName(types.FieldLayout),
		Selected:     metaValue(term, types.FieldLayout),
		CustomizeURL: f.customizeURL,
		Layouts:      f.layouts,
	}
	if err := templates.ExecuteTemplate(w, "layout_options", data); err != nil {
		return fmt.Errorf("rendering layout options: %w", err)
	}
	return nil
}

// Submission extracts the term-meta[...] group from a posted form as a
// flat field map. Returns an empty map when nothing was posted. Fields
// posted more than once keep their first value.
func Submission(form url.Values) types.TermMeta {
	meta := types.TermMeta{}
	prefix := FormGroup + "["
	for key, values := range form {
		if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, "]") || len(values) == 0 {
			continue
		}
		field := key[len(prefix) : len(key)-1]
		if field == "" || strings.ContainsAny(field, "[]") {
			continue
		}
		meta[field] = values[0]
	}
	return meta
}

// HandleEdit saves the submitted fields for the edited term, replacing its
// stored entry. archive_description is sanitized first unless the acting
// user may post unfiltered HTML.
func (f *Form) HandleEdit(ctx context.Context, ev hooks.TermEvent) error {
	fields := Submission(ev.Form)
	if v, ok := fields[types.FieldArchiveDescription]; ok && !request.CanUnfilteredHTML(ctx) {
		fields[types.FieldArchiveDescription] = formatting.Kses(v)
		f.logger.Debug("sanitized archive description", "term_id", ev.TermID)
	}
	if err := f.store.Save(ctx, ev.TermID, fields); err != nil {
		return fmt.Errorf("saving meta for term %d: %w", ev.TermID, err)
	}
	return nil
}

// HandleDelete drops the stored entry of a deleted term.
func (f *Form) HandleDelete(ctx context.Context, ev hooks.TermEvent) error {
	if err := f.store.Delete(ctx, ev.TermID); err != nil {
		return fmt.Errorf("deleting meta for term %d: %w", ev.TermID, err)
	}
	return nil
}

func metaValue(term *types.Term, field string) string {
	if term == nil {
		return ""
	}
	return term.Meta[field]
}

package types

// Term metadata field names.
const (
	FieldHeadline  = "headline"
	FieldIntroText = "intro_text"
	FieldLayout    = "layout"

	// Legacy fields. They are still persisted and defaulted so stored
	// tables stay compatible, but nothing in termmeta reads them.
	FieldDisplayTitle       = "display_title"
	FieldDisplayDescription = "display_description"

	// FieldArchiveDescription is only ever sanitized on save; no form emits it.
	FieldArchiveDescription = "archive_description"
)

// TermMeta maps a field name to its stored value.
type TermMeta map[string]string

// MetaTable maps a term ID to its stored TermMeta. A term missing from
// the table decorates exactly like one stored with the default TermMeta.
type MetaTable map[int64]TermMeta

// DefaultTermMeta returns a fresh copy of the built-in defaults.
func DefaultTermMeta() TermMeta {
	return TermMeta{
		FieldHeadline:           "",
		FieldIntroText:          "",
		FieldDisplayTitle:       "0",
		FieldDisplayDescription: "0",
		FieldLayout:             "",
	}
}

// Clone returns a shallow copy. Cloning nil yields an empty, non-nil map.
func (m TermMeta) Clone() TermMeta {
	out := make(TermMeta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Term is a taxonomy classification entity such as a category or tag.
type Term struct {
	ID             int64    `json:"term_id"`
	TermTaxonomyID int64    `json:"term_taxonomy_id"`
	Taxonomy       string   `json:"taxonomy"`
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	Description    string   `json:"description,omitempty"`
	Meta           TermMeta `json:"meta,omitempty"`
}

// Taxonomy describes a registered taxonomy.
type Taxonomy struct {
	Name          string `json:"name" yaml:"name" mapstructure:"name"`
	SingularLabel string `json:"singular_label" yaml:"singular_label" mapstructure:"singular_label"`
	Public        bool   `json:"public" yaml:"public" mapstructure:"public"`
}

// Label returns the singular label, falling back to the taxonomy name.
func (t Taxonomy) Label() string {
	if t.SingularLabel != "" {
		return t.SingularLabel
	}
	return t.Name
}

// Layout is one choice offered by the term layout selector.
type Layout struct {
	ID    string `json:"id" yaml:"id" mapstructure:"id"`
	Label string `json:"label" yaml:"label" mapstructure:"label"`
}

// DefaultLayouts lists the site layouts offered when none are configured.
func DefaultLayouts() []Layout {
	return []Layout{
		{ID: "content-sidebar", Label: "Content, Primary Sidebar"},
		{ID: "sidebar-content", Label: "Primary Sidebar, Content"},
		{ID: "full-width-content", Label: "Full Width Content"},
	}
}

// DefaultTaxonomies lists the taxonomies registered when none are configured.
func DefaultTaxonomies() []Taxonomy {
	return []Taxonomy{
		{Name: "category", SingularLabel: "Category", Public: true},
		{Name: "post_tag", SingularLabel: "Tag", Public: true},
	}
}

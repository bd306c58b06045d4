package types

import "errors"

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Storage selects the MetaStore layout: one row per term or a single
	// serialized table under OptionKey.
	Storage   string `json:"storage" yaml:"storage"`
	OptionKey string `json:"option_key" yaml:"option_key"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Supported storage layouts.
const (
	StorageRows = "rows"
	StorageBlob = "blob"
)

// DefaultOptionKey names the option that holds the serialized table in
// blob storage and the legacy table that MigrateLegacy reads.
const DefaultOptionKey = "term-meta"

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrStorageUnknown = errors.New("unknown storage layout")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

var knownStorage = map[string]bool{
	"":          true,
	StorageRows: true,
	StorageBlob: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if !knownStorage[c.Storage] {
		return ErrStorageUnknown
	}
	return nil
}

// GetStorage returns the effective storage layout, defaulting to rows.
func (c Config) GetStorage() string {
	if c.Storage == "" {
		return StorageRows
	}
	return c.Storage
}

// GetOptionKey returns the effective option key.
func (c Config) GetOptionKey() string {
	if c.OptionKey == "" {
		return DefaultOptionKey
	}
	return c.OptionKey
}

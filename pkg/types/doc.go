// Package types defines the term, taxonomy, and metadata types shared by
// every termmeta component, the MetaStore and Backend interfaces, and the
// standard errors returned by the storage backends.
package types

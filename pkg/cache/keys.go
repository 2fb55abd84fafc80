package cache

import "fmt"

// Keyer builds cache keys for pipeline stages.
type Keyer interface {
	// ExportKey identifies a hydrated export of a document.
	ExportKey(docHash string, opts ExportKeyOpts) string

	// RenderKey identifies a rendered artifact of a document.
	RenderKey(docHash string, opts RenderKeyOpts) string
}

// ExportKeyOpts are the options that change an export.
type ExportKeyOpts struct {
	SchemaID string `json:"schema"`
	Class    string `json:"class"`
	Depth    int    `json:"depth"`
	Inline   bool   `json:"inline"`
	Format   string `json:"format"`
}

// RenderKeyOpts are the options that change a rendered artifact.
type RenderKeyOpts struct {
	SchemaID string `json:"schema"`
	Class    string `json:"class"`
	Format   string `json:"format"`
	Layout   string `json:"layout"`
	Hidden   bool   `json:"hidden"`
}

// DefaultKeyer hashes the options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ExportKey returns "export:<hash>".
func (k *DefaultKeyer) ExportKey(docHash string, opts ExportKeyOpts) string {
	return hashKey("export", docHash, opts)
}

// RenderKey returns "render:<format>:<hash>".
func (k *DefaultKeyer) RenderKey(docHash string, opts RenderKeyOpts) string {
	return hashKey(fmt.Sprintf("render:%s", opts.Format), docHash, opts)
}

var _ Keyer = (*DefaultKeyer)(nil)

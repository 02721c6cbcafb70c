package models

// SourceDocument identifies one input PDF.
type SourceDocument struct {
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Filename string `json:"filename" yaml:"filename"`
	Content  []byte `json:"-" yaml:"-"` // in-memory uploads only
}

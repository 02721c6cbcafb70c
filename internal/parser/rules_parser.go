package parser

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// docTypeFile is the YAML layout of a doc type mapping file:
//
//	doc_types:
//	  - keyword: Temp Noteholder Statement
//	    code: Temp_NoteHolderStatement
type docTypeFile struct {
	DocTypes []DocTypeRule `yaml:"doc_types"`
}

// LoadDocTypeMapping reads a YAML doc type mapping file.
func LoadDocTypeMapping(filePath string) (*DocTypeMapping, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseDocTypeMappingFromReader(file)
}

// ParseDocTypeMappingFromReader parses a doc type mapping from an io.Reader.
// Rule order in the file is the match order.
func ParseDocTypeMappingFromReader(r io.Reader) (*DocTypeMapping, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var f docTypeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse doc type mapping: %w", err)
	}
	if len(f.DocTypes) == 0 {
		return nil, fmt.Errorf("doc type mapping has no doc_types entries")
	}

	return NewDocTypeMapping(f.DocTypes)
}

package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"rpa-assistant/internal/common/validation"
)

//go:embed schema.json
var schemaJSON string

var fileSchema = validation.MustCompile(schemaJSON)

// File is the on-disk catalog document.
type File struct {
	Intents []Definition `yaml:"intents"`
}

// LoadFile reads a YAML or JSON catalog, checks it against the catalog schema
// and builds it. Queries are taken verbatim, so a file is written for the
// dialect of the store it will run against. Changing the file changes what the assistant answers without
// touching the resolver, executor or formatter.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse builds a catalog from a YAML document. JSON documents parse as YAML.
func Parse(data []byte) (*Catalog, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return New(f.Intents...)
}

func validateDocument(doc interface{}) error {
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidCatalog)
	}
	if result := fileSchema.Validate(doc); !result.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidCatalog, result.Error())
	}
	return nil
}

// Package snapshot serializes the expert registry to and from its JSON
// persistence format. Incoming documents are validated against a JSON
// schema before any record is applied, so a malformed file never leaves
// the registry half-imported.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/kaptinlin/jsonschema"

	"ghst-moe/internal/domain"
	"ghst-moe/internal/usecase"
)

// Document is the on-disk registry snapshot format. Field names are the
// persistence contract; the ordered experts list is sufficient to
// reconstruct the registry.
type Document struct {
	Version int                     `json:"version"`
	Experts []domain.ExpertMetadata `json:"experts"`
}

// FormatVersion is the current snapshot document version.
const FormatVersion = 1

const documentSchema = `{
	"type": "object",
	"required": ["experts"],
	"properties": {
		"version": {"type": "integer", "minimum": 1},
		"experts": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["expert_id", "name", "domain"],
				"properties": {
					"expert_id": {"type": "string", "minLength": 1},
					"name": {"type": "string"},
					"domain": {"type": "string"},
					"expertise": {"type": "string"},
					"specialization": {"type": "string"},
					"keywords": {"type": "array", "items": {"type": "string"}},
					"enabled": {"type": "boolean"},
					"version": {"type": "string"},
					"description": {"type": "string"},
					"fragments_path": {"type": "string"},
					"model_path": {"type": "string"}
				}
			}
		}
	}
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.NewCompiler().Compile([]byte(documentSchema))
	})
	return schema, schemaErr
}

// Encode marshals the registry export into an indented JSON document.
func Encode(records []domain.ExpertMetadata) ([]byte, error) {
	doc := Document{Version: FormatVersion, Experts: records}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, domain.WrapOp("snapshot.Encode", err)
	}
	return data, nil
}

// Decode validates data against the snapshot schema and unmarshals it.
func Decode(data []byte) (*Document, error) {
	s, err := compiledSchema()
	if err != nil {
		return nil, domain.WrapOp("snapshot.Decode", err)
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, domain.NewDomainError("snapshot.Decode", domain.ErrSnapshotInvalid, err.Error())
	}
	result := s.Validate(parsed)
	if !result.IsValid() {
		return nil, domain.NewDomainError("snapshot.Decode", domain.ErrSnapshotInvalid, fmt.Sprintf("%s", result.Error()))
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, domain.NewDomainError("snapshot.Decode", domain.ErrSnapshotInvalid, err.Error())
	}
	return &doc, nil
}

// ExportFile writes the registry export to path.
func ExportFile(registry *usecase.Registry, path string) error {
	data, err := Encode(registry.Export())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return domain.WrapOp("snapshot.ExportFile", err)
	}
	return nil
}

// ImportFile reads, validates and merges the snapshot at path into the
// registry (last-write-wins upsert). With replace true the current
// catalog is discarded first.
func ImportFile(registry *usecase.Registry, path string, replace bool) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, domain.WrapOp("snapshot.ImportFile", err)
	}
	doc, err := Decode(data)
	if err != nil {
		return 0, err
	}
	if replace {
		if err := registry.ImportReplace(doc.Experts); err != nil {
			return 0, err
		}
	} else {
		if err := registry.Import(doc.Experts); err != nil {
			return 0, err
		}
	}
	return len(doc.Experts), nil
}

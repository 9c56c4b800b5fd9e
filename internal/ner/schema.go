package ner

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const entitiesSchema = `{
  "type": "object",
  "required": ["entities"],
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text", "label"],
        "properties": {
          "text":  {"type": "string"},
          "label": {"type": "string"}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("entities.json", strings.NewReader(entitiesSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("entities.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// parseEntities validates a model answer and returns the entities with known labels.
func parseEntities(data []byte) ([]Entity, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal answer: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("answer does not match schema: %w", err)
	}

	var answer struct {
		Entities []Entity `json:"entities"`
	}
	if err := json.Unmarshal(data, &answer); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}

	out := make([]Entity, 0, len(answer.Entities))
	for _, e := range answer.Entities {
		label := strings.ToUpper(strings.TrimSpace(e.Label))
		text := strings.TrimSpace(e.Text)
		if text == "" || !KnownLabel(label) {
			continue
		}
		out = append(out, Entity{Text: text, Label: label})
	}
	return out, nil
}

package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

const schemaURL = "https://forge.invalid/knowledge.schema.json"

//go:embed knowledge.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func knowledgeSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse knowledge schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add knowledge schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// validateDocument checks a YAML knowledge document against the embedded schema.
// The YAML is round-tripped through JSON so the validator sees plain JSON values.
func validateDocument(name string, data []byte) error {
	sch, err := knowledgeSchema()
	if err != nil {
		return err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrConfiguration, name, err)
	}
	js, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %s is not representable as JSON: %v", ErrConfiguration, name, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfiguration, name, err)
	}

	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfiguration, name, err)
	}
	return nil
}

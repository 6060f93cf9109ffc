package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/card_attributes.schema.json
var cardAttributesSchemaJSON []byte

// AttributeValidator checks card attribute documents against the embedded JSON Schema
// before they reach the database. The schema is compiled lazily on first use and cached.
type AttributeValidator struct {
	once     sync.Once
	compiled *jsonschema.Schema
	initErr  error
}

// NewAttributeValidator returns a validator with an uncompiled schema.
func NewAttributeValidator() *AttributeValidator {
	return &AttributeValidator{}
}

// Validate ensures the payload is a JSON object conforming to the card attributes
// schema. An empty payload is allowed; attributes are optional on a card.
func (v *AttributeValidator) Validate(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}

	compiled, err := v.schema()
	if err != nil {
		return err
	}

	var document any
	if err := json.Unmarshal(payload, &document); err != nil {
		return fmt.Errorf("decode attributes: %w", err)
	}

	if err := compiled.Validate(document); err != nil {
		return fmt.Errorf("attributes validation: %w", err)
	}

	return nil
}

func (v *AttributeValidator) schema() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		const id = "memory://schemas/card_attributes.schema.json"

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(id, bytes.NewReader(cardAttributesSchemaJSON)); err != nil {
			v.initErr = fmt.Errorf("register card attributes schema: %w", err)
			return
		}

		compiled, err := compiler.Compile(id)
		if err != nil {
			v.initErr = fmt.Errorf("compile card attributes schema: %w", err)
			return
		}

		v.compiled = compiled
	})

	return v.compiled, v.initErr
}
